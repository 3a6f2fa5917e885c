package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

const (
	sheetFicha      = "Ficha"
	sheetMovements  = "Movimentações"
	sheetRejections = "Reprovações"

	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
)

// FichaReader loads a hydrated ficha
type FichaReader interface {
	Get(ctx context.Context, id int64) (*entity.FichaDetail, error)
}

// ReportService renders fichas to spreadsheets
type ReportService interface {
	RenderXLSX(ctx context.Context, fichaID int64) ([]byte, error)
}

type reportServiceImpl struct {
	catalog *domainwf.Catalog
	fichas  FichaReader
	logger  Logger
}

// NewReportService creates a new ReportService
func NewReportService(catalog *domainwf.Catalog, fichas FichaReader, logger Logger) ReportService {
	return &reportServiceImpl{
		catalog: catalog,
		fichas:  fichas,
		logger:  logger,
	}
}

// RenderXLSX writes the ficha header, measurements, ledger and rejections to a workbook
func (s *reportServiceImpl) RenderXLSX(ctx context.Context, fichaID int64) ([]byte, error) {
	detail, err := s.fichas.Get(ctx, fichaID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetFicha); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetMovements, sheetRejections} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	w := &sheetWriter{file: f, bold: bold}
	s.writeFicha(w, detail)
	s.writeMovements(w, detail.Movements)
	s.writeRejections(w, detail.Rejections)
	if w.err != nil {
		s.logger.Error("Failed to render report", "ficha_id", fichaID, "error", w.err)
		return nil, domainwf.StorageError("render_report", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("Failed to write workbook", "ficha_id", fichaID, "error", err)
		return nil, domainwf.StorageError("render_report", err)
	}

	s.logger.Info("Report rendered", "ficha_id", fichaID, "code", detail.Code, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *reportServiceImpl) writeFicha(w *sheetWriter, d *entity.FichaDetail) {
	status := statusLabel(d.Status)
	if d.IsOverdue {
		status += " (atrasada)"
	}
	approval := ""
	if d.ApprovalDate != nil {
		approval = d.ApprovalDate.Format(dateLayout)
	}

	rows := [][]interface{}{
		{"Código", d.Code},
		{"Projetista", d.Designer},
		{"Código da peça", d.PartCode},
		{"Cliente", d.Customer},
		{"Descrição", d.PartDescription},
		{"Quantidade de amostras", d.SampleQuantity},
		{"Prazo", d.Deadline.Format(dateLayout)},
		{"Norma", d.Standard},
		{"Processo de moldagem", d.MoldingProcess},
		{"Usinagem", yesNo(d.HasMachining)},
		{"Pintura", yesNo(d.HasPainting)},
		{"Etapa atual", s.catalog.DisplayName(d.CurrentStage)},
		{"Situação", status},
		{"Reprovações", d.RejectionCount},
		{"Data de aprovação", approval},
	}
	for i, row := range rows {
		w.row(sheetFicha, i+1, row...)
		w.boldCell(sheetFicha, 1, i+1)
	}

	start := len(rows) + 2
	w.row(sheetFicha, start, "Medida", "Estimado", "Obtido")
	w.boldRow(sheetFicha, start, 3)
	measures := [][]interface{}{
		{"Material", d.Estimated.Material, d.Obtained.Material},
		{"Peso da peça (kg)", floatCell(d.Estimated.PieceWeight), floatCell(d.Obtained.PieceWeight)},
		{"Peso do molde (kg)", floatCell(d.Estimated.MoldWeight), floatCell(d.Obtained.MoldWeight)},
		{"Peso da árvore (kg)", floatCell(d.Estimated.TreeWeight), floatCell(d.Obtained.TreeWeight)},
		{"Peças por molde", intCell(d.Estimated.PiecesPerMold), intCell(d.Obtained.PiecesPerMold)},
		{"Moldes por árvore", intCell(d.Estimated.TreeMoldCount), intCell(d.Obtained.TreeMoldCount)},
		{"RAM", floatCell(d.EstimatedRatios.RAM), floatCell(d.ObtainedRatios.RAM)},
		{"RM (%)", floatCell(d.EstimatedRatios.RM), floatCell(d.ObtainedRatios.RM)},
	}
	for i, row := range measures {
		w.row(sheetFicha, start+1+i, row...)
	}
	w.colWidth(sheetFicha, "A", "A", 26)
	w.colWidth(sheetFicha, "B", "C", 22)
}

func (s *reportServiceImpl) writeMovements(w *sheetWriter, movements []entity.Movement) {
	w.row(sheetMovements, 1, "Data", "De", "Para", "Usuário", "Observação")
	w.boldRow(sheetMovements, 1, 5)
	for i, m := range movements {
		w.row(sheetMovements, i+2,
			m.Timestamp.Format(dateTimeLayout),
			s.catalog.DisplayName(m.FromStage),
			s.catalog.DisplayName(m.ToStage),
			m.ActorID,
			m.Note,
		)
	}
	w.colWidth(sheetMovements, "A", "D", 20)
	w.colWidth(sheetMovements, "E", "E", 50)
}

func (s *reportServiceImpl) writeRejections(w *sheetWriter, rejections []entity.Rejection) {
	w.row(sheetRejections, 1, "Data", "Etapa", "Retorno", "Motivo", "Descrição", "Usuário", "Imagens")
	w.boldRow(sheetRejections, 1, 7)
	for i, r := range rejections {
		images := make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			name := img.OriginalName
			if name == "" {
				name = img.Path
			}
			images = append(images, name)
		}
		returnStage := ""
		if r.ReturnStage != "" {
			returnStage = s.catalog.DisplayName(r.ReturnStage)
		}
		w.row(sheetRejections, i+2,
			r.Timestamp.Format(dateTimeLayout),
			s.catalog.DisplayName(r.StageAtRejection),
			returnStage,
			r.ReasonCode,
			r.Description,
			r.ActorID,
			strings.Join(images, ", "),
		)
	}
	w.colWidth(sheetRejections, "A", "D", 20)
	w.colWidth(sheetRejections, "E", "E", 50)
	w.colWidth(sheetRejections, "G", "G", 40)
}

// sheetWriter keeps the first error so rendering reads as a flat sequence
type sheetWriter struct {
	file *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, row int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.file.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) boldCell(sheet string, col, row int) {
	w.boldRange(sheet, col, row, col, row)
}

func (w *sheetWriter) boldRow(sheet string, row, cols int) {
	w.boldRange(sheet, 1, row, cols, row)
}

func (w *sheetWriter) boldRange(sheet string, c1, r1, c2, r2 int) {
	if w.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		w.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.file.SetCellStyle(sheet, from, to, w.bold)
}

func (w *sheetWriter) colWidth(sheet, from, to string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.file.SetColWidth(sheet, from, to, width)
}

func statusLabel(s domainwf.Status) string {
	switch s {
	case domainwf.StatusApproved:
		return "Aprovada"
	case domainwf.StatusRejectedFinal:
		return "Reprovada"
	default:
		return "Em andamento"
	}
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return math.Round(*v*100) / 100
}

func intCell(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
