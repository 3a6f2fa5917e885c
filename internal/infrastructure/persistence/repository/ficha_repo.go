package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
)

const fichaColumns = `id, code, designer, part_code, customer, part_description,
	sample_quantity, deadline, standard, molding_process, has_machining, has_painting,
	est_material, est_piece_weight, est_mold_weight, est_tree_weight, est_pieces_per_mold, est_tree_mold_count,
	obt_material, obt_piece_weight, obt_mold_weight, obt_tree_weight, obt_pieces_per_mold, obt_tree_mold_count,
	est_ram, est_rm, obt_ram, obt_rm,
	current_stage, status, is_overdue, rejection_count, approval_date, stage_data,
	created_by, version, created_at, updated_at`

// FichaRepository implements port.FichaRepository
type FichaRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFichaRepository creates a new ficha repository
func NewFichaRepository(db *sql.DB, logger *zap.Logger) *FichaRepository {
	return &FichaRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a ficha with version 1
func (r *FichaRepository) Create(ctx context.Context, f *entity.Ficha) error {
	stageData, err := encodeStageData(f.StageData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fichas (
			code, designer, part_code, customer, part_description,
			sample_quantity, deadline, standard, molding_process, has_machining, has_painting,
			est_material, est_piece_weight, est_mold_weight, est_tree_weight, est_pieces_per_mold, est_tree_mold_count,
			obt_material, obt_piece_weight, obt_mold_weight, obt_tree_weight, obt_pieces_per_mold, obt_tree_mold_count,
			est_ram, est_rm, obt_ram, obt_rm,
			current_stage, status, is_overdue, rejection_count, approval_date, stage_data,
			created_by, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		f.Code, f.Designer, f.PartCode, f.Customer, f.PartDescription,
		f.SampleQuantity, sqlite.FormatTime(f.Deadline), f.Standard, f.MoldingProcess, f.HasMachining, f.HasPainting,
		f.Estimated.Material, nullFloat(f.Estimated.PieceWeight), nullFloat(f.Estimated.MoldWeight), nullFloat(f.Estimated.TreeWeight),
		nullInt(f.Estimated.PiecesPerMold), nullInt(f.Estimated.TreeMoldCount),
		f.Obtained.Material, nullFloat(f.Obtained.PieceWeight), nullFloat(f.Obtained.MoldWeight), nullFloat(f.Obtained.TreeWeight),
		nullInt(f.Obtained.PiecesPerMold), nullInt(f.Obtained.TreeMoldCount),
		nullFloat(f.EstimatedRatios.RAM), nullFloat(f.EstimatedRatios.RM), nullFloat(f.ObtainedRatios.RAM), nullFloat(f.ObtainedRatios.RM),
		f.CurrentStage, f.Status, f.IsOverdue, f.RejectionCount, sqlite.FormatTimePtr(f.ApprovalDate), stageData,
		f.CreatedBy, sqlite.FormatTime(f.CreatedAt), sqlite.FormatTime(f.UpdatedAt),
	)
	if err != nil {
		// unique violations are expected under concurrent code generation
		if sqlite.IsUniqueViolation(err) {
			return fmt.Errorf("%w: ficha code %s: %w", port.ErrDuplicateKey, f.Code, err)
		}
		r.logger.Error("Failed to create ficha", zap.String("code", f.Code), zap.Error(err))
		return fmt.Errorf("failed to create ficha: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	f.ID = id
	f.Version = 1
	return nil
}

// GetByID retrieves a ficha by ID
func (r *FichaRepository) GetByID(ctx context.Context, id int64) (*entity.Ficha, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, "SELECT "+fichaColumns+" FROM fichas WHERE id = ?", id)
	f, err := scanFicha(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ficha by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get ficha: %w", err)
	}
	return f, nil
}

// GetByCode retrieves a ficha by its human readable code
func (r *FichaRepository) GetByCode(ctx context.Context, code string) (*entity.Ficha, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, "SELECT "+fichaColumns+" FROM fichas WHERE code = ?", code)
	f, err := scanFicha(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ficha by code", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get ficha: %w", err)
	}
	return f, nil
}

// MaxCodeSuffix returns the highest numeric suffix among codes starting with prefix
func (r *FichaRepository) MaxCodeSuffix(ctx context.Context, prefix string) (int, error) {
	query := `SELECT MAX(CAST(SUBSTR(code, ?) AS INTEGER)) FROM fichas WHERE code LIKE ? ESCAPE '\'`

	var max sql.NullInt64
	err := executor(ctx, r.db).QueryRowContext(ctx, query, len(prefix)+1, escapeLike(prefix)+"%").Scan(&max)
	if err != nil {
		r.logger.Error("Failed to scan code suffix", zap.String("prefix", prefix), zap.Error(err))
		return 0, fmt.Errorf("failed to scan code suffix: %w", err)
	}
	return int(max.Int64), nil
}

// UpdateWorkflowState writes the workflow columns under an optimistic version check
func (r *FichaRepository) UpdateWorkflowState(ctx context.Context, f *entity.Ficha, expectedVersion int64) error {
	stageData, err := encodeStageData(f.StageData)
	if err != nil {
		return err
	}

	query := `
		UPDATE fichas
		SET current_stage = ?, status = ?, is_overdue = ?, rejection_count = ?,
			approval_date = ?, stage_data = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		f.CurrentStage, f.Status, f.IsOverdue, f.RejectionCount,
		sqlite.FormatTimePtr(f.ApprovalDate), stageData, sqlite.FormatTime(f.UpdatedAt),
		f.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update ficha workflow state",
			zap.Int64("id", f.ID),
			zap.String("stage", f.CurrentStage.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update ficha workflow state: %w", err)
	}

	return r.checkVersioned(result, f, expectedVersion)
}

// UpdateDetails writes header, measurement and ratio columns under an optimistic version check
func (r *FichaRepository) UpdateDetails(ctx context.Context, f *entity.Ficha, expectedVersion int64) error {
	query := `
		UPDATE fichas
		SET designer = ?, part_code = ?, customer = ?, part_description = ?,
			sample_quantity = ?, deadline = ?, standard = ?, molding_process = ?,
			has_machining = ?, has_painting = ?,
			est_material = ?, est_piece_weight = ?, est_mold_weight = ?, est_tree_weight = ?,
			est_pieces_per_mold = ?, est_tree_mold_count = ?,
			obt_material = ?, obt_piece_weight = ?, obt_mold_weight = ?, obt_tree_weight = ?,
			obt_pieces_per_mold = ?, obt_tree_mold_count = ?,
			est_ram = ?, est_rm = ?, obt_ram = ?, obt_rm = ?,
			is_overdue = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		f.Designer, f.PartCode, f.Customer, f.PartDescription,
		f.SampleQuantity, sqlite.FormatTime(f.Deadline), f.Standard, f.MoldingProcess,
		f.HasMachining, f.HasPainting,
		f.Estimated.Material, nullFloat(f.Estimated.PieceWeight), nullFloat(f.Estimated.MoldWeight), nullFloat(f.Estimated.TreeWeight),
		nullInt(f.Estimated.PiecesPerMold), nullInt(f.Estimated.TreeMoldCount),
		f.Obtained.Material, nullFloat(f.Obtained.PieceWeight), nullFloat(f.Obtained.MoldWeight), nullFloat(f.Obtained.TreeWeight),
		nullInt(f.Obtained.PiecesPerMold), nullInt(f.Obtained.TreeMoldCount),
		nullFloat(f.EstimatedRatios.RAM), nullFloat(f.EstimatedRatios.RM), nullFloat(f.ObtainedRatios.RAM), nullFloat(f.ObtainedRatios.RM),
		f.IsOverdue, sqlite.FormatTime(f.UpdatedAt),
		f.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update ficha details", zap.Int64("id", f.ID), zap.Error(err))
		return fmt.Errorf("failed to update ficha details: %w", err)
	}

	return r.checkVersioned(result, f, expectedVersion)
}

func (r *FichaRepository) checkVersioned(result sql.Result, f *entity.Ficha, expectedVersion int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		r.logger.Info("Optimistic lock conflict",
			zap.Int64("id", f.ID),
			zap.Int64("expected_version", expectedVersion))
		return fmt.Errorf("%w: ficha %d version %d", workflow.ErrConcurrentModification, f.ID, expectedVersion)
	}
	f.Version = expectedVersion + 1
	return nil
}

// Delete removes a ficha; movements, rejections and children cascade
func (r *FichaRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, "DELETE FROM fichas WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete ficha", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete ficha: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: ficha %d", workflow.ErrNotFound, id)
	}
	return nil
}

// List returns fichas matching filter, overdue first then by deadline
func (r *FichaRepository) List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.Stage != "" {
		where = append(where, "current_stage = ?")
		args = append(args, filter.Stage)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Overdue != nil {
		where = append(where, "is_overdue = ?")
		args = append(args, *filter.Overdue)
	}
	if filter.Rejected {
		where = append(where, "rejection_count > 0")
	}
	if filter.Designer != "" {
		where = append(where, `designer LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Designer)+"%")
	}
	if filter.Material != "" {
		where = append(where, `(est_material LIKE ? ESCAPE '\' OR obt_material LIKE ? ESCAPE '\')`)
		m := "%" + escapeLike(filter.Material) + "%"
		args = append(args, m, m)
	}
	if filter.CreatedAt != nil {
		where = append(where, "created_at >= ?")
		args = append(args, sqlite.FormatTime(*filter.CreatedAt))
	}

	query := "SELECT " + fichaColumns + " FROM fichas"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY is_overdue DESC, deadline ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list fichas", zap.Error(err))
		return nil, fmt.Errorf("failed to list fichas: %w", err)
	}
	defer rows.Close()

	var fichas []*entity.Ficha
	for rows.Next() {
		f, err := scanFicha(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ficha: %w", err)
		}
		fichas = append(fichas, f)
	}
	return fichas, rows.Err()
}

// MarkOverdue flags late in-progress fichas and returns their ids. The
// version is left alone so the sweep never conflicts with workflow writes.
func (r *FichaRepository) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		UPDATE fichas
		SET is_overdue = 1, updated_at = ?
		WHERE status = ? AND is_overdue = 0 AND deadline < ?
		RETURNING id
	`

	ts := sqlite.FormatTime(now)
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, ts, workflow.StatusInProgress, ts)
	if err != nil {
		r.logger.Error("Failed to mark overdue fichas", zap.Error(err))
		return nil, fmt.Errorf("failed to mark overdue fichas: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanFicha(s scanner) (*entity.Ficha, error) {
	var (
		f                              entity.Ficha
		estPiece, estMold, estTree     sql.NullFloat64
		obtPiece, obtMold, obtTree     sql.NullFloat64
		estPPM, estTMC, obtPPM, obtTMC sql.NullInt64
		estRAM, estRM, obtRAM, obtRM   sql.NullFloat64
		approvalDate                   sql.NullTime
		stageData                      string
	)

	err := s.Scan(
		&f.ID, &f.Code, &f.Designer, &f.PartCode, &f.Customer, &f.PartDescription,
		&f.SampleQuantity, &f.Deadline, &f.Standard, &f.MoldingProcess, &f.HasMachining, &f.HasPainting,
		&f.Estimated.Material, &estPiece, &estMold, &estTree, &estPPM, &estTMC,
		&f.Obtained.Material, &obtPiece, &obtMold, &obtTree, &obtPPM, &obtTMC,
		&estRAM, &estRM, &obtRAM, &obtRM,
		&f.CurrentStage, &f.Status, &f.IsOverdue, &f.RejectionCount, &approvalDate, &stageData,
		&f.CreatedBy, &f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.Estimated.PieceWeight = floatPtr(estPiece)
	f.Estimated.MoldWeight = floatPtr(estMold)
	f.Estimated.TreeWeight = floatPtr(estTree)
	f.Estimated.PiecesPerMold = intPtr(estPPM)
	f.Estimated.TreeMoldCount = intPtr(estTMC)
	f.Obtained.PieceWeight = floatPtr(obtPiece)
	f.Obtained.MoldWeight = floatPtr(obtMold)
	f.Obtained.TreeWeight = floatPtr(obtTree)
	f.Obtained.PiecesPerMold = intPtr(obtPPM)
	f.Obtained.TreeMoldCount = intPtr(obtTMC)
	f.EstimatedRatios.RAM = floatPtr(estRAM)
	f.EstimatedRatios.RM = floatPtr(estRM)
	f.ObtainedRatios.RAM = floatPtr(obtRAM)
	f.ObtainedRatios.RM = floatPtr(obtRM)
	f.ApprovalDate = timePtr(approvalDate)
	f.Deadline = f.Deadline.UTC()
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()

	if stageData != "" && stageData != "{}" {
		if err := json.Unmarshal([]byte(stageData), &f.StageData); err != nil {
			return nil, fmt.Errorf("failed to decode stage data: %w", err)
		}
	}
	return &f, nil
}

func encodeStageData(data map[workflow.StageKey]json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode stage data: %w", err)
	}
	return string(b), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Verify interface compliance
var _ port.FichaRepository = (*FichaRepository)(nil)
