package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/foundry-fichas/internal/application/service"
	"github.com/garyjia/foundry-fichas/internal/application/workflow"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListFichasRequest represents query parameters for listing fichas
type ListFichasRequest struct {
	Stage    string `form:"stage"`
	Status   string `form:"status"`
	Overdue  *bool  `form:"overdue"`
	Designer string `form:"designer"`
	Material string `form:"material"`
	Limit    int    `form:"limit"`
}

// MoveRequest is the body of POST /api/fichas/:id/move
type MoveRequest struct {
	TargetStage string          `json:"target_stage" binding:"required"`
	Note        string          `json:"note"`
	RealData    json.RawMessage `json:"real_data"`
}

// RealDataRequest is the body of PUT /api/fichas/:id/real-data
type RealDataRequest struct {
	Stage string          `json:"stage" binding:"required"`
	Data  json.RawMessage `json:"data" binding:"required"`
}

// RejectRequest is the body of POST /api/fichas/:id/reject
type RejectRequest struct {
	ReasonCode  string `json:"reason_code"`
	Description string `json:"description"`
	ReturnStage string `json:"return_stage"`
}

// RejectFinalRequest is the body of POST /api/fichas/:id/reject-final
type RejectFinalRequest struct {
	Note string `json:"note"`
}

// RejectResponse carries the updated ficha and the recorded rejection
type RejectResponse struct {
	Ficha     *entity.Ficha     `json:"ficha"`
	Rejection *entity.Rejection `json:"rejection"`
}

// ListFichas handles GET /api/fichas
func (h *Handlers) ListFichas(c *gin.Context) {
	var req ListFichasRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	filter := entity.FichaFilter{
		Stage:    domainwf.StageKey(req.Stage),
		Status:   domainwf.Status(req.Status),
		Overdue:  req.Overdue,
		Designer: req.Designer,
		Material: req.Material,
		Limit:    clampLimit(req.Limit),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		badRequest(c, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	fichas, err := h.services.Fichas.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list_fichas", err)
		return
	}
	ok(c, fichas)
}

// CreateFicha handles POST /api/fichas
func (h *Handlers) CreateFicha(c *gin.Context) {
	var input service.FichaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	input.Designer = utils.SanitizeLine(input.Designer)

	detail, err := h.services.Fichas.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		h.respondError(c, "create_ficha", err)
		return
	}
	created(c, detail)
}

// GetFicha handles GET /api/fichas/:id
func (h *Handlers) GetFicha(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	detail, err := h.services.Fichas.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get_ficha", err)
		return
	}
	ok(c, detail)
}

// GetFichaByCode handles GET /api/fichas/code/:code
func (h *Handlers) GetFichaByCode(c *gin.Context) {
	detail, err := h.services.Fichas.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, "get_ficha_by_code", err)
		return
	}
	ok(c, detail)
}

// UpdateFicha handles PUT /api/fichas/:id
func (h *Handlers) UpdateFicha(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var patch service.FichaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if patch.Designer != nil {
		designer := utils.SanitizeLine(*patch.Designer)
		patch.Designer = &designer
	}

	detail, err := h.services.Fichas.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, "update_ficha", err)
		return
	}
	ok(c, detail)
}

// DeleteFicha handles DELETE /api/fichas/:id
func (h *Handlers) DeleteFicha(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	if err := h.services.Fichas.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete_ficha", err)
		return
	}
	h.logger.Info("Ficha deleted", "ficha_id", id, "actor_id", actorFrom(c).UserID)
	ok(c, gin.H{"id": id})
}

// MoveFicha handles POST /api/fichas/:id/move
func (h *Handlers) MoveFicha(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target_stage is required")
		return
	}

	ficha, err := h.services.Engine.MoveToStage(c.Request.Context(), workflow.MoveRequest{
		FichaID:     id,
		Actor:       actorFrom(c),
		TargetStage: domainwf.StageKey(req.TargetStage),
		Note:        utils.SanitizeString(req.Note),
		RealData:    req.RealData,
	})
	if err != nil {
		h.respondError(c, "move_ficha", err)
		return
	}
	ok(c, ficha)
}

// UpdateRealData handles PUT /api/fichas/:id/real-data
func (h *Handlers) UpdateRealData(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req RealDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "stage and data are required")
		return
	}

	ficha, err := h.services.Fichas.UpdateRealData(c.Request.Context(), id, domainwf.StageKey(req.Stage), req.Data)
	if err != nil {
		h.respondError(c, "update_real_data", err)
		return
	}
	ok(c, ficha)
}

// RejectFicha handles POST /api/fichas/:id/reject
func (h *Handlers) RejectFicha(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ficha, rejection, err := h.services.Engine.Reject(c.Request.Context(), workflow.RejectRequest{
		FichaID:     id,
		Actor:       actorFrom(c),
		ReasonCode:  req.ReasonCode,
		Description: utils.SanitizeString(req.Description),
		ReturnStage: domainwf.StageKey(req.ReturnStage),
	})
	if err != nil {
		h.respondError(c, "reject_ficha", err)
		return
	}
	created(c, RejectResponse{Ficha: ficha, Rejection: rejection})
}

// RejectFichaFinal handles POST /api/fichas/:id/reject-final
func (h *Handlers) RejectFichaFinal(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req RejectFinalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	ficha, err := h.services.Engine.RejectFinal(c.Request.Context(), workflow.RejectFinalRequest{
		FichaID: id,
		Actor:   actorFrom(c),
		Note:    utils.SanitizeString(req.Note),
	})
	if err != nil {
		h.respondError(c, "reject_final", err)
		return
	}
	ok(c, ficha)
}

// UploadRejectionImages handles POST /api/fichas/:id/images (multipart field "images")
func (h *Handlers) UploadRejectionImages(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "invalid multipart form")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		badRequest(c, "no images uploaded")
		return
	}
	if len(files) > domainwf.MaxRejectionImages {
		badRequest(c, fmt.Sprintf("at most %d images per rejection", domainwf.MaxRejectionImages))
		return
	}

	uploads := make([]service.ImageUpload, 0, len(files))
	for _, fh := range files {
		content, err := readUpload(fh)
		if err != nil {
			h.logger.Error("Failed to read upload", "ficha_id", id, "name", fh.Filename, "error", err)
			badRequest(c, "failed to read uploaded file")
			return
		}
		uploads = append(uploads, service.ImageUpload{
			Name:    utils.SanitizeFilename(fh.Filename),
			Content: content,
		})
	}

	images, err := h.services.Fichas.AttachRejectionImages(c.Request.Context(), id, uploads)
	if err != nil {
		h.respondError(c, "upload_images", err)
		return
	}
	created(c, images)
}

// DownloadRejectionImage handles GET /api/fichas/:id/images/:imageID
func (h *Handlers) DownloadRejectionImage(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	imageID, valid := pathInt(c, "imageID")
	if !valid {
		return
	}

	img, content, err := h.services.Fichas.RejectionImage(c.Request.Context(), id, imageID)
	if err != nil {
		h.respondError(c, "download_image", err)
		return
	}
	serveImage(c, img.OriginalName, "", content)
}

// ListMovements handles GET /api/fichas/:id/movements
func (h *Handlers) ListMovements(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	detail, err := h.services.Fichas.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list_movements", err)
		return
	}
	ok(c, detail.Movements)
}

// DownloadReport handles GET /api/fichas/:id/report.xlsx
func (h *Handlers) DownloadReport(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	content, err := h.services.Reports.RenderXLSX(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "render_report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ficha-%d.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// Kanban handles GET /api/fichas/kanban
func (h *Handlers) Kanban(c *gin.Context) {
	columns, err := h.services.Fichas.Kanban(c.Request.Context())
	if err != nil {
		h.respondError(c, "kanban", err)
		return
	}
	ok(c, columns)
}

// ListOverdue handles GET /api/fichas/overdue
func (h *Handlers) ListOverdue(c *gin.Context) {
	fichas, err := h.services.Fichas.Overdue(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_overdue", err)
		return
	}
	ok(c, fichas)
}

// ListApproved handles GET /api/fichas/approved
func (h *Handlers) ListApproved(c *gin.Context) {
	fichas, err := h.services.Fichas.Approved(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_approved", err)
		return
	}
	ok(c, fichas)
}

// ListRejected handles GET /api/fichas/rejected?status=
func (h *Handlers) ListRejected(c *gin.Context) {
	fichas, err := h.services.Fichas.Rejected(c.Request.Context(), domainwf.Status(c.Query("status")))
	if err != nil {
		h.respondError(c, "list_rejected", err)
		return
	}
	ok(c, fichas)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
