package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		services:       services,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// StagesResponse describes the active catalog
type StagesResponse struct {
	Catalog        string                  `json:"catalog"`
	RejectionModel domainwf.RejectionModel `json:"rejection_model"`
	Stages         []domainwf.Stage        `json:"stages"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if h.services.Health != nil {
		healthy, components := h.services.Health()
		resp.Components = components
		if !healthy {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}

// ListStages handles GET /api/stages
func (h *Handlers) ListStages(c *gin.Context) {
	policy := h.services.Engine.Policy()
	ok(c, StagesResponse{
		Catalog:        policy.Catalog.Name(),
		RejectionModel: policy.RejectionModel,
		Stages:         policy.Catalog.Stages(),
	})
}

// ListRejectionReasons handles GET /api/rejection-reasons
func (h *Handlers) ListRejectionReasons(c *gin.Context) {
	ok(c, domainwf.ReasonCodes)
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// pathID parses the :id parameter, answering 400 when it is not a positive integer
func pathID(c *gin.Context) (int64, bool) {
	return pathInt(c, "id")
}

func pathInt(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
