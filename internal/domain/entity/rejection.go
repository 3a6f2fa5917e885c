package entity

import (
	"time"

	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Rejection records a failure of a ficha at a stage
type Rejection struct {
	ID               int64             `json:"id"`
	FichaID          int64             `json:"ficha_id"`
	StageAtRejection workflow.StageKey `json:"stage_at_rejection"`
	ReturnStage      workflow.StageKey `json:"return_stage,omitempty"`
	ReasonCode       string            `json:"reason_code"`
	Description      string            `json:"description"`
	ActorID          int64             `json:"actor_id"`
	Timestamp        time.Time         `json:"timestamp"`
	Images           []RejectionImage  `json:"images,omitempty"`
}

// RejectionImage is a stored evidence file attached to a rejection. Path is
// the handle returned by image storage and is never interpreted here.
type RejectionImage struct {
	ID           int64     `json:"id"`
	RejectionID  int64     `json:"rejection_id"`
	Path         string    `json:"path"`
	OriginalName string    `json:"original_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StageImage is a gallery photo of a ficha filed under the stage it documents
type StageImage struct {
	ID           int64             `json:"id"`
	FichaID      int64             `json:"ficha_id"`
	UploadedBy   int64             `json:"uploaded_by"`
	Stage        workflow.StageKey `json:"stage"`
	Path         string            `json:"-"`
	OriginalName string            `json:"original_name"`
	MimeType     string            `json:"mime_type"`
	Size         int64             `json:"size"`
	Description  string            `json:"description,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
