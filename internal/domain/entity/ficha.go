package entity

import (
	"encoding/json"
	"time"

	"github.com/garyjia/foundry-fichas/internal/domain/metrics"
	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Ficha is one part approval request moving through the foundry stages
type Ficha struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`

	// Header
	Designer        string    `json:"designer"`
	PartCode        string    `json:"part_code,omitempty"`
	Customer        string    `json:"customer,omitempty"`
	PartDescription string    `json:"part_description,omitempty"`
	SampleQuantity  int       `json:"sample_quantity"`
	Deadline        time.Time `json:"deadline"`
	Standard        string    `json:"standard,omitempty"`
	MoldingProcess  string    `json:"molding_process,omitempty"`
	HasMachining    bool      `json:"has_machining"`
	HasPainting     bool      `json:"has_painting"`

	Estimated       metrics.Measurements `json:"estimated"`
	Obtained        metrics.Measurements `json:"obtained"`
	EstimatedRatios metrics.Ratios       `json:"estimated_ratios"`
	ObtainedRatios  metrics.Ratios       `json:"obtained_ratios"`

	// Workflow state
	CurrentStage   workflow.StageKey `json:"current_stage"`
	Status         workflow.Status   `json:"status"`
	IsOverdue      bool              `json:"is_overdue"`
	RejectionCount int               `json:"rejection_count"`
	ApprovalDate   *time.Time        `json:"approval_date,omitempty"`

	// StageData holds the opaque real data payload recorded for each stage
	StageData map[workflow.StageKey]json.RawMessage `json:"stage_data,omitempty"`

	CreatedBy int64     `json:"created_by"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasStageData reports whether a real data payload was recorded for stage
func (f *Ficha) HasStageData(stage workflow.StageKey) bool {
	_, ok := f.StageData[stage]
	return ok
}

// SetStageData stores payload for stage
func (f *Ficha) SetStageData(stage workflow.StageKey, payload json.RawMessage) {
	if f.StageData == nil {
		f.StageData = make(map[workflow.StageKey]json.RawMessage)
	}
	f.StageData[stage] = payload
}

// FichaDetail is a ficha hydrated with its children, ledger and rejection history
type FichaDetail struct {
	Ficha
	CoreBoxes     []CoreBox      `json:"core_boxes"`
	TreeMolds     []TreeMold     `json:"tree_molds"`
	KalpurSleeves []KalpurSleeve `json:"kalpur_sleeves"`
	Movements     []Movement     `json:"movements"`
	Rejections    []Rejection    `json:"rejections"`
}

// FichaFilter narrows list queries
type FichaFilter struct {
	Stage     workflow.StageKey
	Status    workflow.Status
	Overdue   *bool
	Rejected  bool
	Designer  string
	Material  string
	CreatedAt *time.Time // created on or after
	Limit     int
}
