package entity

import (
	"time"

	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Movement is an immutable ledger entry for one stage change or rejection
type Movement struct {
	ID        int64             `json:"id"`
	FichaID   int64             `json:"ficha_id"`
	ActorID   int64             `json:"actor_id"`
	FromStage workflow.StageKey `json:"from_stage"`
	ToStage   workflow.StageKey `json:"to_stage"`
	Note      string            `json:"note,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// RecentMovement is a ledger entry joined with the current state of its ficha
type RecentMovement struct {
	Movement
	FichaCode    string            `json:"ficha_code"`
	FichaStatus  workflow.Status   `json:"ficha_status"`
	FichaStage   workflow.StageKey `json:"ficha_stage"`
	FichaOverdue bool              `json:"ficha_overdue"`
	ActorName    string            `json:"actor_name,omitempty"`
}
