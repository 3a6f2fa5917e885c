package workflow

import (
	"context"
	"encoding/json"

	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Engine executes stage moves and rejections. Every call reads, validates
// and writes the ficha together with its ledger entry in one transaction
// guarded by the ficha version. Conflicts are returned, never retried.
type Engine interface {
	// MoveToStage advances a ficha, or places it anywhere when the actor may override the sequence
	MoveToStage(ctx context.Context, req MoveRequest) (*entity.Ficha, error)

	// Reject records a rejection and applies the configured rejection model
	Reject(ctx context.Context, req RejectRequest) (*entity.Ficha, *entity.Rejection, error)

	// RejectFinal terminally rejects a ficha that is not approved
	RejectFinal(ctx context.Context, req RejectFinalRequest) (*entity.Ficha, error)

	// Policy returns the catalog and rejection model in use
	Policy() domainwf.Policy
}

// MoveRequest asks for a stage move
type MoveRequest struct {
	FichaID     int64
	Actor       entity.Actor
	TargetStage domainwf.StageKey
	Note        string
	// RealData is stored for the departed stage when that stage collects real data
	RealData json.RawMessage
}

// RejectRequest asks for a rejection. ImagePaths are handles already returned by image storage.
type RejectRequest struct {
	FichaID     int64
	Actor       entity.Actor
	ReasonCode  string
	Description string
	ReturnStage domainwf.StageKey
	ImagePaths  []string
}

// RejectFinalRequest asks for a terminal rejection
type RejectFinalRequest struct {
	FichaID int64
	Actor   entity.Actor
	Note    string
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
