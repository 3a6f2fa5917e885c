package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	"github.com/garyjia/foundry-fichas/internal/domain/metrics"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	policy        domainwf.Policy
	fichaRepo     port.FichaRepository
	movementRepo  port.MovementRepository
	rejectionRepo port.RejectionRepository
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	logger        Logger
	now           func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events after commit
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	policy domainwf.Policy,
	fichaRepo port.FichaRepository,
	movementRepo port.MovementRepository,
	rejectionRepo port.RejectionRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		policy:        policy,
		fichaRepo:     fichaRepo,
		movementRepo:  movementRepo,
		rejectionRepo: rejectionRepo,
		txManager:     txManager,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) Policy() domainwf.Policy {
	return e.policy
}

func (e *engineImpl) MoveToStage(ctx context.Context, req MoveRequest) (*entity.Ficha, error) {
	if len(req.RealData) > 0 && !json.Valid(req.RealData) {
		return nil, domainwf.NewValidationError("real_data", "must be valid JSON")
	}

	var (
		result *entity.Ficha
		events []*event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		f, err := e.load(txCtx, req.FichaID)
		if err != nil {
			return err
		}

		if err := e.policy.CheckMove(f.CurrentStage, f.Status, f.HasMachining, req.Actor.CanOverride(), req.TargetStage); err != nil {
			return err
		}

		now := e.now()
		from := f.CurrentStage
		version := f.Version

		if len(req.RealData) > 0 && e.policy.Catalog.HasRealData(from) {
			f.SetStageData(from, req.RealData)
		}
		f.IsOverdue = metrics.NextOverdueFlag(f.IsOverdue, f.Status, f.Deadline, now)
		f.CurrentStage = req.TargetStage
		approved := e.policy.Catalog.IsTerminal(req.TargetStage)
		if approved {
			f.Status = domainwf.StatusApproved
			f.ApprovalDate = &now
		}
		f.UpdatedAt = now

		if err := e.fichaRepo.UpdateWorkflowState(txCtx, f, version); err != nil {
			return err
		}

		movement := &entity.Movement{
			FichaID:   f.ID,
			ActorID:   req.Actor.UserID,
			FromStage: from,
			ToStage:   req.TargetStage,
			Note:      req.Note,
			Timestamp: now,
		}
		if err := e.movementRepo.Append(txCtx, movement); err != nil {
			return err
		}

		payload := map[string]interface{}{
			event.KeyFromStage: from.String(),
			event.KeyToStage:   req.TargetStage.String(),
			event.KeyActorID:   req.Actor.UserID,
			event.KeyCreatedBy: f.CreatedBy,
		}
		eventType := event.TypeFichaMoved
		if approved {
			eventType = event.TypeFichaApproved
		}
		events = append(events, event.NewEvent(eventType, f.ID, f.Code, payload).
			WithPayload(event.KeyMovementID, movement.ID))
		result = f
		return nil
	})
	if err != nil {
		return nil, e.classify(err, "move", req.FichaID)
	}

	e.logInfo("Ficha moved",
		"ficha_id", result.ID,
		"code", result.Code,
		"to_stage", result.CurrentStage,
		"actor_id", req.Actor.UserID,
		"override", req.Actor.CanOverride(),
	)
	e.publish(ctx, events...)
	return result, nil
}

func (e *engineImpl) Reject(ctx context.Context, req RejectRequest) (*entity.Ficha, *entity.Rejection, error) {
	if err := domainwf.ValidateRejectionInput(req.ReasonCode, req.Description, len(req.ImagePaths)); err != nil {
		return nil, nil, err
	}

	var (
		result    *entity.Ficha
		rejection *entity.Rejection
		events    []*event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		f, err := e.load(txCtx, req.FichaID)
		if err != nil {
			return err
		}

		target, err := e.policy.CheckRejection(f.CurrentStage, f.Status, req.ReturnStage)
		if err != nil {
			return err
		}

		now := e.now()
		from := f.CurrentStage
		version := f.Version

		rejection = &entity.Rejection{
			FichaID:          f.ID,
			StageAtRejection: from,
			ReturnStage:      req.ReturnStage,
			ReasonCode:       req.ReasonCode,
			Description:      req.Description,
			ActorID:          req.Actor.UserID,
			Timestamp:        now,
		}
		for _, p := range req.ImagePaths {
			rejection.Images = append(rejection.Images, entity.RejectionImage{Path: p, CreatedAt: now})
		}
		if err := e.rejectionRepo.Create(txCtx, rejection); err != nil {
			return err
		}

		f.IsOverdue = metrics.NextOverdueFlag(f.IsOverdue, f.Status, f.Deadline, now)
		f.CurrentStage = target
		f.RejectionCount++
		f.UpdatedAt = now

		if err := e.fichaRepo.UpdateWorkflowState(txCtx, f, version); err != nil {
			return err
		}

		movement := &entity.Movement{
			FichaID:   f.ID,
			ActorID:   req.Actor.UserID,
			FromStage: from,
			ToStage:   target,
			Note:      fmt.Sprintf("Reprovação: %s - %s", req.ReasonCode, req.Description),
			Timestamp: now,
		}
		if err := e.movementRepo.Append(txCtx, movement); err != nil {
			return err
		}

		events = append(events, event.NewEvent(event.TypeFichaRejected, f.ID, f.Code, map[string]interface{}{
			event.KeyStage:       from.String(),
			event.KeyReturnStage: req.ReturnStage.String(),
			event.KeyReasonCode:  req.ReasonCode,
			event.KeyActorID:     req.Actor.UserID,
			event.KeyCreatedBy:   f.CreatedBy,
		}).WithPayload(event.KeyMovementID, movement.ID).WithPayload(event.KeyRejectionID, rejection.ID))
		result = f
		return nil
	})
	if err != nil {
		return nil, nil, e.classify(err, "reject", req.FichaID)
	}

	e.logInfo("Ficha rejected",
		"ficha_id", result.ID,
		"code", result.Code,
		"stage", rejection.StageAtRejection,
		"return_stage", result.CurrentStage,
		"rejection_count", result.RejectionCount,
		"model", e.policy.RejectionModel,
	)
	e.publish(ctx, events...)
	return result, rejection, nil
}

func (e *engineImpl) RejectFinal(ctx context.Context, req RejectFinalRequest) (*entity.Ficha, error) {
	var (
		result *entity.Ficha
		events []*event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		f, err := e.load(txCtx, req.FichaID)
		if err != nil {
			return err
		}
		if err := e.policy.CheckRejectFinal(f.Status); err != nil {
			return err
		}

		now := e.now()
		version := f.Version

		f.IsOverdue = metrics.NextOverdueFlag(f.IsOverdue, f.Status, f.Deadline, now)
		f.Status = domainwf.StatusRejectedFinal
		f.UpdatedAt = now

		if err := e.fichaRepo.UpdateWorkflowState(txCtx, f, version); err != nil {
			return err
		}

		note := "Reprovação final"
		if req.Note != "" {
			note += ": " + req.Note
		}
		movement := &entity.Movement{
			FichaID:   f.ID,
			ActorID:   req.Actor.UserID,
			FromStage: f.CurrentStage,
			ToStage:   f.CurrentStage,
			Note:      note,
			Timestamp: now,
		}
		if err := e.movementRepo.Append(txCtx, movement); err != nil {
			return err
		}

		events = append(events, event.NewEvent(event.TypeFichaRejectedFinal, f.ID, f.Code, map[string]interface{}{
			event.KeyStage:     f.CurrentStage.String(),
			event.KeyNote:      req.Note,
			event.KeyActorID:   req.Actor.UserID,
			event.KeyCreatedBy: f.CreatedBy,
		}).WithPayload(event.KeyMovementID, movement.ID))
		result = f
		return nil
	})
	if err != nil {
		return nil, e.classify(err, "reject_final", req.FichaID)
	}

	e.logInfo("Ficha rejected final", "ficha_id", result.ID, "code", result.Code)
	e.publish(ctx, events...)
	return result, nil
}

func (e *engineImpl) load(ctx context.Context, id int64) (*entity.Ficha, error) {
	f, err := e.fichaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: ficha %d", domainwf.ErrNotFound, id)
	}
	return f, nil
}

// classify passes domain errors through and turns anything else into an
// opaque storage error after logging it
func (e *engineImpl) classify(err error, op string, fichaID int64) error {
	for _, known := range []error{
		domainwf.ErrNotFound,
		domainwf.ErrInvalidTransition,
		domainwf.ErrInvalidReturnStage,
		domainwf.ErrAlreadyTerminal,
		domainwf.ErrConcurrentModification,
		domainwf.ErrValidation,
		domainwf.ErrStorage,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	e.logError("Workflow operation failed", "op", op, "ficha_id", fichaID, "error", err)
	return domainwf.StorageError(op, err)
}

func (e *engineImpl) publish(ctx context.Context, evts ...*event.Event) {
	if e.dispatcher == nil || len(evts) == 0 {
		return
	}
	e.dispatcher.Publish(ctx, evts...)
}

func (e *engineImpl) logInfo(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, kv...)
	}
}

func (e *engineImpl) logError(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, kv...)
	}
}
