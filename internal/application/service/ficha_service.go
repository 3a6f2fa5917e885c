package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	"github.com/garyjia/foundry-fichas/internal/domain/metrics"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

const (
	// DefaultCodePrefix starts every generated ficha code
	DefaultCodePrefix = "RQ-24"
	// DefaultCodeRetries bounds code generation attempts on unique-constraint collisions
	DefaultCodeRetries = 5

	creationNote = "Ficha criada"
)

// FichaInput is the full set of editable fields supplied on creation
type FichaInput struct {
	Designer        string    `json:"designer"`
	PartCode        string    `json:"part_code"`
	Customer        string    `json:"customer"`
	PartDescription string    `json:"part_description"`
	SampleQuantity  int       `json:"sample_quantity"`
	Deadline        time.Time `json:"deadline"`
	Standard        string    `json:"standard"`
	MoldingProcess  string    `json:"molding_process"`
	HasMachining    bool      `json:"has_machining"`
	HasPainting     bool      `json:"has_painting"`

	Estimated metrics.Measurements `json:"estimated"`
	Obtained  metrics.Measurements `json:"obtained"`

	CoreBoxes     []entity.CoreBox      `json:"core_boxes"`
	TreeMolds     []entity.TreeMold     `json:"tree_molds"`
	KalpurSleeves []entity.KalpurSleeve `json:"kalpur_sleeves"`
}

// FichaPatch carries a partial update. Nil fields are left untouched and a nil
// child slice keeps the stored collection; an empty one clears it.
type FichaPatch struct {
	Designer        *string    `json:"designer"`
	PartCode        *string    `json:"part_code"`
	Customer        *string    `json:"customer"`
	PartDescription *string    `json:"part_description"`
	SampleQuantity  *int       `json:"sample_quantity"`
	Deadline        *time.Time `json:"deadline"`
	Standard        *string    `json:"standard"`
	MoldingProcess  *string    `json:"molding_process"`
	HasMachining    *bool      `json:"has_machining"`
	HasPainting     *bool      `json:"has_painting"`

	Estimated *metrics.Measurements `json:"estimated"`
	Obtained  *metrics.Measurements `json:"obtained"`

	CoreBoxes     []entity.CoreBox      `json:"core_boxes"`
	TreeMolds     []entity.TreeMold     `json:"tree_molds"`
	KalpurSleeves []entity.KalpurSleeve `json:"kalpur_sleeves"`

	// Version, when set, must match the stored version
	Version *int64 `json:"version"`
}

// KanbanColumn is one stage of the board with its in-progress fichas
type KanbanColumn struct {
	Stage  domainwf.Stage  `json:"stage"`
	Fichas []*entity.Ficha `json:"fichas"`
}

// OverdueFicha is an overdue ficha with its delay
type OverdueFicha struct {
	*entity.Ficha
	StageName   string `json:"stage_name"`
	DaysOverdue int    `json:"days_overdue"`
}

// ImageUpload is one evidence file received from a client
type ImageUpload struct {
	Name    string
	Content []byte
}

// FichaService manages the ficha lifecycle outside of stage transitions
type FichaService interface {
	Create(ctx context.Context, actor entity.Actor, input FichaInput) (*entity.FichaDetail, error)
	Update(ctx context.Context, id int64, patch FichaPatch) (*entity.FichaDetail, error)
	UpdateRealData(ctx context.Context, id int64, stage domainwf.StageKey, payload json.RawMessage) (*entity.Ficha, error)
	Get(ctx context.Context, id int64) (*entity.FichaDetail, error)
	GetByCode(ctx context.Context, code string) (*entity.FichaDetail, error)
	List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error)
	Kanban(ctx context.Context) ([]KanbanColumn, error)
	Overdue(ctx context.Context) ([]OverdueFicha, error)
	Approved(ctx context.Context) ([]*entity.Ficha, error)
	Rejected(ctx context.Context, status domainwf.Status) ([]*entity.Ficha, error)
	Delete(ctx context.Context, id int64) error
	// AttachRejectionImages stores evidence files on the ficha's latest rejection
	AttachRejectionImages(ctx context.Context, fichaID int64, uploads []ImageUpload) ([]entity.RejectionImage, error)
	// RejectionImage returns a rejection image of the ficha with its stored content
	RejectionImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, []byte, error)
	SweepOverdue(ctx context.Context) ([]int64, error)
}

type fichaServiceImpl struct {
	policy        domainwf.Policy
	fichaRepo     port.FichaRepository
	childRepo     port.FichaChildRepository
	movementRepo  port.MovementRepository
	rejectionRepo port.RejectionRepository
	galleryRepo   port.StageImageRepository
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	images        port.ImageStorage
	logger        Logger
	now           func() time.Time
	codePrefix    string
	codeRetries   int
}

// FichaOption configures the ficha service
type FichaOption func(*fichaServiceImpl)

// WithFichaDispatcher publishes lifecycle events after commit
func WithFichaDispatcher(d dispatcher.Dispatcher) FichaOption {
	return func(s *fichaServiceImpl) { s.dispatcher = d }
}

// WithImageStorage lets Delete remove stored rejection images
func WithImageStorage(images port.ImageStorage) FichaOption {
	return func(s *fichaServiceImpl) { s.images = images }
}

// WithStageImages lets Delete remove the ficha's gallery files
func WithStageImages(repo port.StageImageRepository) FichaOption {
	return func(s *fichaServiceImpl) { s.galleryRepo = repo }
}

// WithFichaClock overrides the time source
func WithFichaClock(now func() time.Time) FichaOption {
	return func(s *fichaServiceImpl) { s.now = now }
}

// WithCodeFormat sets the code prefix and the number of generation attempts
func WithCodeFormat(prefix string, retries int) FichaOption {
	return func(s *fichaServiceImpl) {
		if prefix != "" {
			s.codePrefix = prefix
		}
		if retries > 0 {
			s.codeRetries = retries
		}
	}
}

// NewFichaService creates a new FichaService
func NewFichaService(
	policy domainwf.Policy,
	fichaRepo port.FichaRepository,
	childRepo port.FichaChildRepository,
	movementRepo port.MovementRepository,
	rejectionRepo port.RejectionRepository,
	txManager port.TransactionManager,
	logger Logger,
	opts ...FichaOption,
) FichaService {
	s := &fichaServiceImpl{
		policy:        policy,
		fichaRepo:     fichaRepo,
		childRepo:     childRepo,
		movementRepo:  movementRepo,
		rejectionRepo: rejectionRepo,
		txManager:     txManager,
		logger:        logger,
		now:           time.Now,
		codePrefix:    DefaultCodePrefix,
		codeRetries:   DefaultCodeRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the header, generates the code and stores the ficha at the first stage
func (s *fichaServiceImpl) Create(ctx context.Context, actor entity.Actor, input FichaInput) (*entity.FichaDetail, error) {
	if err := validateHeader(input.Designer, input.SampleQuantity, input.Deadline); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	first := s.policy.Catalog.First().Key
	f := &entity.Ficha{
		Designer:        strings.TrimSpace(input.Designer),
		PartCode:        input.PartCode,
		Customer:        input.Customer,
		PartDescription: input.PartDescription,
		SampleQuantity:  input.SampleQuantity,
		Deadline:        input.Deadline.UTC(),
		Standard:        input.Standard,
		MoldingProcess:  input.MoldingProcess,
		HasMachining:    input.HasMachining,
		HasPainting:     input.HasPainting,
		Estimated:       input.Estimated,
		Obtained:        input.Obtained,
		EstimatedRatios: metrics.Compute(input.Estimated),
		ObtainedRatios:  metrics.Compute(input.Obtained),
		CurrentStage:    first,
		Status:          domainwf.StatusInProgress,
		IsOverdue:       metrics.IsOverdue(domainwf.StatusInProgress, input.Deadline, now),
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	prefix := fmt.Sprintf("%s-%d-", s.codePrefix, now.Year())
	var err error
	for attempt := 1; attempt <= s.codeRetries; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			suffix, err := s.fichaRepo.MaxCodeSuffix(txCtx, prefix)
			if err != nil {
				return err
			}
			f.Code = fmt.Sprintf("%s%04d", prefix, suffix+1)

			if err := s.fichaRepo.Create(txCtx, f); err != nil {
				return err
			}
			if err := s.replaceChildren(txCtx, f.ID, input.CoreBoxes, input.TreeMolds, input.KalpurSleeves); err != nil {
				return err
			}
			return s.movementRepo.Append(txCtx, &entity.Movement{
				FichaID:   f.ID,
				ActorID:   actor.UserID,
				FromStage: first,
				ToStage:   first,
				Note:      creationNote,
				Timestamp: now,
			})
		})
		if err == nil || !errors.Is(err, port.ErrDuplicateKey) {
			break
		}
		s.logger.Info("Ficha code collision, retrying", "code", f.Code, "attempt", attempt)
	}
	if err != nil {
		return nil, classify(s.logger, "create", err, "designer", f.Designer)
	}

	s.logger.Info("Ficha created", "ficha_id", f.ID, "code", f.Code, "created_by", actor.UserID)
	s.publish(ctx, event.NewEvent(event.TypeFichaCreated, f.ID, f.Code, map[string]interface{}{
		event.KeyCreatedBy: actor.UserID,
		event.KeyStage:     first.String(),
	}))

	return s.Get(ctx, f.ID)
}

// Update applies a partial edit of header and measurement fields
func (s *fichaServiceImpl) Update(ctx context.Context, id int64, patch FichaPatch) (*entity.FichaDetail, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		f, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		version := f.Version
		if patch.Version != nil && *patch.Version != version {
			return fmt.Errorf("%w: ficha %d is at version %d", domainwf.ErrConcurrentModification, id, version)
		}

		applyPatch(f, patch)
		if err := validateHeader(f.Designer, f.SampleQuantity, f.Deadline); err != nil {
			return err
		}

		now := s.now().UTC()
		f.IsOverdue = metrics.NextOverdueFlag(f.IsOverdue, f.Status, f.Deadline, now)
		f.UpdatedAt = now

		if err := s.fichaRepo.UpdateDetails(txCtx, f, version); err != nil {
			return err
		}
		return s.replaceChildren(txCtx, id, patch.CoreBoxes, patch.TreeMolds, patch.KalpurSleeves)
	})
	if err != nil {
		return nil, classify(s.logger, "update", err, "ficha_id", id)
	}

	s.logger.Info("Ficha updated", "ficha_id", id)
	return s.Get(ctx, id)
}

// UpdateRealData stores the real data payload of a stage that carries one
func (s *fichaServiceImpl) UpdateRealData(ctx context.Context, id int64, stage domainwf.StageKey, payload json.RawMessage) (*entity.Ficha, error) {
	if !s.policy.Catalog.HasRealData(stage) {
		return nil, domainwf.NewValidationError("stage", fmt.Sprintf("stage %q does not record real data", stage))
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, domainwf.NewValidationError("payload", "must be valid JSON")
	}

	var result *entity.Ficha
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		f, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		version := f.Version
		now := s.now().UTC()

		f.SetStageData(stage, payload)
		f.IsOverdue = metrics.NextOverdueFlag(f.IsOverdue, f.Status, f.Deadline, now)
		f.UpdatedAt = now

		if err := s.fichaRepo.UpdateWorkflowState(txCtx, f, version); err != nil {
			return err
		}
		result = f
		return nil
	})
	if err != nil {
		return nil, classify(s.logger, "update_real_data", err, "ficha_id", id, "stage", stage)
	}
	return result, nil
}

// Get returns the ficha with children, movements (newest first) and rejections
func (s *fichaServiceImpl) Get(ctx context.Context, id int64) (*entity.FichaDetail, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}

	detail := &entity.FichaDetail{Ficha: *f}
	if detail.CoreBoxes, err = s.childRepo.ListCoreBoxes(ctx, id); err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}
	if detail.TreeMolds, err = s.childRepo.ListTreeMolds(ctx, id); err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}
	if detail.KalpurSleeves, err = s.childRepo.ListKalpurSleeves(ctx, id); err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}
	if detail.Movements, err = s.movementRepo.ListForFicha(ctx, id); err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}
	if detail.Rejections, err = s.rejectionRepo.ListForFicha(ctx, id); err != nil {
		return nil, classify(s.logger, "get", err, "ficha_id", id)
	}
	return detail, nil
}

// GetByCode resolves a ficha code and returns the same view as Get
func (s *fichaServiceImpl) GetByCode(ctx context.Context, code string) (*entity.FichaDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domainwf.NewValidationError("code", "code is required")
	}
	f, err := s.fichaRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, classify(s.logger, "get_by_code", err, "code", code)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: ficha %s", domainwf.ErrNotFound, code)
	}
	return s.Get(ctx, f.ID)
}

// List returns fichas matching filter, overdue first then by deadline
func (s *fichaServiceImpl) List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error) {
	fichas, err := s.fichaRepo.List(ctx, filter)
	if err != nil {
		return nil, classify(s.logger, "list", err)
	}
	return fichas, nil
}

// Kanban sweeps overdue fichas and groups the in-progress ones by stage
func (s *fichaServiceImpl) Kanban(ctx context.Context) ([]KanbanColumn, error) {
	if _, err := s.SweepOverdue(ctx); err != nil {
		return nil, err
	}

	fichas, err := s.List(ctx, entity.FichaFilter{Status: domainwf.StatusInProgress})
	if err != nil {
		return nil, err
	}

	stages := s.policy.Catalog.Stages()
	columns := make([]KanbanColumn, 0, len(stages))
	index := make(map[domainwf.StageKey]int, len(stages))
	for _, st := range stages {
		if s.policy.Catalog.IsTerminal(st.Key) {
			continue
		}
		index[st.Key] = len(columns)
		columns = append(columns, KanbanColumn{Stage: st, Fichas: []*entity.Ficha{}})
	}

	for _, f := range fichas {
		i, ok := index[f.CurrentStage]
		if !ok {
			s.logger.Error("Ficha stage not in catalog", "ficha_id", f.ID, "stage", f.CurrentStage, "catalog", s.policy.Catalog.Name())
			continue
		}
		columns[i].Fichas = append(columns[i].Fichas, f)
	}
	return columns, nil
}

// Overdue sweeps and lists overdue in-progress fichas with their delay
func (s *fichaServiceImpl) Overdue(ctx context.Context) ([]OverdueFicha, error) {
	if _, err := s.SweepOverdue(ctx); err != nil {
		return nil, err
	}

	overdue := true
	fichas, err := s.List(ctx, entity.FichaFilter{Status: domainwf.StatusInProgress, Overdue: &overdue})
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]OverdueFicha, 0, len(fichas))
	for _, f := range fichas {
		result = append(result, OverdueFicha{
			Ficha:       f,
			StageName:   s.policy.Catalog.DisplayName(f.CurrentStage),
			DaysOverdue: metrics.DaysOverdue(f.Deadline, now),
		})
	}
	return result, nil
}

// Approved lists approved fichas
func (s *fichaServiceImpl) Approved(ctx context.Context) ([]*entity.Ficha, error) {
	return s.List(ctx, entity.FichaFilter{Status: domainwf.StatusApproved})
}

// Rejected lists the rework queue: every ficha rejected at least once,
// optionally narrowed by status
func (s *fichaServiceImpl) Rejected(ctx context.Context, status domainwf.Status) ([]*entity.Ficha, error) {
	if status != "" && !status.IsValid() {
		return nil, domainwf.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.List(ctx, entity.FichaFilter{Status: status, Rejected: true})
}

// Delete removes a ficha with its history, stored rejection images and gallery
func (s *fichaServiceImpl) Delete(ctx context.Context, id int64) error {
	var paths []string
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.load(txCtx, id); err != nil {
			return err
		}
		rejections, err := s.rejectionRepo.ListForFicha(txCtx, id)
		if err != nil {
			return err
		}
		for _, r := range rejections {
			for _, img := range r.Images {
				paths = append(paths, img.Path)
			}
		}
		if s.galleryRepo != nil {
			gallery, err := s.galleryRepo.ListForFicha(txCtx, id, "")
			if err != nil {
				return err
			}
			for _, img := range gallery {
				paths = append(paths, img.Path)
			}
		}
		return s.fichaRepo.Delete(txCtx, id)
	})
	if err != nil {
		return classify(s.logger, "delete", err, "ficha_id", id)
	}

	if s.images != nil {
		for _, p := range paths {
			if err := s.images.Delete(ctx, p); err != nil {
				s.logger.Error("Failed to delete stored image", "ficha_id", id, "path", p, "error", err)
			}
		}
	}
	s.logger.Info("Ficha deleted", "ficha_id", id, "images", len(paths))
	return nil
}

// AttachRejectionImages saves uploads to image storage and records them on
// the latest rejection. Stored files are removed again when recording fails.
// The ficha must not have moved since that rejection.
func (s *fichaServiceImpl) AttachRejectionImages(ctx context.Context, fichaID int64, uploads []ImageUpload) ([]entity.RejectionImage, error) {
	if s.images == nil {
		return nil, domainwf.StorageError("attach_images", errors.New("image storage is not configured"))
	}
	if len(uploads) == 0 {
		return nil, domainwf.NewValidationError("images", "at least one image is required")
	}

	if _, err := s.load(ctx, fichaID); err != nil {
		return nil, classify(s.logger, "attach_images", err, "ficha_id", fichaID)
	}
	latest, err := s.rejectionRepo.GetLatestForFicha(ctx, fichaID)
	if err != nil {
		return nil, classify(s.logger, "attach_images", err, "ficha_id", fichaID)
	}
	if latest == nil {
		return nil, domainwf.NewValidationError("images", "ficha has no rejection to attach images to")
	}
	movements, err := s.movementRepo.ListForFicha(ctx, fichaID)
	if err != nil {
		return nil, classify(s.logger, "attach_images", err, "ficha_id", fichaID)
	}
	if len(movements) > 0 && movements[0].Timestamp.After(latest.Timestamp) {
		return nil, domainwf.NewValidationError("images", "ficha has moved since its latest rejection")
	}
	if len(latest.Images)+len(uploads) > domainwf.MaxRejectionImages {
		return nil, domainwf.NewValidationError("images",
			fmt.Sprintf("a rejection holds at most %d images", domainwf.MaxRejectionImages))
	}

	var paths []string
	cleanup := func() {
		for _, p := range paths {
			if err := s.images.Delete(ctx, p); err != nil {
				s.logger.Error("Failed to remove orphan image", "ficha_id", fichaID, "path", p, "error", err)
			}
		}
	}

	for _, u := range uploads {
		path, err := s.images.Save(ctx, fichaID, u.Name, u.Content)
		if err != nil {
			cleanup()
			return nil, classify(s.logger, "attach_images", err, "ficha_id", fichaID, "name", u.Name)
		}
		paths = append(paths, path)
	}

	now := s.now().UTC()
	images := make([]entity.RejectionImage, 0, len(uploads))
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i, u := range uploads {
			img := entity.RejectionImage{
				RejectionID:  latest.ID,
				Path:         paths[i],
				OriginalName: u.Name,
				CreatedAt:    now,
			}
			if err := s.rejectionRepo.AddImage(txCtx, &img); err != nil {
				return err
			}
			images = append(images, img)
		}
		return nil
	})
	if err != nil {
		cleanup()
		return nil, classify(s.logger, "attach_images", err, "ficha_id", fichaID)
	}

	s.logger.Info("Rejection images attached", "ficha_id", fichaID, "rejection_id", latest.ID, "count", len(images))
	return images, nil
}

// RejectionImage loads a rejection image of the ficha and reads its content
func (s *fichaServiceImpl) RejectionImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, []byte, error) {
	if s.images == nil {
		return nil, nil, domainwf.StorageError("read_image", errors.New("image storage is not configured"))
	}

	img, err := s.rejectionRepo.GetImage(ctx, fichaID, imageID)
	if err != nil {
		return nil, nil, classify(s.logger, "read_image", err, "ficha_id", fichaID, "image_id", imageID)
	}
	if img == nil {
		return nil, nil, fmt.Errorf("%w: image %d of ficha %d", domainwf.ErrNotFound, imageID, fichaID)
	}

	content, err := s.images.Read(ctx, img.Path)
	if err != nil {
		return nil, nil, classify(s.logger, "read_image", err, "ficha_id", fichaID, "path", img.Path)
	}
	return img, content, nil
}

// SweepOverdue flags in-progress fichas past their deadline and emits an
// overdue event for each newly flagged one
func (s *fichaServiceImpl) SweepOverdue(ctx context.Context) ([]int64, error) {
	ids, err := s.fichaRepo.MarkOverdue(ctx, s.now().UTC())
	if err != nil {
		return nil, classify(s.logger, "sweep_overdue", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	s.logger.Info("Overdue sweep flagged fichas", "count", len(ids))
	for _, id := range ids {
		f, err := s.fichaRepo.GetByID(ctx, id)
		if err != nil || f == nil {
			s.logger.Error("Failed to load overdue ficha", "ficha_id", id, "error", err)
			continue
		}
		s.publish(ctx, event.NewEvent(event.TypeFichaOverdue, f.ID, f.Code, map[string]interface{}{
			event.KeyStage:     f.CurrentStage.String(),
			event.KeyCreatedBy: f.CreatedBy,
		}))
	}
	return ids, nil
}

func (s *fichaServiceImpl) replaceChildren(ctx context.Context, fichaID int64, boxes []entity.CoreBox, molds []entity.TreeMold, sleeves []entity.KalpurSleeve) error {
	if boxes != nil {
		if err := s.childRepo.ReplaceCoreBoxes(ctx, fichaID, boxes); err != nil {
			return err
		}
	}
	if molds != nil {
		if err := s.childRepo.ReplaceTreeMolds(ctx, fichaID, molds); err != nil {
			return err
		}
	}
	if sleeves != nil {
		if err := s.childRepo.ReplaceKalpurSleeves(ctx, fichaID, sleeves); err != nil {
			return err
		}
	}
	return nil
}

func (s *fichaServiceImpl) load(ctx context.Context, id int64) (*entity.Ficha, error) {
	f, err := s.fichaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: ficha %d", domainwf.ErrNotFound, id)
	}
	return f, nil
}

func (s *fichaServiceImpl) publish(ctx context.Context, evts ...*event.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, evts...)
}

// applyPatch copies supplied fields and recomputes only the ratios whose inputs changed
func applyPatch(f *entity.Ficha, p FichaPatch) {
	setString(&f.Designer, p.Designer)
	setString(&f.PartCode, p.PartCode)
	setString(&f.Customer, p.Customer)
	setString(&f.PartDescription, p.PartDescription)
	setString(&f.Standard, p.Standard)
	setString(&f.MoldingProcess, p.MoldingProcess)
	if p.SampleQuantity != nil {
		f.SampleQuantity = *p.SampleQuantity
	}
	if p.Deadline != nil {
		f.Deadline = p.Deadline.UTC()
	}
	if p.HasMachining != nil {
		f.HasMachining = *p.HasMachining
	}
	if p.HasPainting != nil {
		f.HasPainting = *p.HasPainting
	}
	if p.Estimated != nil {
		before := f.Estimated
		f.Estimated = *p.Estimated
		f.EstimatedRatios = metrics.Recompute(before, f.Estimated, f.EstimatedRatios)
	}
	if p.Obtained != nil {
		before := f.Obtained
		f.Obtained = *p.Obtained
		f.ObtainedRatios = metrics.Recompute(before, f.Obtained, f.ObtainedRatios)
	}
	f.Designer = strings.TrimSpace(f.Designer)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func validateHeader(designer string, sampleQuantity int, deadline time.Time) error {
	if strings.TrimSpace(designer) == "" {
		return domainwf.NewValidationError("designer", "is required")
	}
	if sampleQuantity < 1 {
		return domainwf.NewValidationError("sample_quantity", "must be at least 1")
	}
	if deadline.IsZero() {
		return domainwf.NewValidationError("deadline", "is required")
	}
	return nil
}
