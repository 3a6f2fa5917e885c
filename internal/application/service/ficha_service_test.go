package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/application/workflow"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	"github.com/garyjia/foundry-fichas/internal/domain/metrics"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/repository"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/foundry-fichas/pkg/database"
)

var fixtureStart = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type fichaFixture struct {
	now        time.Time
	policy     domainwf.Policy
	fichaRepo  port.FichaRepository
	rejections port.RejectionRepository
	service    FichaService
	gallery    GalleryService
	engine     workflow.Engine
	dispatcher *recordingDispatcher
	images     *mockImageStorage
}

func newFichaFixture(t *testing.T, wrap func(port.FichaRepository) port.FichaRepository) *fichaFixture {
	t.Helper()

	db, err := database.NewMemory(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	policy, err := domainwf.NewPolicy(domainwf.CatalogRQ24Rev06, domainwf.RejectionReturnToStage)
	require.NoError(t, err)

	fx := &fichaFixture{
		now:        fixtureStart,
		policy:     policy,
		dispatcher: newRecordingDispatcher(),
		images:     &mockImageStorage{},
	}
	clock := func() time.Time { return fx.now }

	var fichaRepo port.FichaRepository = repository.NewFichaRepository(db.DB, logger)
	if wrap != nil {
		fichaRepo = wrap(fichaRepo)
	}
	movementRepo := repository.NewMovementRepository(db.DB, logger)
	rejectionRepo := repository.NewRejectionRepository(db.DB, logger)
	galleryRepo := repository.NewStageImageRepository(db.DB, logger)
	tx := sqlite.NewDB(db.DB, logger)

	fx.fichaRepo = fichaRepo
	fx.rejections = rejectionRepo
	fx.service = NewFichaService(policy, fichaRepo, repository.NewChildRepository(db.DB, logger),
		movementRepo, rejectionRepo, tx, &mockLogger{},
		WithFichaDispatcher(fx.dispatcher),
		WithImageStorage(fx.images),
		WithStageImages(galleryRepo),
		WithFichaClock(clock),
	)
	fx.gallery = NewGalleryService(policy.Catalog, fichaRepo, galleryRepo, fx.images, &mockLogger{})
	fx.engine = workflow.NewEngine(policy, fichaRepo, movementRepo, rejectionRepo, tx, workflow.WithClock(clock))
	return fx
}

func fp(v float64) *float64 { return &v }

func sampleInput() FichaInput {
	return FichaInput{
		Designer:       "Ana",
		PartCode:       "P-100",
		SampleQuantity: 5,
		Deadline:       fixtureStart.Add(7 * 24 * time.Hour),
		Estimated: metrics.Measurements{
			Material:    "GG20",
			PieceWeight: fp(10),
			MoldWeight:  fp(50),
			TreeWeight:  fp(40),
		},
		CoreBoxes: []entity.CoreBox{{Identification: "CX-1"}, {Identification: "CX-2"}},
		TreeMolds: []entity.TreeMold{{MoldNumber: "M1"}},
	}
}

var designer = entity.Actor{UserID: 2, Privilege: entity.PrivilegeStandard}

func TestFichaService_Create(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	detail, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "RQ-24-2025-0001", detail.Code)
	assert.Equal(t, domainwf.StageCreation, detail.CurrentStage)
	assert.Equal(t, domainwf.StatusInProgress, detail.Status)
	assert.False(t, detail.IsOverdue)
	assert.Equal(t, 0, detail.RejectionCount)
	require.NotNil(t, detail.EstimatedRatios.RAM)
	require.NotNil(t, detail.EstimatedRatios.RM)
	assert.InDelta(t, 5.0, *detail.EstimatedRatios.RAM, 1e-9)
	assert.InDelta(t, 25.0, *detail.EstimatedRatios.RM, 1e-9)

	require.Len(t, detail.Movements, 1)
	assert.Equal(t, domainwf.StageCreation, detail.Movements[0].FromStage)
	assert.Equal(t, domainwf.StageCreation, detail.Movements[0].ToStage)
	assert.Equal(t, "Ficha criada", detail.Movements[0].Note)

	require.Len(t, detail.CoreBoxes, 2)
	assert.Equal(t, 1, detail.CoreBoxes[0].Order)
	assert.Equal(t, 2, detail.CoreBoxes[1].Order)
	assert.Len(t, detail.TreeMolds, 1)
	assert.Empty(t, detail.KalpurSleeves)

	assert.Equal(t, []event.Type{event.TypeFichaCreated}, fx.dispatcher.Types())

	second, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "RQ-24-2025-0002", second.Code)
}

func TestFichaService_CreateValidation(t *testing.T) {
	fx := newFichaFixture(t, nil)

	tests := []struct {
		name  string
		edit  func(in *FichaInput)
		field string
	}{
		{name: "blank designer", edit: func(in *FichaInput) { in.Designer = "  " }, field: "designer"},
		{name: "no samples", edit: func(in *FichaInput) { in.SampleQuantity = 0 }, field: "sample_quantity"},
		{name: "no deadline", edit: func(in *FichaInput) { in.Deadline = time.Time{} }, field: "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.edit(&in)
			_, err := fx.service.Create(context.Background(), designer, in)

			var vErr *domainwf.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestFichaService_CreatePastDeadlineIsOverdue(t *testing.T) {
	fx := newFichaFixture(t, nil)
	in := sampleInput()
	in.Deadline = fixtureStart.Add(-time.Hour)

	detail, err := fx.service.Create(context.Background(), designer, in)
	require.NoError(t, err)
	assert.True(t, detail.IsOverdue)
}

// staleSuffixRepo reports no existing codes on the first scan, forcing a collision
type staleSuffixRepo struct {
	port.FichaRepository
	scans int
}

func (r *staleSuffixRepo) MaxCodeSuffix(ctx context.Context, prefix string) (int, error) {
	r.scans++
	if r.scans == 2 {
		return 0, nil
	}
	return r.FichaRepository.MaxCodeSuffix(ctx, prefix)
}

func TestFichaService_CreateRetriesCodeCollision(t *testing.T) {
	stale := &staleSuffixRepo{}
	fx := newFichaFixture(t, func(inner port.FichaRepository) port.FichaRepository {
		stale.FichaRepository = inner
		return stale
	})
	ctx := context.Background()

	_, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	detail, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "RQ-24-2025-0002", detail.Code)
	assert.Equal(t, 3, stale.scans)
}

func TestFichaService_Update(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	customer := "ACME"
	obtained := metrics.Measurements{Material: "GG20", PieceWeight: fp(8), MoldWeight: fp(48)}
	patch := FichaPatch{
		Customer:      &customer,
		Obtained:      &obtained,
		KalpurSleeves: []entity.KalpurSleeve{{Quantity: 3, Description: "KS-50"}},
		CoreBoxes:     []entity.CoreBox{},
	}

	updated, err := fx.service.Update(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "ACME", updated.Customer)
	assert.Equal(t, "P-100", updated.PartCode)
	require.NotNil(t, updated.ObtainedRatios.RAM)
	assert.InDelta(t, 6.0, *updated.ObtainedRatios.RAM, 1e-9)
	assert.Nil(t, updated.ObtainedRatios.RM)
	assert.InDelta(t, 5.0, *updated.EstimatedRatios.RAM, 1e-9)
	assert.Empty(t, updated.CoreBoxes)
	assert.Len(t, updated.TreeMolds, 1, "omitted collections are kept")
	require.Len(t, updated.KalpurSleeves, 1)
	assert.Equal(t, created.Version+1, updated.Version)

	stale := created.Version
	_, err = fx.service.Update(ctx, created.ID, FichaPatch{Customer: &customer, Version: &stale})
	assert.ErrorIs(t, err, domainwf.ErrConcurrentModification)

	_, err = fx.service.Update(ctx, 999, FichaPatch{Customer: &customer})
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
}

func TestFichaService_UpdateKeepsOverdueFlag(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	in := sampleInput()
	in.Deadline = fixtureStart.Add(-time.Hour)
	created, err := fx.service.Create(ctx, designer, in)
	require.NoError(t, err)
	require.True(t, created.IsOverdue)

	later := fixtureStart.Add(30 * 24 * time.Hour)
	updated, err := fx.service.Update(ctx, created.ID, FichaPatch{Deadline: &later})
	require.NoError(t, err)
	assert.True(t, updated.IsOverdue)
	assert.True(t, updated.Deadline.Equal(later))
}

func TestFichaService_UpdateRealData(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	_, err = fx.service.UpdateRealData(ctx, created.ID, domainwf.StageCreation, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domainwf.ErrValidation)

	_, err = fx.service.UpdateRealData(ctx, created.ID, domainwf.StageMolding, json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, domainwf.ErrValidation)

	f, err := fx.service.UpdateRealData(ctx, created.ID, domainwf.StageMolding, json.RawMessage(`{"sand":"verde"}`))
	require.NoError(t, err)
	assert.True(t, f.HasStageData(domainwf.StageMolding))

	got, err := fx.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sand":"verde"}`, string(got.StageData[domainwf.StageMolding]))
}

func TestFichaService_KanbanSweepsOverdue(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	late, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	soon := sampleInput()
	soon.Deadline = fixtureStart.Add(30 * 24 * time.Hour)
	_, err = fx.service.Create(ctx, designer, soon)
	require.NoError(t, err)

	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{
		FichaID: late.ID, Actor: entity.Actor{UserID: 1, Privilege: entity.PrivilegeElevated}, TargetStage: domainwf.StagePatternMaking,
	})
	require.NoError(t, err)

	fx.now = fixtureStart.Add(8 * 24 * time.Hour)
	columns, err := fx.service.Kanban(ctx)
	require.NoError(t, err)
	require.Len(t, columns, 9)
	assert.Equal(t, domainwf.StageCreation, columns[0].Stage.Key)
	require.Len(t, columns[0].Fichas, 1)
	require.Len(t, columns[1].Fichas, 1)
	assert.True(t, columns[1].Fichas[0].IsOverdue)
	assert.Contains(t, fx.dispatcher.Types(), event.TypeFichaOverdue)

	overdue, err := fx.service.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.Equal(t, 1, overdue[0].DaysOverdue)
	assert.Equal(t, "Modelação", overdue[0].StageName)
}

func TestFichaService_RejectedAndApprovedQueues(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	a, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	b, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: a.ID, Actor: boss, TargetStage: domainwf.StageInspection})
	require.NoError(t, err)
	_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
		FichaID: a.ID, Actor: boss, ReasonCode: "Porosidade", Description: "bolhas", ReturnStage: domainwf.StageMolding,
	})
	require.NoError(t, err)
	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: b.ID, Actor: boss, TargetStage: domainwf.StageApproved})
	require.NoError(t, err)

	rejected, err := fx.service.Rejected(ctx, "")
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, a.ID, rejected[0].ID)

	_, err = fx.service.Rejected(ctx, "unknown")
	assert.ErrorIs(t, err, domainwf.ErrValidation)

	approved, err := fx.service.Approved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, b.ID, approved[0].ID)
	require.NotNil(t, approved[0].ApprovalDate)
}

func TestFichaService_AttachImagesAndDelete(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	f, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	uploads := []ImageUpload{{Name: "a.jpg", Content: []byte{1}}}
	_, err = fx.service.AttachRejectionImages(ctx, f.ID, uploads)
	assert.ErrorIs(t, err, domainwf.ErrValidation, "no rejection yet")

	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: f.ID, Actor: boss, TargetStage: domainwf.StageMolding})
	require.NoError(t, err)
	_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
		FichaID: f.ID, Actor: boss, ReasonCode: "Trinca", Description: "trinca no canal", ReturnStage: domainwf.StagePatternMaking,
	})
	require.NoError(t, err)

	images, err := fx.service.AttachRejectionImages(ctx, f.ID, []ImageUpload{
		{Name: "a.jpg", Content: []byte{1}},
		{Name: "b.jpg", Content: []byte{2}},
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a.jpg", images[0].OriginalName)

	tooMany := make([]ImageUpload, domainwf.MaxRejectionImages)
	_, err = fx.service.AttachRejectionImages(ctx, f.ID, tooMany)
	assert.ErrorIs(t, err, domainwf.ErrValidation)

	detail, err := fx.service.Get(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, detail.Rejections, 1)
	assert.Len(t, detail.Rejections[0].Images, 2)

	require.NoError(t, fx.service.Delete(ctx, f.ID))
	assert.ElementsMatch(t, []string{"img-a.jpg", "img-b.jpg"}, fx.images.deleted)

	_, err = fx.service.Get(ctx, f.ID)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
	assert.ErrorIs(t, fx.service.Delete(ctx, f.ID), domainwf.ErrNotFound)
}

func TestFichaService_AttachImagesRemovesOrphansOnSaveFailure(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	f, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: f.ID, Actor: boss, TargetStage: domainwf.StageMolding})
	require.NoError(t, err)
	_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
		FichaID: f.ID, Actor: boss, ReasonCode: "Trinca", Description: "x", ReturnStage: domainwf.StagePatternMaking,
	})
	require.NoError(t, err)

	calls := 0
	fx.images.saveFunc = func(ctx context.Context, fichaID int64, name string, content []byte) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("disk full")
		}
		return "stored-" + name, nil
	}

	_, err = fx.service.AttachRejectionImages(ctx, f.ID, []ImageUpload{{Name: "a.jpg"}, {Name: "b.jpg"}})
	assert.ErrorIs(t, err, domainwf.ErrStorage)
	assert.Equal(t, []string{"stored-a.jpg"}, fx.images.deleted)
}

func TestFichaService_AttachImagesRefusedAfterLaterMovement(t *testing.T) {
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	tests := []struct {
		name    string
		after   func(t *testing.T, fx *fichaFixture, fichaID int64)
		wantErr error
	}{
		{
			name:  "still at the return stage",
			after: func(t *testing.T, fx *fichaFixture, fichaID int64) {},
		},
		{
			name: "moved on after the rejection",
			after: func(t *testing.T, fx *fichaFixture, fichaID int64) {
				fx.now = fx.now.Add(time.Minute)
				_, err := fx.engine.MoveToStage(context.Background(), workflow.MoveRequest{
					FichaID: fichaID, Actor: boss, TargetStage: domainwf.StageMolding,
				})
				require.NoError(t, err)
			},
			wantErr: domainwf.ErrValidation,
		},
		{
			name: "finally rejected after the rejection",
			after: func(t *testing.T, fx *fichaFixture, fichaID int64) {
				fx.now = fx.now.Add(time.Minute)
				_, err := fx.engine.RejectFinal(context.Background(), workflow.RejectFinalRequest{FichaID: fichaID, Actor: boss})
				require.NoError(t, err)
			},
			wantErr: domainwf.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFichaFixture(t, nil)
			ctx := context.Background()

			f, err := fx.service.Create(ctx, designer, sampleInput())
			require.NoError(t, err)
			_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: f.ID, Actor: boss, TargetStage: domainwf.StageMolding})
			require.NoError(t, err)
			fx.now = fx.now.Add(time.Minute)
			_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
				FichaID: f.ID, Actor: boss, ReasonCode: "Trinca", Description: "x", ReturnStage: domainwf.StagePatternMaking,
			})
			require.NoError(t, err)

			tt.after(t, fx, f.ID)

			images, err := fx.service.AttachRejectionImages(ctx, f.ID, []ImageUpload{{Name: "a.jpg", Content: []byte{1}}})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, fx.images.saved)
				return
			}
			require.NoError(t, err)
			assert.Len(t, images, 1)
		})
	}
}

func TestFichaService_RejectionImage(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	f, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	other, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: f.ID, Actor: boss, TargetStage: domainwf.StageMolding})
	require.NoError(t, err)
	_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
		FichaID: f.ID, Actor: boss, ReasonCode: "Trinca", Description: "x", ReturnStage: domainwf.StagePatternMaking,
	})
	require.NoError(t, err)

	images, err := fx.service.AttachRejectionImages(ctx, f.ID, []ImageUpload{{Name: "trinca.png", Content: []byte("png")}})
	require.NoError(t, err)
	imageID := images[0].ID

	img, content, err := fx.service.RejectionImage(ctx, f.ID, imageID)
	require.NoError(t, err)
	assert.Equal(t, "trinca.png", img.OriginalName)
	assert.Equal(t, []byte("png"), content)

	_, _, err = fx.service.RejectionImage(ctx, other.ID, imageID)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
	_, _, err = fx.service.RejectionImage(ctx, f.ID, imageID+50)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
}

func TestFichaService_GetByCode(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)

	tests := []struct {
		name    string
		code    string
		wantID  int64
		wantErr error
	}{
		{name: "existing code", code: created.Code, wantID: created.ID},
		{name: "padded code", code: "  " + created.Code + " ", wantID: created.ID},
		{name: "unknown code", code: "RQ-24-2025-9999", wantErr: domainwf.ErrNotFound},
		{name: "blank code", code: " ", wantErr: domainwf.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := fx.service.GetByCode(ctx, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, detail.ID)
			assert.Len(t, detail.CoreBoxes, 2)
			assert.Len(t, detail.Movements, 1)
		})
	}
}

func TestReportService_RenderXLSX(t *testing.T) {
	fx := newFichaFixture(t, nil)
	ctx := context.Background()
	boss := entity.Actor{UserID: 1, Privilege: entity.PrivilegeAdministrator}

	f, err := fx.service.Create(ctx, designer, sampleInput())
	require.NoError(t, err)
	_, err = fx.engine.MoveToStage(ctx, workflow.MoveRequest{FichaID: f.ID, Actor: boss, TargetStage: domainwf.StageMolding})
	require.NoError(t, err)
	_, _, err = fx.engine.Reject(ctx, workflow.RejectRequest{
		FichaID: f.ID, Actor: boss, ReasonCode: "Inclusão", Description: "areia", ReturnStage: domainwf.StagePatternMaking,
		ImagePaths: []string{"1/x.jpg"},
	})
	require.NoError(t, err)

	report := NewReportService(fx.policy.Catalog, fx.service, &mockLogger{})
	data, err := report.RenderXLSX(ctx, f.ID)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Ficha", "Movimentações", "Reprovações"}, book.GetSheetList())

	code, err := book.GetCellValue("Ficha", "B1")
	require.NoError(t, err)
	assert.Equal(t, f.Code, code)

	stage, err := book.GetCellValue("Ficha", "B12")
	require.NoError(t, err)
	assert.Equal(t, "Modelação", stage)

	movements, err := book.GetRows("Movimentações")
	require.NoError(t, err)
	assert.Len(t, movements, 4, "header plus creation, move and rejection")

	rejections, err := book.GetRows("Reprovações")
	require.NoError(t, err)
	require.Len(t, rejections, 2)
	assert.Equal(t, "Inclusão", rejections[1][3])
	assert.Equal(t, "1/x.jpg", rejections[1][6])

	_, err = report.RenderXLSX(ctx, 999)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
}
