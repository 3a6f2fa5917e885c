package http

import (
	"context"
	"encoding/json"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/application/service"
	"github.com/garyjia/foundry-fichas/internal/application/workflow"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockFichaService struct {
	createFunc         func(ctx context.Context, actor entity.Actor, input service.FichaInput) (*entity.FichaDetail, error)
	updateFunc         func(ctx context.Context, id int64, patch service.FichaPatch) (*entity.FichaDetail, error)
	updateRealDataFunc func(ctx context.Context, id int64, stage domainwf.StageKey, payload json.RawMessage) (*entity.Ficha, error)
	getFunc            func(ctx context.Context, id int64) (*entity.FichaDetail, error)
	getByCodeFunc      func(ctx context.Context, code string) (*entity.FichaDetail, error)
	listFunc           func(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error)
	rejectedFunc       func(ctx context.Context, status domainwf.Status) ([]*entity.Ficha, error)
	deleteFunc         func(ctx context.Context, id int64) error
	attachFunc         func(ctx context.Context, fichaID int64, uploads []service.ImageUpload) ([]entity.RejectionImage, error)
	rejectionImageFunc func(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, []byte, error)
}

func (m *mockFichaService) Create(ctx context.Context, actor entity.Actor, input service.FichaInput) (*entity.FichaDetail, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, input)
	}
	return &entity.FichaDetail{}, nil
}

func (m *mockFichaService) Update(ctx context.Context, id int64, patch service.FichaPatch) (*entity.FichaDetail, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return &entity.FichaDetail{}, nil
}

func (m *mockFichaService) UpdateRealData(ctx context.Context, id int64, stage domainwf.StageKey, payload json.RawMessage) (*entity.Ficha, error) {
	if m.updateRealDataFunc != nil {
		return m.updateRealDataFunc(ctx, id, stage, payload)
	}
	return &entity.Ficha{ID: id}, nil
}

func (m *mockFichaService) Get(ctx context.Context, id int64) (*entity.FichaDetail, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.FichaDetail{Ficha: entity.Ficha{ID: id}}, nil
}

func (m *mockFichaService) GetByCode(ctx context.Context, code string) (*entity.FichaDetail, error) {
	if m.getByCodeFunc != nil {
		return m.getByCodeFunc(ctx, code)
	}
	return nil, domainwf.ErrNotFound
}

func (m *mockFichaService) List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.Ficha{}, nil
}

func (m *mockFichaService) Kanban(ctx context.Context) ([]service.KanbanColumn, error) {
	return []service.KanbanColumn{}, nil
}

func (m *mockFichaService) Overdue(ctx context.Context) ([]service.OverdueFicha, error) {
	return []service.OverdueFicha{}, nil
}

func (m *mockFichaService) Approved(ctx context.Context) ([]*entity.Ficha, error) {
	return []*entity.Ficha{}, nil
}

func (m *mockFichaService) Rejected(ctx context.Context, status domainwf.Status) ([]*entity.Ficha, error) {
	if m.rejectedFunc != nil {
		return m.rejectedFunc(ctx, status)
	}
	return []*entity.Ficha{}, nil
}

func (m *mockFichaService) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockFichaService) AttachRejectionImages(ctx context.Context, fichaID int64, uploads []service.ImageUpload) ([]entity.RejectionImage, error) {
	if m.attachFunc != nil {
		return m.attachFunc(ctx, fichaID, uploads)
	}
	return []entity.RejectionImage{}, nil
}

func (m *mockFichaService) RejectionImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, []byte, error) {
	if m.rejectionImageFunc != nil {
		return m.rejectionImageFunc(ctx, fichaID, imageID)
	}
	return nil, nil, domainwf.ErrNotFound
}

func (m *mockFichaService) SweepOverdue(ctx context.Context) ([]int64, error) {
	return nil, nil
}

type mockGallery struct {
	listFunc   func(ctx context.Context, fichaID int64, stage domainwf.StageKey) ([]entity.StageImage, error)
	uploadFunc func(ctx context.Context, actor entity.Actor, fichaID int64, upload service.GalleryUpload) (*entity.StageImage, error)
	openFunc   func(ctx context.Context, fichaID, imageID int64) (*entity.StageImage, []byte, error)
	deleteFunc func(ctx context.Context, fichaID, imageID int64) error
}

func (m *mockGallery) List(ctx context.Context, fichaID int64, stage domainwf.StageKey) ([]entity.StageImage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, fichaID, stage)
	}
	return []entity.StageImage{}, nil
}

func (m *mockGallery) Upload(ctx context.Context, actor entity.Actor, fichaID int64, upload service.GalleryUpload) (*entity.StageImage, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, actor, fichaID, upload)
	}
	return &entity.StageImage{FichaID: fichaID, Stage: upload.Stage}, nil
}

func (m *mockGallery) Open(ctx context.Context, fichaID, imageID int64) (*entity.StageImage, []byte, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, fichaID, imageID)
	}
	return nil, nil, domainwf.ErrNotFound
}

func (m *mockGallery) Delete(ctx context.Context, fichaID, imageID int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, fichaID, imageID)
	}
	return nil
}

type mockEngine struct {
	policy          domainwf.Policy
	moveFunc        func(ctx context.Context, req workflow.MoveRequest) (*entity.Ficha, error)
	rejectFunc      func(ctx context.Context, req workflow.RejectRequest) (*entity.Ficha, *entity.Rejection, error)
	rejectFinalFunc func(ctx context.Context, req workflow.RejectFinalRequest) (*entity.Ficha, error)
}

func (m *mockEngine) MoveToStage(ctx context.Context, req workflow.MoveRequest) (*entity.Ficha, error) {
	if m.moveFunc != nil {
		return m.moveFunc(ctx, req)
	}
	return &entity.Ficha{ID: req.FichaID, CurrentStage: req.TargetStage}, nil
}

func (m *mockEngine) Reject(ctx context.Context, req workflow.RejectRequest) (*entity.Ficha, *entity.Rejection, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, req)
	}
	return &entity.Ficha{ID: req.FichaID}, &entity.Rejection{FichaID: req.FichaID}, nil
}

func (m *mockEngine) RejectFinal(ctx context.Context, req workflow.RejectFinalRequest) (*entity.Ficha, error) {
	if m.rejectFinalFunc != nil {
		return m.rejectFinalFunc(ctx, req)
	}
	return &entity.Ficha{ID: req.FichaID, Status: domainwf.StatusRejectedFinal}, nil
}

func (m *mockEngine) Policy() domainwf.Policy {
	return m.policy
}

type mockDashboard struct {
	summaryFunc func(ctx context.Context, filter service.SummaryFilter) (*service.Summary, error)
	monthlyFunc func(ctx context.Context, year int) ([]port.MonthlyCount, error)
	recentFunc  func(ctx context.Context, limit int) ([]service.RecentActivity, error)
}

func (m *mockDashboard) Summary(ctx context.Context, filter service.SummaryFilter) (*service.Summary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, filter)
	}
	return &service.Summary{}, nil
}

func (m *mockDashboard) StageChart(ctx context.Context) ([]service.StageCount, error) {
	return []service.StageCount{}, nil
}

func (m *mockDashboard) MonthlyChart(ctx context.Context, year int) ([]port.MonthlyCount, error) {
	if m.monthlyFunc != nil {
		return m.monthlyFunc(ctx, year)
	}
	return []port.MonthlyCount{}, nil
}

func (m *mockDashboard) Recent(ctx context.Context, limit int) ([]service.RecentActivity, error) {
	if m.recentFunc != nil {
		return m.recentFunc(ctx, limit)
	}
	return []service.RecentActivity{}, nil
}

func (m *mockDashboard) Upcoming(ctx context.Context) ([]service.UpcomingFicha, error) {
	return []service.UpcomingFicha{}, nil
}

type mockInbox struct {
	listFunc     func(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	markReadFunc func(ctx context.Context, id, userID int64) error
	markAllFunc  func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockInbox) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, unreadOnly, limit)
	}
	return []*entity.Notification{}, nil
}

func (m *mockInbox) MarkRead(ctx context.Context, id, userID int64) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, userID)
	}
	return nil
}

func (m *mockInbox) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if m.markAllFunc != nil {
		return m.markAllFunc(ctx, userID)
	}
	return 0, nil
}

type mockReports struct {
	renderFunc func(ctx context.Context, fichaID int64) ([]byte, error)
}

func (m *mockReports) RenderXLSX(ctx context.Context, fichaID int64) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, fichaID)
	}
	return []byte("xlsx"), nil
}
