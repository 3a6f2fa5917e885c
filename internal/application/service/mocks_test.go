package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type mockUserRepo struct {
	getByIDFunc               func(ctx context.Context, id int64) (*entity.User, error)
	listActiveBySectorFunc    func(ctx context.Context, sector string) ([]*entity.User, error)
	listActiveByPrivilegeFunc func(ctx context.Context, privilege entity.Privilege) ([]*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) ListActiveBySector(ctx context.Context, sector string) ([]*entity.User, error) {
	if m.listActiveBySectorFunc != nil {
		return m.listActiveBySectorFunc(ctx, sector)
	}
	return nil, nil
}

func (m *mockUserRepo) ListActiveByPrivilege(ctx context.Context, privilege entity.Privilege) ([]*entity.User, error) {
	if m.listActiveByPrivilegeFunc != nil {
		return m.listActiveByPrivilegeFunc(ctx, privilege)
	}
	return nil, nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []*entity.Notification

	createFunc      func(ctx context.Context, n *entity.Notification) error
	listForUserFunc func(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	markReadFunc    func(ctx context.Context, id, userID int64, at time.Time) error
	markAllReadFunc func(ctx context.Context, userID int64, at time.Time) (int64, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) Created() []*entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.Notification(nil), m.created...)
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	if m.listForUserFunc != nil {
		return m.listForUserFunc(ctx, userID, unreadOnly, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID int64, at time.Time) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, userID, at)
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	if m.markAllReadFunc != nil {
		return m.markAllReadFunc(ctx, userID, at)
	}
	return 0, nil
}

type sentMessage struct {
	openID string
	text   string
}

type mockMessageSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	sendFunc func(ctx context.Context, openID, text string) error
}

func (m *mockMessageSender) SendText(ctx context.Context, openID, text string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, openID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{openID: openID, text: text})
	return nil
}

type mockDashboardRepo struct {
	countByStatusFunc          func(ctx context.Context, filter port.DashboardFilter) (*port.StatusCounts, error)
	approvalSpansFunc          func(ctx context.Context, filter port.DashboardFilter) ([]port.ApprovalSpan, error)
	countInProgressByStageFunc func(ctx context.Context) (map[domainwf.StageKey]int, error)
	monthlyCountsFunc          func(ctx context.Context, year int) ([]port.MonthlyCount, error)
}

func (m *mockDashboardRepo) CountByStatus(ctx context.Context, filter port.DashboardFilter) (*port.StatusCounts, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, filter)
	}
	return &port.StatusCounts{}, nil
}

func (m *mockDashboardRepo) ApprovalSpans(ctx context.Context, filter port.DashboardFilter) ([]port.ApprovalSpan, error) {
	if m.approvalSpansFunc != nil {
		return m.approvalSpansFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockDashboardRepo) CountInProgressByStage(ctx context.Context) (map[domainwf.StageKey]int, error) {
	if m.countInProgressByStageFunc != nil {
		return m.countInProgressByStageFunc(ctx)
	}
	return map[domainwf.StageKey]int{}, nil
}

func (m *mockDashboardRepo) MonthlyCounts(ctx context.Context, year int) ([]port.MonthlyCount, error) {
	if m.monthlyCountsFunc != nil {
		return m.monthlyCountsFunc(ctx, year)
	}
	return nil, nil
}

type mockImageStorage struct {
	mu       sync.Mutex
	saved    []string
	deleted  []string
	contents map[string][]byte

	saveFunc func(ctx context.Context, fichaID int64, name string, content []byte) (string, error)
}

func (m *mockImageStorage) Save(ctx context.Context, fichaID int64, originalName string, content []byte) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, fichaID, originalName, content)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "img-" + originalName
	m.saved = append(m.saved, path)
	if m.contents == nil {
		m.contents = make(map[string][]byte)
	}
	m.contents[path] = content
	return path, nil
}

func (m *mockImageStorage) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.contents[path]
	if !ok {
		return nil, fmt.Errorf("%w: image %s", domainwf.ErrNotFound, path)
	}
	return content, nil
}

func (m *mockImageStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	delete(m.contents, path)
	return nil
}

// recordingDispatcher keeps published events instead of running handlers
type recordingDispatcher struct {
	mu       sync.Mutex
	events   []*event.Event
	handlers map[event.Type][]dispatcher.HandlerInfo
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: make(map[event.Type][]dispatcher.HandlerInfo)}
}

func (d *recordingDispatcher) SubscribeNamed(name string, handler dispatcher.Handler, eventTypes ...event.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range eventTypes {
		d.handlers[t] = append(d.handlers[t], dispatcher.HandlerInfo{Name: name, EventType: t, Handler: handler})
	}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.mu.Lock()
	handlers := append([]dispatcher.HandlerInfo(nil), d.handlers[evt.Type]...)
	d.mu.Unlock()
	for _, h := range handlers {
		if err := h.Handler(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (d *recordingDispatcher) Publish(ctx context.Context, evts ...*event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evts...)
}

func (d *recordingDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatcher.HandlerInfo(nil), d.handlers[eventType]...)
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) Types() []event.Type {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]event.Type, 0, len(d.events))
	for _, e := range d.events {
		types = append(types, e.Type)
	}
	return types
}
