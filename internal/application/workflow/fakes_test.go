package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// fakeStore is an in-memory store whose transactions roll back on error
type fakeStore struct {
	mu         sync.Mutex
	fichas     map[int64]entity.Ficha
	movements  []entity.Movement
	rejections []entity.Rejection

	appendErr  error
	rejectErr  error
	getErr     error
	bumpBefore bool // simulate a concurrent writer between read and write
}

func newFakeStore() *fakeStore {
	return &fakeStore{fichas: make(map[int64]entity.Ficha)}
}

func (s *fakeStore) put(f entity.Ficha) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Version == 0 {
		f.Version = 1
	}
	s.fichas[f.ID] = f
}

func (s *fakeStore) ficha(id int64) entity.Ficha {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fichas[id]
}

func (s *fakeStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *fakeStore) rejectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rejections)
}

// WithTransaction snapshots the store and restores it when fn fails
func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	fichas := make(map[int64]entity.Ficha, len(s.fichas))
	for k, v := range s.fichas {
		fichas[k] = v
	}
	movements := append([]entity.Movement(nil), s.movements...)
	rejections := append([]entity.Rejection(nil), s.rejections...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.fichas, s.movements, s.rejections = fichas, movements, rejections
		s.mu.Unlock()
		return err
	}
	return nil
}

type fakeFichaRepo struct{ s *fakeStore }

func (r *fakeFichaRepo) Create(ctx context.Context, f *entity.Ficha) error { return nil }

func (r *fakeFichaRepo) GetByID(ctx context.Context, id int64) (*entity.Ficha, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	f, ok := r.s.fichas[id]
	if !ok {
		return nil, nil
	}
	if f.StageData != nil {
		data := make(map[domainwf.StageKey]json.RawMessage, len(f.StageData))
		for k, v := range f.StageData {
			data[k] = v
		}
		f.StageData = data
	}
	if r.s.bumpBefore {
		stored := r.s.fichas[id]
		stored.Version++
		r.s.fichas[id] = stored
	}
	return &f, nil
}

func (r *fakeFichaRepo) GetByCode(ctx context.Context, code string) (*entity.Ficha, error) {
	return nil, nil
}

func (r *fakeFichaRepo) MaxCodeSuffix(ctx context.Context, prefix string) (int, error) { return 0, nil }

func (r *fakeFichaRepo) UpdateWorkflowState(ctx context.Context, f *entity.Ficha, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.fichas[f.ID]
	if !ok || stored.Version != expectedVersion {
		return domainwf.ErrConcurrentModification
	}
	f.Version = expectedVersion + 1
	r.s.fichas[f.ID] = *f
	return nil
}

func (r *fakeFichaRepo) UpdateDetails(ctx context.Context, f *entity.Ficha, expectedVersion int64) error {
	return nil
}

func (r *fakeFichaRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *fakeFichaRepo) List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error) {
	return nil, nil
}

func (r *fakeFichaRepo) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	return nil, nil
}

type fakeMovementRepo struct{ s *fakeStore }

func (r *fakeMovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	m.ID = int64(len(r.s.movements) + 1)
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *fakeMovementRepo) ListForFicha(ctx context.Context, fichaID int64) ([]entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Movement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].FichaID == fichaID {
			out = append(out, r.s.movements[i])
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListRecent(ctx context.Context, limit int) ([]entity.RecentMovement, error) {
	return nil, nil
}

type fakeRejectionRepo struct{ s *fakeStore }

func (r *fakeRejectionRepo) Create(ctx context.Context, rej *entity.Rejection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.rejectErr != nil {
		return r.s.rejectErr
	}
	rej.ID = int64(len(r.s.rejections) + 1)
	r.s.rejections = append(r.s.rejections, *rej)
	return nil
}

func (r *fakeRejectionRepo) GetLatestForFicha(ctx context.Context, fichaID int64) (*entity.Rejection, error) {
	return nil, nil
}

func (r *fakeRejectionRepo) AddImage(ctx context.Context, image *entity.RejectionImage) error {
	return nil
}

func (r *fakeRejectionRepo) ListForFicha(ctx context.Context, fichaID int64) ([]entity.Rejection, error) {
	return nil, nil
}

func (r *fakeRejectionRepo) GetImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, error) {
	return nil, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (d *recordingDispatcher) SubscribeNamed(name string, handler dispatcher.Handler, eventTypes ...event.Type) {
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.Publish(ctx, evt)
	return nil
}

func (d *recordingDispatcher) Publish(ctx context.Context, evts ...*event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evts...)
}

func (d *recordingDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) types() []event.Type {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]event.Type, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

var errDiskFull = errors.New("database or disk is full")
