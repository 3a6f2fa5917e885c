package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// ErrDuplicateKey is wrapped by repositories when an insert hits a unique constraint
var ErrDuplicateKey = errors.New("duplicate key")

// FichaRepository defines persistence operations for Ficha.
// Getters return nil, nil when the ficha does not exist.
type FichaRepository interface {
	Create(ctx context.Context, ficha *entity.Ficha) error
	GetByID(ctx context.Context, id int64) (*entity.Ficha, error)
	GetByCode(ctx context.Context, code string) (*entity.Ficha, error)
	// MaxCodeSuffix returns the highest numeric suffix of codes starting with prefix, 0 if none
	MaxCodeSuffix(ctx context.Context, prefix string) (int, error)
	// UpdateWorkflowState writes stage, status, flags and stage data when the stored
	// version equals expectedVersion, and bumps the version. A version mismatch
	// returns workflow.ErrConcurrentModification.
	UpdateWorkflowState(ctx context.Context, ficha *entity.Ficha, expectedVersion int64) error
	// UpdateDetails writes header, measurement and ratio fields under the same version check
	UpdateDetails(ctx context.Context, ficha *entity.Ficha, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter entity.FichaFilter) ([]*entity.Ficha, error)
	// MarkOverdue flags every in-progress, not yet flagged ficha whose deadline is
	// before now and returns the flagged ids
	MarkOverdue(ctx context.Context, now time.Time) ([]int64, error)
}

// FichaChildRepository manages the child collections owned by a ficha.
// Replace deletes every existing child and inserts the given ones.
type FichaChildRepository interface {
	ReplaceCoreBoxes(ctx context.Context, fichaID int64, boxes []entity.CoreBox) error
	ReplaceTreeMolds(ctx context.Context, fichaID int64, molds []entity.TreeMold) error
	ReplaceKalpurSleeves(ctx context.Context, fichaID int64, sleeves []entity.KalpurSleeve) error
	ListCoreBoxes(ctx context.Context, fichaID int64) ([]entity.CoreBox, error)
	ListTreeMolds(ctx context.Context, fichaID int64) ([]entity.TreeMold, error)
	ListKalpurSleeves(ctx context.Context, fichaID int64) ([]entity.KalpurSleeve, error)
}

// MovementRepository is the append-only movement ledger
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	// ListForFicha returns the ficha's movements, newest first
	ListForFicha(ctx context.Context, fichaID int64) ([]entity.Movement, error)
	// ListRecent returns the newest movements across all fichas
	ListRecent(ctx context.Context, limit int) ([]entity.RecentMovement, error)
}

// RejectionRepository defines persistence operations for Rejection and its images
type RejectionRepository interface {
	Create(ctx context.Context, rejection *entity.Rejection) error
	GetLatestForFicha(ctx context.Context, fichaID int64) (*entity.Rejection, error)
	AddImage(ctx context.Context, image *entity.RejectionImage) error
	// ListForFicha returns rejections newest first, with images
	ListForFicha(ctx context.Context, fichaID int64) ([]entity.Rejection, error)
	// GetImage returns an image of one of the ficha's rejections, nil when the
	// image does not exist or belongs to another ficha
	GetImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, error)
}

// StageImageRepository defines persistence operations for the per-stage gallery
type StageImageRepository interface {
	Create(ctx context.Context, image *entity.StageImage) error
	// GetByID returns nil, nil when the image does not exist
	GetByID(ctx context.Context, id int64) (*entity.StageImage, error)
	// ListForFicha returns the ficha's images newest first; an empty stage lists all stages
	ListForFicha(ctx context.Context, fichaID int64, stage workflow.StageKey) ([]entity.StageImage, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository defines persistence operations for notification recipients
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ListActiveBySector(ctx context.Context, sector string) ([]*entity.User, error)
	ListActiveByPrivilege(ctx context.Context, privilege entity.Privilege) ([]*entity.User, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
}

// DashboardFilter narrows dashboard aggregates
type DashboardFilter struct {
	Since    *time.Time
	Designer string
	Material string
}

// StatusCounts aggregates fichas by outcome
type StatusCounts struct {
	Total         int
	InProgress    int
	Approved      int
	RejectedFinal int
	Overdue       int
}

// ApprovalSpan is the creation and approval time of one approved ficha
type ApprovalSpan struct {
	CreatedAt  time.Time
	ApprovedAt time.Time
}

// MonthlyCount is one month of activity
type MonthlyCount struct {
	Month      int
	Created    int
	Approved   int
	Rejections int
}

// DashboardRepository provides read-only aggregates
type DashboardRepository interface {
	CountByStatus(ctx context.Context, filter DashboardFilter) (*StatusCounts, error)
	ApprovalSpans(ctx context.Context, filter DashboardFilter) ([]ApprovalSpan, error)
	CountInProgressByStage(ctx context.Context) (map[workflow.StageKey]int, error)
	MonthlyCounts(ctx context.Context, year int) ([]MonthlyCount, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
