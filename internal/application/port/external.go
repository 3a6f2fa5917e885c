package port

import (
	"context"

	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Notifier fans out workflow notifications. Calls are fire-and-forget:
// delivery failures are logged by the implementation and never returned.
type Notifier interface {
	NotifyStageEntry(ctx context.Context, fichaID int64, fichaCode string, stage workflow.StageKey)
	NotifyRejection(ctx context.Context, fichaID int64, fichaCode string, creatorID int64, reasonCode string, stage workflow.StageKey)
	NotifyApproval(ctx context.Context, fichaID int64, fichaCode string, creatorID int64)
	NotifyOverdue(ctx context.Context, fichaID int64, fichaCode string, stage workflow.StageKey)
}

// MessageSender pushes a plain text message to a chat user
type MessageSender interface {
	SendText(ctx context.Context, openID, text string) error
}
