package entity

import "time"

// NotificationKind classifies a notification
type NotificationKind string

const (
	NotificationOverdue   NotificationKind = "overdue"
	NotificationMovement  NotificationKind = "movement"
	NotificationApproval  NotificationKind = "approval"
	NotificationRejection NotificationKind = "rejection"
	NotificationGeneral   NotificationKind = "general"
)

// Notification is a persisted message for one user
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	FichaID   *int64           `json:"ficha_id,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
