package metrics

import (
	"math"
	"time"

	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// IsOverdue is true iff the ficha is in progress and now is past the deadline
func IsOverdue(status workflow.Status, deadline, now time.Time) bool {
	return status == workflow.StatusInProgress && now.After(deadline)
}

// NextOverdueFlag returns the stored overdue flag after an evaluation at now.
// The flag is sticky: once set it is never cleared here, even when the
// deadline moves forward or the ficha leaves in_progress.
func NextOverdueFlag(current bool, status workflow.Status, deadline, now time.Time) bool {
	if current {
		return true
	}
	return IsOverdue(status, deadline, now)
}

// DaysOverdue returns whole days elapsed past the deadline, 0 when not late
func DaysOverdue(deadline, now time.Time) int {
	if !now.After(deadline) {
		return 0
	}
	return int(now.Sub(deadline).Hours() / 24)
}

// DaysRemaining returns whole days until the deadline, rounded up, 0 when past
func DaysRemaining(deadline, now time.Time) int {
	if !deadline.After(now) {
		return 0
	}
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// ApprovalDuration returns how long a ficha took from creation to approval.
// The bool is false when the ficha has no approval date.
func ApprovalDuration(createdAt time.Time, approvedAt *time.Time) (time.Duration, bool) {
	if approvedAt == nil || approvedAt.Before(createdAt) {
		return 0, false
	}
	return approvedAt.Sub(createdAt), true
}

// ApprovalDays is ApprovalDuration expressed in days
func ApprovalDays(createdAt time.Time, approvedAt *time.Time) (float64, bool) {
	d, ok := ApprovalDuration(createdAt, approvedAt)
	if !ok {
		return 0, false
	}
	return d.Hours() / 24, true
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
