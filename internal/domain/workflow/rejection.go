package workflow

import (
	"fmt"
	"strings"
)

// RejectionModel selects what a rejection does to the ficha's stage
type RejectionModel string

const (
	// RejectionReturnToStage sends the ficha back to an earlier stage
	RejectionReturnToStage RejectionModel = "return_to_stage"
	// RejectionTerminalQueue keeps the stage and parks the ficha in the rework queue
	RejectionTerminalQueue RejectionModel = "terminal_queue"
)

// IsValid returns true if the model is known
func (m RejectionModel) IsValid() bool {
	return m == RejectionReturnToStage || m == RejectionTerminalQueue
}

// String returns the string representation of the rejection model
func (m RejectionModel) String() string {
	return string(m)
}

// MaxRejectionImages caps the evidence images attached to one rejection
const MaxRejectionImages = 10

// ReasonCodes lists the accepted rejection reasons in display order
var ReasonCodes = []string{
	"Defeito dimensional",
	"Defeito superficial",
	"Porosidade",
	"Trinca",
	"Inclusão",
	"Material incorreto",
	"Rechupe",
	"Outro",
}

// IsValidReason reports whether code is one of ReasonCodes
func IsValidReason(code string) bool {
	for _, r := range ReasonCodes {
		if r == code {
			return true
		}
	}
	return false
}

// ValidateRejectionInput checks the reason, description and image count of a rejection
func ValidateRejectionInput(reasonCode, description string, imageCount int) error {
	if !IsValidReason(reasonCode) {
		return NewValidationError("reason_code", fmt.Sprintf("unknown rejection reason %q", reasonCode))
	}
	if strings.TrimSpace(description) == "" {
		return NewValidationError("description", "description is required")
	}
	if imageCount > MaxRejectionImages {
		return NewValidationError("images", fmt.Sprintf("at most %d images allowed", MaxRejectionImages))
	}
	return nil
}
