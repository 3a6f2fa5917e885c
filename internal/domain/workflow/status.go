package workflow

// Status is the lifecycle status of a ficha
type Status string

const (
	StatusInProgress    Status = "in_progress"
	StatusApproved      Status = "approved"
	StatusRejectedFinal Status = "rejected_final"
)

var validStatuses = map[Status]bool{
	StatusInProgress:    true,
	StatusApproved:      true,
	StatusRejectedFinal: true,
}

// IsTerminal returns true if no further stage transitions or rejections are allowed
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejectedFinal
}

// IsValid returns true if the status is a known ficha status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
