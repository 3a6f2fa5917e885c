package event

// Type identifies the type of domain event
type Type string

const (
	TypeFichaCreated       Type = "ficha.created"
	TypeFichaMoved         Type = "ficha.moved"
	TypeFichaApproved      Type = "ficha.approved"
	TypeFichaRejected      Type = "ficha.rejected"
	TypeFichaRejectedFinal Type = "ficha.rejected_final"
	TypeFichaOverdue       Type = "ficha.overdue"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeFichaCreated,
		TypeFichaMoved,
		TypeFichaApproved,
		TypeFichaRejected,
		TypeFichaRejectedFinal,
		TypeFichaOverdue:
		return true
	default:
		return false
	}
}
