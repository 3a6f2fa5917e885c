package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by producers and handlers
const (
	KeyFromStage   = "from_stage"
	KeyToStage     = "to_stage"
	KeyCreatedBy   = "created_by"
	KeyActorID     = "actor_id"
	KeyReasonCode  = "reason_code"
	KeyStage       = "stage"
	KeyReturnStage = "return_stage"
	KeyNote        = "note"
	KeyMovementID  = "movement_id"
	KeyRejectionID = "rejection_id"
)

// Event represents a domain event emitted after a committed workflow mutation
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	FichaID       int64                  `json:"ficha_id"`
	FichaCode     string                 `json:"ficha_code"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, fichaID int64, fichaCode string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, fichaID, fichaCode, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, fichaID int64, fichaCode string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		FichaID:       fichaID,
		FichaCode:     fichaCode,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
