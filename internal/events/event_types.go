package events

import (
	"time"

	"github.com/spec-kit/mfl-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventMacroApplied        EventType = "macro_applied"
	EventMonitoringStopped   EventType = "monitoring_stopped"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	URL                 string `json:"url"`
	Subject             string `json:"subject"`
	Client              string `json:"client"`
	PhoneNumberProvider string `json:"phone_number_provider,omitempty"`
	DuplicateConfirmed  bool   `json:"duplicate_confirmed"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// MacroAppliedPayload payload.
type MacroAppliedPayload struct {
	MacroID   int64               `json:"macro_id"`
	MacroName string              `json:"macro_name"`
	Trigger   domain.TicketStatus `json:"trigger"`
	NewStatus domain.TicketStatus `json:"new_status,omitempty"`
}
