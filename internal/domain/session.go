package domain

import "time"

// StatusTransition is the most recent status change seen by a poll and the
// outcome of the macro it triggered, if any.
type StatusTransition struct {
	From       TicketStatus      `json:"from"`
	To         TicketStatus      `json:"to"`
	Macro      *MacroApplication `json:"macro,omitempty"`
	MacroError string            `json:"macro_error,omitempty"`
	// Retry marks a macro attempted again for a status seen on an earlier poll.
	Retry bool      `json:"retry,omitempty"`
	At    time.Time `json:"at"`
}

// MonitorState is the last status poll stored for display.
type MonitorState struct {
	Snapshot       TicketStatusSnapshot `json:"snapshot"`
	LatestComment  *Comment             `json:"latest_comment,omitempty"`
	LastTransition *StatusTransition    `json:"last_transition,omitempty"`
	PolledAt       time.Time            `json:"polled_at"`
}

// Session is the per-user interaction state of the intake front end.
type Session struct {
	ID           string            `json:"id"`
	Workflow     DuplicateWorkflow `json:"workflow"`
	ActiveTicket *ActiveTicket     `json:"active_ticket,omitempty"`
	LastStatus   TicketStatus      `json:"last_status,omitempty"`
	Monitor      *MonitorState     `json:"monitor,omitempty"`
	List         ListView          `json:"list"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewSession returns an idle session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Workflow:  DuplicateWorkflow{State: WorkflowIdle},
		List:      NewListView(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Monitoring reports whether a created ticket is being watched.
func (s *Session) Monitoring() bool {
	return s.ActiveTicket != nil
}

// Clear drops everything but the identity, as when monitoring is stopped.
func (s *Session) Clear(now time.Time) {
	*s = *NewSession(s.ID, s.CreatedAt)
	s.UpdatedAt = now
}
