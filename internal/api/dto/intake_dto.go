package dto

import (
	"fmt"
	"time"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/service"
)

// SubmitTicketRequest is the intake form as posted by the client.
type SubmitTicketRequest struct {
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	Tags         string `json:"tags"`
	Client       string `json:"client"`
	PhoneNumber  string `json:"phone_number"`
	AttackVector string `json:"attack_vector"`
	CallToAction string `json:"call_to_action"`
	Sources      string `json:"sources"`
	Resolution   string `json:"resolution"`
	EscalateTo   string `json:"escalate_to"`
}

// Payload converts the request to the domain payload.
func (r SubmitTicketRequest) Payload() domain.TicketPayload {
	return domain.TicketPayload{
		Subject:      r.Subject,
		Description:  r.Description,
		Tags:         r.Tags,
		Client:       r.Client,
		PhoneNumber:  r.PhoneNumber,
		AttackVector: r.AttackVector,
		CallToAction: r.CallToAction,
		Sources:      r.Sources,
		Resolution:   r.Resolution,
		EscalateTo:   r.EscalateTo,
	}
}

// UpdateViewRequest changes list filter and page size.
type UpdateViewRequest struct {
	Status   *string `json:"status"`
	PageSize *int    `json:"page_size"`
}

// NavigateRequest moves the list to another page.
type NavigateRequest struct {
	Action string `json:"action"`
	Page   int    `json:"page"`
}

// SessionOpenedResponse carries the bearer token for a new session.
type SessionOpenedResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Session   SessionView `json:"session"`
}

// SessionView is the client-visible session state.
type SessionView struct {
	ID             string                `json:"id"`
	WorkflowState  domain.WorkflowState  `json:"workflow_state"`
	PendingTicket  *domain.TicketPayload `json:"pending_ticket,omitempty"`
	DuplicateCheck *DuplicateCheckView   `json:"duplicate_check,omitempty"`
	ActiveTicket   *domain.ActiveTicket  `json:"active_ticket,omitempty"`
	LastStatus     domain.TicketStatus   `json:"last_status,omitempty"`
	List           domain.ListView       `json:"list"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// DuplicateCheckView is a duplicate-check result prepared for display.
type DuplicateCheckView struct {
	Exists  bool                  `json:"exists"`
	Count   int                   `json:"count"`
	Error   string                `json:"error,omitempty"`
	Message string                `json:"message"`
	Tickets []DuplicateTicketView `json:"tickets"`
}

// DuplicateTicketView is one existing ticket shown in the warning.
type DuplicateTicketView struct {
	ID          int64               `json:"id"`
	Status      domain.TicketStatus `json:"status"`
	StatusLabel string              `json:"status_label"`
	Subject     string              `json:"subject"`
	Created     string              `json:"created"`
}

// SubmitResponse reports a submission or confirmation.
type SubmitResponse struct {
	Created        bool                     `json:"created"`
	State          domain.WorkflowState     `json:"state"`
	Ticket         *domain.ActiveTicket     `json:"ticket,omitempty"`
	Macro          *domain.MacroApplication `json:"macro,omitempty"`
	MacroWarning   string                   `json:"macro_warning,omitempty"`
	DuplicateCheck *DuplicateCheckView      `json:"duplicate_check,omitempty"`
}

// NewSessionView builds the session response.
func NewSessionView(s *domain.Session) SessionView {
	return SessionView{
		ID:             s.ID,
		WorkflowState:  s.Workflow.State,
		PendingTicket:  s.Workflow.Pending,
		DuplicateCheck: NewDuplicateCheckView(s.Workflow.Result),
		ActiveTicket:   s.ActiveTicket,
		LastStatus:     s.LastStatus,
		List:           s.List,
		UpdatedAt:      s.UpdatedAt,
	}
}

// NewDuplicateCheckView returns nil for a nil result.
func NewDuplicateCheckView(r *domain.DuplicateCheckResult) *DuplicateCheckView {
	if r == nil {
		return nil
	}
	view := &DuplicateCheckView{
		Exists:  r.Exists,
		Count:   r.Count,
		Error:   r.Error,
		Tickets: make([]DuplicateTicketView, 0, len(r.Tickets)),
	}
	switch {
	case r.Error != "":
		view.Message = fmt.Sprintf("Could not check for duplicates: %s", r.Error)
	case r.Exists:
		view.Message = fmt.Sprintf("Found %d existing ticket(s) with this phone number", r.Count)
	}
	for _, t := range r.Tickets {
		status := t.Status
		if status == "" {
			status = "unknown"
		}
		view.Tickets = append(view.Tickets, DuplicateTicketView{
			ID:          t.ID,
			Status:      status,
			StatusLabel: domain.StatusLabel(status),
			Subject:     t.Subject,
			Created:     domain.FormatTimestamp(t.CreatedAt),
		})
	}
	return view
}

// NewSubmitResponse builds the response for an intake outcome.
func NewSubmitResponse(out *service.SubmitOutcome) SubmitResponse {
	return SubmitResponse{
		Created:        out.Created,
		State:          out.State,
		Ticket:         out.Ticket,
		Macro:          out.Macro,
		MacroWarning:   out.MacroError,
		DuplicateCheck: NewDuplicateCheckView(out.Duplicate),
	}
}
