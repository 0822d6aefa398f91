package domain

import "strings"

// TicketStatus is the ticketing platform's lifecycle status.
type TicketStatus string

const (
	TicketStatusNew     TicketStatus = "new"
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusHold    TicketStatus = "hold"
	TicketStatusSolved  TicketStatus = "solved"
	TicketStatusClosed  TicketStatus = "closed"
)

// TicketPayload is the form submission forwarded to the middleware.
type TicketPayload struct {
	Subject             string `json:"subject"`
	Description         string `json:"description"`
	Tags                string `json:"tags"`
	Client              string `json:"client"`
	PhoneNumber         string `json:"phone_number"`
	AttackVector        string `json:"attack_vector"`
	CallToAction        string `json:"call_to_action"`
	Sources             string `json:"sources"`
	Resolution          string `json:"resolution"`
	EscalateTo          string `json:"escalate_to"`
	PhoneNumberProvider string `json:"phone_number_provider,omitempty"`
}

// Normalized returns a copy with every field trimmed.
func (p TicketPayload) Normalized() TicketPayload {
	return TicketPayload{
		Subject:             strings.TrimSpace(p.Subject),
		Description:         strings.TrimSpace(p.Description),
		Tags:                strings.TrimSpace(p.Tags),
		Client:              strings.TrimSpace(p.Client),
		PhoneNumber:         strings.TrimSpace(p.PhoneNumber),
		AttackVector:        strings.TrimSpace(p.AttackVector),
		CallToAction:        strings.TrimSpace(p.CallToAction),
		Sources:             strings.TrimSpace(p.Sources),
		Resolution:          strings.TrimSpace(p.Resolution),
		EscalateTo:          strings.TrimSpace(p.EscalateTo),
		PhoneNumberProvider: strings.TrimSpace(p.PhoneNumberProvider),
	}
}

// MissingRequired lists required fields that are empty.
func (p TicketPayload) MissingRequired() []string {
	var missing []string
	if p.Subject == "" {
		missing = append(missing, "subject")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Client == "" {
		missing = append(missing, "client")
	}
	return missing
}

// HasPhone reports whether the duplicate workflow applies.
func (p TicketPayload) HasPhone() bool {
	return p.PhoneNumber != ""
}

// WithProvider returns a copy carrying the hidden carrier field.
func (p TicketPayload) WithProvider(provider string) TicketPayload {
	p.PhoneNumberProvider = provider
	return p
}

// TicketSummary is an existing ticket reported by the duplicate check.
type TicketSummary struct {
	ID        int64        `json:"id"`
	Status    TicketStatus `json:"status"`
	Subject   string       `json:"subject"`
	CreatedAt string       `json:"created_at"`
}

// ListedTicket is one row of the middleware ticket listing.
type ListedTicket struct {
	ID          int64        `json:"id"`
	PhoneNumber string       `json:"phone_number"`
	Status      TicketStatus `json:"status"`
	Subject     string       `json:"subject"`
	URL         string       `json:"url"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// TicketPage is one page of the middleware listing plus the unpaged total.
type TicketPage struct {
	Tickets []ListedTicket
	Total   int
}

// CreateResult is the middleware's answer to a create request.
type CreateResult struct {
	Success  bool
	TicketID int64
	Error    string
}

// ActiveTicket is the ticket created in this session and under monitoring.
type ActiveTicket struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// TicketStatusSnapshot is the monitored subset of a platform ticket.
type TicketStatusSnapshot struct {
	ID        int64        `json:"id"`
	Status    TicketStatus `json:"status"`
	Subject   string       `json:"subject"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// Comment is a ticket conversation entry. Public is nil when the platform omits it.
type Comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	Public    *bool  `json:"public,omitempty"`
	CreatedAt string `json:"created_at"`
}

// IsPublic treats a missing flag as public.
func (c Comment) IsPublic() bool {
	return c.Public == nil || *c.Public
}

// LatestPublicComment returns the last public comment in platform order.
func LatestPublicComment(comments []Comment) (Comment, bool) {
	for i := len(comments) - 1; i >= 0; i-- {
		if comments[i].IsPublic() {
			return comments[i], true
		}
	}
	return Comment{}, false
}
