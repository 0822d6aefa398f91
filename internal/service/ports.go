package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/zendesk"
)

// MiddlewareAPI is the subset of the middleware client the services use.
type MiddlewareAPI interface {
	CheckPhoneDuplicate(ctx context.Context, phone string) domain.DuplicateCheckResult
	FormFields(ctx context.Context) (*domain.FormMetadata, error)
	CreateTicket(ctx context.Context, payload domain.TicketPayload) (*domain.CreateResult, error)
	ListTickets(ctx context.Context, page, pageSize int, status domain.TicketStatus) (*domain.TicketPage, error)
}

// CarrierLookup resolves a phone number to its carrier name, "" when unknown.
type CarrierLookup interface {
	Lookup(ctx context.Context, phone string) (string, error)
}

// MacroAPI replays a macro on the ticketing platform.
type MacroAPI interface {
	PreviewMacro(ctx context.Context, id, macroID int64) (*zendesk.MacroPreview, error)
	UpdateTicket(ctx context.Context, id int64, fields map[string]json.RawMessage) error
}

// TicketReader reads the monitored fields of a ticket.
type TicketReader interface {
	GetTicket(ctx context.Context, id int64) (*domain.TicketStatusSnapshot, error)
	ListComments(ctx context.Context, id int64) ([]domain.Comment, error)
}

// TicketLinker builds agent UI links.
type TicketLinker interface {
	AgentTicketURL(id int64) string
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
