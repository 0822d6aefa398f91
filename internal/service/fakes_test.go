package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/repository"
	"github.com/spec-kit/mfl-intake/internal/zendesk"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

const (
	macroNew    int64 = 22998852760215
	macroOpen   int64 = 22998852854167
	macroSolved int64 = 22998828412695
)

type fakeMiddleware struct {
	mu           sync.Mutex
	dupResult    domain.DuplicateCheckResult
	dupCalls     int
	createResult *domain.CreateResult
	createErr    error
	created      []domain.TicketPayload
	meta         *domain.FormMetadata
	metaCalls    int
	page         *domain.TicketPage
	listCalls    []listCall
}

type listCall struct {
	page, size int
	status     domain.TicketStatus
}

func (f *fakeMiddleware) CheckPhoneDuplicate(_ context.Context, _ string) domain.DuplicateCheckResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dupCalls++
	return f.dupResult
}

func (f *fakeMiddleware) FormFields(context.Context) (*domain.FormMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metaCalls++
	if f.meta == nil {
		return nil, apperrors.NewUpstreamMessage("middleware", "form fields unavailable")
	}
	return f.meta, nil
}

func (f *fakeMiddleware) CreateTicket(_ context.Context, payload domain.TicketPayload) (*domain.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResult != nil && !f.createResult.Success {
		return f.createResult, nil
	}
	f.created = append(f.created, payload)
	id := int64(1000 + len(f.created))
	if f.createResult != nil && f.createResult.TicketID != 0 {
		id = f.createResult.TicketID
	}
	return &domain.CreateResult{Success: true, TicketID: id}, nil
}

func (f *fakeMiddleware) ListTickets(_ context.Context, page, pageSize int, status domain.TicketStatus) (*domain.TicketPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{page: page, size: pageSize, status: status})
	if f.page == nil {
		return &domain.TicketPage{Tickets: []domain.ListedTicket{}}, nil
	}
	return f.page, nil
}

type fakeCarrier struct {
	provider string
	err      error
	calls    int
}

func (f *fakeCarrier) Lookup(context.Context, string) (string, error) {
	f.calls++
	return f.provider, f.err
}

type fakeZendesk struct {
	mu          sync.Mutex
	status      domain.TicketStatus
	getErr      error
	comments    []domain.Comment
	commentsErr error
	previewErr  map[int64]error
	macroStatus map[int64]string
	previews    []int64
	updates     []map[string]json.RawMessage
	updateErr   error
}

func (f *fakeZendesk) GetTicket(_ context.Context, id int64) (*domain.TicketStatusSnapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.TicketStatusSnapshot{ID: id, Status: f.status, Subject: "Spam", CreatedAt: "2024-05-01T10:00:00Z"}, nil
}

func (f *fakeZendesk) ListComments(context.Context, int64) ([]domain.Comment, error) {
	return f.comments, f.commentsErr
}

func (f *fakeZendesk) PreviewMacro(_ context.Context, _ int64, macroID int64) (*zendesk.MacroPreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews = append(f.previews, macroID)
	if err := f.previewErr[macroID]; err != nil {
		return nil, err
	}
	preview := &zendesk.MacroPreview{
		Ticket:  map[string]json.RawMessage{"id": json.RawMessage(`1`)},
		Comment: json.RawMessage(`{"body":"Thanks for reporting","public":true}`),
	}
	if status, ok := f.macroStatus[macroID]; ok && status != "" {
		preview.Ticket["status"] = json.RawMessage(fmt.Sprintf("%q", status))
	}
	return preview, nil
}

func (f *fakeZendesk) UpdateTicket(_ context.Context, _ int64, fields map[string]json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeZendesk) AgentTicketURL(id int64) string {
	return fmt.Sprintf("https://acme.zendesk.com/agent/tickets/%d", id)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recordedEvents) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	sessions   repository.SessionRepository
	middleware *fakeMiddleware
	carrier    *fakeCarrier
	zendesk    *fakeZendesk
	recorded   *recordedEvents
	intake     *IntakeService
	monitor    *MonitorService
	list       *TicketListService
	macros     *MacroService
	sessionID  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sessions:   repository.NewMemorySessionRepository(time.Hour),
		middleware: &fakeMiddleware{},
		carrier:    &fakeCarrier{},
		zendesk: &fakeZendesk{
			status:      domain.TicketStatusNew,
			previewErr:  map[int64]error{},
			macroStatus: map[int64]string{},
		},
		recorded:  &recordedEvents{},
		sessionID: "session-1",
	}

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged, events.EventMacroApplied, events.EventMonitoringStopped} {
		dispatcher.Subscribe(et, h.recorded.handler)
	}

	locks := NewSessionLocks()
	h.macros = NewMacroService(MacroDependencies{API: h.zendesk, Dispatcher: dispatcher})
	h.intake = NewIntakeService(IntakeDependencies{
		Sessions:   h.sessions,
		Middleware: h.middleware,
		Carrier:    h.carrier,
		Links:      h.zendesk,
		Macros:     h.macros,
		Zendesk: config.ZendeskConfig{
			Subdomain:            "acme",
			PhoneProviderMapping: map[string]string{"Verizon Wireless": "Verizon"},
		},
		Locks:      locks,
		Dispatcher: dispatcher,
	})
	h.monitor = NewMonitorService(MonitorDependencies{
		Sessions:   h.sessions,
		Tickets:    h.zendesk,
		Macros:     h.macros,
		Locks:      locks,
		Dispatcher: dispatcher,
	})
	h.list = NewTicketListService(h.sessions, h.middleware, locks)

	if err := h.sessions.Create(context.Background(), domain.NewSession(h.sessionID, time.Now())); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return h
}

func (h *harness) session(t *testing.T) *domain.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), h.sessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return s
}

func validForm() domain.TicketPayload {
	return domain.TicketPayload{
		Subject:     "Robocalls impersonating Acme",
		Description: "Customers report calls from this number",
		Client:      "Acme",
		PhoneNumber: "727-555-5555",
	}
}
