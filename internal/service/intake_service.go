package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/observability"
	"github.com/spec-kit/mfl-intake/internal/repository"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// SubmitOutcome reports what a submission or confirmation led to. Either a
// ticket was created, or the workflow stopped in a state awaiting a decision.
type SubmitOutcome struct {
	Created    bool
	State      domain.WorkflowState
	Duplicate  *domain.DuplicateCheckResult
	Ticket     *domain.ActiveTicket
	Macro      *domain.MacroApplication
	MacroError string
}

// IntakeService runs the duplicate-check workflow and ticket creation.
type IntakeService struct {
	sessions   repository.SessionRepository
	middleware MiddlewareAPI
	carrier    CarrierLookup
	links      TicketLinker
	macros     *MacroService
	zendesk    config.ZendeskConfig
	locks      *SessionLocks
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Sessions   repository.SessionRepository
	Middleware MiddlewareAPI
	Carrier    CarrierLookup
	Links      TicketLinker
	Macros     *MacroService
	Zendesk    config.ZendeskConfig
	Locks      *SessionLocks
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewSessionLocks()
	}
	return &IntakeService{
		sessions:   deps.Sessions,
		middleware: deps.Middleware,
		carrier:    deps.Carrier,
		links:      deps.Links,
		macros:     deps.Macros,
		zendesk:    deps.Zendesk,
		locks:      locks,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("intake"),
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// Submit validates the form and either creates the ticket directly or stops
// in Warning/CheckError with the payload held for Confirm or Cancel.
func (s *IntakeService) Submit(ctx context.Context, sessionID string, input domain.TicketPayload) (*SubmitOutcome, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Workflow.State.AwaitingDecision() {
		return nil, apperrors.NewConflict("a submission is awaiting confirmation", map[string]any{
			"state": session.Workflow.State,
		})
	}

	payload := input.Normalized()
	// Provider is derived from the carrier lookup, never taken from the form.
	payload.PhoneNumberProvider = ""
	if missing := payload.MissingRequired(); len(missing) > 0 {
		return nil, apperrors.NewValidationError("Please fill all required fields (Subject, Description, Client).",
			map[string]any{"missing": missing})
	}

	if !payload.HasPhone() {
		return s.create(ctx, session, payload, false)
	}

	workflow := session.Workflow
	if err := workflow.Begin(); err != nil {
		return nil, apperrors.NewConflict(err.Error(), nil)
	}
	result := s.middleware.CheckPhoneDuplicate(ctx, payload.PhoneNumber)
	state, err := workflow.Resolve(payload, result)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordDuplicateCheck(string(state))

	if state == domain.WorkflowNoMatch {
		return s.create(ctx, session, payload, false)
	}

	s.logger.Info("duplicate check needs a decision",
		zap.String("session_id", sessionID),
		zap.String("state", string(state)),
		zap.Int("count", result.Count),
		zap.String("check_error", result.Error))

	session.Workflow = workflow
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &SubmitOutcome{State: state, Duplicate: &result}, nil
}

// Confirm creates the held submission without repeating the duplicate check.
// A failed creation leaves the session awaiting the same decision.
func (s *IntakeService) Confirm(ctx context.Context, sessionID string) (*SubmitOutcome, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	workflow := session.Workflow
	payload, err := workflow.Confirm()
	if err != nil {
		return nil, apperrors.NewConflict("no submission awaiting confirmation", map[string]any{"state": session.Workflow.State})
	}
	return s.create(ctx, session, payload, true)
}

// Cancel discards the held submission.
func (s *IntakeService) Cancel(ctx context.Context, sessionID string) (*domain.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Workflow.Cancel(); err != nil {
		return nil, apperrors.NewConflict("no submission awaiting confirmation", map[string]any{"state": session.Workflow.State})
	}
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// create runs carrier lookup, the middleware create call and the initial
// macro. session is only persisted once the ticket exists.
func (s *IntakeService) create(ctx context.Context, session *domain.Session, payload domain.TicketPayload, confirmed bool) (*SubmitOutcome, error) {
	if payload.HasPhone() && s.carrier != nil {
		provider, err := s.carrier.Lookup(ctx, payload.PhoneNumber)
		switch {
		case err != nil:
			s.logger.Warn("carrier lookup skipped", zap.String("session_id", session.ID), zap.Error(err))
		case provider != "":
			payload = payload.WithProvider(s.zendesk.ProviderDisplay(provider))
		}
	}

	result, err := s.middleware.CreateTicket(ctx, payload)
	if err != nil {
		s.metrics.RecordTicketCreated(observability.OutcomeError)
		return nil, err
	}
	if !result.Success {
		s.metrics.RecordTicketCreated(observability.OutcomeError)
		s.logger.Warn("middleware rejected ticket", zap.String("session_id", session.ID), zap.String("error", result.Error))
		return nil, apperrors.NewUpstreamMessage("middleware", result.Error)
	}
	s.metrics.RecordTicketCreated(observability.OutcomeSuccess)

	ticket := domain.ActiveTicket{ID: result.TicketID, URL: s.links.AgentTicketURL(result.TicketID)}
	session.ActiveTicket = &ticket
	session.LastStatus = domain.TicketStatusNew
	session.Monitor = nil
	session.Workflow.Reset()
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("ticket created but session not saved",
			zap.String("session_id", session.ID), zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("session_id", session.ID),
		zap.Int64("ticket_id", ticket.ID),
		zap.Bool("duplicate_confirmed", confirmed))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketCreated,
		SessionID: session.ID,
		TicketID:  ticket.ID,
		Payload: events.TicketCreatedPayload{
			URL:                 ticket.URL,
			Subject:             payload.Subject,
			Client:              payload.Client,
			PhoneNumberProvider: payload.PhoneNumberProvider,
			DuplicateConfirmed:  confirmed,
		},
	})

	outcome := &SubmitOutcome{Created: true, State: domain.WorkflowIdle, Ticket: &ticket}
	if rule, ok := s.macros.RuleFor(domain.TicketStatusNew); ok {
		app, err := s.macros.Apply(ctx, session.ID, ticket.ID, rule)
		if err != nil {
			outcome.MacroError = err.Error()
		} else {
			outcome.Macro = app
		}
	}
	return outcome, nil
}
