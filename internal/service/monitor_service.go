package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/observability"
	"github.com/spec-kit/mfl-intake/internal/repository"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// MonitorView is the status panel for the session's active ticket.
type MonitorView struct {
	Ticket         domain.ActiveTicket         `json:"ticket"`
	Snapshot       domain.TicketStatusSnapshot `json:"snapshot"`
	LastStatus     domain.TicketStatus         `json:"last_status"`
	PreviousStatus domain.TicketStatus         `json:"previous_status,omitempty"`
	StatusChanged  bool                        `json:"status_changed"`
	Macro          *domain.MacroApplication    `json:"macro,omitempty"`
	MacroError     string                      `json:"macro_error,omitempty"`
	LatestComment  *domain.Comment             `json:"latest_comment,omitempty"`
	LastTransition *domain.StatusTransition    `json:"last_transition,omitempty"`
	PolledAt       time.Time                   `json:"polled_at"`
}

// MonitorService polls the active ticket and fires macros on status changes.
type MonitorService struct {
	sessions   repository.SessionRepository
	tickets    TicketReader
	macros     *MacroService
	locks      *SessionLocks
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// MonitorDependencies bundles collaborators for the monitor service.
type MonitorDependencies struct {
	Sessions   repository.SessionRepository
	Tickets    TicketReader
	Macros     *MacroService
	Locks      *SessionLocks
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewMonitorService constructs the service. Locks must be shared with the
// intake service so polls never interleave with submissions.
func NewMonitorService(deps MonitorDependencies) *MonitorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewSessionLocks()
	}
	return &MonitorService{
		sessions:   deps.Sessions,
		tickets:    deps.Tickets,
		macros:     deps.Macros,
		locks:      locks,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("monitor"),
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// Poll runs one monitoring cycle for the session's active ticket.
func (s *MonitorService) Poll(ctx context.Context, sessionID string) (*MonitorView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Monitoring() {
		return nil, apperrors.NewNotFound("active ticket", map[string]any{"session_id": sessionID})
	}
	ticketID := session.ActiveTicket.ID

	snapshot, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		s.metrics.RecordPoll(observability.OutcomeError)
		s.logger.Warn("status poll failed", zap.String("session_id", sessionID), zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordPoll(observability.OutcomeSuccess)

	now := s.now()
	view := &MonitorView{Ticket: *session.ActiveTicket, Snapshot: *snapshot}

	observed := session.LastStatus
	var transition *domain.StatusTransition
	if session.Monitor != nil {
		observed = session.Monitor.Snapshot.Status
		transition = session.Monitor.LastTransition
	}

	if snapshot.Status != observed {
		transition = &domain.StatusTransition{From: observed, To: snapshot.Status, At: now}
		view.StatusChanged = true
		view.PreviousStatus = observed
		s.logger.Info("ticket status changed",
			zap.String("session_id", sessionID),
			zap.Int64("ticket_id", ticketID),
			zap.String("from", string(observed)),
			zap.String("to", string(snapshot.Status)))
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:      events.EventTicketStatusChanged,
			SessionID: sessionID,
			TicketID:  ticketID,
			Payload:   events.TicketStatusChangedPayload{OldStatus: observed, NewStatus: snapshot.Status},
		})
	}

	// last_status only moves when a macro succeeds, so a status without a
	// rule never causes an earlier macro to fire again.
	if snapshot.Status != session.LastStatus {
		if rule, ok := s.macros.RuleFor(snapshot.Status); ok {
			if !view.StatusChanged {
				transition = &domain.StatusTransition{From: session.LastStatus, To: snapshot.Status, Retry: true, At: now}
			}
			app, err := s.macros.Apply(ctx, sessionID, ticketID, rule)
			if err != nil {
				view.MacroError = err.Error()
				transition.MacroError = view.MacroError
			} else {
				view.Macro = app
				transition.Macro = app
				next := app.Status
				if next == "" {
					next = snapshot.Status
				}
				session.LastStatus = next
			}
		}
	}

	comments, err := s.tickets.ListComments(ctx, ticketID)
	if err != nil {
		s.logger.Debug("comment fetch failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
	} else if latest, ok := domain.LatestPublicComment(comments); ok {
		view.LatestComment = &latest
	}

	view.LastStatus = session.LastStatus
	view.PolledAt = now
	view.LastTransition = transition
	session.Monitor = &domain.MonitorState{
		Snapshot:       *snapshot,
		LatestComment:  view.LatestComment,
		LastTransition: transition,
		PolledAt:       now,
	}
	session.UpdatedAt = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return view, nil
}

// Current returns the last stored poll without calling the platform.
func (s *MonitorService) Current(ctx context.Context, sessionID string) (*MonitorView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Monitoring() {
		return nil, apperrors.NewNotFound("active ticket", map[string]any{"session_id": sessionID})
	}
	view := &MonitorView{Ticket: *session.ActiveTicket, LastStatus: session.LastStatus}
	if session.Monitor != nil {
		view.Snapshot = session.Monitor.Snapshot
		view.LatestComment = session.Monitor.LatestComment
		view.PolledAt = session.Monitor.PolledAt
		view.LastTransition = session.Monitor.LastTransition
		if t := session.Monitor.LastTransition; t != nil && t.At.Equal(session.Monitor.PolledAt) {
			view.StatusChanged = !t.Retry
			if view.StatusChanged {
				view.PreviousStatus = t.From
			}
			view.Macro = t.Macro
			view.MacroError = t.MacroError
		}
	}
	return view, nil
}

// Stop clears the session, as if starting over, and stops its poller.
func (s *MonitorService) Stop(ctx context.Context, sessionID string) (*domain.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var ticketID int64
	if session.ActiveTicket != nil {
		ticketID = session.ActiveTicket.ID
	}
	session.Clear(s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("monitoring stopped", zap.String("session_id", sessionID), zap.Int64("ticket_id", ticketID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventMonitoringStopped,
		SessionID: sessionID,
		TicketID:  ticketID,
	})
	return session, nil
}
