package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/auth"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/repository"
)

// OpenedSession is a freshly created session and its bearer token.
type OpenedSession struct {
	Session   *domain.Session
	Token     string
	ExpiresAt time.Time
}

// SessionService opens and reads intake sessions.
type SessionService struct {
	sessions   repository.SessionRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(sessions repository.SessionRepository, tokens *auth.TokenManager, dispatcher events.Dispatcher, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, tokens: tokens, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Open creates an idle session.
func (s *SessionService) Open(ctx context.Context) (*OpenedSession, error) {
	session := domain.NewSession(uuid.NewString(), s.now())
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.GenerateToken(session.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session opened", zap.String("session_id", session.ID))
	return &OpenedSession{Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

// Get returns the stored session.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Close deletes the session and stops any monitoring it had. Its token stops
// working immediately.
func (s *SessionService) Close(ctx context.Context, id string) error {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	var ticketID int64
	if session.ActiveTicket != nil {
		ticketID = session.ActiveTicket.ID
	}
	s.logger.Info("session closed", zap.String("session_id", id))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventMonitoringStopped,
		SessionID: id,
		TicketID:  ticketID,
	})
	return nil
}
