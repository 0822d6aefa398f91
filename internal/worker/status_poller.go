package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/service"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// Poller runs one monitoring cycle for a session.
type Poller interface {
	Poll(ctx context.Context, sessionID string) (*service.MonitorView, error)
}

// StatusPoller keeps one ticker per monitored session. It starts when a
// ticket is created and stops when monitoring is stopped or the session is gone.
type StatusPoller struct {
	poller   Poller
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// NewStatusPoller constructs the worker. timeout bounds each poll cycle.
func NewStatusPoller(poller Poller, interval, timeout time.Duration, logger *zap.Logger) *StatusPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatusPoller{
		poller:   poller,
		interval: interval,
		timeout:  timeout,
		logger:   logger.Named("status_poller"),
		running:  make(map[string]context.CancelFunc),
	}
}

// RegisterHandlers subscribes the poller to session lifecycle events.
func (p *StatusPoller) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		p.Start(e.SessionID)
		return nil
	})
	dispatcher.Subscribe(events.EventMonitoringStopped, func(_ context.Context, e events.Event) error {
		p.Stop(e.SessionID)
		return nil
	})
}

// Start begins polling sessionID, replacing any loop already running for it.
func (p *StatusPoller) Start(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if cancel, ok := p.running[sessionID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.running[sessionID] = cancel
	p.wg.Add(1)
	go p.loop(ctx, sessionID)
	p.logger.Debug("polling started", zap.String("session_id", sessionID))
}

// Stop ends polling for sessionID. An in-flight poll is allowed to finish.
func (p *StatusPoller) Stop(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.running[sessionID]; ok {
		cancel()
		delete(p.running, sessionID)
		p.logger.Debug("polling stopped", zap.String("session_id", sessionID))
	}
}

// Active reports how many sessions are being polled.
func (p *StatusPoller) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}

// Shutdown stops every loop and waits for them to exit or ctx to expire.
func (p *StatusPoller) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	for id, cancel := range p.running {
		cancel()
		delete(p.running, id)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *StatusPoller) loop(ctx context.Context, sessionID string) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.pollOnce(ctx, sessionID) {
				p.forget(ctx, sessionID)
				return
			}
		}
	}
}

// pollOnce reports whether polling should continue.
func (p *StatusPoller) pollOnce(ctx context.Context, sessionID string) bool {
	pollCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	view, err := p.poller.Poll(pollCtx, sessionID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			p.logger.Info("nothing left to poll", zap.String("session_id", sessionID))
			return false
		}
		p.logger.Warn("poll failed", zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	if view.StatusChanged {
		p.logger.Info("status change handled",
			zap.String("session_id", sessionID),
			zap.Int64("ticket_id", view.Ticket.ID),
			zap.String("status", string(view.Snapshot.Status)),
			zap.String("macro_error", view.MacroError))
	}
	return true
}

// forget removes the entry for a loop that ended on its own, unless a newer
// loop has already replaced it.
func (p *StatusPoller) forget(ctx context.Context, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() == nil {
		if cancel, ok := p.running[sessionID]; ok {
			cancel()
			delete(p.running, sessionID)
		}
	}
}
