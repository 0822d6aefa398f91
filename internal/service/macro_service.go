package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/observability"
	"github.com/spec-kit/mfl-intake/internal/zendesk"
)

// MacroService applies status-triggered macros by previewing them on the
// platform and replaying the preview as a ticket update.
type MacroService struct {
	api        MacroAPI
	table      domain.MacroTable
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// MacroDependencies bundles collaborators for the macro service.
type MacroDependencies struct {
	API        MacroAPI
	Table      domain.MacroTable
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewMacroService constructs the service. A nil table means DefaultMacroTable.
func NewMacroService(deps MacroDependencies) *MacroService {
	table := deps.Table
	if table == nil {
		table = domain.DefaultMacroTable
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MacroService{
		api:        deps.API,
		table:      table,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// RuleFor returns the macro triggered by status, if any.
func (s *MacroService) RuleFor(status domain.TicketStatus) (domain.MacroRule, bool) {
	return s.table.ForStatus(status)
}

// Apply previews rule on the ticket and, only if the preview succeeds,
// submits the proposed changes. The returned status is whatever the update
// sets, empty when the macro leaves status alone.
func (s *MacroService) Apply(ctx context.Context, sessionID string, ticketID int64, rule domain.MacroRule) (*domain.MacroApplication, error) {
	log := s.logger.With(
		zap.Int64("ticket_id", ticketID),
		zap.Int64("macro_id", rule.ID),
		zap.String("trigger", string(rule.TriggerStatus)))

	preview, err := s.api.PreviewMacro(ctx, ticketID, rule.ID)
	if err != nil {
		log.Warn("macro preview failed", zap.Error(err))
		s.metrics.RecordMacro(string(rule.TriggerStatus), observability.OutcomeError)
		return nil, err
	}

	fields := preview.UpdateFields()
	if err := s.api.UpdateTicket(ctx, ticketID, fields); err != nil {
		log.Warn("macro update failed", zap.Error(err))
		s.metrics.RecordMacro(string(rule.TriggerStatus), observability.OutcomeError)
		return nil, err
	}

	app := &domain.MacroApplication{Macro: rule, Status: zendesk.StatusFrom(fields)}
	s.metrics.RecordMacro(string(rule.TriggerStatus), observability.OutcomeSuccess)
	log.Info("macro applied", zap.String("status", string(app.Status)))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventMacroApplied,
		SessionID: sessionID,
		TicketID:  ticketID,
		Payload: events.MacroAppliedPayload{
			MacroID:   rule.ID,
			MacroName: rule.Name,
			Trigger:   rule.TriggerStatus,
			NewStatus: app.Status,
		},
	})
	return app, nil
}
