package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/auth"
	"github.com/spec-kit/mfl-intake/internal/events"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

func TestCloseDeletesSessionAndStopsMonitoring(t *testing.T) {
	h := newHarness(t)
	startMonitoring(t, h)

	dispatcher := events.NewInMemoryDispatcher(nil)
	var stopped []events.Event
	dispatcher.Subscribe(events.EventMonitoringStopped, func(_ context.Context, e events.Event) error {
		stopped = append(stopped, e)
		return nil
	})
	svc := NewSessionService(h.sessions, auth.NewTokenManager("secret", time.Hour), dispatcher, nil)

	if err := svc.Close(context.Background(), h.sessionID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := h.sessions.Get(context.Background(), h.sessionID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("session still stored: %v", err)
	}
	if len(stopped) != 1 || stopped[0].SessionID != h.sessionID || stopped[0].TicketID != 1001 {
		t.Fatalf("stop events = %+v", stopped)
	}
	if err := svc.Close(context.Background(), h.sessionID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpenIssuesTokenForStoredSession(t *testing.T) {
	h := newHarness(t)
	tokens := auth.NewTokenManager("secret", time.Hour)
	svc := NewSessionService(h.sessions, tokens, nil, nil)

	opened, err := svc.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	claims, err := tokens.ParseToken(opened.Token)
	if err != nil || claims.SessionID != opened.Session.ID {
		t.Fatalf("claims %+v, %v", claims, err)
	}
	if _, err := svc.Get(context.Background(), opened.Session.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}
