package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/events"
)

func TestWebhookReceivesTicketCreated(t *testing.T) {
	received := make(chan events.Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var e events.Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- e
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: srv.URL}).RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketCreated,
		SessionID: "session-1",
		TicketID:  77,
	})

	select {
	case e := <-received:
		if e.Type != events.EventTicketCreated || e.TicketID != 77 || e.SessionID != "session-1" {
			t.Fatalf("event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("webhook not called")
	}
}

func TestWebhookSkippedWithoutURL(t *testing.T) {
	n := NewNotificationService(nil, nil, config.NotificationConfig{WebhookURL: "  "})
	// Nothing to post to; must return without starting a request.
	n.notifyWebhook(events.Event{Type: events.EventTicketCreated})
}

func TestWebhookRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotificationService(nil, nil, config.NotificationConfig{WebhookURL: srv.URL})
	if err := n.postEvent(context.Background(), srv.URL, events.Event{Type: events.EventTicketCreated}); err == nil {
		t.Fatalf("want error for 500")
	}
}
