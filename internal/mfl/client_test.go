package mfl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/domain"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL+"/", time.Second, nil, nil), srv.Close
}

func TestCheckPhoneDuplicateExists(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/mfl/check_phone_duplicate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["phone_number"] != "727-555-5555" {
			t.Errorf("phone_number = %q", body["phone_number"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"exists": true,
			"count":  2,
			"tickets": []map[string]any{
				{"id": 101, "status": "open", "subject": "first", "created_at": "2024-01-01T00:00:00Z"},
				{"id": 102, "status": "solved", "subject": "second", "created_at": "2024-02-01T00:00:00Z"},
			},
			"error": nil,
		})
	})
	defer done()

	got := c.CheckPhoneDuplicate(context.Background(), "727-555-5555")
	if !got.Exists || got.Count != 2 || len(got.Tickets) != 2 || got.Error != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Tickets[0].ID != 101 || got.Tickets[1].Status != domain.TicketStatusSolved {
		t.Fatalf("tickets out of order: %+v", got.Tickets)
	}
}

func TestCheckPhoneDuplicateStatusError(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	})
	defer done()

	got := c.CheckPhoneDuplicate(context.Background(), "7275555555")
	if got.Exists {
		t.Fatalf("exists should be false on error")
	}
	want := "Status 503: " + strings.Repeat("x", 200)
	if got.Error != want {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestCheckPhoneDuplicateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, nil, nil)
	got := c.CheckPhoneDuplicate(context.Background(), "7275555555")
	if got.Error != "Timeout" || got.Exists {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCreateTicket(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var payload domain.TicketPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload.Subject != "Spam calls" || payload.PhoneNumberProvider != "Verizon" {
			t.Errorf("payload = %+v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "ticket_id": 555})
	})
	defer done()

	res, err := c.CreateTicket(context.Background(), domain.TicketPayload{Subject: "Spam calls", PhoneNumberProvider: "Verizon"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if !res.Success || res.TicketID != 555 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateTicketReportedFailure(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unknown client"})
	})
	defer done()

	res, err := c.CreateTicket(context.Background(), domain.TicketPayload{})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if res.Success || res.Error != "unknown client" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateTicketHTTPError(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	})
	defer done()

	_, err := c.CreateTicket(context.Background(), domain.TicketPayload{})
	de := apperrors.ToDomainError(err)
	if de.Code != apperrors.CodeUpstream || de.Details["status"] != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected error: %+v", de)
	}
}

func TestListTicketsQuery(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/mfl/tickets" || q.Get("page") != "3" || q.Get("page_size") != "25" || q.Get("status") != "open" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"total":   105,
			"tickets": []map[string]any{{"id": 1, "status": "open", "phone_number": "7275555555"}},
		})
	})
	defer done()

	page, err := c.ListTickets(context.Background(), 3, 25, domain.TicketStatusOpen)
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if page.Total != 105 || len(page.Tickets) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestListTicketsOmitsEmptyStatus(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["status"]; ok {
			t.Errorf("status should be omitted: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "total": 0, "tickets": nil})
	})
	defer done()

	page, err := c.ListTickets(context.Background(), 1, 10, "")
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if page.Tickets == nil {
		t.Fatalf("tickets should be an empty slice")
	}
}

func TestFormFields(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":          true,
			"dropdown_options": map[string][]string{"360001": {"Acme", "Globex"}},
			"field_mapping":    map[string]any{"360001": map[string]any{"title": "Client Name", "type": "tagger"}},
		})
	})
	defer done()

	meta, err := c.FormFields(context.Background())
	if err != nil {
		t.Fatalf("FormFields: %v", err)
	}
	if len(meta.DropdownOptions["360001"]) != 2 || meta.FieldMapping["360001"].Title != "Client Name" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestFormFieldsUnsuccessful(t *testing.T) {
	c, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	})
	defer done()

	if _, err := c.FormFields(context.Background()); !apperrors.HasCode(err, apperrors.CodeUpstream) {
		t.Fatalf("want UPSTREAM_ERROR, got %v", err)
	}
}
