package repository

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/domain"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

func TestMemorySessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	session := domain.NewSession("s-1", now)
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, session); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("duplicate create: %v", err)
	}

	loaded, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	loaded.ActiveTicket = &domain.ActiveTicket{ID: 42, URL: "https://acme.zendesk.com/agent/tickets/42"}
	loaded.LastStatus = domain.TicketStatusNew

	again, _ := repo.Get(ctx, "s-1")
	if again.ActiveTicket != nil {
		t.Fatalf("unsaved mutation leaked into the store")
	}

	if err := repo.Save(ctx, loaded); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, _ = repo.Get(ctx, "s-1")
	if again.ActiveTicket == nil || again.ActiveTicket.ID != 42 || again.LastStatus != domain.TicketStatusNew {
		t.Fatalf("saved session = %+v", again)
	}
}

func TestMemorySessionExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_ = repo.Create(ctx, domain.NewSession("s-1", now))
	now = now.Add(2 * time.Minute)

	if _, err := repo.Get(ctx, "s-1"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expired session: %v", err)
	}
	if err := repo.Save(ctx, domain.NewSession("s-1", now)); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("save after expiry: %v", err)
	}
}

func TestMemorySessionDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	_ = repo.Create(ctx, domain.NewSession("s-1", time.Now()))
	_ = repo.Delete(ctx, "s-1")
	if _, err := repo.Get(ctx, "s-1"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("deleted session: %v", err)
	}
}
