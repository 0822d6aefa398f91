package service

import (
	"context"
	"testing"

	"github.com/spec-kit/mfl-intake/internal/domain"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

func TestListPagingClampsToFetchedTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.middleware.page = &domain.TicketPage{
		Total:   105,
		Tickets: []domain.ListedTicket{{ID: 1, Status: "open", CreatedAt: "2024-05-01T10:00:00Z"}},
	}

	size := 25
	if _, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{PageSize: &size}); err != nil {
		t.Fatalf("UpdateView: %v", err)
	}
	page, err := h.list.Page(ctx, h.sessionID)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.TotalPages != 5 || page.RangeStart != 1 || page.RangeEnd != 25 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Rows[0].StatusLabel != "📂 Open" || page.Rows[0].Created != "2024-05-01 10:00:00" {
		t.Fatalf("row = %+v", page.Rows[0])
	}

	view, err := h.list.Navigate(ctx, h.sessionID, domain.NavGoto, 6)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if view.CurrentPage != 5 {
		t.Fatalf("goto 6 landed on %d", view.CurrentPage)
	}
	if _, err := h.list.Page(ctx, h.sessionID); err != nil {
		t.Fatalf("Page: %v", err)
	}
	last := h.middleware.listCalls[len(h.middleware.listCalls)-1]
	if last.page != 5 || last.size != 25 {
		t.Fatalf("list call = %+v", last)
	}
}

func TestListFilterResetsPage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.middleware.page = &domain.TicketPage{Total: 100, Tickets: []domain.ListedTicket{}}
	_, _ = h.list.Page(ctx, h.sessionID)
	_, _ = h.list.Navigate(ctx, h.sessionID, domain.NavLast, 0)

	status := "solved"
	view, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateView: %v", err)
	}
	if view.CurrentPage != 1 || view.StatusFilter != domain.TicketStatusSolved {
		t.Fatalf("view = %+v", view)
	}
	_, _ = h.list.Page(ctx, h.sessionID)
	if last := h.middleware.listCalls[len(h.middleware.listCalls)-1]; last.status != domain.TicketStatusSolved {
		t.Fatalf("filter not forwarded: %+v", last)
	}
}

func TestListRejectsBadView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	size := 20
	if _, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{PageSize: &size}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("page size 20: %v", err)
	}
	status := "hold"
	if _, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{Status: &status}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("status hold: %v", err)
	}
	if _, err := h.list.Navigate(ctx, h.sessionID, "sideways", 0); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("bad action: %v", err)
	}
}

func TestListFilterChangeForgetsOldTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.middleware.page = &domain.TicketPage{Total: 105, Tickets: []domain.ListedTicket{}}
	if _, err := h.list.Page(ctx, h.sessionID); err != nil {
		t.Fatalf("Page: %v", err)
	}

	status := "solved"
	if _, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateView: %v", err)
	}
	view, err := h.list.Navigate(ctx, h.sessionID, domain.NavLast, 0)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if view.CurrentPage != 1 {
		t.Fatalf("last used the previous filter's total: page %d", view.CurrentPage)
	}

	h.middleware.page = &domain.TicketPage{Total: 3, Tickets: []domain.ListedTicket{{ID: 9, Status: "solved"}}}
	page, err := h.list.Page(ctx, h.sessionID)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.CurrentPage != 1 || page.TotalPages != 1 || page.RangeStart != 1 || page.RangeEnd != 3 {
		t.Fatalf("page = %+v", page)
	}
}

func TestListPageClampsWhenTotalShrinks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.middleware.page = &domain.TicketPage{Total: 105, Tickets: []domain.ListedTicket{}}
	size := 25
	if _, err := h.list.UpdateView(ctx, h.sessionID, ViewUpdate{PageSize: &size}); err != nil {
		t.Fatalf("UpdateView: %v", err)
	}
	if _, err := h.list.Page(ctx, h.sessionID); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, err := h.list.Navigate(ctx, h.sessionID, domain.NavLast, 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	h.middleware.page = &domain.TicketPage{Total: 30, Tickets: []domain.ListedTicket{{ID: 1}}}
	calls := len(h.middleware.listCalls)
	page, err := h.list.Page(ctx, h.sessionID)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.CurrentPage != 2 || page.TotalPages != 2 || page.RangeStart != 26 || page.RangeEnd != 30 {
		t.Fatalf("page = %+v", page)
	}
	fetched := h.middleware.listCalls[calls:]
	if len(fetched) != 2 || fetched[0].page != 5 || fetched[1].page != 2 {
		t.Fatalf("list calls = %+v", fetched)
	}
	if s := h.session(t); s.List.CurrentPage != 2 || s.List.LastTotal != 30 {
		t.Fatalf("stored view = %+v", s.List)
	}
}
