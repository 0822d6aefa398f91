package service

import (
	"context"
	"time"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/repository"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// TicketListPage is one rendered page of the ticket list.
type TicketListPage struct {
	Rows         []domain.TicketRow  `json:"rows"`
	Total        int                 `json:"total"`
	CurrentPage  int                 `json:"current_page"`
	PageSize     int                 `json:"page_size"`
	TotalPages   int                 `json:"total_pages"`
	StatusFilter domain.TicketStatus `json:"status_filter,omitempty"`
	RangeStart   int                 `json:"range_start"`
	RangeEnd     int                 `json:"range_end"`
}

// ViewUpdate changes the list filter and/or page size. Nil fields are kept.
type ViewUpdate struct {
	Status   *string
	PageSize *int
}

// TicketListService pages through tickets via the middleware and keeps the
// view state on the session.
type TicketListService struct {
	sessions   repository.SessionRepository
	middleware MiddlewareAPI
	locks      *SessionLocks
	now        func() time.Time
}

// NewTicketListService constructs the service.
func NewTicketListService(sessions repository.SessionRepository, middleware MiddlewareAPI, locks *SessionLocks) *TicketListService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	return &TicketListService{sessions: sessions, middleware: middleware, locks: locks, now: time.Now}
}

// Page fetches the session's current page and remembers the reported total.
func (s *TicketListService) Page(ctx context.Context, sessionID string) (*TicketListPage, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := session.List
	page, err := s.middleware.ListTickets(ctx, view.CurrentPage, view.PageSize, view.StatusFilter)
	if err != nil {
		return nil, err
	}

	// The total may have shrunk since the page was chosen.
	if last := domain.TotalPages(page.Total, view.PageSize); view.CurrentPage > last {
		view.CurrentPage = last
		page, err = s.middleware.ListTickets(ctx, view.CurrentPage, view.PageSize, view.StatusFilter)
		if err != nil {
			return nil, err
		}
	}

	if session.List.LastTotal != page.Total || session.List.CurrentPage != view.CurrentPage {
		session.List.CurrentPage = view.CurrentPage
		session.List.LastTotal = page.Total
		session.UpdatedAt = s.now()
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	rows := make([]domain.TicketRow, 0, len(page.Tickets))
	for _, t := range page.Tickets {
		rows = append(rows, domain.RowFor(t))
	}
	start, end := domain.PageRange(view.CurrentPage, view.PageSize, page.Total)
	return &TicketListPage{
		Rows:         rows,
		Total:        page.Total,
		CurrentPage:  view.CurrentPage,
		PageSize:     view.PageSize,
		TotalPages:   domain.TotalPages(page.Total, view.PageSize),
		StatusFilter: view.StatusFilter,
		RangeStart:   start,
		RangeEnd:     end,
	}, nil
}

// UpdateView applies a filter or page-size change; either change returns to page one.
func (s *TicketListService) UpdateView(ctx context.Context, sessionID string, update ViewUpdate) (domain.ListView, error) {
	var status domain.TicketStatus
	if update.Status != nil {
		parsed, ok := domain.ParseStatusFilter(*update.Status)
		if !ok {
			return domain.ListView{}, apperrors.NewValidationError("unsupported status filter", map[string]any{
				"status":  *update.Status,
				"allowed": domain.FilterableStatuses,
			})
		}
		status = parsed
	}
	if update.PageSize != nil && !domain.ValidPageSize(*update.PageSize) {
		return domain.ListView{}, apperrors.NewValidationError("unsupported page size", map[string]any{
			"page_size": *update.PageSize,
			"allowed":   domain.PageSizes,
		})
	}

	return s.mutateView(ctx, sessionID, func(v *domain.ListView) error {
		if update.Status != nil {
			v.SetStatusFilter(status)
		}
		if update.PageSize != nil {
			v.SetPageSize(*update.PageSize)
		}
		return nil
	})
}

// Navigate moves between pages, clamped to the last fetched total.
func (s *TicketListService) Navigate(ctx context.Context, sessionID string, action domain.NavAction, page int) (domain.ListView, error) {
	return s.mutateView(ctx, sessionID, func(v *domain.ListView) error {
		if !v.Navigate(action, page) {
			return apperrors.NewValidationError("unknown navigation action", map[string]any{"action": action})
		}
		return nil
	})
}

func (s *TicketListService) mutateView(ctx context.Context, sessionID string, fn func(*domain.ListView) error) (domain.ListView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.ListView{}, err
	}
	if err := fn(&session.List); err != nil {
		return domain.ListView{}, err
	}
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.ListView{}, err
	}
	return session.List, nil
}
