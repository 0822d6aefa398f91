package domain

import (
	"strings"
	"time"
)

// DefaultPageSize is the first option of PageSizes.
const DefaultPageSize = 10

// PageSizes are the only accepted page sizes.
var PageSizes = []int{10, 25, 50, 100}

// FilterableStatuses are the statuses the list can be filtered by.
var FilterableStatuses = []TicketStatus{
	TicketStatusNew, TicketStatusOpen, TicketStatusPending, TicketStatusSolved, TicketStatusClosed,
}

// DisplayTimeLayout is how list timestamps are rendered.
const DisplayTimeLayout = "2006-01-02 15:04:05"

const unknownStatusMarker = "❓"

var statusMarkers = map[TicketStatus]string{
	TicketStatusNew:     "🆕",
	TicketStatusOpen:    "📂",
	TicketStatusPending: "⏳",
	TicketStatusHold:    "⏸️",
	TicketStatusSolved:  "✅",
	TicketStatusClosed:  "🔒",
}

func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ParseStatusFilter accepts "", "All" or a filterable status.
func ParseStatusFilter(raw string) (TicketStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", true
	}
	for _, s := range FilterableStatuses {
		if string(s) == strings.ToLower(raw) {
			return s, true
		}
	}
	return "", false
}

// TotalPages is ceil(total/pageSize), never below one.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ListView is the persisted pagination and filter state.
type ListView struct {
	CurrentPage  int          `json:"current_page"`
	PageSize     int          `json:"page_size"`
	StatusFilter TicketStatus `json:"status_filter,omitempty"`
	// LastTotal is the total reported by the most recent fetch; navigation clamps against it.
	LastTotal int `json:"last_total"`
}

// NewListView returns the initial list state.
func NewListView() ListView {
	return ListView{CurrentPage: 1, PageSize: DefaultPageSize}
}

func (v ListView) TotalPages() int {
	return TotalPages(v.LastTotal, v.PageSize)
}

// SetStatusFilter changes the filter, resetting to page one on change. The
// previous filter's total no longer applies and is forgotten.
func (v *ListView) SetStatusFilter(status TicketStatus) {
	if status != v.StatusFilter {
		v.StatusFilter = status
		v.CurrentPage = 1
		v.LastTotal = 0
	}
}

// SetPageSize changes the page size, resetting to page one on change.
func (v *ListView) SetPageSize(size int) {
	if size != v.PageSize {
		v.PageSize = size
		v.CurrentPage = 1
	}
}

// NavAction names a pagination control.
type NavAction string

const (
	NavFirst NavAction = "first"
	NavPrev  NavAction = "prev"
	NavNext  NavAction = "next"
	NavLast  NavAction = "last"
	NavGoto  NavAction = "goto"
)

// Navigate moves the current page; page is only used by NavGoto. The result
// is clamped to the pages known from the last fetch.
func (v *ListView) Navigate(action NavAction, page int) bool {
	total := v.TotalPages()
	switch action {
	case NavFirst:
		v.CurrentPage = 1
	case NavPrev:
		v.CurrentPage = ClampPage(v.CurrentPage-1, total)
	case NavNext:
		v.CurrentPage = ClampPage(v.CurrentPage+1, total)
	case NavLast:
		v.CurrentPage = total
	case NavGoto:
		v.CurrentPage = ClampPage(page, total)
	default:
		return false
	}
	return true
}

// TicketRow is a list entry reshaped for display.
type TicketRow struct {
	ID          int64        `json:"id"`
	PhoneNumber string       `json:"phone_number"`
	Status      TicketStatus `json:"status"`
	StatusLabel string       `json:"status_label"`
	Subject     string       `json:"subject"`
	URL         string       `json:"url"`
	Created     string       `json:"created"`
	Updated     string       `json:"updated"`
}

// StatusLabel pairs a status with its marker, e.g. "📂 Open".
func StatusLabel(status TicketStatus) string {
	marker, ok := statusMarkers[status]
	if !ok {
		marker = unknownStatusMarker
	}
	name := string(status)
	if name == "" {
		name = "unknown"
	}
	return marker + " " + strings.ToUpper(name[:1]) + name[1:]
}

// FormatTimestamp renders an ISO-8601 timestamp for display, falling back to
// the raw value when it cannot be parsed.
func FormatTimestamp(raw string) string {
	if raw == "" {
		return "N/A"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DisplayTimeLayout)
		}
	}
	return raw
}

// RowFor reshapes a listed ticket.
func RowFor(t ListedTicket) TicketRow {
	phone := t.PhoneNumber
	if phone == "" {
		phone = "N/A"
	}
	status := t.Status
	if status == "" {
		status = "unknown"
	}
	return TicketRow{
		ID:          t.ID,
		PhoneNumber: phone,
		Status:      status,
		StatusLabel: StatusLabel(status),
		Subject:     t.Subject,
		URL:         t.URL,
		Created:     FormatTimestamp(t.CreatedAt),
		Updated:     FormatTimestamp(t.UpdatedAt),
	}
}

// PageRange returns the 1-based index range shown on page, or 0,0 when empty.
func PageRange(page, pageSize, total int) (int, int) {
	if total <= 0 || pageSize <= 0 {
		return 0, 0
	}
	start := (page-1)*pageSize + 1
	end := page * pageSize
	if end > total {
		end = total
	}
	if start > end {
		return 0, 0
	}
	return start, end
}
