// Package mfl is the client for the middleware service that maps form values
// to platform field values and proxies ticket operations.
package mfl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/observability"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

const (
	serviceName    = "middleware"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 200
)

// Client wraps the middleware /mfl endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient constructs a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("mfl"),
		metrics:    metrics,
	}
}

type duplicateCheckResponse struct {
	Exists  bool                   `json:"exists"`
	Count   int                    `json:"count"`
	Tickets []domain.TicketSummary `json:"tickets"`
	Error   *string                `json:"error"`
}

// CheckPhoneDuplicate never fails: transport and status errors are folded into
// the result's Error so the workflow can offer "continue anyway".
func (c *Client) CheckPhoneDuplicate(ctx context.Context, phone string) domain.DuplicateCheckResult {
	var out duplicateCheckResponse
	status, body, err := c.do(ctx, "check_phone_duplicate", http.MethodPost, "/mfl/check_phone_duplicate", nil,
		map[string]string{"phone_number": phone}, &out)
	switch {
	case err != nil && status == 0 && apperrors.IsTimeout(err):
		c.logger.Warn("duplicate check timed out", zap.Error(err))
		return domain.DuplicateCheckResult{Error: "Timeout"}
	case err != nil && status != 0 && status != http.StatusOK:
		msg := fmt.Sprintf("Status %d: %s", status, truncate(body, maxErrorBody))
		c.logger.Warn("duplicate check failed", zap.Int("status", status))
		return domain.DuplicateCheckResult{Error: msg}
	case err != nil:
		c.logger.Warn("duplicate check error", zap.Error(err))
		return domain.DuplicateCheckResult{Error: err.Error()}
	}

	result := domain.DuplicateCheckResult{
		Exists:  out.Exists,
		Count:   out.Count,
		Tickets: out.Tickets,
	}
	if out.Error != nil {
		result.Error = *out.Error
	}
	if result.Exists && result.Count == 0 {
		result.Count = len(result.Tickets)
	}
	return result
}

type formFieldsResponse struct {
	Success         bool                        `json:"success"`
	DropdownOptions map[string][]string         `json:"dropdown_options"`
	FieldMapping    map[string]domain.FieldInfo `json:"field_mapping"`
	Error           string                      `json:"error"`
}

// FormFields fetches the configured fields' metadata.
func (c *Client) FormFields(ctx context.Context) (*domain.FormMetadata, error) {
	var out formFieldsResponse
	if _, _, err := c.do(ctx, "form_fields", http.MethodGet, "/mfl/form_fields", nil, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, apperrors.NewUpstreamMessage(serviceName, firstNonEmpty(out.Error, "form fields unavailable"))
	}
	meta := &domain.FormMetadata{
		DropdownOptions: out.DropdownOptions,
		FieldMapping:    out.FieldMapping,
	}
	if meta.DropdownOptions == nil {
		meta.DropdownOptions = map[string][]string{}
	}
	if meta.FieldMapping == nil {
		meta.FieldMapping = map[string]domain.FieldInfo{}
	}
	return meta, nil
}

type createTicketResponse struct {
	Success  bool        `json:"success"`
	TicketID json.Number `json:"ticket_id"`
	Error    string      `json:"error"`
}

// CreateTicket submits the payload. A 200 with success=false is returned as a
// result, not an error; transport and status failures are errors.
func (c *Client) CreateTicket(ctx context.Context, payload domain.TicketPayload) (*domain.CreateResult, error) {
	var out createTicketResponse
	if _, _, err := c.do(ctx, "create_ticket", http.MethodPost, "/mfl/create_ticket", nil, payload, &out); err != nil {
		return nil, err
	}
	result := &domain.CreateResult{Success: out.Success, Error: out.Error}
	if out.Success {
		id, err := strconv.ParseInt(out.TicketID.String(), 10, 64)
		if err != nil || id <= 0 {
			return nil, apperrors.NewParseError(serviceName, fmt.Errorf("ticket_id %q: %w", out.TicketID, err))
		}
		result.TicketID = id
	}
	return result, nil
}

type listTicketsResponse struct {
	Success bool                  `json:"success"`
	Tickets []domain.ListedTicket `json:"tickets"`
	Total   int                   `json:"total"`
	Error   string                `json:"error"`
}

// ListTickets fetches one page. status may be empty for no filter.
func (c *Client) ListTickets(ctx context.Context, page, pageSize int, status domain.TicketStatus) (*domain.TicketPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if status != "" {
		query.Set("status", string(status))
	}

	var out listTicketsResponse
	if _, _, err := c.do(ctx, "list_tickets", http.MethodGet, "/mfl/tickets", query, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, apperrors.NewUpstreamMessage(serviceName, firstNonEmpty(out.Error, "failed to load tickets"))
	}
	tickets := out.Tickets
	if tickets == nil {
		tickets = []domain.ListedTicket{}
	}
	return &domain.TicketPage{Tickets: tickets, Total: out.Total}, nil
}

// do performs one request and decodes a 200 JSON body into out. It returns
// the status and raw body alongside the error so callers can report them.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any, out any) (int, string, error) {
	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, path, query, payload, out)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeError
		if apperrors.IsTimeout(err) {
			outcome = observability.OutcomeTimeout
		}
	}
	c.metrics.ObserveUpstream(serviceName, op, outcome, time.Since(start))
	return status, body, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload any, out any) (int, string, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", apperrors.NewNetworkError(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", apperrors.NewNetworkError(serviceName, err)
	}
	body := string(raw)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, body, apperrors.NewUpstreamError(serviceName, resp.StatusCode, truncate(body, maxErrorBody))
	}
	if out == nil {
		return resp.StatusCode, body, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return resp.StatusCode, body, apperrors.NewParseError(serviceName, err)
	}
	return resp.StatusCode, body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
