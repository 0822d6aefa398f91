// Package zendesk wraps the parts of the Zendesk Support REST API used by the
// intake front end: ticket reads, comments, and macro replay.
package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/observability"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

const (
	serviceName    = "zendesk"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 500
)

// Credentials authenticate API calls with an API token.
type Credentials struct {
	Subdomain string
	Email     string
	APIToken  string
}

// Client talks to one Zendesk account.
type Client struct {
	baseURL    string
	agentURL   string
	creds      Credentials
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient constructs a client. baseURL overrides the subdomain host when set.
func NewClient(creds Credentials, baseURL string, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	host := fmt.Sprintf("https://%s.zendesk.com", creds.Subdomain)
	if baseURL == "" {
		baseURL = host
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		agentURL:   host,
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("zendesk"),
		metrics:    metrics,
	}
}

// AgentTicketURL is the agent UI link for a ticket.
func (c *Client) AgentTicketURL(id int64) string {
	return fmt.Sprintf("%s/agent/tickets/%d", c.agentURL, id)
}

type ticketEnvelope struct {
	Ticket struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Subject   string `json:"subject"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	} `json:"ticket"`
}

// GetTicket fetches the monitored fields of a ticket.
func (c *Client) GetTicket(ctx context.Context, id int64) (*domain.TicketStatusSnapshot, error) {
	var out ticketEnvelope
	status, body, err := c.do(ctx, "get_ticket", http.MethodGet, fmt.Sprintf("/api/v2/tickets/%d.json", id), nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apperrors.NewUpstreamError(serviceName, status, body)
	}
	st := out.Ticket.Status
	if st == "" {
		st = "unknown"
	}
	return &domain.TicketStatusSnapshot{
		ID:        id,
		Status:    domain.TicketStatus(st),
		Subject:   out.Ticket.Subject,
		CreatedAt: out.Ticket.CreatedAt,
		UpdatedAt: out.Ticket.UpdatedAt,
	}, nil
}

type commentsEnvelope struct {
	Comments []domain.Comment `json:"comments"`
}

// ListComments returns the ticket's comments in platform order.
func (c *Client) ListComments(ctx context.Context, id int64) ([]domain.Comment, error) {
	var out commentsEnvelope
	status, body, err := c.do(ctx, "list_comments", http.MethodGet, fmt.Sprintf("/api/v2/tickets/%d/comments.json", id), nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apperrors.NewUpstreamError(serviceName, status, body)
	}
	return out.Comments, nil
}

// MacroPreview is the simulated effect of a macro on a ticket.
type MacroPreview struct {
	Ticket  map[string]json.RawMessage `json:"ticket"`
	Comment json.RawMessage            `json:"comment"`
}

type macroPreviewEnvelope struct {
	Result MacroPreview `json:"result"`
}

// PreviewMacro asks the platform what macroID would change on ticket id.
// Anything but a decodable 200 answer is MACRO_PREVIEW_FAILED.
func (c *Client) PreviewMacro(ctx context.Context, id, macroID int64) (*MacroPreview, error) {
	var out macroPreviewEnvelope
	status, _, err := c.do(ctx, "preview_macro", http.MethodGet,
		fmt.Sprintf("/api/v2/tickets/%d/macros/%d/apply.json", id, macroID), nil, &out)
	if err != nil || status != http.StatusOK {
		return nil, apperrors.NewMacroPreviewFailed(status, err)
	}
	return &out.Result, nil
}

// UpdateFields builds the ticket update replaying a preview: the comment
// first, then every proposed ticket field except id.
func (p *MacroPreview) UpdateFields() map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(p.Ticket)+1)
	if len(p.Comment) > 0 && !isJSONNull(p.Comment) {
		fields["comment"] = p.Comment
	}
	for key, val := range p.Ticket {
		if key == "id" {
			continue
		}
		fields[key] = val
	}
	return fields
}

// StatusFrom extracts the status an update sets, if any.
func StatusFrom(fields map[string]json.RawMessage) domain.TicketStatus {
	raw, ok := fields["status"]
	if !ok {
		return ""
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return ""
	}
	return domain.TicketStatus(status)
}

// UpdateTicket sends PUT /api/v2/tickets/{id}.json with the given fields.
func (c *Client) UpdateTicket(ctx context.Context, id int64, fields map[string]json.RawMessage) error {
	body := map[string]any{"ticket": fields}
	status, errBody, err := c.do(ctx, "update_ticket", http.MethodPut, fmt.Sprintf("/api/v2/tickets/%d.json", id), body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apperrors.NewUpstreamError(serviceName, status, errBody)
	}
	return nil
}

// do sends a request and decodes a 200 body into out. Non-200 statuses are
// returned with their body and a nil error so callers can pick the error kind.
func (c *Client) do(ctx context.Context, op, method, path string, payload any, out any) (int, string, error) {
	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, path, payload, out)
	outcome := observability.OutcomeSuccess
	switch {
	case err != nil && apperrors.IsTimeout(err):
		outcome = observability.OutcomeTimeout
	case err != nil || status != http.StatusOK:
		outcome = observability.OutcomeError
	}
	c.metrics.ObserveUpstream(serviceName, op, outcome, time.Since(start))
	return status, body, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any, out any) (int, string, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, "", err
	}
	req.SetBasicAuth(c.creds.Email+"/token", c.creds.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", apperrors.NewNetworkError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("zendesk request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)))
		return resp.StatusCode, string(raw), nil
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, "", nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, "", apperrors.NewParseError(serviceName, err)
	}
	return resp.StatusCode, "", nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
