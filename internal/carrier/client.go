// Package carrier resolves a phone number to its telecom carrier through the
// RealValidation phone API.
package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/observability"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

const (
	serviceName      = "carrier"
	statusConnected  = "connected"
	defaultTimeout   = 10 * time.Second
	unknownErrorText = "Unknown error"
)

// Normalize strips formatting and returns the 10-digit national number.
// Eleven digits are accepted only with a leading country code 1.
func Normalize(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:], nil
	case len(digits) == 10:
		return digits, nil
	default:
		return "", apperrors.NewInvalidPhoneNumber(len(digits))
	}
}

// Client calls the carrier lookup API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient constructs a client. A zero timeout falls back to ten seconds.
func NewClient(endpoint, token string, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("carrier"),
		metrics:    metrics,
	}
}

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.token != "" && c.endpoint != ""
}

type lookupResponse struct {
	Status    string `json:"status"`
	Carrier   string `json:"carrier"`
	ErrorText string `json:"error_text"`
}

// Lookup returns the carrier name for phone, or "" when the number is not
// connected or the API cannot be reached. Only a malformed phone number is an
// error; every other failure is logged and degrades to no provider.
func (c *Client) Lookup(ctx context.Context, phone string) (string, error) {
	normalized, err := Normalize(phone)
	if err != nil {
		return "", err
	}
	if !c.Enabled() {
		c.logger.Warn("carrier lookup skipped: no api token configured")
		return "", nil
	}

	start := time.Now()
	provider, outcome := c.lookup(ctx, normalized)
	c.metrics.ObserveUpstream(serviceName, "lookup", outcome, time.Since(start))
	return provider, nil
}

func (c *Client) lookup(ctx context.Context, phone string) (string, string) {
	params := url.Values{}
	params.Set("output", "json")
	params.Set("phone", phone)
	params.Set("token", c.token)

	endpoint := c.endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("build carrier request", zap.Error(err))
		return "", observability.OutcomeError
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("carrier api call failed", zap.Error(redact(err, c.token)))
		if apperrors.IsTimeout(err) {
			return "", observability.OutcomeTimeout
		}
		return "", observability.OutcomeError
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("carrier api returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", observability.OutcomeError
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("decode carrier response", zap.Error(err))
		return "", observability.OutcomeError
	}

	if out.Status != statusConnected {
		text := out.ErrorText
		if text == "" {
			text = unknownErrorText
		}
		c.logger.Info("carrier lookup not connected",
			zap.String("status", out.Status),
			zap.String("error_text", text))
		return "", observability.OutcomeSuccess
	}
	return out.Carrier, observability.OutcomeSuccess
}

// redact keeps the api token out of logged URL errors.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), token, "REDACTED")
	return errors.New(msg)
}
