package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by every component.
const (
	CodeConfig             = "CONFIG_ERROR"
	CodeNetwork            = "NETWORK_ERROR"
	CodeValidation         = "VALIDATION_FAILED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeParse              = "PARSE_ERROR"
	CodeInvalidPhoneNumber = "INVALID_PHONE_NUMBER"
	CodeMacroPreviewFailed = "MACRO_PREVIEW_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewConfigError(message string, err error) error {
	return &DomainError{Code: CodeConfig, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewNetworkError classifies a transport failure against an upstream service.
// Timeouts map to 504, everything else to 502.
func NewNetworkError(service string, err error) error {
	status := http.StatusBadGateway
	message := fmt.Sprintf("%s unreachable", service)
	if IsTimeout(err) {
		status = http.StatusGatewayTimeout
		message = fmt.Sprintf("%s timed out", service)
	}
	return &DomainError{
		Code:       CodeNetwork,
		Message:    message,
		HTTPStatus: status,
		Details:    map[string]any{"service": service},
		Err:        err,
	}
}

// NewUpstreamError reports a non-2xx or error-shaped response.
func NewUpstreamError(service string, status int, body string) error {
	details := map[string]any{"service": service}
	if status > 0 {
		details["status"] = status
	}
	if body != "" {
		details["body"] = body
	}
	message := fmt.Sprintf("%s request failed", service)
	if status > 0 {
		message = fmt.Sprintf("%s returned status %d", service, status)
	}
	return NewDomainError(CodeUpstream, message, http.StatusBadGateway, details)
}

func NewUpstreamMessage(service, message string) error {
	if message == "" {
		message = "unknown error"
	}
	return NewDomainError(CodeUpstream, fmt.Sprintf("%s: %s", service, message), http.StatusBadGateway, map[string]any{"service": service})
}

func NewParseError(service string, err error) error {
	return &DomainError{
		Code:       CodeParse,
		Message:    fmt.Sprintf("%s returned malformed data", service),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"service": service},
		Err:        err,
	}
}

func NewInvalidPhoneNumber(digits int) error {
	return NewDomainError(CodeInvalidPhoneNumber,
		fmt.Sprintf("invalid phone number format: expected 10 or 11 digits, got %d", digits),
		http.StatusBadRequest,
		map[string]any{"digits": digits})
}

// NewMacroPreviewFailed reports a preview that did not succeed. status is 0
// when no response was received.
func NewMacroPreviewFailed(status int, err error) error {
	details := map[string]any{}
	message := "macro preview failed"
	if status > 0 {
		details["status"] = status
		message = fmt.Sprintf("macro preview failed: %d", status)
	}
	return &DomainError{
		Code:       CodeMacroPreviewFailed,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    details,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInternal
		switch fiberErr.Code {
		case http.StatusNotFound:
			code = CodeNotFound
		case http.StatusUnauthorized:
			code = CodeUnauthorized
		case http.StatusBadRequest, http.StatusMethodNotAllowed:
			code = CodeValidation
		}
		return NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
