package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAPIKey    = errors.New("gemini API key is not set")
	ErrQuotaExhausted   = errors.New("gemini quota exhausted")
	ErrPermissionDenied = errors.New("gemini permission denied")
	ErrInvalidAPIKey    = errors.New("gemini API key not valid")
	ErrNoImage          = errors.New("no image data in gemini response")
	ErrEmptyText        = errors.New("gemini returned empty text")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	// Code is the RPC status name, e.g. RESOURCE_EXHAUSTED.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %s: %s", e.Status, e.Body)
}

// Unwrap maps the failure onto one of the package sentinels, if any applies.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "RESOURCE_EXHAUSTED" || strings.Contains(e.Body, "RESOURCE_EXHAUSTED"):
		return ErrQuotaExhausted
	case strings.Contains(e.Message, "API key not valid") || strings.Contains(e.Body, "API key not valid"):
		return ErrInvalidAPIKey
	case e.Code == "PERMISSION_DENIED" || strings.Contains(e.Body, "PERMISSION_DENIED"):
		return ErrPermissionDenied
	default:
		return nil
	}
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newAPIError(statusCode int, status string, body []byte) *APIError {
	e := &APIError{
		StatusCode: statusCode,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Code = env.Error.Status
		e.Message = env.Error.Message
	}
	return e
}

// isUnknownFieldError reports whether the API rejected a request field it
// does not know, which older API versions do for newer config blocks.
func isUnknownFieldError(err error, field string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Body, "Unknown name") && strings.Contains(apiErr.Body, field)
}
