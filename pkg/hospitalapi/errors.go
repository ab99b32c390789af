package hospitalapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RequestError wraps transport-level failures (request construction,
// network errors, token reads) so callers can tell them apart from
// backend rejections.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError represents a non-2xx backend response. Code carries the
// backend's machine code when the envelope included one.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"intCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// parseErrorResponse converts a non-2xx response body into an *APIError.
// The backend wraps failures in the same envelope as successes; anything
// unparseable falls back to a generic error from the HTTP status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Body.IntCode != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Body.IntCode,
			Message:    env.Body.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
