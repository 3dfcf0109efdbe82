package square

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is returned when Square answers with a non-2xx status after all retries.
type APIError struct {
	Path       string
	StatusCode int
	Errors     []ErrorDetail
}

// ErrorDetail mirrors one entry of the platform's errors array.
type ErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

func newAPIError(path string, status int, body []byte) *APIError {
	apiErr := &APIError{Path: path, StatusCode: status}
	var payload struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Errors = payload.Errors
	}
	return apiErr
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square %s: status %d", e.Path, e.StatusCode)
	}
	codes := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		codes = append(codes, d.Code)
	}
	return fmt.Sprintf("square %s: status %d (%s)", e.Path, e.StatusCode, strings.Join(codes, ", "))
}
