package clob_http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the CLOB.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clob api error %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message())
}

// Message extracts the exchange's "error" field, falling back to the raw
// body or the status text.
func (e *APIError) Message() string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(e.Body) > 0 {
		const max = 512
		if len(e.Body) > max {
			return string(e.Body[:max]) + "..."
		}
		return string(e.Body)
	}
	return http.StatusText(e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the CLOB.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
