package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
// Body holds the service's error text verbatim.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	JSON       any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("http error: status=%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, body)
}

// Retryable reports whether the error should be considered transient.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		(e.StatusCode >= 500 && e.StatusCode <= 599)
}

// Message returns the human readable error text reported by the service,
// looking at the common JSON fields before falling back to the raw body.
func (e *HTTPError) Message() string {
	if e == nil {
		return ""
	}
	if obj, ok := e.JSON.(map[string]any); ok {
		for _, field := range []string{"detail", "Message", "message", "title", "error"} {
			if s, ok := obj[field].(string); ok && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(e.Body))
}

// decodeJSONBody parses the body bytes into a generic JSON payload.
func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}
