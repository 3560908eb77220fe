package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TransportError is any request that failed to complete or returned a
// non-2xx status. Call sites never inspect raw response shapes; the
// backend's error payload is normalized here, at the transport boundary.
type TransportError struct {
	Status int
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Detail != "" && e.Status != 0:
		return fmt.Sprintf("api: request failed (%d): %s", e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("api: request failed (%d)", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("api: request failed: %v", e.Err)
	default:
		return "api: request failed"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the failure was an auth rejection.
func (e *TransportError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// errorBody covers the two error payload shapes the backend emits:
// {"detail": "..."} and {"errors": "..."} / {"errors": ["...", ...]}.
type errorBody struct {
	Detail string      `json:"detail"`
	Errors interface{} `json:"errors"`
}

func (b errorBody) message() string {
	if b.Detail != "" {
		return b.Detail
	}
	switch v := b.Errors.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func normalizeError(resp *http.Response) *TransportError {
	terr := &TransportError{Status: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		terr.Detail = body.message()
	}
	return terr
}
