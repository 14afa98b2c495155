package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNoBaseURL = errors.New("reservation api url not configured")

// APIError is a non-2xx answer of the reservation API.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("reservation api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("reservation api: %d %s", e.Status, http.StatusText(e.Status))
}

func IsValidation(err error) bool   { return hasStatus(err, http.StatusUnprocessableEntity) }
func IsNotFound(err error) bool     { return hasStatus(err, http.StatusNotFound) }
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }
func IsForbidden(err error) bool    { return hasStatus(err, http.StatusForbidden) }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

// parseError reads the {"message": ..., "errors": {...}} body most JSON APIs
// send on failure. Field errors may be a list or a single string per field.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Message string                     `json:"message"`
		Error   json.RawMessage            `json:"error"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" && len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil {
			apiErr.Message = s
		}
	}

	if len(payload.Errors) > 0 {
		apiErr.Errors = make(map[string][]string, len(payload.Errors))
		for field, raw := range payload.Errors {
			var list []string
			if json.Unmarshal(raw, &list) == nil {
				apiErr.Errors[field] = list
				continue
			}
			var single string
			if json.Unmarshal(raw, &single) == nil {
				apiErr.Errors[field] = []string{single}
			}
		}
	}
	return apiErr
}
