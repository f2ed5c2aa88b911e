package api

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx outcome from the backend, carrying whatever
// error text the response body offered.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the error is a 404 outcome. Prescription
// lookups use this to treat "no prescription yet" as an empty state.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsAPIKeyError reports whether an error is caused by a missing or
// invalid Gemini API key. The backend does not use a dedicated status
// for this, so classification is by substring, matching what its error
// texts actually say.
func IsAPIKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key") || strings.Contains(msg, "gemini")
}
