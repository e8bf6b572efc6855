// errors.go - Typed errors for the analysis service HTTP contract
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrStillProcessing is returned by JobResult when the service answers
// HTTP 202: the job exists but its result is not ready yet. This is distinct
// from a generic failure and callers are expected to retry.
var ErrStillProcessing = errors.New("job result not ready")

// APIError is a non-2xx response from the analysis service, carrying the
// service-supplied detail message when one was present in the body.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("analysis service returned HTTP %d", e.StatusCode)
}

// newAPIError builds an APIError from a failed response, decoding the
// optional {"detail": "..."} body the service uses for error reporting.
func newAPIError(resp *http.Response, fallback string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Detail: fallback}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
