// errors.go - Terminal error taxonomy for job orchestration
package orchestrator

import (
	"errors"
	"fmt"
)

// ErrJobInFlight is returned by Run when the orchestrator is already
// driving a job. One orchestrator instance manages exactly one job at a
// time; construct another instance for concurrent jobs.
var ErrJobInFlight = errors.New("a job is already in flight")

// ErrCancelled is the terminal error after the caller's context was
// cancelled while the job was still in a non-terminal state.
var ErrCancelled = errors.New("analysis cancelled")

// SubmissionError means the upload itself was rejected (bad file, service
// unreachable). The service-supplied message is surfaced verbatim.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return e.Err.Error() }

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError means the service explicitly reported the job as failed.
type JobFailedError struct {
	Message string
}

func (e *JobFailedError) Error() string { return e.Message }

// TimeoutError means the poll attempt budget was exhausted while the job
// was still pending or processing.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return "Processing timeout - job took too long to complete"
}

// ResultUnavailableError means the service kept answering "still
// processing" on the result fetch after reporting the job completed. The
// two signals are contradictory; after a bounded number of retries the
// orchestrator gives up rather than trusting either one.
type ResultUnavailableError struct {
	JobID   string
	Retries int
}

func (e *ResultUnavailableError) Error() string {
	return fmt.Sprintf("job %s reported completed but its result stayed unavailable after %d retries", e.JobID, e.Retries)
}
