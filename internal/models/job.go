package models

// JobState represents the processing state reported by the analysis service.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// InFlight reports whether the job is still being worked on.
func (s JobState) InFlight() bool {
	return s == JobStatePending || s == JobStateProcessing
}

// JobStatus is the transient status of one analysis job. It is created at
// submission, mutated only by polling responses, and discarded once the job
// reaches a terminal state.
type JobStatus struct {
	JobID       string   `json:"job_id"`
	Status      JobState `json:"status"`
	Progress    float64  `json:"progress"` // 0-100
	CurrentStep string   `json:"current_step"`
	Error       string   `json:"error,omitempty"`
}
