// Package orchestrator drives one analysis job from submission to a
// terminal state: it submits the archive, polls the service for status on a
// fixed cadence, fetches the result once the job completes, and cleans up
// the server-side job afterwards.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stealer-insight/analyzer/internal/models"
	"github.com/stealer-insight/analyzer/internal/transport"
)

// State is a step of the orchestration state machine.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateFetching   State = "fetching"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether the state machine has finished.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

const (
	// DefaultPollInterval is the cadence of status polls.
	DefaultPollInterval = time.Second
	// DefaultMaxAttempts bounds the polling loop (300 x 1s = 5 minutes).
	DefaultMaxAttempts = 300
	// DefaultResultRetryLimit bounds re-polling when the service reports a
	// job completed but keeps answering 202 on the result fetch.
	DefaultResultRetryLimit = 5
)

// Transport is the subset of the service client the orchestrator needs.
// It is injected so tests can substitute a scripted fake.
type Transport interface {
	SubmitArchive(ctx context.Context, filename string, archive io.Reader, password string) (string, error)
	JobStatus(ctx context.Context, jobID string) (*models.JobStatus, error)
	JobResult(ctx context.Context, jobID string) (*models.AnalysisResult, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// Progress is the observable state reported to the caller between polls.
// Values are passed through exactly as the service reports them; the
// orchestrator does not enforce monotonicity.
type Progress struct {
	IsProcessing bool
	Progress     float64
	CurrentStep  string
	Error        string
}

// ProgressFunc receives progress updates. It is never invoked again after
// the job reaches a terminal state.
type ProgressFunc func(Progress)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock substitutes the polling timer.
func WithClock(c Clock) Option { return func(o *Orchestrator) { o.clock = c } }

// WithLogger substitutes the logger.
func WithLogger(l *logrus.Logger) Option { return func(o *Orchestrator) { o.log = l } }

// WithPollInterval sets the status poll cadence.
func WithPollInterval(d time.Duration) Option { return func(o *Orchestrator) { o.pollInterval = d } }

// WithMaxAttempts sets the poll attempt budget.
func WithMaxAttempts(n int) Option { return func(o *Orchestrator) { o.maxAttempts = n } }

// WithResultRetryLimit sets how many "still processing" answers on the
// result fetch are tolerated after the status reported completed.
func WithResultRetryLimit(n int) Option { return func(o *Orchestrator) { o.resultRetryLimit = n } }

// WithProgressFunc registers a progress callback.
func WithProgressFunc(fn ProgressFunc) Option { return func(o *Orchestrator) { o.onProgress = fn } }

// Orchestrator drives one job at a time. Two independent instances polling
// two different jobs share no state.
type Orchestrator struct {
	transport        Transport
	clock            Clock
	log              *logrus.Logger
	pollInterval     time.Duration
	maxAttempts      int
	resultRetryLimit int
	onProgress       ProgressFunc

	mu       sync.Mutex
	state    State
	progress Progress
	muted    bool // set once terminal; suppresses further callbacks
}

// New creates an orchestrator around the given transport.
func New(t Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport:        t,
		clock:            RealClock(),
		log:              logrus.StandardLogger(),
		pollInterval:     DefaultPollInterval,
		maxAttempts:      DefaultMaxAttempts,
		resultRetryLimit: DefaultResultRetryLimit,
		state:            StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state of the machine.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress returns the last observed progress.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run submits the archive and drives the job to a terminal state. On
// success the completed AnalysisResult is returned and a best-effort
// delete-job call is issued. On any terminal error the progress indicators
// are reset and no partial result is exposed. Cancelling ctx moves the
// machine to StateCancelled.
func (o *Orchestrator) Run(ctx context.Context, filename string, archive io.Reader, password string) (*models.AnalysisResult, error) {
	o.mu.Lock()
	if o.state != StateIdle && !o.state.Terminal() {
		o.mu.Unlock()
		return nil, ErrJobInFlight
	}
	o.state = StateSubmitting
	o.muted = false
	o.mu.Unlock()

	runID := uuid.New().String()
	log := o.log.WithFields(logrus.Fields{"run_id": runID[:8], "filename": filename})

	o.report(Progress{IsProcessing: true, CurrentStep: "Uploading file..."})

	jobID, err := o.transport.SubmitArchive(ctx, filename, archive, password)
	if err != nil {
		if ctx.Err() != nil {
			return nil, o.cancelled(ctx, log, "")
		}
		log.WithError(err).Error("archive submission rejected")
		return nil, o.fail(StateFailed, &SubmissionError{Err: err})
	}

	log = log.WithField("job_id", jobID)
	log.Info("archive submitted, polling for status")
	o.setState(StatePolling)

	resultRetries := 0
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := o.clock.Sleep(ctx, o.pollInterval); err != nil {
			return nil, o.cancelled(ctx, log, jobID)
		}

		status, err := o.transport.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, o.cancelled(ctx, log, jobID)
			}
			// Transient: a single failed poll never terminates the job.
			log.WithError(err).WithField("attempt", attempt).Debug("status poll failed, retrying")
			continue
		}

		o.report(Progress{
			IsProcessing: status.Status.InFlight(),
			Progress:     status.Progress,
			CurrentStep:  status.CurrentStep,
			Error:        status.Error,
		})

		switch status.Status {
		case models.JobStateCompleted:
			o.setState(StateFetching)
			result, err := o.transport.JobResult(ctx, jobID)
			if err == nil {
				o.cleanup(ctx, log, jobID)
				o.mu.Lock()
				o.state = StateDone
				o.progress = Progress{Progress: 100, CurrentStep: "Complete"}
				o.muted = true
				o.mu.Unlock()
				log.WithField("systems", len(result.SystemsData)).Info("analysis complete")
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, o.cancelled(ctx, log, jobID)
			}
			if errors.Is(err, transport.ErrStillProcessing) {
				resultRetries++
				if resultRetries >= o.resultRetryLimit {
					log.WithField("retries", resultRetries).Error("result stayed unavailable after completion")
					return nil, o.fail(StateFailed, &ResultUnavailableError{JobID: jobID, Retries: resultRetries})
				}
				log.WithField("retries", resultRetries).Warn("completed job answered 202 on result fetch, re-polling")
			} else {
				log.WithError(err).WithField("attempt", attempt).Debug("result fetch failed, retrying")
			}
			o.setState(StatePolling)

		case models.JobStateFailed:
			msg := status.Error
			if msg == "" {
				msg = "Processing failed"
			}
			log.WithField("reason", msg).Error("service reported job failed")
			return nil, o.fail(StateFailed, &JobFailedError{Message: msg})
		}
	}

	log.WithField("attempts", o.maxAttempts).Error("poll attempt budget exhausted")
	return nil, o.fail(StateTimedOut, &TimeoutError{Attempts: o.maxAttempts})
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// report stores and publishes a progress update unless the machine already
// reached a terminal state.
func (o *Orchestrator) report(p Progress) {
	o.mu.Lock()
	if o.muted {
		o.mu.Unlock()
		return
	}
	o.progress = p
	fn := o.onProgress
	o.mu.Unlock()

	if fn != nil {
		fn(p)
	}
}

// fail moves the machine to a terminal error state, resets progress to its
// initial values and publishes one final update carrying the message.
func (o *Orchestrator) fail(state State, err error) error {
	o.report(Progress{Error: err.Error()})
	o.mu.Lock()
	o.state = state
	o.muted = true
	o.mu.Unlock()
	return err
}

// cancelled handles caller abandonment: terminal state, suppressed
// callbacks, and a best-effort server-side delete when a job exists.
func (o *Orchestrator) cancelled(ctx context.Context, log *logrus.Entry, jobID string) error {
	o.mu.Lock()
	o.state = StateCancelled
	o.progress = Progress{}
	o.muted = true
	o.mu.Unlock()

	if jobID != "" {
		o.cleanup(context.WithoutCancel(ctx), log, jobID)
	}
	log.Info("analysis cancelled by caller")
	return ErrCancelled
}

// cleanup issues the best-effort delete-job call. Failures are logged and
// never escalated: server-side cleanup is not load-bearing.
func (o *Orchestrator) cleanup(ctx context.Context, log *logrus.Entry, jobID string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := o.transport.DeleteJob(ctx, jobID); err != nil {
		log.WithError(err).Warn("failed to delete job on service")
	}
}
