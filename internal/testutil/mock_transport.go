// mock_transport.go - Scripted fake analysis-service transport for tests
package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/stealer-insight/analyzer/internal/models"
)

// StatusReply is one scripted answer to a status poll.
type StatusReply struct {
	Status *models.JobStatus
	Err    error
}

// ResultReply is one scripted answer to a result fetch.
type ResultReply struct {
	Result *models.AnalysisResult
	Err    error
}

// MockTransport implements orchestrator.Transport with scripted replies.
// Status and result replies are consumed in order; the last one repeats
// once the script is exhausted.
type MockTransport struct {
	mu sync.Mutex

	SubmitJobID string
	SubmitErr   error

	StatusReplies []StatusReply
	ResultReplies []ResultReply

	DeleteErr error

	SubmitCalls int
	StatusCalls int
	ResultCalls int
	DeleteCalls int

	statusIdx int
	resultIdx int
}

func (m *MockTransport) SubmitArchive(ctx context.Context, filename string, archive io.Reader, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls++
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	return m.SubmitJobID, nil
}

func (m *MockTransport) JobStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusCalls++

	if len(m.StatusReplies) == 0 {
		return nil, errors.New("no scripted status replies")
	}
	reply := m.StatusReplies[m.statusIdx]
	if m.statusIdx < len(m.StatusReplies)-1 {
		m.statusIdx++
	}
	return reply.Status, reply.Err
}

func (m *MockTransport) JobResult(ctx context.Context, jobID string) (*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultCalls++

	if len(m.ResultReplies) == 0 {
		return nil, errors.New("no scripted result replies")
	}
	reply := m.ResultReplies[m.resultIdx]
	if m.resultIdx < len(m.ResultReplies)-1 {
		m.resultIdx++
	}
	return reply.Result, reply.Err
}

func (m *MockTransport) DeleteJob(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	return m.DeleteErr
}
