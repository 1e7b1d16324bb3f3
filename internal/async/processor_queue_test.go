package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu   sync.Mutex
	jobs []Job
	wait chan struct{}
}

func (r *recordingRunner) RunBatch(ctx context.Context, job Job) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	if r.wait != nil {
		select {
		case <-r.wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func TestProcessorQueue_RunsJobs(t *testing.T) {
	runner := &recordingRunner{}
	q := NewProcessorQueue(runner, nil, WithWorkers(2), WithQueueSize(4))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(t.Context(), Job{BatchID: id}))
	}
	q.Shutdown(t.Context())

	assert.Equal(t, 3, runner.count())
	for _, j := range runner.jobs {
		assert.False(t, j.SubmittedAt.IsZero())
	}
	assert.ErrorIs(t, q.Enqueue(t.Context(), Job{BatchID: "late"}), ErrQueueClosed)
}

func TestProcessorQueue_ShutdownCancelsRunningJobs(t *testing.T) {
	runner := &recordingRunner{wait: make(chan struct{})}
	q := NewProcessorQueue(runner, nil, WithWorkers(1), WithProcessTimeout(time.Hour))
	require.NoError(t, q.Enqueue(t.Context(), Job{BatchID: "slow"}))

	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	q.Shutdown(ctx)

	assert.Less(t, time.Since(start), time.Second)
}
