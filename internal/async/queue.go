package async

import (
	"context"
	"time"
)

// Job asks a worker to run (or resume) one batch.
type Job struct {
	BatchID     string
	Resume      bool
	SubmittedAt time.Time
	TraceID     string
}

// Runner executes a job. It is implemented by the batch service.
type Runner interface {
	RunBatch(ctx context.Context, job Job) error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
