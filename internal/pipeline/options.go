package pipeline

import (
	"time"

	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const (
	DefaultMaxRetries         = 3
	DefaultMaxAutoRetryRounds = 3
	DefaultItemDelay          = 2 * time.Second
)

// Observer receives a snapshot after every transition. It is called from the
// batch goroutine and must not block for long.
type Observer func(entity.Snapshot)

type Option func(*Orchestrator)

func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithMaxAutoRetryRounds(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxRounds = n
		}
	}
}

func WithItemDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.itemDelay = d
		}
	}
}

// WithDiscardSaturated drops records registered on every platform.
func WithDiscardSaturated(on bool) Option {
	return func(o *Orchestrator) { o.discardSaturated = on }
}

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}
