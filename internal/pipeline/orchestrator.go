// Package pipeline runs batches of certificate images through extraction,
// availability checks and review, one item at a time.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/dedup"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

// ItemProcessor is the per-item work the orchestrator sequences.
type ItemProcessor interface {
	Process(ctx context.Context, fileName string, data []byte, onPhase func(constants.Phase)) (entity.Record, error)
}

// File is one input to a batch.
type File struct {
	Name string
	Data []byte
}

// Orchestrator owns one batch. Run is driven by a single goroutine; Pause and
// Snapshot are safe to call from anywhere.
//
// An item that fails extraction is requeued at the end of the current run once
// per run while it has retry budget. Items that still fail land in the failed
// set; when a run drains, failed items with budget left are re-submitted as an
// auto-retry round. Both the per-item budget and the round count are bounded.
type Orchestrator struct {
	id     string
	proc   ItemProcessor
	logger *slog.Logger

	maxRetries       int
	maxRounds        int
	itemDelay        time.Duration
	discardSaturated bool
	observers        []Observer

	paused  atomic.Bool
	running atomic.Bool

	mu        sync.RWMutex
	items     []entity.BatchItem
	queue     []int // indexes into items
	requeued  map[int]bool
	failed    []int
	done      map[int]bool // item indexes that succeeded
	records   []entity.Record
	discarded int
	rounds    int
	state     constants.BatchState
	current   string
	phase     constants.Phase
	lastErr   string
}

func NewOrchestrator(id string, proc ItemProcessor, files []File, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		id:         id,
		proc:       proc,
		logger:     logger.With("batch_id", id),
		maxRetries: DefaultMaxRetries,
		maxRounds:  DefaultMaxAutoRetryRounds,
		itemDelay:  DefaultItemDelay,
		items:      make([]entity.BatchItem, len(files)),
		queue:      make([]int, len(files)),
		requeued:   map[int]bool{},
		done:       map[int]bool{},
		state:      constants.BatchIdle,
		phase:      constants.PhaseQueued,
	}
	for i, f := range files {
		o.items[i] = entity.BatchItem{FileName: f.Name, Data: f.Data, Phase: constants.PhaseQueued}
		o.queue[i] = i
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) ID() string { return o.id }

// Pause asks the batch to stop after the in-flight item.
func (o *Orchestrator) Pause() {
	o.paused.Store(true)
	o.logger.Info("pipeline.pause.requested")
}

// Resume clears the pause flag and runs the remaining queue. It blocks like Run.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.paused.Store(false)
	return o.Run(ctx)
}

// Wake withdraws a pending pause. It reports whether a run is still active and
// will carry on by itself; otherwise the caller has to start one.
func (o *Orchestrator) Wake() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused.Store(false)
	return o.running.Load()
}

// Run processes queued items until the batch drains, is paused, is halted by a
// fatal error or ctx ends. Calling Run while another Run is active fails with
// common.ErrBatchBusy.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return common.ErrBatchBusy
	}

	o.setState(constants.BatchRunning, "")
	o.logger.Info("pipeline.run.start", "queued", o.queueLen(), "round", o.rounds)
	start := time.Now()
	first := true

	for {
		idx, ok := o.next()
		if !ok {
			if o.startAutoRetryRound() {
				continue
			}
			break
		}
		if o.park(idx) {
			return nil
		}
		if !first {
			if err := common.Sleep(ctx, o.itemDelay); err != nil {
				o.finish(idx, constants.BatchCanceled, err.Error())
				return err
			}
			// a pause requested during the delay still wins
			if o.park(idx) {
				return nil
			}
		}
		first = false

		if err := o.processItem(ctx, idx); err != nil {
			return err
		}
	}

	o.finish(-1, constants.BatchDone, "")
	snap := o.Snapshot()
	o.logger.Info("pipeline.run.done",
		"succeeded", len(snap.Records),
		"failed", len(snap.Failed),
		"discarded", snap.Discarded,
		"rounds", o.rounds,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// park stops the run at an item boundary if a pause is pending. The check and
// the state change happen under the lock so a concurrent Wake is never lost.
func (o *Orchestrator) park(idx int) bool {
	if !o.paused.Load() {
		return false
	}
	o.mu.Lock()
	if !o.paused.Load() {
		o.mu.Unlock()
		return false
	}
	o.queue = append([]int{idx}, o.queue...)
	o.state = constants.BatchPaused
	o.lastErr = ""
	o.running.Store(false)
	remaining := len(o.queue)
	o.mu.Unlock()

	o.logger.Info("pipeline.run.paused", "remaining", remaining)
	o.publish()
	return true
}

// finish ends the run in state. idx >= 0 goes back to the front of the queue.
func (o *Orchestrator) finish(idx int, state constants.BatchState, errMsg string) {
	o.mu.Lock()
	if idx >= 0 {
		o.items[idx].Phase = constants.PhaseQueued
		o.queue = append([]int{idx}, o.queue...)
	}
	o.state = state
	o.lastErr = errMsg
	o.running.Store(false)
	o.mu.Unlock()
	o.publish()
}

// processItem runs one item and applies the resulting transition. A non-nil
// return ends the run.
func (o *Orchestrator) processItem(ctx context.Context, idx int) error {
	o.mu.RLock()
	name, data := o.items[idx].FileName, o.items[idx].Data
	o.mu.RUnlock()

	rec, err := o.proc.Process(ctx, name, data, func(p constants.Phase) { o.setPhase(idx, p) })
	switch {
	case err == nil:
		o.succeed(idx, rec)
		return nil
	case ctx.Err() != nil:
		o.finish(idx, constants.BatchCanceled, ctx.Err().Error())
		return ctx.Err()
	case common.IsFatal(err):
		o.mu.Lock()
		o.items[idx].LastError = err.Error()
		o.mu.Unlock()
		o.finish(idx, constants.BatchHalted, err.Error())
		o.logger.Error("pipeline.run.halted", "file", name, "error", err)
		return err
	default:
		o.fail(idx, err)
		return nil
	}
}

func (o *Orchestrator) succeed(idx int, rec entity.Record) {
	o.mu.Lock()
	item := &o.items[idx]
	item.Phase = constants.PhaseSucceeded
	item.LastError = ""
	item.Data = nil
	o.done[idx] = true
	discard := o.discardSaturated && rec.Availability.FullySaturated()
	if discard {
		o.discarded++
	} else {
		o.records = append(o.records, rec)
	}
	o.mu.Unlock()

	if discard {
		o.logger.Info("pipeline.item.discarded", "file", rec.SourceFile, "company", rec.CompanyName)
	} else {
		o.logger.Info("pipeline.item.succeeded", "file", rec.SourceFile, "company", rec.CompanyName)
	}
	o.publish()
}

func (o *Orchestrator) fail(idx int, err error) {
	o.mu.Lock()
	item := &o.items[idx]
	item.LastError = err.Error()
	retry := item.RetryCount < o.maxRetries && !o.requeued[idx]
	if retry {
		item.RetryCount++
		item.Phase = constants.PhaseQueued
		o.requeued[idx] = true
		o.queue = append(o.queue, idx)
	} else {
		item.Phase = constants.PhaseFailed
		o.failed = append(o.failed, idx)
	}
	name, count := item.FileName, item.RetryCount
	o.mu.Unlock()

	if retry {
		o.logger.Warn("pipeline.item.requeued", "file", name, "retry_count", count, "error", err)
	} else {
		o.logger.Error("pipeline.item.failed", "file", name, "retry_count", count, "error", err)
	}
	o.publish()
}

// startAutoRetryRound moves failed items that still have budget back to the
// queue. It reports whether anything was requeued.
func (o *Orchestrator) startAutoRetryRound() bool {
	o.mu.Lock()
	if len(o.failed) == 0 || o.rounds >= o.maxRounds {
		o.mu.Unlock()
		return false
	}
	var keep []int
	var retry []int
	for _, idx := range o.failed {
		if o.items[idx].RetryCount < o.maxRetries {
			retry = append(retry, idx)
		} else {
			keep = append(keep, idx)
		}
	}
	if len(retry) == 0 {
		o.mu.Unlock()
		return false
	}
	o.rounds++
	o.failed = keep
	o.requeued = map[int]bool{}
	for _, idx := range retry {
		o.items[idx].RetryCount++
		o.items[idx].Phase = constants.PhaseQueued
		o.queue = append(o.queue, idx)
	}
	round := o.rounds
	o.mu.Unlock()

	o.logger.Info("pipeline.auto_retry.round", "round", round, "items", len(retry))
	o.publish()
	return true
}

// next pops the next item that has not already succeeded. Items are tracked by
// position, so two files sharing a name are still processed separately.
func (o *Orchestrator) next() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) > 0 {
		idx := o.queue[0]
		o.queue = o.queue[1:]
		if o.done[idx] {
			o.logger.Debug("pipeline.item.skipped", "file", o.items[idx].FileName)
			continue
		}
		return idx, true
	}
	return 0, false
}

func (o *Orchestrator) queueLen() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.queue)
}

func (o *Orchestrator) setPhase(idx int, p constants.Phase) {
	o.mu.Lock()
	o.items[idx].Phase = p
	o.current = o.items[idx].FileName
	o.phase = p
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) setState(s constants.BatchState, errMsg string) {
	o.mu.Lock()
	o.state = s
	o.lastErr = errMsg
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) publish() {
	if len(o.observers) == 0 {
		return
	}
	snap := o.Snapshot()
	for _, fn := range o.observers {
		fn(snap)
	}
}

// Progress reports how many items reached a terminal phase.
func (o *Orchestrator) Progress() entity.Progress {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progressLocked()
}

func (o *Orchestrator) progressLocked() entity.Progress {
	processed := 0
	for _, it := range o.items {
		if it.Phase.IsTerminal() {
			processed++
		}
	}
	p := entity.Progress{
		Processed:   processed,
		Total:       len(o.items),
		Phase:       o.phase,
		CurrentFile: o.current,
	}
	if p.Total > 0 {
		p.Fraction = float64(processed) / float64(p.Total)
	}
	return p
}

// Snapshot returns a deduplicated copy of the current results.
func (o *Orchestrator) Snapshot() entity.Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	failed := make([]entity.FailedItem, 0, len(o.failed))
	for _, idx := range o.failed {
		it := o.items[idx]
		failed = append(failed, entity.FailedItem{FileName: it.FileName, Error: it.LastError, RetryCount: it.RetryCount})
	}
	return entity.Snapshot{
		BatchID:   o.id,
		State:     o.state,
		Records:   dedup.Merge(o.records, nil).Merged,
		Failed:    failed,
		Discarded: o.discarded,
		Progress:  o.progressLocked(),
		Error:     o.lastErr,
		UpdatedAt: time.Now().UTC(),
	}
}

// Items returns a copy of the item states without their data.
func (o *Orchestrator) Items() []entity.BatchItem {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]entity.BatchItem, len(o.items))
	for i, it := range o.items {
		it.Data = nil
		out[i] = it
	}
	return out
}

// State returns the current batch state.
func (o *Orchestrator) State() constants.BatchState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// IsBusy reports whether Run is active.
func (o *Orchestrator) IsBusy() bool { return o.running.Load() }
