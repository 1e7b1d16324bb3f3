package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/async"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/dedup"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/export"
	"github.com/joseph-ayodele/bizscan/internal/review"
)

var errNoItems = errors.New("batch has no files")

// SnapshotStore persists batch snapshots beyond the life of the process.
type SnapshotStore interface {
	Save(ctx context.Context, snap entity.Snapshot) error
	Load(ctx context.Context, batchID string) (entity.Snapshot, error)
}

// WorkbookRenderer turns results into XLSX bytes.
type WorkbookRenderer interface {
	Render(ctx context.Context, recs []entity.Record) ([]byte, error)
	RenderPartial(ctx context.Context, snap entity.Snapshot) ([]byte, error)
}

// Archiver stores finished workbooks and returns where they went.
type Archiver interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// WorkbookOptions selects how a workbook is produced.
type WorkbookOptions struct {
	Review  bool
	Partial bool
}

// Service keeps the batches of a running process and runs them on a worker
// queue. Every batch is still processed one item at a time.
type Service struct {
	proc     ItemProcessor
	renderer WorkbookRenderer
	reviewer review.TextReviewer
	store    SnapshotStore
	archiver Archiver
	logger   *slog.Logger

	batchOpts    []Option
	queueOpts    []async.Option
	storeTimeout time.Duration
	queue        async.Queue

	mu      sync.RWMutex
	batches map[string]*Orchestrator
}

type ServiceOption func(*Service)

func WithReviewer(r review.TextReviewer) ServiceOption {
	return func(s *Service) { s.reviewer = r }
}

func WithSnapshotStore(st SnapshotStore) ServiceOption {
	return func(s *Service) { s.store = st }
}

func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archiver = a }
}

// WithBatchOptions applies orchestrator options to every new batch.
func WithBatchOptions(opts ...Option) ServiceOption {
	return func(s *Service) { s.batchOpts = append(s.batchOpts, opts...) }
}

func WithQueueOptions(opts ...async.Option) ServiceOption {
	return func(s *Service) { s.queueOpts = append(s.queueOpts, opts...) }
}

func WithStoreTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func NewService(proc ItemProcessor, renderer WorkbookRenderer, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		proc:         proc,
		renderer:     renderer,
		logger:       logger,
		storeTimeout: 5 * time.Second,
		batches:      map[string]*Orchestrator{},
	}
	for _, o := range opts {
		o(s)
	}
	s.queue = async.NewProcessorQueue(s, logger, s.queueOpts...)
	return s
}

// Start registers a batch for files and queues it. It returns the batch id.
func (s *Service) Start(ctx context.Context, files []File) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidInput, errNoItems)
	}
	id := uuid.NewString()

	opts := append([]Option(nil), s.batchOpts...)
	opts = append(opts, WithObserver(s.persister(id)))
	o := NewOrchestrator(id, s.proc, files, s.logger, opts...)

	s.mu.Lock()
	s.batches[id] = o
	s.mu.Unlock()

	if err := s.queue.Enqueue(ctx, async.Job{BatchID: id, TraceID: common.RequestIDFromContext(ctx)}); err != nil {
		s.mu.Lock()
		delete(s.batches, id)
		s.mu.Unlock()
		return "", fmt.Errorf("enqueue batch: %w", err)
	}
	s.logger.Info("pipeline.batch.started", "batch_id", id, "files", len(files))
	return id, nil
}

// RunBatch implements async.Runner.
func (s *Service) RunBatch(ctx context.Context, job async.Job) error {
	o, ok := s.lookup(job.BatchID)
	if !ok {
		return fmt.Errorf("%w: batch %s", common.ErrNotFound, job.BatchID)
	}
	ctx = common.WithBatchID(ctx, job.BatchID)

	var err error
	if job.Resume {
		err = o.Resume(ctx)
	} else {
		err = o.Run(ctx)
	}
	if errors.Is(err, common.ErrBatchBusy) {
		return nil
	}
	if o.State() == constants.BatchDone {
		s.archive(ctx, o.Snapshot())
	}
	return err
}

// Get returns the live snapshot, or the stored one for batches not in memory.
func (s *Service) Get(ctx context.Context, id string) (entity.Snapshot, error) {
	if o, ok := s.lookup(id); ok {
		return o.Snapshot(), nil
	}
	if s.store == nil {
		return entity.Snapshot{}, fmt.Errorf("%w: batch %s", common.ErrNotFound, id)
	}
	ctx, cancel := common.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Load(ctx, id)
}

// List returns snapshots of the in-memory batches, newest first.
func (s *Service) List() []entity.Snapshot {
	s.mu.RLock()
	out := make([]entity.Snapshot, 0, len(s.batches))
	for _, o := range s.batches {
		out = append(out, o.Snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out
}

// Items returns the per-file states of a live batch.
func (s *Service) Items(id string) ([]entity.BatchItem, error) {
	o, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: batch %s", common.ErrNotFound, id)
	}
	return o.Items(), nil
}

func (s *Service) Pause(id string) error {
	o, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: batch %s", common.ErrNotFound, id)
	}
	if o.State() == constants.BatchDone {
		return fmt.Errorf("%w: batch %s already finished", common.ErrInvalidInput, id)
	}
	o.Pause()
	return nil
}

// Resume queues a stopped batch again. A batch that is still winding down
// after a pause simply carries on.
func (s *Service) Resume(ctx context.Context, id string) error {
	o, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: batch %s", common.ErrNotFound, id)
	}
	if o.State() == constants.BatchDone {
		return fmt.Errorf("%w: batch %s already finished", common.ErrInvalidInput, id)
	}
	if o.Wake() {
		return nil
	}
	return s.queue.Enqueue(ctx, async.Job{BatchID: id, Resume: true, TraceID: common.RequestIDFromContext(ctx)})
}

// Workbook renders the batch. With Review the records go through a batch
// review and are deduplicated again; review failures keep the originals.
func (s *Service) Workbook(ctx context.Context, id string, opts WorkbookOptions) ([]byte, entity.Snapshot, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, entity.Snapshot{}, err
	}
	snap = snap.Clone()
	if opts.Review && s.reviewer != nil && len(snap.Records) > 0 {
		res := s.reviewer.ReviewBatch(ctx, snap.Records)
		merged := dedup.Merge(res.Records, nil)
		snap.Records = merged.Merged
		s.logger.Info("pipeline.workbook.reviewed",
			"batch_id", id,
			"reviewed", res.Reviewed,
			"corrections", len(res.Corrections),
			"duplicates_removed", merged.DuplicatesRemoved,
		)
	}

	var data []byte
	if opts.Partial {
		data, err = s.renderer.RenderPartial(ctx, snap)
	} else {
		data, err = s.renderer.Render(ctx, snap.Records)
	}
	if err != nil {
		return nil, entity.Snapshot{}, fmt.Errorf("render workbook: %w", err)
	}
	return data, snap, nil
}

// Close stops accepting batches and waits for running ones until ctx ends.
func (s *Service) Close(ctx context.Context) {
	s.mu.RLock()
	for _, o := range s.batches {
		if o.IsBusy() {
			o.Pause()
		}
	}
	s.mu.RUnlock()
	s.queue.Shutdown(ctx)
}

func (s *Service) lookup(id string) (*Orchestrator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.batches[id]
	return o, ok
}

// persister saves a snapshot whenever the state or processed count moves.
func (s *Service) persister(id string) Observer {
	if s.store == nil {
		return nil
	}
	var (
		mu        sync.Mutex
		lastState constants.BatchState
		lastDone  = -1
	)
	return func(snap entity.Snapshot) {
		mu.Lock()
		changed := snap.State != lastState || snap.Progress.Processed != lastDone
		lastState, lastDone = snap.State, snap.Progress.Processed
		mu.Unlock()
		if !changed {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
		defer cancel()
		if err := s.store.Save(ctx, snap); err != nil {
			s.logger.Warn("pipeline.snapshot.save_failed", "batch_id", id, "error", err)
		}
	}
}

func (s *Service) archive(ctx context.Context, snap entity.Snapshot) {
	if s.archiver == nil {
		return
	}
	data, err := s.renderer.Render(ctx, snap.Records)
	if err != nil {
		s.logger.Warn("pipeline.archive.render_failed", "batch_id", snap.BatchID, "error", err)
		return
	}
	key := export.FileName(snap.BatchID, false, time.Now().UTC())
	loc, err := s.archiver.Upload(ctx, key, data)
	if err != nil {
		s.logger.Warn("pipeline.archive.failed", "batch_id", snap.BatchID, "error", err)
		return
	}
	s.logger.Info("pipeline.archive.ok", "batch_id", snap.BatchID, "location", loc)
}
