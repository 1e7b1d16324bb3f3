package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SnapshotRepository interface {
	Save(ctx context.Context, snap entity.Snapshot) error
	Load(ctx context.Context, batchID string) (entity.Snapshot, error)
	List(ctx context.Context, limit int) ([]entity.Snapshot, error)
	Delete(ctx context.Context, batchID string) error
}

type snapshotRepository struct {
	db      *DB
	timeout time.Duration
	logger  *slog.Logger
}

func NewSnapshotRepository(db *DB, timeout time.Duration, logger *slog.Logger) SnapshotRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &snapshotRepository{db: db, timeout: timeout, logger: logger}
}

func (r *snapshotRepository) Save(ctx context.Context, snap entity.Snapshot) error {
	ctx, cancel := common.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	q := r.db.rebind(`INSERT INTO batch_snapshots (batch_id, state, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (batch_id) DO UPDATE SET state = excluded.state, payload = excluded.payload, updated_at = excluded.updated_at`)
	if _, err := r.db.SQL.ExecContext(ctx, q, snap.BatchID, string(snap.State), string(payload), updated.UTC().Format(timeLayout)); err != nil {
		r.logger.Error("failed to save snapshot", "batch_id", snap.BatchID, "error", err)
		return fmt.Errorf("%w: save snapshot: %w", common.ErrDatabase, err)
	}
	r.logger.Debug("snapshot saved", "batch_id", snap.BatchID, "state", snap.State, "records", len(snap.Records))
	return nil
}

func (r *snapshotRepository) Load(ctx context.Context, batchID string) (entity.Snapshot, error) {
	ctx, cancel := common.WithTimeout(ctx, r.timeout)
	defer cancel()

	var payload string
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT payload FROM batch_snapshots WHERE batch_id = ?`), batchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Snapshot{}, fmt.Errorf("%w: batch %s", common.ErrNotFound, batchID)
	}
	if err != nil {
		r.logger.Error("failed to load snapshot", "batch_id", batchID, "error", err)
		return entity.Snapshot{}, fmt.Errorf("%w: load snapshot: %w", common.ErrDatabase, err)
	}
	return decodeSnapshot(payload)
}

// List returns the most recently updated snapshots first.
func (r *snapshotRepository) List(ctx context.Context, limit int) ([]entity.Snapshot, error) {
	ctx, cancel := common.WithTimeout(ctx, r.timeout)
	defer cancel()
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT payload FROM batch_snapshots ORDER BY updated_at DESC, batch_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %w", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan snapshot: %w", common.ErrDatabase, err)
		}
		snap, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *snapshotRepository) Delete(ctx context.Context, batchID string) error {
	ctx, cancel := common.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`DELETE FROM batch_snapshots WHERE batch_id = ?`), batchID)
	if err != nil {
		return fmt.Errorf("%w: delete snapshot: %w", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: batch %s", common.ErrNotFound, batchID)
	}
	return nil
}

func decodeSnapshot(payload string) (entity.Snapshot, error) {
	var snap entity.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return entity.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
