package approval

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bizscan/internal/common"
)

// Gateway creates sessions, notifies the approver and answers whether a
// session may proceed.
type Gateway struct {
	store    Store
	notifier Notifier
	ttl      time.Duration
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
}

func NewGateway(store Store, notifier Notifier, ttl time.Duration, baseURL string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Gateway{
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a pending session for requester and notifies the approver.
// A failed notification fails the request.
func (g *Gateway) Create(ctx context.Context, requester string, fileCount int) (Session, error) {
	now := g.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		Requester: requester,
		FileCount: fileCount,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.Put(ctx, s); err != nil {
		return Session{}, common.WrapError(err, "store session")
	}
	notice := Notice{Session: s, ApproveURL: g.link("approve", s.ID), DenyURL: g.link("deny", s.ID)}
	if err := g.notifier.Notify(ctx, notice); err != nil {
		return Session{}, common.WrapError(err, "notify approver")
	}
	g.logger.Info("approval.requested", "session_id", s.ID, "requester", requester, "file_count", fileCount)
	return s, nil
}

// Resolve returns the current session.
func (g *Gateway) Resolve(ctx context.Context, id string) (Session, error) {
	return g.store.Get(ctx, id)
}

func (g *Gateway) Approve(ctx context.Context, id string) (Session, error) {
	return g.decide(ctx, id, StatusApproved)
}

func (g *Gateway) Deny(ctx context.Context, id string) (Session, error) {
	return g.decide(ctx, id, StatusDenied)
}

func (g *Gateway) decide(ctx context.Context, id string, status Status) (Session, error) {
	s, err := g.store.Transition(ctx, id, status)
	if err != nil {
		g.logger.Warn("approval.decide.rejected", "session_id", id, "status", status, "error", err)
		return s, err
	}
	g.logger.Info("approval.decided", "session_id", id, "status", status)
	return s, nil
}

// Authorize succeeds only for an approved, unexpired session.
func (g *Gateway) Authorize(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: session id is missing", common.ErrApprovalRequired)
	}
	s, err := g.store.Get(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: session is missing or expired", common.ErrApprovalRequired)
		}
		return err
	}
	if s.Status != StatusApproved {
		return fmt.Errorf("%w: session is %s", common.ErrApprovalRequired, s.Status)
	}
	return nil
}

func (g *Gateway) link(action, id string) string {
	return g.baseURL + "/api/auth/" + action + "?sid=" + url.QueryEscape(id)
}
