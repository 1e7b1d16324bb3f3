package approval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/internal/common"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	mem := NewMemoryStore(0, nil)
	t.Cleanup(mem.Close)
	rs, _ := newRedisStore(t)
	return map[string]Store{"memory": mem, "redis": rs}
}

func TestGateway_ApproveFlow(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			g := NewGateway(store, notifier, time.Minute, "https://bizscan.example/", nil)

			s, err := g.Create(t.Context(), "10.0.0.1", 3)
			require.NoError(t, err)
			assert.Equal(t, StatusPending, s.Status)
			assert.Equal(t, time.Minute, s.ExpiresAt.Sub(s.CreatedAt))

			require.Len(t, notifier.notices, 1)
			assert.Equal(t, "https://bizscan.example/api/auth/approve?sid="+s.ID, notifier.notices[0].ApproveURL)
			assert.Equal(t, "https://bizscan.example/api/auth/deny?sid="+s.ID, notifier.notices[0].DenyURL)

			err = g.Authorize(t.Context(), s.ID)
			assert.ErrorIs(t, err, common.ErrApprovalRequired)

			got, err := g.Approve(t.Context(), s.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusApproved, got.Status)
			require.NoError(t, g.Authorize(t.Context(), s.ID))

			_, err = g.Deny(t.Context(), s.ID)
			assert.ErrorIs(t, err, ErrNotPending)

			resolved, err := g.Resolve(t.Context(), s.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusApproved, resolved.Status)
		})
	}
}

func TestGateway_DenyBlocks(t *testing.T) {
	mem := NewMemoryStore(0, nil)
	defer mem.Close()
	g := NewGateway(mem, &recordingNotifier{}, 0, "", nil)

	s, err := g.Create(t.Context(), "ip", 1)
	require.NoError(t, err)
	_, err = g.Deny(t.Context(), s.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, g.Authorize(t.Context(), s.ID), common.ErrApprovalRequired)
	assert.ErrorIs(t, g.Authorize(t.Context(), ""), common.ErrApprovalRequired)
	assert.ErrorIs(t, g.Authorize(t.Context(), "unknown"), common.ErrApprovalRequired)
}

func TestGateway_NotifyFailureFailsCreate(t *testing.T) {
	mem := NewMemoryStore(0, nil)
	defer mem.Close()
	g := NewGateway(mem, &recordingNotifier{err: assert.AnError}, 0, "", nil)

	_, err := g.Create(t.Context(), "ip", 1)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMemoryStore_ExpiryAndSweep(t *testing.T) {
	mem := NewMemoryStore(0, nil)
	defer mem.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	for _, id := range []string{"a", "b"} {
		require.NoError(t, mem.Put(t.Context(), Session{ID: id, Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	}
	require.NoError(t, mem.Put(t.Context(), Session{ID: "c", Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	now = now.Add(2 * time.Minute)
	_, err := mem.Get(t.Context(), "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Equal(t, 1, mem.Sweep())
	assert.Equal(t, 1, mem.Len())

	_, err = mem.Transition(t.Context(), "b", StatusApproved)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_JanitorEvicts(t *testing.T) {
	mem := NewMemoryStore(5*time.Millisecond, nil)
	defer mem.Close()
	past := time.Now().Add(-time.Second)
	require.NoError(t, mem.Put(t.Context(), Session{ID: "old", ExpiresAt: past}))

	assert.Eventually(t, func() bool { return mem.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	rs, mr := newRedisStore(t)
	now := time.Now()
	require.NoError(t, rs.Put(t.Context(), Session{ID: "s1", Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	assert.True(t, mr.Exists(keyPrefix+"s1"))
	assert.InDelta(t, time.Minute.Seconds(), mr.TTL(keyPrefix+"s1").Seconds(), 2)

	mr.FastForward(2 * time.Minute)
	_, err := rs.Get(t.Context(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_PutRejectsExpired(t *testing.T) {
	rs, _ := newRedisStore(t)
	err := rs.Put(t.Context(), Session{ID: "gone", ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}

func TestDiscordNotifier_PostsEmbed(t *testing.T) {
	var got DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	created := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	n := Notice{
		Session:    Session{ID: "s1", Requester: "1.2.3.4", FileCount: 7, CreatedAt: created, ExpiresAt: created.Add(5 * time.Minute)},
		ApproveURL: "https://x/approve?sid=s1",
		DenyURL:    "https://x/deny?sid=s1",
	}
	require.NoError(t, NewDiscordNotifier(srv.URL, srv.Client(), nil).Notify(t.Context(), n))

	require.Len(t, got.Embeds, 1)
	e := got.Embeds[0]
	assert.Equal(t, "@everyone", got.Content)
	assert.Equal(t, "1.2.3.4", e.Fields[0].Value)
	assert.Equal(t, "2024-05-01 12:00:00", e.Fields[1].Value)
	assert.Equal(t, "7개", e.Fields[2].Value)
	assert.Contains(t, e.Description, n.ApproveURL)
	assert.Contains(t, e.Description, n.DenyURL)
	assert.Contains(t, e.Description, "5분")
}

func TestDiscordNotifier_FailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordNotifier(srv.URL, srv.Client(), nil).Notify(t.Context(), Notice{})
	assert.Error(t, err)
}
