package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/approval"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBatches struct {
	mu       sync.Mutex
	started  [][]pipeline.File
	snaps    map[string]entity.Snapshot
	paused   []string
	workbook pipeline.WorkbookOptions
}

func newFakeBatches() *fakeBatches {
	return &fakeBatches{snaps: map[string]entity.Snapshot{}}
}

func (f *fakeBatches) Start(_ context.Context, files []pipeline.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, files)
	f.snaps["b1"] = entity.Snapshot{BatchID: "b1", State: constants.BatchRunning}
	return "b1", nil
}

func (f *fakeBatches) Get(_ context.Context, id string) (entity.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snaps[id]
	if !ok {
		return entity.Snapshot{}, common.ErrNotFound
	}
	return s, nil
}

func (f *fakeBatches) List() []entity.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Snapshot, 0, len(f.snaps))
	for _, s := range f.snaps {
		out = append(out, s)
	}
	return out
}

func (f *fakeBatches) Items(string) ([]entity.BatchItem, error) { return nil, nil }

func (f *fakeBatches) Pause(id string) error {
	if _, ok := f.snaps[id]; !ok {
		return common.ErrNotFound
	}
	f.paused = append(f.paused, id)
	return nil
}

func (f *fakeBatches) Resume(_ context.Context, id string) error {
	if _, ok := f.snaps[id]; !ok {
		return common.ErrNotFound
	}
	return nil
}

func (f *fakeBatches) Workbook(_ context.Context, id string, opts pipeline.WorkbookOptions) ([]byte, entity.Snapshot, error) {
	if _, ok := f.snaps[id]; !ok {
		return nil, entity.Snapshot{}, common.ErrNotFound
	}
	f.workbook = opts
	return []byte("xlsx"), f.snaps[id], nil
}

type stubChecker struct{ got string }

func (s *stubChecker) CheckAll(_ context.Context, digits string) entity.Availability {
	s.got = digits
	return entity.Availability{Ddangyo: entity.VerdictAvailable, Yogiyo: entity.VerdictRegistered, CoupangEats: entity.VerdictUnknown}
}

type silentNotifier struct{}

func (silentNotifier) Notify(context.Context, approval.Notice) error { return nil }

func newTestRouter(t *testing.T, withGate bool) (*gin.Engine, *fakeBatches, *stubChecker, *approval.Gateway) {
	t.Helper()
	batches := newFakeBatches()
	checker := &stubChecker{}
	var gate *approval.Gateway
	var g Gate
	if withGate {
		store := approval.NewMemoryStore(0, nil)
		t.Cleanup(store.Close)
		gate = approval.NewGateway(store, silentNotifier{}, 0, "http://localhost", nil)
		g = gate
	}
	return NewRouter(NewHandler(batches, g, checker, nil), nil), batches, checker, gate
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/batches", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthAndRequestID(t *testing.T) {
	r, _, _, _ := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-1")
	w := do(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(requestIDHeader))
}

func TestCreateBatch_WithoutGate(t *testing.T) {
	r, batches, _, _ := newTestRouter(t, false)
	w := do(r, uploadRequest(t, map[string]string{"a.jpg": "img", "notes.txt": "no"}))

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "b1", out["batchId"])
	assert.Len(t, out["rejected"], 1)
	require.Len(t, batches.started, 1)
	assert.Equal(t, "a.jpg", batches.started[0][0].Name)
}

func TestCreateBatch_NoAcceptableFiles(t *testing.T) {
	r, _, _, _ := newTestRouter(t, false)
	w := do(r, uploadRequest(t, map[string]string{"x.gif": "gif"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBatch_RequiresApprovedSession(t *testing.T) {
	r, batches, _, gate := newTestRouter(t, true)

	w := do(r, uploadRequest(t, map[string]string{"a.jpg": "img"}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/api/analysis/request-approval", strings.NewReader(`{"fileCount":1}`)))
	require.Equal(t, http.StatusOK, w.Code)
	sid, _ := decode(t, w)["sessionId"].(string)
	require.NotEmpty(t, sid)

	req := uploadRequest(t, map[string]string{"a.jpg": "img"})
	req.Header.Set(SessionHeader, sid)
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/analysis/check-approval?sid="+sid, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/auth/approve?sid="+sid, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", decode(t, w)["status"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/auth/deny?sid="+sid, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = uploadRequest(t, map[string]string{"a.jpg": "img"})
	req.Header.Set(SessionHeader, sid)
	assert.Equal(t, http.StatusAccepted, do(r, req).Code)
	assert.Len(t, batches.started, 1)

	require.NoError(t, gate.Authorize(t.Context(), sid))
}

func TestCheckApproval_Errors(t *testing.T) {
	r, _, _, _ := newTestRouter(t, true)
	assert.Equal(t, http.StatusBadRequest, do(r, httptest.NewRequest(http.MethodGet, "/api/analysis/check-approval", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(r, httptest.NewRequest(http.MethodGet, "/api/analysis/check-approval?sid=nope", nil)).Code)
}

func TestBatchRoutes(t *testing.T) {
	r, batches, _, _ := newTestRouter(t, false)
	assert.Equal(t, http.StatusNotFound, do(r, httptest.NewRequest(http.MethodGet, "/api/batches/b1", nil)).Code)

	require.Equal(t, http.StatusAccepted, do(r, uploadRequest(t, map[string]string{"a.png": "img"})).Code)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/batches/b1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	snap, _ := decode(t, w)["snapshot"].(map[string]any)
	assert.Equal(t, "b1", snap["batchId"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/batches", nil))
	assert.Equal(t, float64(1), decode(t, w)["count"])

	assert.Equal(t, http.StatusAccepted, do(r, httptest.NewRequest(http.MethodPost, "/api/batches/b1/pause", nil)).Code)
	assert.Equal(t, []string{"b1"}, batches.paused)
	assert.Equal(t, http.StatusAccepted, do(r, httptest.NewRequest(http.MethodPost, "/api/batches/b1/resume", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(r, httptest.NewRequest(http.MethodPost, "/api/batches/zz/pause", nil)).Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/batches/b1/workbook?review=true&partial=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bizscan_partial_b1_")
	assert.Equal(t, "xlsx", w.Body.String())
	assert.Equal(t, pipeline.WorkbookOptions{Review: true, Partial: true}, batches.workbook)
}

func TestDeliveryCheck(t *testing.T) {
	r, _, checker, _ := newTestRouter(t, false)

	w := do(r, httptest.NewRequest(http.MethodPost, "/api/delivery-check", strings.NewReader(`{"registrationNumber":"123-45-6789"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/api/delivery-check", strings.NewReader(`{"registrationNumber":"123-45-67890"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "1234567890", checker.got)
	assert.Equal(t, "123-45-67890", out["registrationNumber"])
	assert.Equal(t, "땡겨요(가능) / 요기요(불가) / 쿠팡이츠(불가)", out["summary"])
	assert.Equal(t, false, out["fullySaturated"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, StatusFor(common.ErrApprovalRequired))
	assert.Equal(t, http.StatusNotFound, StatusFor(approval.ErrSessionNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(approval.ErrNotPending))
	assert.Equal(t, http.StatusConflict, StatusFor(common.ErrBatchBusy))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(common.ErrNoCredentials))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
