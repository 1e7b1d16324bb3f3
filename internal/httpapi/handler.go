// Package httpapi exposes batches, the approval gate and availability checks
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/approval"
	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/export"
	"github.com/joseph-ayodele/bizscan/internal/ingest"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
)

// SessionHeader carries the approved session id on batch submission.
const SessionHeader = "X-Session-ID"

// BatchService is the batch registry the handlers drive.
type BatchService interface {
	Start(ctx context.Context, files []pipeline.File) (string, error)
	Get(ctx context.Context, id string) (entity.Snapshot, error)
	List() []entity.Snapshot
	Items(id string) ([]entity.BatchItem, error)
	Pause(id string) error
	Resume(ctx context.Context, id string) error
	Workbook(ctx context.Context, id string, opts pipeline.WorkbookOptions) ([]byte, entity.Snapshot, error)
}

// Gate is the approval gateway. A nil Gate disables approval.
type Gate interface {
	Create(ctx context.Context, requester string, fileCount int) (approval.Session, error)
	Resolve(ctx context.Context, id string) (approval.Session, error)
	Approve(ctx context.Context, id string) (approval.Session, error)
	Deny(ctx context.Context, id string) (approval.Session, error)
	Authorize(ctx context.Context, id string) error
}

type Handler struct {
	batches      BatchService
	gate         Gate
	checker      delivery.Checker
	maxFileBytes int64
	checkTimeout time.Duration
	logger       *slog.Logger
}

func NewHandler(batches BatchService, gate Gate, checker delivery.Checker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		batches:      batches,
		gate:         gate,
		checker:      checker,
		maxFileBytes: ingest.DefaultMaxFileBytes,
		checkTimeout: 20 * time.Second,
		logger:       logger,
	}
}

func (h *Handler) RequestApproval(c *gin.Context) {
	if h.gate == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "approvalRequired": false})
		return
	}
	var req struct {
		FileCount int `json:"fileCount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	s, err := h.gate.Create(c.Request.Context(), c.ClientIP(), req.FileCount)
	if err != nil {
		h.logger.Error("http.approval.request_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approval notification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": s.ID,
		"expiresAt": s.ExpiresAt,
		"message":   "관리자에게 승인 요청을 보냈습니다.",
	})
}

func (h *Handler) CheckApproval(c *gin.Context) {
	if h.gate == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": approval.StatusApproved})
		return
	}
	sid := c.Query("sid")
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "세션 ID가 필요합니다."})
		return
	}
	s, err := h.gate.Resolve(c.Request.Context(), sid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": s.Status, "createdAt": s.CreatedAt, "expiresAt": s.ExpiresAt})
}

func (h *Handler) Approve(c *gin.Context) { h.decide(c, true) }

func (h *Handler) Deny(c *gin.Context) { h.decide(c, false) }

func (h *Handler) decide(c *gin.Context, approve bool) {
	if h.gate == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "approval is disabled"})
		return
	}
	sid := c.Query("sid")
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "세션 ID가 필요합니다."})
		return
	}
	var (
		s   approval.Session
		err error
	)
	if approve {
		s, err = h.gate.Approve(c.Request.Context(), sid)
	} else {
		s, err = h.gate.Deny(c.Request.Context(), sid)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": s.Status})
}

// CreateBatch accepts multipart "files" and starts a batch.
func (h *Handler) CreateBatch(c *gin.Context) {
	ctx := c.Request.Context()
	if h.gate != nil {
		if err := h.gate.Authorize(ctx, c.GetHeader(SessionHeader)); err != nil {
			h.writeError(c, err)
			return
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form with files is required", "details": err.Error()})
		return
	}

	var files []pipeline.File
	var rejected []string
	for _, fh := range form.File["files"] {
		if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
			rejected = append(rejected, fh.Filename+": "+ingest.ErrTooLarge.Error())
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			rejected = append(rejected, fh.Filename+": "+err.Error())
			continue
		}
		f, err := ingest.FromUpload(fh.Filename, data, h.maxFileBytes)
		if err != nil {
			rejected = append(rejected, err.Error())
			continue
		}
		files = append(files, pipeline.File{Name: f.Name, Data: f.Data})
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no acceptable image files", "rejected": rejected})
		return
	}

	id, err := h.batches.Start(ctx, files)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Info("http.batch.created", "batch_id", id, "files", len(files), "rejected", len(rejected))
	c.JSON(http.StatusAccepted, gin.H{"batchId": id, "files": len(files), "rejected": rejected})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (h *Handler) ListBatches(c *gin.Context) {
	batches := h.batches.List()
	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

func (h *Handler) GetBatch(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.batches.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	items, _ := h.batches.Items(id)
	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "items": items})
}

func (h *Handler) PauseBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.batches.Pause(id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batchId": id, "paused": true})
}

func (h *Handler) ResumeBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.batches.Resume(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batchId": id, "resumed": true})
}

// Workbook streams the XLSX. Query flags: review, partial.
func (h *Handler) Workbook(c *gin.Context) {
	id := c.Param("id")
	opts := pipeline.WorkbookOptions{Review: queryBool(c, "review"), Partial: queryBool(c, "partial")}
	data, _, err := h.batches.Workbook(c.Request.Context(), id, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	name := export.FileName(id, opts.Partial, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, constants.XLSXContentType, data)
}

type deliveryCheckRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
}

// DeliveryCheck probes all platforms for one registration number.
func (h *Handler) DeliveryCheck(c *gin.Context) {
	var req deliveryCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	v := common.NewValidator().Field("registrationNumber", req.RegistrationNumber, common.Required, common.RegistrationNumber)
	if err := v.Error(); err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := common.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()
	digits := bizno.Digits(req.RegistrationNumber)
	avail := h.checker.CheckAll(ctx, digits)
	c.JSON(http.StatusOK, gin.H{
		"registrationNumber": bizno.Canonical(digits),
		"availability":       avail,
		"summary":            delivery.FormatSummary(avail),
		"fullySaturated":     delivery.IsFullySaturated(avail),
	})
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// writeError maps application errors to HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrApprovalRequired), errors.Is(err, common.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrBatchBusy):
		return http.StatusConflict
	case errors.Is(err, common.ErrNoCredentials):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
