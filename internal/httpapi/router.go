package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/bizscan/internal/common"
)

const requestIDHeader = "X-Request-ID"

// maxMultipartMemory keeps large uploads on disk while parsing.
const maxMultipartMemory = 32 << 20

func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	router.Use(RequestID())
	router.Use(Logger(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	api.POST("/analysis/request-approval", h.RequestApproval)
	api.GET("/analysis/check-approval", h.CheckApproval)
	api.GET("/auth/approve", h.Approve)
	api.GET("/auth/deny", h.Deny)

	batches := api.Group("/batches")
	batches.POST("", h.CreateBatch)
	batches.GET("", h.ListBatches)
	batches.GET("/:id", h.GetBatch)
	batches.POST("/:id/pause", h.PauseBatch)
	batches.POST("/:id/resume", h.ResumeBatch)
	batches.GET("/:id/workbook", h.Workbook)

	api.POST("/delivery-check", h.DeliveryCheck)

	return router
}

// RequestID propagates or assigns X-Request-ID and stores it on the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"request_id", common.RequestIDFromContext(c.Request.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			logger.Error("http.request", append(attrs, "errors", c.Errors.String())...)
			return
		}
		logger.Info("http.request", attrs...)
	}
}
