package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/web-detect/internal/detection"
	"github.com/example/web-detect/internal/logging"
	"github.com/example/web-detect/internal/repository"
	"github.com/example/web-detect/internal/usecase"
)

// MaxUploadSize bounds the multipart body accepted on the detection route.
const MaxUploadSize = 20 << 20

// FileField is the multipart field carrying the image.
const FileField = "file"

// WebDetector is the use case surface the handlers depend on.
type WebDetector interface {
	Detect(ctx context.Context, requestID string, image []byte) (*detection.Result, error)
	GetMetricsSummary(ctx context.Context) (*usecase.MetricsSummary, error)
	GetAuditLog(ctx context.Context, requestID string) (*repository.DetectionLog, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router gin.IRoutes, uc WebDetector) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/web-detect/", func(c *gin.Context) {
		requestID := usecase.NewRequestID()
		c.Header(logging.RequestIDHeader, requestID)

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
		file, err := c.FormFile(FileField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		src, err := file.Open()
		if err != nil {
			_ = c.Error(logging.NewOperationError("handlers.open_upload", requestID, err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			_ = c.Error(logging.NewOperationError("handlers.read_upload", requestID, err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
			return
		}

		result, err := uc.Detect(c.Request.Context(), requestID, data)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "web detection failed"})
			return
		}

		c.JSON(http.StatusOK, result)
	})

	router.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			respondBackendError(c, err, usecase.ErrAuditDisabled)
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	router.GET("/audit/:id", func(c *gin.Context) {
		entry, err := uc.GetAuditLog(c.Request.Context(), c.Param("id"))
		if errors.Is(err, usecase.ErrAuditLogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit log entry not found"})
			return
		}
		if err != nil {
			respondBackendError(c, err, usecase.ErrAuditDisabled)
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	router.GET("/stats", func(c *gin.Context) {
		snapshot, err := uc.Stats(c.Request.Context())
		if err != nil {
			respondBackendError(c, err, usecase.ErrStatsDisabled)
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})
}

func respondBackendError(c *gin.Context, err, disabled error) {
	if errors.Is(err, disabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
