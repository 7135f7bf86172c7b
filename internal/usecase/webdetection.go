package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/web-detect/internal/detection"
	"github.com/example/web-detect/internal/logging"
	"github.com/example/web-detect/internal/repository"
)

// ErrAuditDisabled is returned by read APIs that need the audit log when it is not configured.
var ErrAuditDisabled = errors.New("audit log is not configured")

// ErrAuditLogNotFound is returned when no audit entry exists for a request id.
var ErrAuditLogNotFound = errors.New("audit log entry not found")

// ErrStatsDisabled is returned when live counters are not configured.
var ErrStatsDisabled = errors.New("stats are not configured")

// DetectionRepository defines the audit operations needed by the use case.
type DetectionRepository interface {
	SaveLog(ctx context.Context, log *repository.DetectionLog) error
	FindByRequestID(ctx context.Context, requestID string) (*repository.DetectionLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// WebDetectionUseCase runs one web detection per request and records it.
type WebDetectionUseCase struct {
	client        detection.Client
	repo          DetectionRepository
	stats         Stats
	logger        *zap.Logger
	recordTimeout time.Duration
}

// Option customises a WebDetectionUseCase.
type Option func(*WebDetectionUseCase)

// WithAuditLog records every request in repo.
func WithAuditLog(repo DetectionRepository) Option {
	return func(uc *WebDetectionUseCase) { uc.repo = repo }
}

// WithStats bumps live counters on every request.
func WithStats(stats Stats) Option {
	return func(uc *WebDetectionUseCase) { uc.stats = stats }
}

// NewWebDetectionUseCase constructs a use case around a shared vision client.
func NewWebDetectionUseCase(client detection.Client, logger *zap.Logger, opts ...Option) *WebDetectionUseCase {
	uc := &WebDetectionUseCase{
		client:        client,
		logger:        logger.Named("webdetection_usecase"),
		recordTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// NewRequestID returns a fresh identifier for an incoming request.
func NewRequestID() string {
	return uuid.NewString()
}

// Detect sends the image to the vision client once and flattens the annotation.
// Errors from the client are returned wrapped, never recovered.
func (uc *WebDetectionUseCase) Detect(ctx context.Context, requestID string, image []byte) (*detection.Result, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.detect_web", requestID)

	start := time.Now()
	annotation, err := uc.client.DetectWeb(ctx, image)
	latency := time.Since(start)

	if err != nil {
		wrapped := logging.NewOperationError("usecase.detect_web", requestID, err)
		opLogger.Error("web detection failed",
			zap.Error(wrapped),
			zap.String("code", logging.StatusCode(err).String()),
		)
		uc.record(ctx, requestID, image, nil, err, latency)
		return nil, wrapped
	}

	result := detection.FromWebDetection(annotation)
	opLogger.Debug("web detection succeeded",
		zap.Int("full_matches", len(result.FullMatches)),
		zap.Int("partial_matches", len(result.PartialMatches)),
		zap.Int("visually_similar_images", len(result.VisuallySimilarImages)),
		zap.Duration("latency", latency),
	)
	uc.record(ctx, requestID, image, result, nil, latency)
	return result, nil
}

// record writes the audit entry and counters. Failures are logged and dropped.
func (uc *WebDetectionUseCase) record(ctx context.Context, requestID string, image []byte, result *detection.Result, callErr error, latency time.Duration) {
	if uc.repo == nil && uc.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.recordTimeout)
	defer cancel()
	opLogger := logging.WithOperation(uc.logger, "usecase.record", requestID)

	if uc.stats != nil {
		counters := map[string]int64{StatRequests: 1}
		if result != nil {
			counters[StatSucceeded] = 1
			counters[StatFullMatches] = int64(len(result.FullMatches))
			counters[StatPartialMatches] = int64(len(result.PartialMatches))
			counters[StatVisuallySimilarImages] = int64(len(result.VisuallySimilarImages))
		} else {
			counters[StatFailed] = 1
		}
		if err := uc.stats.Incr(ctx, counters); err != nil {
			opLogger.Warn("failed to update stats", zap.Error(logging.NewOperationError("stats.incr", requestID, err)))
		}
	}

	if uc.repo != nil {
		hash := sha1.Sum(image)
		log := &repository.DetectionLog{
			RequestID:           requestID,
			ImageSHA1:           hex.EncodeToString(hash[:]),
			ImageBytes:          len(image),
			Success:             callErr == nil,
			StatusCode:          logging.StatusCode(callErr).String(),
			ProcessingLatencyMs: latency.Milliseconds(),
			CreatedAt:           time.Now().UTC(),
		}
		if result != nil {
			log.FullMatches = len(result.FullMatches)
			log.PartialMatches = len(result.PartialMatches)
			log.VisuallySimilar = len(result.VisuallySimilarImages)
		}
		if err := uc.repo.SaveLog(ctx, log); err != nil {
			opLogger.Warn("failed to persist detection log", zap.Error(err))
		}
	}
}

// Stats returns the live counters.
func (uc *WebDetectionUseCase) Stats(ctx context.Context) (map[string]int64, error) {
	if uc.stats == nil {
		return nil, ErrStatsDisabled
	}
	snapshot, err := uc.stats.Snapshot(ctx)
	if err != nil {
		return nil, logging.NewOperationError("stats.snapshot", "", err)
	}
	return snapshot, nil
}
