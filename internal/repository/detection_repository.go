package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/web-detect/internal/logging"
)

// DetectionLog is one audited web detection request. Only counts are kept, never URLs.
type DetectionLog struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	RequestID           string    `gorm:"column:request_id;uniqueIndex;size:64" json:"request_id"`
	ImageSHA1           string    `gorm:"column:image_sha1;index;size:40" json:"image_sha1"`
	ImageBytes          int       `gorm:"column:image_bytes" json:"image_bytes"`
	FullMatches         int       `gorm:"column:full_matches" json:"full_matches"`
	PartialMatches      int       `gorm:"column:partial_matches" json:"partial_matches"`
	VisuallySimilar     int       `gorm:"column:visually_similar" json:"visually_similar"`
	Success             bool      `gorm:"column:success" json:"success"`
	StatusCode          string    `gorm:"column:status_code;size:32" json:"status_code"`
	ProcessingLatencyMs int64     `gorm:"column:processing_latency_ms" json:"processing_latency_ms"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the default table name.
func (DetectionLog) TableName() string {
	return "detection_logs"
}

// MetricsAggregation holds raw aggregates over all audited requests.
type MetricsAggregation struct {
	TotalCount                 int64
	SuccessCount               int64
	AverageFullMatches         float64
	AverageProcessingLatencyMs float64
}

// DetectionRepository persists the audit trail of detection requests.
type DetectionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDetectionRepository creates a new repository instance.
func NewDetectionRepository(db *gorm.DB, logger *zap.Logger) *DetectionRepository {
	return &DetectionRepository{db: db, logger: logger.Named("detection_repository")}
}

// AutoMigrate ensures the schema is available.
func (r *DetectionRepository) AutoMigrate(ctx context.Context) error {
	return logging.NewOperationError("repository.auto_migrate", "", r.db.WithContext(ctx).AutoMigrate(&DetectionLog{}))
}

// SaveLog persists an audit entry.
func (r *DetectionRepository) SaveLog(ctx context.Context, log *DetectionLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		wrapped := logging.NewOperationError("repository.save_log", log.RequestID, err)
		r.logger.Warn("failed to save detection log", zap.Error(wrapped))
		return wrapped
	}
	return nil
}

// FindByRequestID loads a single audit entry.
func (r *DetectionRepository) FindByRequestID(ctx context.Context, requestID string) (*DetectionLog, error) {
	var log DetectionLog
	if err := r.db.WithContext(ctx).First(&log, "request_id = ?", requestID).Error; err != nil {
		return nil, logging.NewOperationError("repository.find_by_request_id", requestID, err)
	}
	return &log, nil
}

// AggregateMetrics computes totals and averages across the audit log.
func (r *DetectionRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var row struct {
		TotalCount   int64
		SuccessCount int64
		AvgFull      *float64
		AvgLatency   *float64
	}
	err := r.db.WithContext(ctx).
		Model(&DetectionLog{}).
		Select(`COUNT(*) AS total_count,
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS success_count,
			AVG(CASE WHEN success THEN full_matches END) AS avg_full,
			AVG(processing_latency_ms) AS avg_latency`).
		Scan(&row).Error
	if err != nil {
		return nil, logging.NewOperationError("repository.aggregate_metrics", "", err)
	}

	agg := &MetricsAggregation{TotalCount: row.TotalCount, SuccessCount: row.SuccessCount}
	if row.AvgFull != nil {
		agg.AverageFullMatches = *row.AvgFull
	}
	if row.AvgLatency != nil {
		agg.AverageProcessingLatencyMs = *row.AvgLatency
	}
	return agg, nil
}
