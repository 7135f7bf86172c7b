package usecase

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/web-detect/internal/repository"
)

// MetricsSummary represents aggregated detection insights from the audit log.
type MetricsSummary struct {
	TotalRequests              int64   `json:"total_requests"`
	SuccessfulRequests         int64   `json:"successful_requests"`
	SuccessRate                float64 `json:"success_rate"`
	AverageFullMatches         float64 `json:"average_full_matches"`
	AverageProcessingLatencyMs float64 `json:"average_processing_latency_ms"`
}

// GetMetricsSummary aggregates detection metrics from persisted logs.
func (uc *WebDetectionUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	if uc.repo == nil {
		return nil, ErrAuditDisabled
	}
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRequests:              aggregation.TotalCount,
		SuccessfulRequests:         aggregation.SuccessCount,
		AverageFullMatches:         aggregation.AverageFullMatches,
		AverageProcessingLatencyMs: aggregation.AverageProcessingLatencyMs,
	}

	if aggregation.TotalCount > 0 {
		summary.SuccessRate = float64(aggregation.SuccessCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}

// GetAuditLog returns the audit entry recorded for requestID.
func (uc *WebDetectionUseCase) GetAuditLog(ctx context.Context, requestID string) (*repository.DetectionLog, error) {
	if uc.repo == nil {
		return nil, ErrAuditDisabled
	}
	log, err := uc.repo.FindByRequestID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAuditLogNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}
