package testsCommon

import (
	"context"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
)

// QuerierStub -
type QuerierStub struct {
	HistoryHandler       func(ctx context.Context, hours int, limit int) ([]common.MetricSample, error)
	VisualizationHandler func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error)
	HealthScoreHandler   func(ctx context.Context, hours int) (*common.HealthScore, error)
	PredictionsHandler   func(ctx context.Context, hours int, predictionHours int) (*common.PredictionBundle, error)
	ComparisonHandler    func(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error)
}

// History -
func (stub *QuerierStub) History(ctx context.Context, hours int, limit int) ([]common.MetricSample, error) {
	if stub.HistoryHandler != nil {
		return stub.HistoryHandler(ctx, hours, limit)
	}

	return []common.MetricSample{}, nil
}

// Visualization -
func (stub *QuerierStub) Visualization(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
	if stub.VisualizationHandler != nil {
		return stub.VisualizationHandler(ctx, mode, hours)
	}

	return &common.EnhancedMetrics{}, nil
}

// HealthScore -
func (stub *QuerierStub) HealthScore(ctx context.Context, hours int) (*common.HealthScore, error) {
	if stub.HealthScoreHandler != nil {
		return stub.HealthScoreHandler(ctx, hours)
	}

	return &common.HealthScore{}, nil
}

// Predictions -
func (stub *QuerierStub) Predictions(ctx context.Context, hours int, predictionHours int) (*common.PredictionBundle, error) {
	if stub.PredictionsHandler != nil {
		return stub.PredictionsHandler(ctx, hours, predictionHours)
	}

	return &common.PredictionBundle{}, nil
}

// Comparison -
func (stub *QuerierStub) Comparison(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error) {
	if stub.ComparisonHandler != nil {
		return stub.ComparisonHandler(ctx, containerIDs)
	}

	return &common.ComparisonResult{}, nil
}

// IsInterfaceNil -
func (stub *QuerierStub) IsInterfaceNil() bool {
	return stub == nil
}
