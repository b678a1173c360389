package scheduler

import (
	"context"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
)

// Querier defines the interface towards the metrics query service
type Querier interface {
	// History fetches the raw samples for the resolved window
	History(ctx context.Context, hours int, limit int) ([]common.MetricSample, error)

	// Visualization fetches the enhanced metrics bundle for the resolved window
	Visualization(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error)

	// HealthScore fetches the externally computed health score
	HealthScore(ctx context.Context, hours int) (*common.HealthScore, error)

	// Predictions fetches the prediction bundle
	Predictions(ctx context.Context, hours int, predictionHours int) (*common.PredictionBundle, error)

	// Comparison fetches the multi-container snapshot
	Comparison(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error)

	IsInterfaceNil() bool
}
