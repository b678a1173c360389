package api

import (
	"context"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
)

// View defines the render boundary of one mounted dashboard view
type View interface {
	// Snapshot returns a read-only copy of the current render model
	Snapshot() common.RenderModel

	// Status returns the per-query loading flags and error values
	Status() common.ViewStatus

	// History fetches the raw samples of the current window on demand
	History(ctx context.Context) ([]common.MetricSample, error)

	// Refresh re-issues the coordinated fetch immediately
	Refresh()

	SetTimeRange(mode timewindow.Mode, customStart *time.Time, customEnd *time.Time)
	SetContainers(containerIDs []string)
	SetSelectedMetric(metric string)
	SetPredictionsEnabled(enabled bool)
	SetAutoRefresh(enabled bool, interval time.Duration)

	IsInterfaceNil() bool
}

// ConnectionStateProvider exposes the push channel's connectivity,
// kept separate from the data-error state
type ConnectionStateProvider interface {
	ConnectionState() common.ConnectionState
	IsInterfaceNil() bool
}
