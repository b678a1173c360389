package testsCommon

import (
	"context"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
)

// ViewStub -
type ViewStub struct {
	SnapshotHandler              func() common.RenderModel
	StatusHandler                func() common.ViewStatus
	HistoryHandler               func(ctx context.Context) ([]common.MetricSample, error)
	RefreshHandler               func()
	ApplyLiveUpdateHandler       func(event common.LiveUpdateEvent)
	SetTimeRangeHandler          func(mode timewindow.Mode, customStart *time.Time, customEnd *time.Time)
	SetContainersHandler         func(containerIDs []string)
	SetSelectedMetricHandler     func(metric string)
	SetPredictionsEnabledHandler func(enabled bool)
	SetAutoRefreshHandler        func(enabled bool, interval time.Duration)
}

// Snapshot -
func (stub *ViewStub) Snapshot() common.RenderModel {
	if stub.SnapshotHandler != nil {
		return stub.SnapshotHandler()
	}
	return common.RenderModel{}
}

// Status -
func (stub *ViewStub) Status() common.ViewStatus {
	if stub.StatusHandler != nil {
		return stub.StatusHandler()
	}
	return common.ViewStatus{}
}

// History -
func (stub *ViewStub) History(ctx context.Context) ([]common.MetricSample, error) {
	if stub.HistoryHandler != nil {
		return stub.HistoryHandler(ctx)
	}
	return []common.MetricSample{}, nil
}

// Refresh -
func (stub *ViewStub) Refresh() {
	if stub.RefreshHandler != nil {
		stub.RefreshHandler()
	}
}

// ApplyLiveUpdate -
func (stub *ViewStub) ApplyLiveUpdate(event common.LiveUpdateEvent) {
	if stub.ApplyLiveUpdateHandler != nil {
		stub.ApplyLiveUpdateHandler(event)
	}
}

// SetTimeRange -
func (stub *ViewStub) SetTimeRange(mode timewindow.Mode, customStart *time.Time, customEnd *time.Time) {
	if stub.SetTimeRangeHandler != nil {
		stub.SetTimeRangeHandler(mode, customStart, customEnd)
	}
}

// SetContainers -
func (stub *ViewStub) SetContainers(containerIDs []string) {
	if stub.SetContainersHandler != nil {
		stub.SetContainersHandler(containerIDs)
	}
}

// SetSelectedMetric -
func (stub *ViewStub) SetSelectedMetric(metric string) {
	if stub.SetSelectedMetricHandler != nil {
		stub.SetSelectedMetricHandler(metric)
	}
}

// SetPredictionsEnabled -
func (stub *ViewStub) SetPredictionsEnabled(enabled bool) {
	if stub.SetPredictionsEnabledHandler != nil {
		stub.SetPredictionsEnabledHandler(enabled)
	}
}

// SetAutoRefresh -
func (stub *ViewStub) SetAutoRefresh(enabled bool, interval time.Duration) {
	if stub.SetAutoRefreshHandler != nil {
		stub.SetAutoRefreshHandler(enabled, interval)
	}
}

// IsInterfaceNil -
func (stub *ViewStub) IsInterfaceNil() bool {
	return stub == nil
}
