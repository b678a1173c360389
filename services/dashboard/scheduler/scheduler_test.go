package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/testsCommon"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/timewindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second
const testTick = 10 * time.Millisecond

func enhancedWithCPU(cpu float64) *common.EnhancedMetrics {
	return &common.EnhancedMetrics{
		Samples: []common.MetricSample{
			{Timestamp: time.Unix(100, 0), CPUPercent: cpu},
		},
	}
}

func TestNewViewScheduler(t *testing.T) {
	t.Parallel()

	t.Run("nil querier should error", func(t *testing.T) {
		sched, err := NewViewScheduler(ArgsViewScheduler{})

		assert.Nil(t, sched)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "nil querier")
	})
	t.Run("should work with defaults", func(t *testing.T) {
		sched, err := NewViewScheduler(ArgsViewScheduler{Querier: &testsCommon.QuerierStub{}})

		require.Nil(t, err)
		assert.NotNil(t, sched)
		assert.False(t, sched.IsInterfaceNil())
		assert.Equal(t, common.ViewStateIdle, sched.Status().State)
	})
}

func TestViewScheduler_MountFetch(t *testing.T) {
	t.Parallel()

	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			assert.Equal(t, "24h", mode)
			assert.Equal(t, 24, hours)
			return enhancedWithCPU(25.5), nil
		},
		HealthScoreHandler: func(ctx context.Context, hours int) (*common.HealthScore, error) {
			return &common.HealthScore{Overall: 85, Status: "good"}, nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:      querier,
		ContainerIDs: []string{"web-1"},
		TimeRange:    timewindow.Mode24h,
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)

	model := sched.Snapshot()
	assert.Equal(t, "web-1", model.ContainerID)
	require.NotNil(t, model.Current)
	assert.Equal(t, 25.5, model.Current.CPUPercent)
	require.NotNil(t, model.Health)
	assert.Equal(t, 85.0, model.Health.Overall)
	assert.Empty(t, sched.Status().Loading)
}

func TestViewScheduler_StalenessGuard(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	var calls atomic.Int32
	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			call := calls.Add(1)
			if call == 1 {
				// first cycle resolves only after the second one settled
				<-gate
				return enhancedWithCPU(1), nil
			}

			return enhancedWithCPU(2), nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:      querier,
		ContainerIDs: []string{"web-1"},
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, testTimeout, testTick)

	// parameter change supersedes the in-flight cycle
	sched.SetTimeRange(timewindow.Mode1h, nil, nil)

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)
	require.NotNil(t, sched.Snapshot().Current)
	assert.Equal(t, 2.0, sched.Snapshot().Current.CPUPercent)

	// releasing the slow old request must not overwrite the newer data
	close(gate)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2.0, sched.Snapshot().Current.CPUPercent)
	assert.Equal(t, common.ViewStateSettled, sched.Status().State)
}

func TestViewScheduler_UnresolvedCustomWindow(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			calls.Add(1)
			return enhancedWithCPU(1), nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:      querier,
		ContainerIDs: []string{"web-1"},
		TimeRange:    timewindow.ModeCustom,
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	// only a start date set: the view stays in its pre-fetch state
	start := time.Now().Add(-2 * time.Hour)
	sched.SetTimeRange(timewindow.ModeCustom, &start, nil)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, common.ViewStateIdle, sched.Status().State)

	// supplying the end date resolves the window and fires the fetch
	end := time.Now()
	sched.SetTimeRange(timewindow.ModeCustom, &start, &end)

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)
	assert.Equal(t, int32(1), calls.Load())
}

func TestViewScheduler_PredictionsToggle(t *testing.T) {
	t.Parallel()

	var predictionCalls atomic.Int32
	querier := &testsCommon.QuerierStub{
		PredictionsHandler: func(ctx context.Context, hours int, predictionHours int) (*common.PredictionBundle, error) {
			predictionCalls.Add(1)
			return &common.PredictionBundle{
				Predictions: []common.Prediction{{Metric: "cpu_percent", Values: []float64{1}, Timestamps: []time.Time{time.Unix(1, 0)}, Confidence: 0.9}},
				Alerts:      []common.PredictionAlert{{Type: "forecast", Metric: "cpu_percent", Severity: "warning"}},
			}, nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:            querier,
		ContainerIDs:       []string{"web-1"},
		PredictionsEnabled: true,
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled && len(sched.Snapshot().Alerts) == 1
	}, testTimeout, testTick)
	assert.Equal(t, int32(1), predictionCalls.Load())

	sched.SetPredictionsEnabled(false)

	// alerts cleared and the next cycle issues no prediction query
	require.Eventually(t, func() bool {
		return len(sched.Snapshot().Alerts) == 0 && sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)
	assert.Empty(t, sched.Snapshot().Predictions)
	assert.Equal(t, int32(1), predictionCalls.Load())
}

func TestViewScheduler_FailureSemantics(t *testing.T) {
	t.Parallel()

	t.Run("health failure does not fail the view", func(t *testing.T) {
		querier := &testsCommon.QuerierStub{
			VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
				return enhancedWithCPU(10), nil
			},
			HealthScoreHandler: func(ctx context.Context, hours int) (*common.HealthScore, error) {
				return nil, errors.New("health service down")
			},
		}

		sched, _ := NewViewScheduler(ArgsViewScheduler{Querier: querier, ContainerIDs: []string{"web-1"}})
		sched.Start()
		defer sched.Close()

		require.Eventually(t, func() bool {
			return sched.Status().State == common.ViewStateSettled
		}, testTimeout, testTick)

		model := sched.Snapshot()
		assert.NotNil(t, model.Current)
		assert.Nil(t, model.Health)

		status := sched.Status()
		assert.Contains(t, status.Errors[common.QueryHealth], "health service down")
		_, metricsFailed := status.Errors[common.QueryMetrics]
		assert.False(t, metricsFailed)
	})
	t.Run("primary metrics failure enters Failed", func(t *testing.T) {
		querier := &testsCommon.QuerierStub{
			VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
				return nil, errors.New("boom")
			},
		}

		sched, _ := NewViewScheduler(ArgsViewScheduler{Querier: querier, ContainerIDs: []string{"web-1"}})
		sched.Start()
		defer sched.Close()

		require.Eventually(t, func() bool {
			return sched.Status().State == common.ViewStateFailed
		}, testTimeout, testTick)
		assert.Contains(t, sched.Status().Errors[common.QueryMetrics], "boom")
	})
}

func TestViewScheduler_FailedRefreshKeepsLastGoodSnapshot(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			if calls.Add(1) == 1 {
				return enhancedWithCPU(25.5), nil
			}

			return nil, errors.New("query service unreachable")
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{Querier: querier, ContainerIDs: []string{"web-1"}})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)

	sched.Refresh()

	// the failed refresh surfaces the error but the stale data stays rendered
	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateFailed
	}, testTimeout, testTick)

	model := sched.Snapshot()
	require.NotNil(t, model.Current)
	assert.Equal(t, 25.5, model.Current.CPUPercent)
	assert.Contains(t, sched.Status().Errors[common.QueryMetrics], "unreachable")

	// a failed fetch after a parameter change does wipe the old snapshot
	sched.SetContainers([]string{"web-2"})

	require.Eventually(t, func() bool {
		return sched.Snapshot().Current == nil
	}, testTimeout, testTick)
	assert.Equal(t, common.ViewStateFailed, sched.Status().State)
}

func TestViewScheduler_History(t *testing.T) {
	t.Parallel()

	t.Run("uses the resolved window and sample limit", func(t *testing.T) {
		querier := &testsCommon.QuerierStub{
			HistoryHandler: func(ctx context.Context, hours int, limit int) ([]common.MetricSample, error) {
				assert.Equal(t, 24, hours)
				assert.Equal(t, timewindow.SampleLimit, limit)
				return []common.MetricSample{{CPUPercent: 12.5}}, nil
			},
		}

		sched, err := NewViewScheduler(ArgsViewScheduler{
			Querier:      querier,
			ContainerIDs: []string{"web-1"},
			TimeRange:    timewindow.Mode24h,
		})
		require.Nil(t, err)

		sched.Start()
		defer sched.Close()

		samples, err := sched.History(context.Background())

		require.Nil(t, err)
		require.Len(t, samples, 1)
		assert.Equal(t, 12.5, samples[0].CPUPercent)
	})
	t.Run("unresolved custom window should error", func(t *testing.T) {
		sched, err := NewViewScheduler(ArgsViewScheduler{
			Querier:      &testsCommon.QuerierStub{},
			ContainerIDs: []string{"web-1"},
			TimeRange:    timewindow.ModeCustom,
		})
		require.Nil(t, err)

		sched.Start()
		defer sched.Close()

		_, err = sched.History(context.Background())
		assert.Equal(t, timewindow.ErrUnresolvedWindow, err)
	})
	t.Run("closed scheduler should error", func(t *testing.T) {
		sched, err := NewViewScheduler(ArgsViewScheduler{
			Querier:      &testsCommon.QuerierStub{},
			ContainerIDs: []string{"web-1"},
		})
		require.Nil(t, err)

		sched.Start()
		sched.Close()

		_, err = sched.History(context.Background())
		assert.Equal(t, errSchedulerClosed, err)
	})
}

func TestViewScheduler_ComparisonMode(t *testing.T) {
	t.Parallel()

	var comparisonCalls atomic.Int32
	querier := &testsCommon.QuerierStub{
		ComparisonHandler: func(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error) {
			comparisonCalls.Add(1)
			score1 := 85.0
			score2 := 72.0
			return &common.ComparisonResult{
				ContainerIDs: containerIDs,
				Entries: []common.ComparisonEntry{
					{ContainerID: "c1", Current: &common.MetricSample{CPUPercent: 20}, HealthScore: &score1},
					{ContainerID: "c2", Current: &common.MetricSample{CPUPercent: 70}, HealthScore: &score2},
				},
			}, nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:        querier,
		ContainerIDs:   []string{"c1", "c2"},
		SelectedMetric: common.MetricCPUPercent,
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)

	model := sched.Snapshot()
	require.NotNil(t, model.Comparison)
	require.Len(t, model.Ranking, 2)
	assert.Equal(t, "c2", model.Ranking[0].ContainerID)
	assert.Equal(t, 1, model.Ranking[0].Rank)
	assert.Equal(t, "c1", model.Ranking[1].ContainerID)
	assert.Equal(t, 2, model.Ranking[1].Rank)

	// changing the selected metric re-ranks without another fetch
	sched.SetSelectedMetric(common.MetricHealthScore)

	require.Eventually(t, func() bool {
		ranking := sched.Snapshot().Ranking
		return len(ranking) == 2 && ranking[0].ContainerID == "c1"
	}, testTimeout, testTick)
	assert.Equal(t, int32(1), comparisonCalls.Load())
}

func TestViewScheduler_LiveUpdateReRanksComparison(t *testing.T) {
	t.Parallel()

	var comparisonCalls atomic.Int32
	querier := &testsCommon.QuerierStub{
		ComparisonHandler: func(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error) {
			comparisonCalls.Add(1)
			return &common.ComparisonResult{
				ContainerIDs: containerIDs,
				Entries: []common.ComparisonEntry{
					{ContainerID: "c1", Current: &common.MetricSample{CPUPercent: 20}},
					{ContainerID: "c2", Current: &common.MetricSample{CPUPercent: 70}},
				},
			}, nil
		},
	}

	sched, err := NewViewScheduler(ArgsViewScheduler{
		Querier:        querier,
		ContainerIDs:   []string{"c1", "c2"},
		SelectedMetric: common.MetricCPUPercent,
	})
	require.Nil(t, err)

	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		ranking := sched.Snapshot().Ranking
		return len(ranking) == 2 && ranking[0].ContainerID == "c2"
	}, testTimeout, testTick)

	// a merged patch that changes the ordering rebuilds the ranking too
	newCPU := 99.0
	sched.ApplyLiveUpdate(common.LiveUpdateEvent{
		Type:        common.EventEnhancedMetricsUpdate,
		ContainerID: "c1",
		Patch:       common.SamplePatch{CPUPercent: &newCPU},
	})

	require.Eventually(t, func() bool {
		ranking := sched.Snapshot().Ranking
		return len(ranking) == 2 && ranking[0].ContainerID == "c1" && ranking[0].Rank == 1
	}, testTimeout, testTick)
	assert.Equal(t, int32(1), comparisonCalls.Load())
}

func TestViewScheduler_LiveUpdateMerge(t *testing.T) {
	t.Parallel()

	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			return enhancedWithCPU(10), nil
		},
	}

	sched, _ := NewViewScheduler(ArgsViewScheduler{Querier: querier, ContainerIDs: []string{"web-1"}})
	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)

	newCPU := 42.0
	sched.ApplyLiveUpdate(common.LiveUpdateEvent{
		Type:        common.EventMetricsUpdate,
		ContainerID: "web-1",
		Patch:       common.SamplePatch{CPUPercent: &newCPU},
	})

	require.Eventually(t, func() bool {
		current := sched.Snapshot().Current
		return current != nil && current.CPUPercent == 42.0
	}, testTimeout, testTick)
}

func TestViewScheduler_AutoRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			calls.Add(1)
			return enhancedWithCPU(1), nil
		},
	}

	sched, _ := NewViewScheduler(ArgsViewScheduler{
		Querier:         querier,
		ContainerIDs:    []string{"web-1"},
		AutoRefresh:     true,
		RefreshInterval: 50 * time.Millisecond,
	})
	sched.Start()
	defer sched.Close()

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, testTimeout, testTick)

	// disabling tears the timer down; the count settles
	sched.SetAutoRefresh(false, 0)
	time.Sleep(100 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestViewScheduler_Close(t *testing.T) {
	t.Parallel()

	querier := &testsCommon.QuerierStub{
		VisualizationHandler: func(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
			return enhancedWithCPU(1), nil
		},
	}

	sched, _ := NewViewScheduler(ArgsViewScheduler{Querier: querier, ContainerIDs: []string{"web-1"}})
	sched.Start()

	require.Eventually(t, func() bool {
		return sched.Status().State == common.ViewStateSettled
	}, testTimeout, testTick)

	sched.Close()
	// double close and post-close operations must be harmless no-ops
	sched.Close()
	sched.Refresh()
	sched.ApplyLiveUpdate(common.LiveUpdateEvent{Type: common.EventMetricsUpdate, ContainerID: "web-1"})

	assert.Equal(t, common.ViewStateSettled, sched.Status().State)
}
