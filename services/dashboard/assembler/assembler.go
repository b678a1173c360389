package assembler

import (
	"math"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/iulianpascalau/container-dashboard/services/dashboard/normalizer"
)

// AssembleSingle combines the results of the three parallel single-container
// queries into one render-ready model. Each input is independently optional:
// a failed predictions query must not suppress the metrics chart (partial
// degradation, not all-or-nothing).
func AssembleSingle(
	containerID string,
	enhanced *common.EnhancedMetrics,
	health *common.HealthScore,
	predictions *common.PredictionBundle,
) common.RenderModel {
	model := common.RenderModel{
		ContainerID: containerID,
		Health:      health,
	}

	if enhanced != nil {
		model.Series = normalizer.Normalize(enhanced.Samples)
		model.Trends = enhanced.Trends
		model.OverallStability = enhanced.OverallStability
		if len(enhanced.Samples) > 0 {
			last := enhanced.Samples[len(enhanced.Samples)-1]
			model.Current = &last
		}
	}

	if predictions != nil {
		model.Predictions = buildPredictionSeries(predictions.Predictions)
		model.Alerts = predictions.Alerts
	}

	return model
}

// AssembleComparison shapes a comparison query result into a snapshot. An
// absent or empty result still yields a snapshot with the container IDs so
// the view can render its header and selectors; entries with nil current
// metrics or a non-numeric health score are kept in the map but excluded
// from aggregate math.
func AssembleComparison(result *common.ComparisonResult) *common.ComparisonSnapshot {
	if result == nil {
		return &common.ComparisonSnapshot{PerContainer: map[string]common.ContainerSnapshot{}}
	}

	snapshot := &common.ComparisonSnapshot{
		ContainerIDs: result.ContainerIDs,
		PerContainer: make(map[string]common.ContainerSnapshot, len(result.Entries)),
	}

	for _, entry := range result.Entries {
		containerSnapshot := common.ContainerSnapshot{
			ContainerID:   entry.ContainerID,
			ContainerName: entry.ContainerName,
			Current:       entry.Current,
		}
		if entry.HealthScore != nil {
			containerSnapshot.Health = &common.HealthScore{Overall: *entry.HealthScore}
		}

		snapshot.PerContainer[entry.ContainerID] = containerSnapshot
	}

	snapshot.Aggregate = computeAggregate(result.Entries)

	return snapshot
}

// computeAggregate skips non-finite values field by field so one corrupt
// entry cannot poison the averages
func computeAggregate(entries []common.ComparisonEntry) *common.AggregateStats {
	stats := &common.AggregateStats{}
	cpuCount := 0
	memoryCount := 0
	anyValid := false

	for _, entry := range entries {
		if entry.Current == nil {
			continue
		}

		if isFinite(entry.Current.CPUPercent) {
			stats.AvgCPU += entry.Current.CPUPercent
			cpuCount++
			anyValid = true
		}
		if isFinite(entry.Current.MemoryPercent) {
			stats.AvgMemory += entry.Current.MemoryPercent
			memoryCount++
			anyValid = true
		}
		if isFinite(entry.Current.NetworkRxBytes) && isFinite(entry.Current.NetworkTxBytes) {
			stats.TotalNetworkIO += entry.Current.NetworkRxBytes + entry.Current.NetworkTxBytes
			anyValid = true
		}
		if isFinite(entry.Current.DiskReadBytes) && isFinite(entry.Current.DiskWriteBytes) {
			stats.TotalDiskIO += entry.Current.DiskReadBytes + entry.Current.DiskWriteBytes
			anyValid = true
		}
	}

	if !anyValid {
		return nil
	}

	if cpuCount > 0 {
		stats.AvgCPU /= float64(cpuCount)
	}
	if memoryCount > 0 {
		stats.AvgMemory /= float64(memoryCount)
	}

	return stats
}

// buildPredictionSeries zips values with timestamps index-for-index,
// truncating to the shorter length when the arrays disagree
func buildPredictionSeries(predictions []common.Prediction) []common.PredictionSeries {
	series := make([]common.PredictionSeries, 0, len(predictions))
	for _, prediction := range predictions {
		length := len(prediction.Values)
		if len(prediction.Timestamps) < length {
			length = len(prediction.Timestamps)
		}

		points := make([]common.Point, 0, length)
		for i := 0; i < length; i++ {
			points = append(points, common.Point{
				Timestamp: prediction.Timestamps[i],
				Value:     prediction.Values[i],
			})
		}

		series = append(series, common.PredictionSeries{
			Metric:     prediction.Metric,
			Points:     points,
			Confidence: prediction.Confidence,
			Reliable:   prediction.Confidence > common.ReliableConfidenceThreshold,
		})
	}

	return series
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
