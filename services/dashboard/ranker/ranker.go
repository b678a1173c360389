package ranker

import (
	"math"
	"sort"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
)

// Rank orders comparison entries descending by the selected metric's current
// value and assigns 1-based contiguous ranks. Ties are broken by container ID
// ascending so the ordering is deterministic regardless of input order.
// Entries without a finite value for the metric are sorted to the end and
// left unranked (Rank stays 0); ranks remain contiguous for ranked entries.
// The input slice is not modified.
func Rank(entries []common.ContainerSnapshot, metric string) []common.ContainerSnapshot {
	ranked := make([]common.ContainerSnapshot, 0, len(entries))
	unranked := make([]common.ContainerSnapshot, 0)

	for _, entry := range entries {
		entry.Rank = 0
		_, ok := EntryValue(entry, metric)
		if ok {
			ranked = append(ranked, entry)
		} else {
			unranked = append(unranked, entry)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, _ := EntryValue(ranked[i], metric)
		vj, _ := EntryValue(ranked[j], metric)
		if vi != vj {
			return vi > vj
		}

		return ranked[i].ContainerID < ranked[j].ContainerID
	})

	sort.SliceStable(unranked, func(i, j int) bool {
		return unranked[i].ContainerID < unranked[j].ContainerID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return append(ranked, unranked...)
}

// EntryValue extracts the selected metric's value from a comparison entry.
// The health_score key reads the entry's health score; every other key reads
// the current sample. The bool result is false when the value is missing or
// not finite.
func EntryValue(entry common.ContainerSnapshot, metric string) (float64, bool) {
	if metric == common.MetricHealthScore {
		if entry.Health == nil {
			return 0, false
		}
		if math.IsNaN(entry.Health.Overall) || math.IsInf(entry.Health.Overall, 0) {
			return 0, false
		}

		return entry.Health.Overall, true
	}

	return MetricValue(entry.Current, metric)
}

// MetricValue extracts the selected metric's current value from a sample.
// The bool result is false when the sample is missing, the metric is
// unknown, or the value is not finite.
func MetricValue(sample *common.MetricSample, metric string) (float64, bool) {
	if sample == nil {
		return 0, false
	}

	var value float64
	switch metric {
	case common.MetricCPUPercent:
		value = sample.CPUPercent
	case common.MetricMemoryPercent:
		value = sample.MemoryPercent
	case common.MetricMemoryUsage:
		value = sample.MemoryUsageBytes
	case common.MetricMemoryLimit:
		value = sample.MemoryLimitBytes
	case common.MetricNetworkRx:
		value = sample.NetworkRxBytes
	case common.MetricNetworkTx:
		value = sample.NetworkTxBytes
	case common.MetricDiskRead:
		value = sample.DiskReadBytes
	case common.MetricDiskWrite:
		value = sample.DiskWriteBytes
	default:
		return 0, false
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	return value, true
}
