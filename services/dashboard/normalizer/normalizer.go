package normalizer

import (
	"fmt"
	"math"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
)

const bytesPerMB = 1048576.0

// Normalize converts raw samples into uniform per-metric point sequences.
// Percent metrics pass through unchanged; byte counters are stored MB-scaled
// for chart axes. Output ordering matches input ordering. The transform is
// pure: the same input always yields the same output.
func Normalize(samples []common.MetricSample) map[string][]common.Point {
	series := map[string][]common.Point{
		common.MetricCPUPercent:    make([]common.Point, 0, len(samples)),
		common.MetricMemoryPercent: make([]common.Point, 0, len(samples)),
		common.MetricMemoryUsage:   make([]common.Point, 0, len(samples)),
		common.MetricMemoryLimit:   make([]common.Point, 0, len(samples)),
		common.MetricNetworkRx:     make([]common.Point, 0, len(samples)),
		common.MetricNetworkTx:     make([]common.Point, 0, len(samples)),
		common.MetricDiskRead:      make([]common.Point, 0, len(samples)),
		common.MetricDiskWrite:     make([]common.Point, 0, len(samples)),
	}

	for _, sample := range samples {
		ts := sample.Timestamp
		series[common.MetricCPUPercent] = append(series[common.MetricCPUPercent], common.Point{Timestamp: ts, Value: finiteOrZero(sample.CPUPercent)})
		series[common.MetricMemoryPercent] = append(series[common.MetricMemoryPercent], common.Point{Timestamp: ts, Value: finiteOrZero(sample.MemoryPercent)})
		series[common.MetricMemoryUsage] = append(series[common.MetricMemoryUsage], common.Point{Timestamp: ts, Value: ScaleToMB(sample.MemoryUsageBytes)})
		series[common.MetricMemoryLimit] = append(series[common.MetricMemoryLimit], common.Point{Timestamp: ts, Value: ScaleToMB(sample.MemoryLimitBytes)})
		series[common.MetricNetworkRx] = append(series[common.MetricNetworkRx], common.Point{Timestamp: ts, Value: ScaleToMB(sample.NetworkRxBytes)})
		series[common.MetricNetworkTx] = append(series[common.MetricNetworkTx], common.Point{Timestamp: ts, Value: ScaleToMB(sample.NetworkTxBytes)})
		series[common.MetricDiskRead] = append(series[common.MetricDiskRead], common.Point{Timestamp: ts, Value: ScaleToMB(sample.DiskReadBytes)})
		series[common.MetricDiskWrite] = append(series[common.MetricDiskWrite], common.Point{Timestamp: ts, Value: ScaleToMB(sample.DiskWriteBytes)})
	}

	return series
}

// ScaleToMB converts a raw byte counter to megabytes; missing or non-finite
// inputs collapse to 0 so charts never show undefined
func ScaleToMB(rawBytes float64) float64 {
	return finiteOrZero(rawBytes) / bytesPerMB
}

// Unscale re-expands an MB-scaled value back to raw bytes
func Unscale(mbValue float64) float64 {
	return mbValue * bytesPerMB
}

// FormatBytes renders a raw byte count with a 2-decimal value and unit
// suffix, applied at render time rather than storage time
func FormatBytes(rawBytes float64) string {
	value := finiteOrZero(rawBytes)

	switch {
	case value >= bytesPerMB*1024:
		return fmt.Sprintf("%.2f GB", value/(bytesPerMB*1024))
	case value >= bytesPerMB:
		return fmt.Sprintf("%.2f MB", value/bytesPerMB)
	case value >= 1024:
		return fmt.Sprintf("%.2f KB", value/1024)
	default:
		return fmt.Sprintf("%.2f B", value)
	}
}

func finiteOrZero(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}

	return value
}
