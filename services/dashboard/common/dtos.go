package common

import "time"

// Metric keys used for chart series, ranking and live-update patches
const (
	MetricCPUPercent    = "cpu_percent"
	MetricMemoryPercent = "memory_percent"
	MetricMemoryUsage   = "memory_usage_mb"
	MetricMemoryLimit   = "memory_limit_mb"
	MetricNetworkRx     = "network_rx_mb"
	MetricNetworkTx     = "network_tx_mb"
	MetricDiskRead      = "disk_read_mb"
	MetricDiskWrite     = "disk_write_mb"
	MetricHealthScore   = "health_score"
)

// ReliableConfidenceThreshold separates "reliable" from "tentative" prediction styling
const ReliableConfidenceThreshold = 0.7

// MetricSample is one raw per-container measurement as reported by the query service.
// Samples are immutable once received and ordered ascending by timestamp.
type MetricSample struct {
	Timestamp        time.Time `json:"timestamp"`
	CPUPercent       float64   `json:"cpu_percent"`
	MemoryPercent    float64   `json:"memory_percent"`
	MemoryUsageBytes float64   `json:"memory_usage_bytes"`
	MemoryLimitBytes float64   `json:"memory_limit_bytes"`
	NetworkRxBytes   float64   `json:"network_rx_bytes"`
	NetworkTxBytes   float64   `json:"network_tx_bytes"`
	DiskReadBytes    float64   `json:"disk_read_bytes"`
	DiskWriteBytes   float64   `json:"disk_write_bytes"`
}

// Point is one chart-ready datum of a normalized series
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// HealthComponents holds the per-resource component scores, each 0..100
type HealthComponents struct {
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Network float64 `json:"network"`
	Disk    float64 `json:"disk"`
}

// HealthScore is computed by the query service; the engine only displays it.
// Status is the service's read-only classification of Overall.
type HealthScore struct {
	Overall         float64          `json:"overall"`
	Status          string           `json:"status"`
	Components      HealthComponents `json:"components"`
	Recommendations []string         `json:"recommendations"`
}

// TrendSummary describes one metric's externally computed trend
type TrendSummary struct {
	Direction  string  `json:"direction"`
	Average    float64 `json:"average"`
	Volatility string  `json:"volatility"`
}

// EnhancedMetrics is the visualization bundle returned by the query service
type EnhancedMetrics struct {
	Samples          []MetricSample          `json:"metrics"`
	Trends           map[string]TrendSummary `json:"trends"`
	OverallStability string                  `json:"overall_stability"`
}

// Prediction holds a short-horizon forecast for one metric. Values and
// Timestamps are zipped index-for-index when building chart series.
type Prediction struct {
	Metric     string      `json:"metric"`
	Values     []float64   `json:"values"`
	Timestamps []time.Time `json:"timestamps"`
	Confidence float64     `json:"confidence"`
}

// PredictionAlert is a warning surfaced alongside predictions
type PredictionAlert struct {
	Type     string `json:"type"`
	Metric   string `json:"metric"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// PredictionBundle groups the prediction query's results
type PredictionBundle struct {
	Predictions []Prediction      `json:"predictions"`
	Alerts      []PredictionAlert `json:"alerts"`
}

// PredictionSeries is the chart-ready projection of one Prediction
type PredictionSeries struct {
	Metric     string  `json:"metric"`
	Points     []Point `json:"points"`
	Confidence float64 `json:"confidence"`
	Reliable   bool    `json:"reliable"`
}

// ContainerSnapshot holds the current state of a single container.
// Rank is 1-based; 0 means the entry was not rankable for the selected metric.
type ContainerSnapshot struct {
	ContainerID   string        `json:"container_id"`
	ContainerName string        `json:"container_name"`
	Current       *MetricSample `json:"current"`
	Health        *HealthScore  `json:"health,omitempty"`
	Rank          int           `json:"rank,omitempty"`
}

// AggregateStats is computed only from entries carrying finite values
type AggregateStats struct {
	AvgCPU         float64 `json:"avg_cpu"`
	AvgMemory      float64 `json:"avg_memory"`
	TotalNetworkIO float64 `json:"total_network_io"`
	TotalDiskIO    float64 `json:"total_disk_io"`
}

// ComparisonSnapshot is the assembled multi-container view
type ComparisonSnapshot struct {
	ContainerIDs []string                     `json:"container_ids"`
	PerContainer map[string]ContainerSnapshot `json:"per_container"`
	Aggregate    *AggregateStats              `json:"aggregate,omitempty"`
}

// ComparisonEntry is the boundary-validated per-container record of a comparison
// response. HealthScore is nil when the service reported a missing or non-numeric value.
type ComparisonEntry struct {
	ContainerID   string
	ContainerName string
	Current       *MetricSample
	HealthScore   *float64
}

// ComparisonResult is the raw outcome of one comparison query
type ComparisonResult struct {
	ContainerIDs []string
	Entries      []ComparisonEntry
}

// Live update event types accepted by the merge; anything else is ignored
const (
	EventMetricsUpdate         = "metrics_update"
	EventAlertTriggered        = "alert_triggered"
	EventEnhancedMetricsUpdate = "enhanced_metrics_update"
)

// SamplePatch carries only the fields present in a live-update payload;
// nil fields are left untouched by the merge
type SamplePatch struct {
	CPUPercent       *float64
	MemoryPercent    *float64
	MemoryUsageBytes *float64
	MemoryLimitBytes *float64
	NetworkRxBytes   *float64
	NetworkTxBytes   *float64
	DiskReadBytes    *float64
	DiskWriteBytes   *float64
}

// LiveUpdateEvent is transient: consumed once by the merge, never persisted
type LiveUpdateEvent struct {
	Type        string
	ContainerID string
	Patch       SamplePatch
	Health      *HealthScore
	Timestamp   time.Time
}

// ViewState is the per-view fetch state
type ViewState string

// View fetch states
const (
	ViewStateIdle     ViewState = "idle"
	ViewStateFetching ViewState = "fetching"
	ViewStateSettled  ViewState = "settled"
	ViewStateFailed   ViewState = "failed"
)

// Query names used for per-query loading flags and error values
const (
	QueryMetrics     = "metrics"
	QueryHealth      = "health"
	QueryPredictions = "predictions"
	QueryComparison  = "comparison"
)

// ViewStatus is the per-query status exposed at the render boundary.
// Push-channel connectivity is deliberately not part of it.
type ViewStatus struct {
	State   ViewState         `json:"state"`
	Loading map[string]bool   `json:"loading"`
	Errors  map[string]string `json:"errors"`
}

// ConnectionState is the push-channel connectivity state, exposed separately
// from the data-error state
type ConnectionState string

// Connection states
const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)

// RenderModel is the render-ready snapshot exposed at the view boundary.
// Either the single-container fields or Comparison/Ranking are populated,
// depending on how many containers are selected.
type RenderModel struct {
	ContainerID      string                  `json:"container_id,omitempty"`
	Series           map[string][]Point      `json:"series,omitempty"`
	Current          *MetricSample           `json:"current,omitempty"`
	Health           *HealthScore            `json:"health,omitempty"`
	Trends           map[string]TrendSummary `json:"trends,omitempty"`
	OverallStability string                  `json:"overall_stability,omitempty"`
	Predictions      []PredictionSeries      `json:"predictions,omitempty"`
	Alerts           []PredictionAlert       `json:"alerts,omitempty"`
	Comparison       *ComparisonSnapshot     `json:"comparison,omitempty"`
	Ranking          []ContainerSnapshot     `json:"ranking,omitempty"`
}
