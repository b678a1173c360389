package query

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("query")

// httpQuerier talks to the metrics query service. The request path and query
// parameter spelling is an external contract and must be preserved exactly;
// the time-range mode string and the derived hour count are both sent even
// though redundant, because the service expects both.
type httpQuerier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPQuerier creates a query-service client with the given timeout
func NewHTTPQuerier(baseURL string, timeout time.Duration) *httpQuerier {
	return &httpQuerier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// History fetches raw samples for the resolved window
func (q *httpQuerier) History(ctx context.Context, hours int, limit int) ([]common.MetricSample, error) {
	url := fmt.Sprintf("%s/metrics/history?hours=%d&limit=%d", q.baseURL, hours, limit)
	body, err := q.get(ctx, url)
	if err != nil {
		return nil, err
	}

	samples := parseSamples(gjson.GetBytes(body, "metrics"))

	return samples, nil
}

// Visualization fetches the enhanced metrics bundle
func (q *httpQuerier) Visualization(ctx context.Context, mode string, hours int) (*common.EnhancedMetrics, error) {
	url := fmt.Sprintf("%s/metrics/visualization?time_range=%s&hours=%d", q.baseURL, mode, hours)
	body, err := q.get(ctx, url)
	if err != nil {
		return nil, err
	}

	enhanced := &common.EnhancedMetrics{
		Samples:          parseSamples(gjson.GetBytes(body, "metrics")),
		Trends:           parseTrends(gjson.GetBytes(body, "trends")),
		OverallStability: gjson.GetBytes(body, "overall_stability").String(),
	}

	return enhanced, nil
}

// HealthScore fetches the externally computed health score
func (q *httpQuerier) HealthScore(ctx context.Context, hours int) (*common.HealthScore, error) {
	url := fmt.Sprintf("%s/health-score?hours=%d", q.baseURL, hours)
	body, err := q.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return parseHealthScore(gjson.ParseBytes(body)), nil
}

// Predictions fetches the prediction bundle
func (q *httpQuerier) Predictions(ctx context.Context, hours int, predictionHours int) (*common.PredictionBundle, error) {
	url := fmt.Sprintf("%s/metrics/predictions?hours=%d&prediction_hours=%d", q.baseURL, hours, predictionHours)
	body, err := q.get(ctx, url)
	if err != nil {
		return nil, err
	}

	bundle := &common.PredictionBundle{}
	gjson.GetBytes(body, "predictions").ForEach(func(_, value gjson.Result) bool {
		prediction := common.Prediction{
			Metric:     value.Get("metric").String(),
			Confidence: value.Get("confidence").Float(),
		}
		value.Get("values").ForEach(func(_, v gjson.Result) bool {
			prediction.Values = append(prediction.Values, v.Float())
			return true
		})
		value.Get("timestamps").ForEach(func(_, ts gjson.Result) bool {
			prediction.Timestamps = append(prediction.Timestamps, parseTimestamp(ts))
			return true
		})

		bundle.Predictions = append(bundle.Predictions, prediction)
		return true
	})
	gjson.GetBytes(body, "alerts").ForEach(func(_, value gjson.Result) bool {
		bundle.Alerts = append(bundle.Alerts, common.PredictionAlert{
			Type:     value.Get("type").String(),
			Metric:   value.Get("metric").String(),
			Message:  value.Get("message").String(),
			Severity: value.Get("severity").String(),
		})
		return true
	})

	return bundle, nil
}

// Comparison fetches the multi-container snapshot. A health_score reported
// as a non-numeric value is mapped to nil so ranking and aggregation can
// exclude the entry instead of choking on it.
func (q *httpQuerier) Comparison(ctx context.Context, containerIDs []string) (*common.ComparisonResult, error) {
	url := fmt.Sprintf("%s/comparison?containers=%s", q.baseURL, strings.Join(containerIDs, ","))
	body, err := q.get(ctx, url)
	if err != nil {
		return nil, err
	}

	result := &common.ComparisonResult{}
	gjson.GetBytes(body, "container_ids").ForEach(func(_, value gjson.Result) bool {
		result.ContainerIDs = append(result.ContainerIDs, value.String())
		return true
	})
	if len(result.ContainerIDs) == 0 {
		result.ContainerIDs = append(result.ContainerIDs, containerIDs...)
	}

	gjson.GetBytes(body, "metrics_comparison").ForEach(func(_, value gjson.Result) bool {
		entry := common.ComparisonEntry{
			ContainerID:   value.Get("container_id").String(),
			ContainerName: value.Get("container_name").String(),
		}

		currentMetrics := value.Get("current_metrics")
		if currentMetrics.Exists() && currentMetrics.IsObject() {
			sample := parseSample(currentMetrics)
			entry.Current = &sample
		}

		healthScore := value.Get("health_score")
		if healthScore.Type == gjson.Number {
			score := healthScore.Float()
			entry.HealthScore = &score
		}

		result.Entries = append(result.Entries, entry)
		return true
	})

	return result, nil
}

func (q *httpQuerier) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		log.Warn("query service returned invalid JSON", "url", url)
		return nil, errInvalidJSON(url)
	}

	return body, nil
}

// parseSample validates and defaults one raw sample so the core model never
// branches on field presence: missing numeric fields become 0
func parseSample(value gjson.Result) common.MetricSample {
	return common.MetricSample{
		Timestamp:        parseTimestamp(value.Get("timestamp")),
		CPUPercent:       value.Get("cpu_percent").Float(),
		MemoryPercent:    value.Get("memory_percent").Float(),
		MemoryUsageBytes: value.Get("memory_usage_bytes").Float(),
		MemoryLimitBytes: value.Get("memory_limit_bytes").Float(),
		NetworkRxBytes:   value.Get("network_rx_bytes").Float(),
		NetworkTxBytes:   value.Get("network_tx_bytes").Float(),
		DiskReadBytes:    value.Get("disk_read_bytes").Float(),
		DiskWriteBytes:   value.Get("disk_write_bytes").Float(),
	}
}

func parseSamples(value gjson.Result) []common.MetricSample {
	samples := make([]common.MetricSample, 0)
	value.ForEach(func(_, item gjson.Result) bool {
		samples = append(samples, parseSample(item))
		return true
	})

	return samples
}

func parseTrends(value gjson.Result) map[string]common.TrendSummary {
	if !value.Exists() {
		return nil
	}

	trends := make(map[string]common.TrendSummary)
	value.ForEach(func(key, item gjson.Result) bool {
		trends[key.String()] = common.TrendSummary{
			Direction:  item.Get("direction").String(),
			Average:    item.Get("average").Float(),
			Volatility: item.Get("volatility").String(),
		}
		return true
	})

	return trends
}

func parseHealthScore(value gjson.Result) *common.HealthScore {
	health := &common.HealthScore{
		Overall: value.Get("overall").Float(),
		Status:  value.Get("status").String(),
		Components: common.HealthComponents{
			CPU:     value.Get("components.cpu").Float(),
			Memory:  value.Get("components.memory").Float(),
			Network: value.Get("components.network").Float(),
			Disk:    value.Get("components.disk").Float(),
		},
	}
	value.Get("recommendations").ForEach(func(_, item gjson.Result) bool {
		health.Recommendations = append(health.Recommendations, item.String())
		return true
	})

	return health
}

// parseTimestamp accepts either an RFC3339 string or a unix-seconds number
func parseTimestamp(value gjson.Result) time.Time {
	if value.Type == gjson.Number {
		return time.Unix(value.Int(), 0).UTC()
	}

	ts, err := time.Parse(time.RFC3339, value.String())
	if err != nil {
		return time.Time{}
	}

	return ts
}

// IsInterfaceNil returns true if the value under the interface is nil
func (q *httpQuerier) IsInterfaceNil() bool {
	return q == nil
}
