package bridge

import (
	"errors"
	"time"

	"github.com/iulianpascalau/container-dashboard/services/dashboard/common"
	"github.com/tidwall/gjson"
)

var errMalformedMessage = errors.New("malformed live-update message")

// parseEvent validates one inbound envelope and extracts a typed event. Only
// the fields actually present in the payload end up in the patch, preserving
// the merge's patch semantics.
func parseEvent(payload []byte) (common.LiveUpdateEvent, error) {
	if !gjson.ValidBytes(payload) {
		return common.LiveUpdateEvent{}, errMalformedMessage
	}

	parsed := gjson.ParseBytes(payload)
	if !parsed.IsObject() {
		return common.LiveUpdateEvent{}, errMalformedMessage
	}

	eventType := parsed.Get("type")
	if eventType.Type != gjson.String {
		return common.LiveUpdateEvent{}, errMalformedMessage
	}

	event := common.LiveUpdateEvent{
		Type:        eventType.String(),
		ContainerID: parsed.Get("container_id").String(),
		Timestamp:   parseTimestamp(parsed.Get("timestamp")),
	}

	data := parsed.Get("data")
	if data.Exists() && data.IsObject() {
		event.Patch = parsePatch(data)
		health := data.Get("health")
		if health.Exists() && health.IsObject() {
			event.Health = parseHealth(health)
		}
	}

	return event, nil
}

func parsePatch(data gjson.Result) common.SamplePatch {
	return common.SamplePatch{
		CPUPercent:       floatField(data, "cpu_percent"),
		MemoryPercent:    floatField(data, "memory_percent"),
		MemoryUsageBytes: floatField(data, "memory_usage_bytes"),
		MemoryLimitBytes: floatField(data, "memory_limit_bytes"),
		NetworkRxBytes:   floatField(data, "network_rx_bytes"),
		NetworkTxBytes:   floatField(data, "network_tx_bytes"),
		DiskReadBytes:    floatField(data, "disk_read_bytes"),
		DiskWriteBytes:   floatField(data, "disk_write_bytes"),
	}
}

func parseHealth(health gjson.Result) *common.HealthScore {
	score := &common.HealthScore{
		Overall: health.Get("overall").Float(),
		Status:  health.Get("status").String(),
		Components: common.HealthComponents{
			CPU:     health.Get("components.cpu").Float(),
			Memory:  health.Get("components.memory").Float(),
			Network: health.Get("components.network").Float(),
			Disk:    health.Get("components.disk").Float(),
		},
	}
	health.Get("recommendations").ForEach(func(_, item gjson.Result) bool {
		score.Recommendations = append(score.Recommendations, item.String())
		return true
	})

	return score
}

func floatField(data gjson.Result, key string) *float64 {
	field := data.Get(key)
	if field.Type != gjson.Number {
		return nil
	}

	value := field.Float()

	return &value
}

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
