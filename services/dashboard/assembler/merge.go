package assembler

import "github.com/iulianpascalau/container-dashboard/services/dashboard/common"

// MergeLiveUpdate folds one accepted push event into the model using patch
// semantics: only the fields present in the payload are overwritten. Events
// for unknown containers or of unrecognized types leave the model untouched.
// The function is pure with respect to everything except the passed model,
// keeping it testable independently of the connection machinery.
func MergeLiveUpdate(model *common.RenderModel, event common.LiveUpdateEvent) {
	if model == nil {
		return
	}

	switch event.Type {
	case common.EventMetricsUpdate, common.EventAlertTriggered, common.EventEnhancedMetricsUpdate:
	default:
		return
	}

	if model.Comparison != nil {
		entry, found := model.Comparison.PerContainer[event.ContainerID]
		if !found {
			return
		}

		entry.Current = patchSample(entry.Current, event.Patch)
		if event.Health != nil {
			entry.Health = event.Health
		}
		model.Comparison.PerContainer[event.ContainerID] = entry

		return
	}

	if model.ContainerID != event.ContainerID {
		return
	}

	model.Current = patchSample(model.Current, event.Patch)
	if event.Health != nil {
		model.Health = event.Health
	}
}

func patchSample(sample *common.MetricSample, patch common.SamplePatch) *common.MetricSample {
	updated := common.MetricSample{}
	if sample != nil {
		updated = *sample
	}

	if patch.CPUPercent != nil {
		updated.CPUPercent = *patch.CPUPercent
	}
	if patch.MemoryPercent != nil {
		updated.MemoryPercent = *patch.MemoryPercent
	}
	if patch.MemoryUsageBytes != nil {
		updated.MemoryUsageBytes = *patch.MemoryUsageBytes
	}
	if patch.MemoryLimitBytes != nil {
		updated.MemoryLimitBytes = *patch.MemoryLimitBytes
	}
	if patch.NetworkRxBytes != nil {
		updated.NetworkRxBytes = *patch.NetworkRxBytes
	}
	if patch.NetworkTxBytes != nil {
		updated.NetworkTxBytes = *patch.NetworkTxBytes
	}
	if patch.DiskReadBytes != nil {
		updated.DiskReadBytes = *patch.DiskReadBytes
	}
	if patch.DiskWriteBytes != nil {
		updated.DiskWriteBytes = *patch.DiskWriteBytes
	}

	return &updated
}
