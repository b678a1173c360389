package timewindow

import (
	"errors"
	"math"
	"time"
)

// Mode is the symbolic time range selected by the user
type Mode string

// Supported time range modes
const (
	Mode1h     Mode = "1h"
	Mode6h     Mode = "6h"
	Mode24h    Mode = "24h"
	Mode7d     Mode = "7d"
	Mode30d    Mode = "30d"
	ModeCustom Mode = "custom"
)

// SampleLimit bounds every query regardless of range, so longer windows
// return coarser but bounded series
const SampleLimit = 1000

// ErrUnresolvedWindow signals that the window cannot be resolved yet and no
// query must be issued. It is not a failure condition.
var ErrUnresolvedWindow = errors.New("time window not resolved")

var errUnknownMode = errors.New("unknown time range mode")

var presetHours = map[Mode]int{
	Mode1h:  1,
	Mode6h:  6,
	Mode24h: 24,
	Mode7d:  168,
	Mode30d: 720,
}

// Window is a concrete, resolved query window
type Window struct {
	Mode        Mode
	Hours       int
	SampleLimit int
}

// Resolve maps a symbolic mode (or an explicit custom start/end pair) to a
// concrete window. A custom mode with a missing bound returns
// ErrUnresolvedWindow: the caller must not issue a query while the user is
// still picking dates.
func Resolve(mode Mode, customStart *time.Time, customEnd *time.Time) (Window, error) {
	if mode == ModeCustom {
		if customStart == nil || customEnd == nil {
			return Window{}, ErrUnresolvedWindow
		}

		hours := int(math.Ceil(customEnd.Sub(*customStart).Hours()))
		if hours <= 0 {
			return Window{}, ErrUnresolvedWindow
		}

		return Window{
			Mode:        ModeCustom,
			Hours:       hours,
			SampleLimit: SampleLimit,
		}, nil
	}

	hours, found := presetHours[mode]
	if !found {
		return Window{}, errUnknownMode
	}

	return Window{
		Mode:        mode,
		Hours:       hours,
		SampleLimit: SampleLimit,
	}, nil
}

// IsPreset returns true for the fixed-table modes
func IsPreset(mode Mode) bool {
	_, found := presetHours[mode]
	return found
}
