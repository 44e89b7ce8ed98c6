// Package dispatch classifies button presses into operating modes and
// tracks the system's visual (LED) state, grounded on the original
// hardware.py's LEDController/ButtonController pair. The GPIO-backed
// implementations live in the linux-only files in this package; the
// pure classification logic here has no hardware dependency and runs
// on any platform.
package dispatch

import "time"

// State mirrors hardware.py's SystemState enum.
type State int

const (
	StateIdle State = iota
	StateTXActive
	StateRXActive
	StateCompleted
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTXActive:
		return "tx_active"
	case StateRXActive:
		return "rx_active"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is what a completed button press should trigger.
type Action int

const (
	ActionNone Action = iota
	ActionTX
	ActionRX
	ActionTXMulti
)

func (a Action) String() string {
	switch a {
	case ActionTX:
		return "tx"
	case ActionRX:
		return "rx"
	case ActionTXMulti:
		return "tx-multi"
	default:
		return "none"
	}
}

// Press duration thresholds (hardware.py's medium_press_threshold and
// long_press_threshold).
const (
	MediumPressThreshold = 1 * time.Second
	LongPressThreshold   = 3 * time.Second
)

// Classify maps a completed button-press duration to the mode it
// should trigger: short -> TX, medium -> RX, long -> TX-MULTI.
func Classify(d time.Duration) Action {
	switch {
	case d >= LongPressThreshold:
		return ActionTXMulti
	case d >= MediumPressThreshold:
		return ActionRX
	default:
		return ActionTX
	}
}
