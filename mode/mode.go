// Package mode defines the batch/moving processing mode shared by the
// windowed-aggregate stages (CMA, EMA, MAV, RMS).
package mode

import "fmt"

// Mode selects whether a stage recomputes its statistic from scratch on
// every call (Batch) or carries per-channel state across calls (Moving).
type Mode int

const (
	// Batch stages are stateless across calls: each call is computed fresh
	// over the whole supplied buffer.
	Batch Mode = iota
	// Moving stages carry per-channel state across calls.
	Moving
)

func (m Mode) String() string {
	switch m {
	case Batch:
		return "batch"
	case Moving:
		return "moving"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Parse converts a TOON/YAML/host string back into a Mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "batch":
		return Batch, nil
	case "moving":
		return Moving, nil
	default:
		return 0, fmt.Errorf("mode: unrecognized mode %q", s)
	}
}
