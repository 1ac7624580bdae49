package derive

import "fmt"

// Signal is an out-of-band instruction from the driver to the pipeline.
type Signal uint8

const (
	// ResetSignal asks the pipeline to drop all buffered state and restart from its origin.
	ResetSignal Signal = iota
	// FlushChannel asks the pipeline to discard the channel the last payload came from.
	// It is sent when a block fails to execute and is replaced by a deposit-only block.
	FlushChannel
)

func (s Signal) String() string {
	switch s {
	case ResetSignal:
		return "reset"
	case FlushChannel:
		return "flush-channel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}
