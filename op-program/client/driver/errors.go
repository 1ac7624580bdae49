package driver

import "fmt"

// ErrorKind names the fatal condition that stopped the driver.
type ErrorKind uint8

const (
	// PipelineFailure is any derivation pipeline error other than the end of the data source.
	PipelineFailure ErrorKind = iota
	// ExecutorFailure is a block that could not be executed, even after the deposit-only retry.
	ExecutorFailure
	// DecodeFailure is a transaction in executed attributes that could not be decoded.
	DecodeFailure
	// BlockRefFailure is an executed block whose L2 block reference could not be derived.
	BlockRefFailure
	// MissingOrigin is an executed block that the pipeline could not attribute to an L1 origin.
	MissingOrigin
	// OutputRootFailure is an executed block whose output root could not be computed.
	OutputRootFailure
)

func (k ErrorKind) String() string {
	switch k {
	case PipelineFailure:
		return "pipeline"
	case ExecutorFailure:
		return "executor"
	case DecodeFailure:
		return "decode"
	case BlockRefFailure:
		return "block-ref"
	case MissingOrigin:
		return "missing-origin"
	case OutputRootFailure:
		return "output-root"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// DriverError is returned by the driver for every condition it cannot recover from.
type DriverError struct {
	Kind ErrorKind
	Err  error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver %s failure: %v", e.Kind, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

func fatal(kind ErrorKind, err error) *DriverError {
	return &DriverError{Kind: kind, Err: err}
}
