package eth

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum"
)

// notFoundMessages are the lower-cased error fragments that providers are known to
// return instead of a proper ethereum.NotFound.
var notFoundMessages = []string{
	"block not found",
	"header not found",
	"unknown block",
	"blob not found",
}

// MaybeAsNotFoundErr checks if the error is an ethereum.NotFound error
// or has an error string that heuristically indicates that it is this error.
// If so, it returns the error joined with ethereum.NotFound, otherwise it returns the original error.
//
// Execution layer APIs and DA servers should return an empty result or a 404 when
// data is missing, this translation only hardens against implementations that don't.
func MaybeAsNotFoundErr(err error) error {
	if errors.Is(err, ethereum.NotFound) || err == nil {
		return err
	}
	errStr := strings.ToLower(err.Error())
	for _, msg := range notFoundMessages {
		if strings.Contains(errStr, msg) {
			return errors.Join(err, ethereum.NotFound)
		}
	}
	return err
}
