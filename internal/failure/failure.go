// Package failure holds the error kinds every shootout component wraps.
//
// Component sentinels are declared as `fmt.Errorf("%w: ...", failure.ErrX)` so callers can
// branch on the kind with errors.Is while still getting a precise message.
package failure

import (
	"errors"

	"github.com/farcloser/primordium/fault"
)

var (
	// ErrParse is returned for malformed signal chain text.
	ErrParse = errors.New("parse error")
	// ErrValidation is returned for well-formed but invalid input (empty chain, unknown effect type, bad setting).
	ErrValidation = errors.New("validation error")
	// ErrModelLoad is returned when an amp model cannot be run through either resolution path.
	ErrModelLoad = errors.New("model load error")
	// ErrPreset is returned when binary preset encoding constraints are violated.
	ErrPreset = errors.New("preset error")
	// ErrIO is returned for file read and hash failures.
	ErrIO = fault.ErrReadFailure
)
