package promptsources

import (
	"errors"
	"fmt"
)

var (
	ErrMissingResolver = errors.New("missing entity resolver")
	ErrMissingLabel    = errors.New("missing label")
	ErrInvalidLabel    = errors.New("invalid label")
	ErrUnknownProvider = errors.New("unknown provider")
)

// ResolutionError aborts a single generation attempt. Param names the
// parameter that could not be turned into safe prompt text.
type ResolutionError struct {
	Param  string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Param != "" && e.Reason != "":
		return fmt.Sprintf("%s for %s: %s", e.Err, e.Param, e.Reason)
	case e.Param != "":
		return fmt.Sprintf("%s for %s", e.Err, e.Param)
	default:
		return e.Err.Error()
	}
}

func (e *ResolutionError) Unwrap() error { return e.Err }
