package genetic

import (
	"errors"
	"strings"
)

var (
	// ErrPrecondition marks inputs the engine refuses to start with.
	ErrPrecondition = errors.New("genetic: precondition failed")
	// ErrInvalidConfig marks a run configuration outside its allowed ranges.
	ErrInvalidConfig = errors.New("genetic: invalid config")
	// ErrRunFailed marks an unexpected failure during evaluation or breeding.
	ErrRunFailed = errors.New("genetic: run failed")
)

// PreconditionError lists the entity collections that were empty.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return "cannot start run without " + strings.Join(e.Missing, ", ")
}

// Is lets errors.Is match ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
