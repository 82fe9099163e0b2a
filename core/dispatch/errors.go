package dispatch

import (
	"errors"
	"fmt"

	"github.com/kilianp07/optimanage/core/store"
)

var (
	// ErrInvalidWeight is returned for negative, NaN or infinite weights.
	ErrInvalidWeight = errors.New("invalid objective weight")
	// ErrPartition is returned when an objective declares no input or no
	// response properties.
	ErrPartition = errors.New("objective cannot be partitioned")
	// ErrUnknownObjective is returned for ids that were never registered.
	ErrUnknownObjective = errors.New("unknown objective")
	// ErrInvalidCount is returned when a negative ranking size is requested.
	ErrInvalidCount = errors.New("invalid ranking size")
	// ErrObjectivePanic marks an objective that panicked while training or
	// scoring.
	ErrObjectivePanic = errors.New("objective panicked")
	// ErrStoreUnavailable aliases store.ErrUnavailable.
	ErrStoreUnavailable = store.ErrUnavailable
)

// Execution stages reported by ObjectiveExecutionError.
const (
	StageTrain = "train"
	StageScore = "score"
)

// ObjectiveExecutionError wraps a training or scoring failure of one objective.
type ObjectiveExecutionError struct {
	ObjectiveID string
	Stage       string
	Err         error
}

func (e *ObjectiveExecutionError) Error() string {
	return fmt.Sprintf("objective %s: %s: %v", e.ObjectiveID, e.Stage, e.Err)
}

func (e *ObjectiveExecutionError) Unwrap() error { return e.Err }
