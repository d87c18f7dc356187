package board

import (
	"errors"
	"fmt"

	"github.com/dori/swimlane/internal/model"
)

var (
	// ErrDragActive is returned when a drag is started while another one is
	// still in progress. The UI should not offer pick-up in that state.
	ErrDragActive    = errors.New("a drag is already in progress")
	ErrNoDrag        = errors.New("no drag in progress")
	ErrUnknownStatus = errors.New("task has an unknown status")
	ErrNoProject     = errors.New("no project loaded")
)

// ErrorKind classifies a failed move for the user
type ErrorKind int

const (
	// KindTransient covers network and server failures; retrying may work
	KindTransient ErrorKind = iota
	// KindRejected means the store refused the move itself
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MoveError is returned by Commit when the status update fails
type MoveError struct {
	TaskID string
	To     model.Status
	Kind   ErrorKind
	Err    error
}

func (e *MoveError) Error() string {
	if e.Kind == KindRejected {
		return fmt.Sprintf("move to %s rejected: %v", e.To.Label(), e.Err)
	}
	return fmt.Sprintf("could not move task to %s: %v", e.To.Label(), e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

func classify(err error) ErrorKind {
	if errors.Is(err, model.ErrRejected) {
		return KindRejected
	}
	return KindTransient
}
