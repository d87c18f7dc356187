package board

import (
	"fmt"

	"github.com/dori/swimlane/internal/model"
)

// Outcome is how a drag session ended
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeDropped
)

func (o Outcome) String() string {
	if o == OutcomeDropped {
		return "dropped"
	}
	return "cancelled"
}

// Move is the result of ending a drag. Only a Dropped move is committed.
type Move struct {
	TaskID  string
	From    model.Status
	To      model.Status
	Outcome Outcome
}

// Dropped reports whether the move should be committed
func (m Move) Dropped() bool {
	return m.Outcome == OutcomeDropped
}

// Session tracks the single active drag on a board. It keeps the task id and
// two statuses only; the task itself stays in the store. The zero value is an
// idle session.
type Session struct {
	active   bool
	taskID   string
	from     model.Status
	hover    model.Status
	hovering bool
}

// Start begins dragging task from its current column
func (s *Session) Start(task model.Task) error {
	if s.active {
		return ErrDragActive
	}
	if !task.Status.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, task.Status)
	}
	*s = Session{active: true, taskID: task.ID, from: task.Status}
	return nil
}

// Hover marks status as the current drop target. Ignored while idle.
func (s *Session) Hover(status model.Status) {
	if !s.active {
		return
	}
	s.hover = status
	s.hovering = true
}

// Leave clears the drop target without ending the drag
func (s *Session) Leave() {
	s.hover = ""
	s.hovering = false
}

// Drop ends the drag on status. Dropping on the originating column or on an
// unknown status ends the drag as Cancelled.
func (s *Session) Drop(status model.Status) (Move, error) {
	if !s.active {
		return Move{}, ErrNoDrag
	}
	m := Move{TaskID: s.taskID, From: s.from, To: status, Outcome: OutcomeDropped}
	if status == s.from || !status.Known() {
		m.Outcome = OutcomeCancelled
	}
	*s = Session{}
	return m, nil
}

// DropOnHover drops on the hovered column, or cancels when nothing is hovered
func (s *Session) DropOnHover() (Move, error) {
	if !s.active {
		return Move{}, ErrNoDrag
	}
	if !s.hovering {
		m := Move{TaskID: s.taskID, From: s.from, To: s.from, Outcome: OutcomeCancelled}
		*s = Session{}
		return m, nil
	}
	return s.Drop(s.hover)
}

// Cancel discards the drag from any state
func (s *Session) Cancel() {
	*s = Session{}
}

// Active reports whether a drag is in progress
func (s Session) Active() bool {
	return s.active
}

// TaskID returns the id of the dragged task, or "" when idle
func (s Session) TaskID() string {
	return s.taskID
}

// From returns the originating status of the dragged task
func (s Session) From() model.Status {
	return s.from
}

// Hovered returns the current drop target, if any
func (s Session) Hovered() (model.Status, bool) {
	return s.hover, s.hovering
}
