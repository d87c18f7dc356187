package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/swimlane/internal/board"
	"github.com/dori/swimlane/internal/model"
)

// ErrorMsg contains an error for the status line
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message for the status line
type StatusMsg struct {
	Message string
}

func reportError(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

func reportStatus(format string, args ...any) tea.Cmd {
	msg := fmt.Sprintf(format, args...)
	return func() tea.Msg { return StatusMsg{Message: msg} }
}

// boardLoadedMsg arrives when a Load or Refresh finished
type boardLoadedMsg struct {
	projectID string
	err       error
}

// moveCommittedMsg arrives when a dropped move was written and the board
// refetched
type moveCommittedMsg struct {
	move       board.Move
	err        error
	refreshErr error
}

type taskCreatedMsg struct {
	task       *model.Task
	err        error
	refreshErr error
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}
