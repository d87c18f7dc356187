package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/swimlane/internal/app"
	"github.com/dori/swimlane/internal/ui/theme"
	"github.com/dori/swimlane/internal/ui/views"
	"github.com/sirupsen/logrus"
)

// headerHeight is the number of lines above the board view
const headerHeight = 1

// RootModel is the main application model
type RootModel struct {
	app    *app.App
	log    logrus.FieldLogger
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	boardView   views.BoardView

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates the root model and applies the configured theme
func NewRootModel(ctx context.Context, application *app.App) RootModel {
	h := help.New()

	if t, ok := theme.ByName(application.Config.Theme); ok {
		theme.SetTheme(t)
	} else {
		application.Log.WithField("theme", application.Config.Theme).Warn("unknown theme, using default")
	}

	b := application.NewBoard()
	return RootModel{
		app:         application,
		log:         application.Log,
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: ViewBoard,
		boardView:   views.NewBoardView(ctx, b, application.Client, application.Config.Project, application.Log),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return m.boardView.Init()
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.boardView = m.boardView.SetSize(m.width, m.contentHeight())
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := m.boardView.IsInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			return m, m.cycleTheme()
		}

		if isInputMode {
			break
		}

		if key.Matches(msg, m.keys.Help) {
			if m.currentView == ViewHelp {
				m.currentView = ViewBoard
			} else {
				m.currentView = ViewHelp
			}
			return m, nil
		}
		if m.currentView == ViewHelp {
			if msg.String() == "esc" {
				m.currentView = ViewBoard
			}
			return m, nil
		}

	case tea.MouseMsg:
		if m.currentView != ViewBoard {
			return m, nil
		}
		msg.Y -= headerHeight
		newBoardView, cmd := m.boardView.Update(msg)
		m.boardView = newBoardView.(views.BoardView)
		return m, cmd

	case views.ErrorMsg:
		m.errorMsg = msg.Err.Error()
		m.log.WithError(msg.Err).Debug("shown to user")
		return m, nil

	case views.StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	newBoardView, cmd := m.boardView.Update(msg)
	m.boardView = newBoardView.(views.BoardView)
	return m, cmd
}

// contentHeight is what is left after the header and the two footer lines
func (m RootModel) contentHeight() int {
	return m.height - headerHeight - 2
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string
	if m.currentView == ViewHelp {
		content = m.renderHelp()
	} else {
		content = m.boardView.View()
	}

	// Ensure content fills available space
	contentHeight := m.contentHeight()
	if lines := strings.Count(content, "\n") + 1; lines < contentHeight {
		content += strings.Repeat("\n", contentHeight-lines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("swimlane")

	subtle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	project := lipgloss.NewStyle().
		Foreground(t.Secondary).
		Padding(0, 1).
		Render(m.boardView.ProjectName())

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, project)
	if m.currentView != ViewBoard {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Center, leftSide, subtle.Render(fmt.Sprintf("[%s]", m.currentView)))
	}

	var right []string
	if n := m.boardView.AnomalyCount(); n > 0 {
		right = append(right, lipgloss.NewStyle().
			Foreground(t.Warning).
			Padding(0, 1).
			Render(fmt.Sprintf("%d hidden (unknown status)", n)))
	}
	right = append(right, subtle.Render(fmt.Sprintf("%s · theme: %s", m.app.Config.Backend, t.Name)))
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, right...)

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	hint := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	// The status line is always reserved, empty or not
	var statusLine string
	if m.errorMsg != "" {
		statusLine = styles.ErrorLine.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = styles.StatusLine.Render(m.statusMsg)
	}

	var hints string
	switch {
	case m.currentView == ViewHelp:
		hints = hint("?/esc", "close help")
	case m.boardView.IsInputMode():
		hints = hint("enter", "confirm") + sep + hint("esc", "cancel")
	case m.boardView.Dragging():
		hints = hint("h/l", "choose column") + sep +
			hint("space/enter", "drop") + sep +
			hint("esc", "cancel")
	default:
		hints = hint("h/l", "columns") + sep +
			hint("j/k", "cards") + sep +
			hint("space", "pick up") + sep +
			hint("a", "add") + sep +
			hint("r", "refresh") + sep +
			hint("P", "project") + sep +
			m.help.ShortHelpView(m.keys.ShortHelp())
	}

	return statusLine + "\n" + hints
}

// renderHelp renders the help overlay from the key map
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Swimlane Help"))
	b.WriteString("\n")

	sections := []string{"Navigation", "Drag and drop", "Board", "General"}
	for i, group := range m.keys.FullHelp() {
		if i < len(sections) {
			b.WriteString(sectionStyle.Render(sections[i]))
			b.WriteString("\n")
		}
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(descStyle.Render("Mouse: press a card, drag it over a column, release to drop."))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("Add syntax: title !high due:friday #review @assignee"))
	b.WriteString("\n\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))
	return b.String()
}

// cycleTheme switches to the next theme
func (m RootModel) cycleTheme() tea.Cmd {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	return func() tea.Msg { return ThemeChangedMsg{ThemeName: next.Name} }
}
