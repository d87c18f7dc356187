package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/swimlane/internal/board"
	"github.com/dori/swimlane/internal/model"
	"github.com/dori/swimlane/internal/ui/theme"
	"github.com/sirupsen/logrus"
)

// Client is what the board view needs besides the board itself
type Client interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateTask(ctx context.Context, projectID string, t model.NewTask) (*model.Task, error)
}

// BoardMode represents the current input mode
type BoardMode int

const (
	BoardModeNormal BoardMode = iota
	BoardModeAdd
	BoardModeSelectProject
)

// BoardView renders a board.Board as columns of cards and turns keys and
// mouse events into drag operations. Anything that does I/O runs as a
// tea.Cmd; the view redraws from the board when the result message arrives.
type BoardView struct {
	ctx    context.Context
	board  *board.Board
	client Client
	log    logrus.FieldLogger
	now    func() time.Time

	width  int
	height int

	projection   board.Projection
	startProject string

	// Navigation state
	currentColumn int
	cursorRow     int
	columnScroll  []int

	mode      BoardMode
	textInput textinput.Model

	projects       []model.Project
	selectorCursor int

	// In-flight loads, refreshes and commits
	pending int
	spinner spinner.Model

	// Set between a mouse press on a card and the release
	mouseDragging bool
}

// NewBoardView creates a board view that loads projectID on Init
func NewBoardView(ctx context.Context, b *board.Board, client Client, projectID string, log logrus.FieldLogger) BoardView {
	if log == nil {
		log = logrus.StandardLogger()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	s := spinner.New()
	s.Spinner = spinner.Dot

	v := BoardView{
		ctx:          ctx,
		board:        b,
		client:       client,
		log:          log,
		now:          time.Now,
		startProject: projectID,
		textInput:    ti,
		spinner:      s,
		pending:      1,
	}
	v.sync()
	return v
}

// Init loads the starting project and the project list
func (v BoardView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load(v.startProject), v.loadProjects())
}

// SetSize sets the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	v.ensureCursorVisible()
	return v
}

// IsInputMode returns whether keys are going to a prompt
func (v BoardView) IsInputMode() bool {
	return v.mode != BoardModeNormal
}

// Dragging reports whether a card is picked up
func (v BoardView) Dragging() bool {
	return v.board.Drag().Active()
}

// Busy reports whether any load or commit is in flight
func (v BoardView) Busy() bool {
	return v.pending > 0
}

// AnomalyCount returns how many tasks have a status no column shows
func (v BoardView) AnomalyCount() int {
	return v.projection.AnomalyCount()
}

// ProjectName returns the name of the loaded project, or its id when the
// project list has not arrived
func (v BoardView) ProjectName() string {
	id := v.board.Store().ProjectID()
	if id == "" {
		id = v.startProject
	}
	for _, p := range v.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func (v BoardView) load(projectID string) tea.Cmd {
	b, ctx := v.board, v.ctx
	return func() tea.Msg {
		return boardLoadedMsg{projectID: projectID, err: b.Load(ctx, projectID)}
	}
}

func (v BoardView) refresh() tea.Cmd {
	b, ctx := v.board, v.ctx
	return func() tea.Msg {
		return boardLoadedMsg{projectID: b.Store().ProjectID(), err: b.Refresh(ctx)}
	}
}

func (v BoardView) loadProjects() tea.Cmd {
	client, ctx := v.client, v.ctx
	return func() tea.Msg {
		projects, err := client.ListProjects(ctx)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// commit writes the move and refetches. The store's error after the commit
// is the refresh result.
func (v BoardView) commit(move board.Move) tea.Cmd {
	b, ctx := v.board, v.ctx
	return func() tea.Msg {
		err := b.Commit(ctx, move)
		return moveCommittedMsg{move: move, err: err, refreshErr: b.Store().LastError()}
	}
}

func (v BoardView) createTask(nt model.NewTask) tea.Cmd {
	b, client, ctx := v.board, v.client, v.ctx
	projectID := b.Store().ProjectID()
	return func() tea.Msg {
		task, err := client.CreateTask(ctx, projectID, nt)
		if err != nil {
			return taskCreatedMsg{err: err}
		}
		return taskCreatedMsg{task: task, refreshErr: b.Refresh(ctx)}
	}
}

// Update handles messages
func (v BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if v.pending == 0 {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case boardLoadedMsg:
		v.done()
		v.sync()
		if msg.err != nil {
			return v, reportError(fmt.Errorf("could not load tasks: %w", msg.err))
		}
		return v, nil

	case moveCommittedMsg:
		v.done()
		v.sync()
		switch {
		case msg.err != nil:
			return v, reportError(msg.err)
		case msg.refreshErr != nil:
			return v, reportError(fmt.Errorf("move saved, but the board could not be refreshed: %w", msg.refreshErr))
		}
		return v, reportStatus("Moved to %s", msg.move.To.Label())

	case taskCreatedMsg:
		v.done()
		v.sync()
		switch {
		case msg.err != nil:
			return v, reportError(fmt.Errorf("could not add task: %w", msg.err))
		case msg.refreshErr != nil:
			return v, reportError(fmt.Errorf("task added, but the board could not be refreshed: %w", msg.refreshErr))
		}
		return v, reportStatus("Added %q to %s", msg.task.Title, msg.task.Status.Label())

	case projectsLoadedMsg:
		if msg.err != nil {
			if v.mode == BoardModeSelectProject {
				v.mode = BoardModeNormal
			}
			return v, reportError(fmt.Errorf("could not load projects: %w", msg.err))
		}
		v.projects = msg.projects
		v.clampSelector()
		return v, nil

	case tea.MouseMsg:
		return v.handleMouse(msg)

	case tea.KeyMsg:
		switch v.mode {
		case BoardModeAdd:
			return v.handleAddMode(msg)
		case BoardModeSelectProject:
			return v.handleProjectSelector(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == BoardModeAdd {
		var cmd tea.Cmd
		v.textInput, cmd = v.textInput.Update(msg)
		return v, cmd
	}

	return v, nil
}

// handleNormalMode handles keys in normal mode
func (v BoardView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dragging := v.board.Drag().Active()

	switch msg.String() {
	// Column navigation; while dragging this also moves the drop target
	case "h", "left":
		v.moveColumn(-1)
		return v, nil

	case "l", "right":
		v.moveColumn(1)
		return v, nil

	// Row navigation
	case "j", "down":
		if !dragging && v.cursorRow < len(v.focusedTasks())-1 {
			v.cursorRow++
			v.ensureCursorVisible()
		}
		return v, nil

	case "k", "up":
		if !dragging && v.cursorRow > 0 {
			v.cursorRow--
			v.ensureCursorVisible()
		}
		return v, nil

	case "g":
		if !dragging {
			v.cursorRow = 0
			v.ensureCursorVisible()
		}
		return v, nil

	case "G":
		if tasks := v.focusedTasks(); !dragging && len(tasks) > 0 {
			v.cursorRow = len(tasks) - 1
			v.ensureCursorVisible()
		}
		return v, nil

	case " ", "space":
		if dragging {
			return v.dropOnHover(true)
		}
		return v.pickUp()

	case "enter":
		if dragging {
			return v.dropOnHover(true)
		}
		return v, nil

	case "esc":
		if dragging {
			v.board.Cancel()
			v.mouseDragging = false
			v.clampCursor()
			return v, reportStatus("Move cancelled")
		}
		return v, nil

	case "r":
		if dragging {
			return v, nil
		}
		tick := v.begin()
		return v, tea.Batch(tick, v.refresh())

	case "a":
		col, ok := v.focusedColumn()
		if dragging || !ok {
			return v, nil
		}
		v.mode = BoardModeAdd
		v.textInput.SetValue("")
		v.textInput.Placeholder = fmt.Sprintf("New task in %s (!high due:fri @who)", col.Label)
		return v, v.textInput.Focus()

	case "P":
		if dragging {
			return v, nil
		}
		v.mode = BoardModeSelectProject
		v.selectorCursor = 0
		current := v.board.Store().ProjectID()
		for i, p := range v.projects {
			if p.ID == current {
				v.selectorCursor = i
			}
		}
		return v, v.loadProjects()
	}

	return v, nil
}

// handleAddMode handles keys while typing a new task
func (v BoardView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(v.textInput.Value())
		v.mode = BoardModeNormal
		v.textInput.Blur()

		col, ok := v.focusedColumn()
		if input == "" || !ok {
			return v, nil
		}
		nt := model.ParseQuickAdd(input, v.now())
		if nt.Status == "" {
			nt.Status = col.Status
		}
		if nt.Title == "" {
			return v, reportError(errors.New("a task needs a title"))
		}
		tick := v.begin()
		return v, tea.Batch(tick, v.createTask(nt))

	case "esc":
		v.mode = BoardModeNormal
		v.textInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// handleProjectSelector handles project selection
func (v BoardView) handleProjectSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if v.selectorCursor < len(v.projects)-1 {
			v.selectorCursor++
		}
	case "k", "up":
		if v.selectorCursor > 0 {
			v.selectorCursor--
		}
	case "enter":
		if v.selectorCursor >= len(v.projects) {
			return v, nil
		}
		project := v.projects[v.selectorCursor]
		v.mode = BoardModeNormal
		v.currentColumn = 0
		v.cursorRow = 0
		for i := range v.columnScroll {
			v.columnScroll[i] = 0
		}
		v.log.WithField("project_id", project.ID).Debug("switching project")
		tick := v.begin()
		return v, tea.Batch(tick, v.load(project.ID))
	case "esc":
		v.mode = BoardModeNormal
	}
	return v, nil
}

// pickUp starts a drag on the focused card
func (v BoardView) pickUp() (tea.Model, tea.Cmd) {
	task, ok := v.focusedTask()
	if !ok {
		return v, nil
	}
	if err := v.board.StartDrag(task.ID); err != nil {
		return v, reportError(err)
	}
	v.board.Hover(task.Status)
	v.log.WithField("task_id", task.ID).Debug("picked up task")
	return v, reportStatus("Moving %q: h/l to choose a column, space to drop, esc to cancel", task.Title)
}

// dropOnHover ends the drag on the hovered column and commits a real move
func (v BoardView) dropOnHover(announce bool) (tea.Model, tea.Cmd) {
	v.mouseDragging = false

	move, err := v.board.DropOnHover()
	v.clampCursor()
	if err != nil {
		return v, reportError(err)
	}
	if !move.Dropped() {
		if announce {
			return v, reportStatus("Move cancelled")
		}
		return v, nil
	}

	v.log.WithFields(logrus.Fields{
		"task_id": move.TaskID,
		"from":    move.From,
		"to":      move.To,
	}).Debug("dropped task")

	tick := v.begin()
	return v, tea.Batch(tick, v.commit(move))
}

// handleMouse implements drag and drop with the left button
func (v BoardView) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if v.mode != BoardModeNormal {
		return v, nil
	}
	col, onColumn := v.columnAt(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !onColumn || v.board.Drag().Active() {
			return v, nil
		}
		task, row, ok := v.cardAt(col, msg.Y)
		if !ok {
			return v, nil
		}
		v.currentColumn = col
		v.cursorRow = row
		if err := v.board.StartDrag(task.ID); err != nil {
			return v, reportError(err)
		}
		v.board.Hover(task.Status)
		v.mouseDragging = true
		return v, nil

	case tea.MouseActionMotion:
		if !v.mouseDragging {
			return v, nil
		}
		v.hoverAt(col, onColumn)
		return v, nil

	case tea.MouseActionRelease:
		if !v.mouseDragging {
			return v, nil
		}
		v.hoverAt(col, onColumn)
		return v.dropOnHover(false)
	}

	return v, nil
}

func (v *BoardView) hoverAt(col int, onColumn bool) {
	if !onColumn {
		v.board.Leave()
		return
	}
	v.currentColumn = col
	v.board.Hover(v.projection.Columns[col].Status)
}

// moveColumn moves focus sideways, carrying the drop target while dragging
func (v *BoardView) moveColumn(delta int) {
	next := v.currentColumn + delta
	if next < 0 || next >= len(v.projection.Columns) {
		return
	}
	v.currentColumn = next
	if v.board.Drag().Active() {
		v.board.Hover(v.projection.Columns[next].Status)
		return
	}
	v.clampCursor()
}

func (v *BoardView) begin() tea.Cmd {
	v.pending++
	if v.pending == 1 {
		return v.spinner.Tick
	}
	return nil
}

func (v *BoardView) done() {
	if v.pending > 0 {
		v.pending--
	}
}

// sync re-projects the store's snapshot
func (v *BoardView) sync() {
	v.projection = v.board.Columns()
	if len(v.columnScroll) != len(v.projection.Columns) {
		v.columnScroll = make([]int, len(v.projection.Columns))
	}
	v.clampCursor()
}

func (v *BoardView) clampSelector() {
	if v.selectorCursor >= len(v.projects) {
		v.selectorCursor = max(len(v.projects)-1, 0)
	}
}

func (v BoardView) focusedColumn() (board.Column, bool) {
	if v.currentColumn < 0 || v.currentColumn >= len(v.projection.Columns) {
		return board.Column{}, false
	}
	return v.projection.Columns[v.currentColumn], true
}

func (v BoardView) focusedTasks() []model.Task {
	col, _ := v.focusedColumn()
	return col.Tasks
}

func (v BoardView) focusedTask() (model.Task, bool) {
	tasks := v.focusedTasks()
	if v.cursorRow < 0 || v.cursorRow >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[v.cursorRow], true
}

// clampCursor ensures cursor is valid for current column
func (v *BoardView) clampCursor() {
	if n := len(v.projection.Columns); v.currentColumn >= n {
		v.currentColumn = max(n-1, 0)
	}
	if tasks := v.focusedTasks(); v.cursorRow >= len(tasks) {
		v.cursorRow = max(len(tasks)-1, 0)
	}
	v.ensureCursorVisible()
}

// ensureCursorVisible adjusts scroll to keep cursor in view
func (v *BoardView) ensureCursorVisible() {
	if v.currentColumn >= len(v.columnScroll) {
		return
	}
	visible := v.visibleItemCount()
	scroll := &v.columnScroll[v.currentColumn]

	if v.cursorRow >= *scroll+visible {
		*scroll = v.cursorRow - visible + 1
	}
	if v.cursorRow < *scroll {
		*scroll = v.cursorRow
	}
}

// Layout: one header row, then bordered columns, then one footer line.

// columnHeight is the inner height of a column
func (v BoardView) columnHeight() int {
	return max(v.height-4, 3)
}

// visibleItemCount leaves two lines for the scroll indicators
func (v BoardView) visibleItemCount() int {
	return max(v.columnHeight()-2, 1)
}

// layout returns the visible column range and the inner column width. Narrow
// terminals page through the columns two at a time.
func (v BoardView) layout() (start, end, colWidth int) {
	n := len(v.projection.Columns)
	if n == 0 {
		return 0, 0, 0
	}
	visible := n
	if v.width < 100 && n > 2 {
		visible = 2
	}
	start = (v.currentColumn / visible) * visible
	end = min(start+visible, n)
	colWidth = max(v.width/visible-2, 20)
	return start, end, colWidth
}

// columnAt maps a point to a column index
func (v BoardView) columnAt(x, y int) (int, bool) {
	start, end, colWidth := v.layout()
	if x < 0 || y < 1 || y > v.columnHeight()+2 || end == 0 {
		return 0, false
	}
	i := start + x/(colWidth+2)
	if i >= end {
		return 0, false
	}
	return i, true
}

// cardAt maps a row inside column col to a task
func (v BoardView) cardAt(col, y int) (model.Task, int, bool) {
	line := y - 2
	scroll := 0
	if col < len(v.columnScroll) {
		scroll = v.columnScroll[col]
	}
	if scroll > 0 {
		if line == 0 {
			return model.Task{}, 0, false
		}
		line--
	}
	if line < 0 || line >= v.visibleItemCount() {
		return model.Task{}, 0, false
	}

	tasks := v.projection.Columns[col].Tasks
	idx := scroll + line
	if idx >= len(tasks) {
		return model.Task{}, 0, false
	}
	return tasks[idx], idx, true
}

// View renders the board
func (v BoardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	if v.mode == BoardModeSelectProject {
		return v.renderProjectSelector()
	}

	t := theme.Current.Theme
	styles := theme.Current.Styles

	start, end, colWidth := v.layout()
	drag := v.board.Drag()
	hover, hovering := drag.Hovered()
	visibleItems := v.visibleItemCount()

	var headers, cols []string
	for i := start; i < end; i++ {
		col := v.projection.Columns[i]
		isActive := i == v.currentColumn

		hs := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.StatusColor(col.Status)).
			Width(colWidth + 2).
			Align(lipgloss.Center)
		if isActive {
			hs = hs.Background(t.Highlight)
		}
		headers = append(headers, hs.Render(fmt.Sprintf("%s (%d)", col.Label, col.Count())))

		scroll := v.columnScroll[i]
		from := min(scroll, len(col.Tasks))
		to := min(scroll+visibleItems, len(col.Tasks))

		var items []string
		if scroll > 0 {
			items = append(items, v.scrollIndicator(colWidth, fmt.Sprintf("↑ %d more", scroll)))
		}
		for j := from; j < to; j++ {
			task := col.Tasks[j]
			focused := isActive && j == v.cursorRow && !drag.Active()
			dragged := drag.Active() && task.ID == drag.TaskID()
			items = append(items, v.renderCard(task, colWidth, focused, dragged))
		}
		if to < len(col.Tasks) {
			items = append(items, v.scrollIndicator(colWidth, fmt.Sprintf("↓ %d more", len(col.Tasks)-to)))
		}

		content := strings.Join(items, "\n")
		if len(col.Tasks) == 0 {
			content = lipgloss.NewStyle().
				Foreground(t.Subtle).
				Italic(true).
				Render("(empty)")
		}

		cs := styles.Column
		switch {
		case drag.Active() && hovering && hover == col.Status:
			cs = styles.ColumnHover
		case isActive:
			cs = styles.ColumnActive
		}
		cols = append(cols, cs.Width(colWidth).Height(v.columnHeight()).Render(content))
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headers...)
	columnsRow := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return lipgloss.JoinVertical(lipgloss.Left, headerRow, columnsRow, v.renderFooter())
}

func (v BoardView) scrollIndicator(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Theme.Subtle).
		Width(width).
		Align(lipgloss.Center).
		Render(text)
}

// renderCard renders one task on a single line
func (v BoardView) renderCard(task model.Task, width int, focused, dragged bool) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	style := styles.TaskNormal
	switch {
	case dragged:
		style = styles.TaskDragging
	case focused:
		style = styles.TaskFocused
	}

	marker := " "
	switch task.Priority {
	case model.PriorityHigh:
		marker = "▲"
	case model.PriorityMedium:
		marker = "●"
	case model.PriorityLow:
		marker = "▽"
	}
	if !dragged {
		marker = lipgloss.NewStyle().Foreground(t.PriorityColor(task.Priority)).Render(marker)
	}

	var due string
	if task.DueDate != nil {
		due = " " + model.FormatDue(*task.DueDate, v.now())
	}

	title := truncate(task.Title, max(width-4-len([]rune(due)), 5))
	if due != "" && !dragged {
		if task.IsOverdue() {
			due = styles.TaskOverdue.Render(due)
		} else {
			due = lipgloss.NewStyle().Foreground(t.Subtle).Render(due)
		}
	}

	return style.Width(width).Render(marker + " " + title + due)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderFooter renders the one-line prompt or activity line under the board
func (v BoardView) renderFooter() string {
	t := theme.Current.Theme

	if v.mode == BoardModeAdd {
		col, _ := v.focusedColumn()
		label := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("Add to " + col.Label + ": ")
		return label + v.textInput.View()
	}

	var parts []string
	if v.pending > 0 {
		parts = append(parts, v.spinner.View()+" syncing")
	}
	if drag := v.board.Drag(); drag.Active() {
		target := "nowhere"
		if s, ok := drag.Hovered(); ok {
			target = s.Label()
		}
		title := drag.TaskID()
		if task, ok := v.board.Store().Task(drag.TaskID()); ok {
			title = task.Title
		}
		parts = append(parts, fmt.Sprintf("dragging %q → %s", truncate(title, 40), target))
	}
	return lipgloss.NewStyle().Foreground(t.Subtle).Render(strings.Join(parts, "  "))
}

// renderProjectSelector renders the project list
func (v BoardView) renderProjectSelector() string {
	t := theme.Current.Theme

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Switch Project:"))

	if v.projects == nil {
		lines = append(lines, v.spinner.View()+" loading projects")
	}
	current := v.board.Store().ProjectID()
	for i, p := range v.projects {
		style := lipgloss.NewStyle()
		if i == v.selectorCursor {
			style = style.Background(t.Highlight).Foreground(t.Foreground)
		}
		color := t.Secondary
		if p.Color != "" {
			color = lipgloss.Color(p.Color)
		}
		dot := lipgloss.NewStyle().Foreground(color).Render("●")
		name := p.Name
		if p.ID == current {
			name += " (current)"
		}
		lines = append(lines, style.Render(fmt.Sprintf(" %s %s  %d tasks", dot, name, p.TaskCount)))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render("j/k: navigate • enter: select • esc: cancel"))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
