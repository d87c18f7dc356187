package ui

// View represents what fills the content area
type View int

const (
	ViewBoard View = iota
	ViewHelp
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewBoard:
		return "Board"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}
