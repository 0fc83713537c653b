// Package style holds the lipgloss helpers and palette shared by the CLI and the TUI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/podtube-cli/podtube/color"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored returns a style with the given foreground and background.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a renderer applying the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a padded header block.
var Title = func(s string) string {
	return Colored(color.New("230"), AccentColor).Bold(true).Padding(0, 1).Render(s)
}

// ErrorTitle renders a padded header block in the error color.
var ErrorTitle = func(s string) string {
	return Colored(Base, ErrorColor).Bold(true).Padding(0, 1).Render(s)
}
