// Package ui holds the transient notification shown at the bottom of the player.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Lifetime is how long a notification stays visible.
const Lifetime = 3 * time.Second

// NotifyMsg shows Text as a notification.
type NotifyMsg struct {
	Text string
}

// clearMsg expires the notification with the same sequence number.
type clearMsg struct {
	seq int
}

// Notify returns a command that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg{Text: text}
	}
}

// Model shows at most one notification at a time; a newer one replaces the older.
type Model struct {
	text string
	seq  int
}

// Update handles notification messages and reports whether msg was consumed.
func (m *Model) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case NotifyMsg:
		m.seq++
		m.text = msg.Text
		seq := m.seq
		return tea.Tick(Lifetime, func(time.Time) tea.Msg {
			return clearMsg{seq: seq}
		}), true
	case clearMsg:
		if msg.seq == m.seq {
			m.text = ""
		}
		return nil, true
	}
	return nil, false
}

// Dismiss hides the current notification. It reports whether one was visible.
func (m *Model) Dismiss() bool {
	if m.text == "" {
		return false
	}
	m.text = ""
	return true
}

// Text returns the visible notification, empty when there is none.
func (m *Model) Text() string {
	return m.text
}
