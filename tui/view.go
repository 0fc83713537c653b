package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/style"
)

var (
	paddingStyle      = lipgloss.NewStyle().Padding(1, 2)
	notificationStyle = lipgloss.NewStyle().Foreground(style.FaintColor).Italic(true)
)

func (b *statefulBubble) View() string {
	if b.snapshot.IsExpanded {
		return b.withNotification(b.viewExpanded())
	}

	var output string
	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case errorState:
		output = b.viewError()
	case listState:
		output = b.viewList()
	case searchState:
		output = b.viewSearch()
	}

	if bar := b.viewMiniPlayer(); bar != "" {
		output = lipgloss.JoinVertical(lipgloss.Left, output, bar)
	}
	return b.withNotification(output)
}

func (b *statefulBubble) withNotification(view string) string {
	text := b.notifier.Text()
	if text == "" {
		return view
	}
	return view + "\n" + paddingStyle.Render(notificationStyle.Render(text))
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(true, []string{
		style.Title("Loading"),
		"",
		b.spinnerC.View() + " " + b.loadingStatus,
	})
}

func (b *statefulBubble) viewError() string {
	body := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true).Render(b.lastError.Error())
	return b.renderLines(true, []string{
		style.ErrorTitle("Error"),
		"",
		icon.Get(icon.Fail) + " Something went wrong:",
		"",
		wrap.String(body, b.width),
	})
}

func (b *statefulBubble) viewList() string {
	return lipgloss.NewStyle().Padding(1, 2, 0, 0).Render(b.listC.View())
}

func (b *statefulBubble) viewSearch() string {
	lines := []string{
		style.Title("Search"),
		"",
		b.inputC.View(),
	}
	if suggestion, ok := b.searchSuggestion.Get(); ok && suggestion != strings.TrimSpace(b.inputC.Value()) {
		lines = append(lines, "", style.Faint(fmt.Sprintf("%s %s", icon.Get(icon.Search), suggestion)))
	}
	return b.renderLines(true, lines)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if free := b.height - h - miniPlayerHeight; free > 0 {
			l += strings.Repeat("\n", free)
		}
		l += b.helpC.View(b.keymap)
	}
	return paddingStyle.Render(l)
}
