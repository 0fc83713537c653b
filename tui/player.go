package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	"github.com/podtube-cli/podtube/style"
)

// miniPlayerHeight is the number of rows the collapsed player occupies.
const miniPlayerHeight = 2

var miniPlayerStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), true, false, false, false).
	BorderForeground(style.BorderColor).
	Padding(0, 2)

// viewMiniPlayer renders the collapsed player bar, empty when nothing is loaded.
func (b *statefulBubble) viewMiniPlayer() string {
	s := b.snapshot
	if s.CurrentPodcast == nil {
		return ""
	}

	parts := []string{
		fmt.Sprintf("%s %s", playIcon(s), style.Bold(s.CurrentPodcast.Title)),
		clock(s),
		volume(s),
	}
	if remaining := b.sleepRemaining(); remaining != "" {
		parts = append(parts, remaining)
	}

	line := strings.Join(parts, style.Faint(" • "))
	return miniPlayerStyle.Render(truncate.StringWithTail(line, uint(max(b.width, 0)), "…"))
}

// viewExpanded renders the full-screen player from the same snapshot as the mini player.
func (b *statefulBubble) viewExpanded() string {
	s := b.snapshot
	item := s.CurrentPodcast
	if item == nil {
		return b.renderLines(true, []string{
			style.Title("Now Playing"),
			"",
			style.Faint("Nothing is playing. Press e to go back and pick something."),
		})
	}

	uploader := item.UploaderName
	if item.UploaderVerified {
		uploader = fmt.Sprintf("%s %s", uploader, icon.Get(icon.Verified))
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		wordwrap.String(style.Bold(item.Title), b.width),
		style.Fg(style.SecondaryColor)(uploader),
		"",
		b.progressC.ViewAs(s.Progress()),
		fmt.Sprintf("%s  %s", playIcon(s), clock(s)),
		"",
		volume(s),
		mode(s),
	}
	if remaining := b.sleepRemaining(); remaining != "" {
		lines = append(lines, remaining)
	}
	if description := strings.TrimSpace(item.ShortDescription); description != "" {
		lines = append(lines, "", style.Faint(wordwrap.String(description, b.width)))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) sleepRemaining() string {
	remaining, ok := b.sleep.Remaining().Get()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %s", icon.Get(icon.Sleep), media.FormatClock(remaining.Round(time.Second).Seconds()))
}

func playIcon(s store.State) string {
	if s.IsPlaying {
		return icon.Get(icon.Play)
	}
	return icon.Get(icon.Pause)
}

func clock(s store.State) string {
	if !s.DurationKnown() {
		return media.FormatClock(s.CurrentTime)
	}
	return fmt.Sprintf("%s / %s", media.FormatClock(s.CurrentTime), media.FormatClock(s.Duration))
}

func volume(s store.State) string {
	if s.IsMuted {
		return fmt.Sprintf("%s muted", icon.Get(icon.Muted))
	}
	return fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), int(s.Volume*100+0.5))
}

func mode(s store.State) string {
	if !s.IsVideoMode {
		label := "audio"
		if s.AudioStream != nil {
			label = s.AudioStream.String()
		}
		return fmt.Sprintf("%s %s", icon.Get(icon.Audio), label)
	}
	label := "video (loading)"
	if s.VideoStream != nil {
		label = s.VideoStream.String()
	}
	return fmt.Sprintf("%s %s", icon.Get(icon.Video), label)
}
