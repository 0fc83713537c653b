package tui

import (
	"fmt"
	"strings"

	"github.com/podtube-cli/podtube/history"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/style"
)

// listItem adapts catalog items and history records to list.Item.
type listItem struct {
	internal any
	playing  bool
}

func (t *listItem) item() *media.Item {
	switch e := t.internal.(type) {
	case *media.Item:
		return e
	case *history.SavedItem:
		return e.Item()
	default:
		return nil
	}
}

func (t *listItem) Title() string {
	title := t.FilterValue()
	if t.playing {
		title = fmt.Sprintf("%s %s", title, style.Fg(style.AccentColor)(icon.Get(icon.Audio)))
	}
	return title
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *media.Item:
		parts := []string{e.Describe()}
		if e.UploadedLabel != "" {
			parts = append(parts, e.UploadedLabel)
		}
		if e.Views > 0 {
			parts = append(parts, fmt.Sprintf("%d views", e.Views))
		}
		return strings.Join(parts, " • ")
	case *history.SavedItem:
		progress := media.FormatClock(e.Position)
		if e.Finished() {
			progress = style.Fg(style.SuccessColor)("played")
		} else if e.Duration > 0 {
			progress = style.Fg(style.WarningColor)(fmt.Sprintf("%s / %s", progress, media.FormatClock(e.Duration)))
		}
		return fmt.Sprintf("%s • %s", e.Uploader, progress)
	default:
		return ""
	}
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *media.Item:
		return e.Title
	case *history.SavedItem:
		return e.Title
	default:
		return ""
	}
}
