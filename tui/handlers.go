package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/engine"
	"github.com/podtube-cli/podtube/history"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/query"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type pageMsg struct {
	title string
	items []list.Item
}

type openedMsg struct {
	item *media.Item
	err  error
}

type playbackErrorMsg struct {
	err error
}

type storeChangedMsg struct{}

type tickMsg time.Time

func (b *statefulBubble) waitForStore() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.changes:
			return storeChangedMsg{}
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) waitForError() tea.Cmd {
	if b.errors == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case err := <-b.errors:
			return playbackErrorMsg{err: err}
		case <-b.ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (b *statefulBubble) fetch(title string, fetch func(ctx context.Context) (*catalog.Page, error)) tea.Cmd {
	return func() tea.Msg {
		page, err := fetch(b.ctx)
		if err != nil {
			return err
		}
		return pageMsg{
			title: title,
			items: lo.Map(page.Items, func(item *media.Item, _ int) list.Item {
				return &listItem{internal: item}
			}),
		}
	}
}

func (b *statefulBubble) featured() tea.Cmd {
	return b.fetch("Featured", b.catalog.Featured)
}

func (b *statefulBubble) newest() tea.Cmd {
	return b.fetch("Newest", b.catalog.Newest)
}

func (b *statefulBubble) search(q string) tea.Cmd {
	if err := query.Remember(q, 1); err != nil {
		log.Warnf("remember query: %s", err)
	}
	return b.fetch("Results for "+q, func(ctx context.Context) (*catalog.Page, error) {
		return b.catalog.Search(ctx, q)
	})
}

func (b *statefulBubble) loadHistory() tea.Cmd {
	return func() tea.Msg {
		records, err := history.Recent()
		if err != nil {
			return err
		}
		return pageMsg{
			title: "History",
			items: lo.Map(records, func(r *history.SavedItem, _ int) list.Item {
				return &listItem{internal: r}
			}),
		}
	}
}

// play opens item on the engine. Failures worth showing arrive through the error channel.
func (b *statefulBubble) play(item *media.Item) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{item: item, err: b.player.Open(b.ctx, item)}
	}
}

// continueLastPlayed plays the most recently saved item and seeks to where it was left.
func (b *statefulBubble) continueLastPlayed() tea.Cmd {
	record, ok := history.Last().Get()
	if !ok {
		return nil
	}
	item := record.Item()
	if pos := record.Resume(); pos > 0 {
		b.resume = mo.Some(pos)
		b.resumeItem = item
	}
	return b.play(item)
}

func (b *statefulBubble) onOpened(msg openedMsg) {
	resume, pending := b.resume.Get()
	if pending && msg.item.Same(b.resumeItem) {
		b.resume = mo.None[float64]()
		b.resumeItem = nil
		if msg.err == nil {
			b.store.Seek(resume)
		}
	}

	if msg.err != nil && !errors.Is(msg.err, engine.ErrStale) && !errors.Is(msg.err, context.Canceled) {
		log.WithField("source_id", msg.item.ID).Warnf("open: %s", msg.err)
	}
}

func notification(err error) string {
	if e, ok := media.Classify(err); ok {
		return e.UserMessage()
	}
	return err.Error()
}
