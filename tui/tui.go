// Package tui is the interactive terminal interface: catalog browsing plus a collapsible player.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	"github.com/samber/mo"
)

// Player starts playback of an item.
type Player interface {
	Open(ctx context.Context, item *media.Item) error
}

// Catalog lists items to browse.
type Catalog interface {
	Search(ctx context.Context, query string) (*catalog.Page, error)
	Featured(ctx context.Context) (*catalog.Page, error)
	Newest(ctx context.Context) (*catalog.Page, error)
}

// SleepTimer arms and reports the sleep timer.
type SleepTimer interface {
	Cycle(presets []int)
	Remaining() mo.Option[time.Duration]
}

// Options carries the long-lived playback components. They outlive every view.
type Options struct {
	Store   *store.Store
	Player  Player
	Catalog Catalog
	Sleep   SleepTimer

	// Errors delivers playback failures to show as notifications.
	Errors <-chan error

	// Continue resumes the most recently played item.
	Continue bool
}

// Run blocks until the user quits.
func Run(ctx context.Context, options *Options) error {
	bubble := newBubble(ctx, options)
	defer bubble.close()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
