package tui

import (
	"fmt"
	"strings"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/podtube-cli/podtube/history"
	"github.com/podtube-cli/podtube/internal/ui"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/open"
	"github.com/podtube-cli/podtube/query"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

func (b *statefulBubble) Init() tea.Cmd {
	b.loadingStatus = "Loading featured"
	cmds := []tea.Cmd{
		b.spinnerC.Tick,
		b.waitForStore(),
		b.waitForError(),
		tick(),
		b.featured(),
	}
	if b.continueLast {
		cmds = append(cmds, b.continueLastPlayed())
	}
	return tea.Batch(cmds...)
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, handled := b.notifier.Update(msg); handled {
		return b, cmd
	}

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, nil
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case storeChangedMsg:
		b.refresh()
		return b, b.waitForStore()
	case playbackErrorMsg:
		cmd, _ := b.notifier.Update(ui.NotifyMsg{Text: notification(msg.err)})
		return b, tea.Batch(cmd, b.waitForError())
	case openedMsg:
		b.onOpened(msg)
		return b, nil
	case tickMsg:
		return b, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case pageMsg:
		b.listC.Title = msg.title
		cmd := b.listC.SetItems(msg.items)
		b.listC.ResetSelected()
		b.refresh()
		b.newState(listState)
		return b, cmd
	case tea.KeyMsg:
		return b.updateKey(msg)
	}

	return b.updateComponents(msg)
}

func (b *statefulBubble) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if bubblesKey.Matches(msg, b.keymap.forceQuit) {
		return b, tea.Quit
	}

	if bubblesKey.Matches(msg, b.keymap.back) && b.notifier.Dismiss() {
		return b, nil
	}

	if b.snapshot.IsExpanded {
		return b.updateExpanded(msg)
	}

	switch b.state {
	case searchState:
		return b.updateSearch(msg)
	case listState:
		return b.updateList(msg)
	case loadingState:
		if bubblesKey.Matches(msg, b.keymap.back) && b.previousState() {
			return b, nil
		}
	case errorState:
		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			if !b.previousState() {
				b.setState(loadingState)
				return b, b.featured()
			}
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		}
	}

	if cmd, ok := b.handlePlayerKey(msg); ok {
		return b, cmd
	}
	return b, nil
}

// updateExpanded handles keys while the full-screen player is shown.
// Collapsing only flips the store flag; playback is untouched.
func (b *statefulBubble) updateExpanded(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case bubblesKey.Matches(msg, b.keymap.back):
		b.store.SetExpanded(false)
		b.refresh()
		return b, nil
	case bubblesKey.Matches(msg, b.keymap.quit):
		return b, tea.Quit
	}

	cmd, _ := b.handlePlayerKey(msg)
	return b, cmd
}

// handlePlayerKey applies a playback key to the store. It reports whether msg was a playback key.
func (b *statefulBubble) handlePlayerKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	hasItem := b.snapshot.CurrentPodcast != nil

	switch {
	case bubblesKey.Matches(msg, b.keymap.expand):
		b.store.ToggleExpanded()
	case bubblesKey.Matches(msg, b.keymap.playPause):
		if hasItem {
			b.store.TogglePlaying()
		}
	case bubblesKey.Matches(msg, b.keymap.seekBack):
		b.store.SeekBy(-viper.GetFloat64(key.PlayerSeekStep))
	case bubblesKey.Matches(msg, b.keymap.seekForward):
		b.store.SeekBy(viper.GetFloat64(key.PlayerSeekStep))
	case bubblesKey.Matches(msg, b.keymap.volumeUp):
		b.store.SetVolume(b.snapshot.Volume + viper.GetFloat64(key.PlayerVolumeStep)/100)
	case bubblesKey.Matches(msg, b.keymap.volumeDown):
		b.store.SetVolume(b.snapshot.Volume - viper.GetFloat64(key.PlayerVolumeStep)/100)
	case bubblesKey.Matches(msg, b.keymap.mute):
		b.store.ToggleMute()
	case bubblesKey.Matches(msg, b.keymap.videoMode):
		if !hasItem {
			return ui.Notify("Nothing is playing"), true
		}
		b.store.ToggleVideoMode()
	case bubblesKey.Matches(msg, b.keymap.sleep):
		b.sleep.Cycle(viper.GetIntSlice(key.SleepPresets))
		if minutes, ok := b.store.Snapshot().SleepMinutes().Get(); ok {
			return ui.Notify(fmt.Sprintf("Pausing in %d minutes", minutes)), true
		}
		return ui.Notify("Sleep timer off"), true
	case bubblesKey.Matches(msg, b.keymap.openURL):
		if !hasItem {
			return nil, true
		}
		id, err := b.snapshot.CurrentPodcast.SourceID()
		if err != nil {
			return ui.Notify(notification(err)), true
		}
		if err := open.Start(media.WatchURL(id)); err != nil {
			log.Warnf("open browser: %s", err)
			return ui.Notify("Could not open the browser"), true
		}
	default:
		return nil, false
	}

	// render the change without waiting for the store notification
	b.refresh()
	return nil, true
}

func (b *statefulBubble) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case bubblesKey.Matches(msg, b.keymap.confirm):
		selected, ok := b.listC.SelectedItem().(*listItem)
		if !ok || selected.item() == nil {
			return b, nil
		}
		item := selected.item()
		if record, ok := selected.internal.(*history.SavedItem); ok && record.Resume() > 0 {
			b.resume = mo.Some(record.Resume())
			b.resumeItem = item
		}
		return b, b.play(item)
	case bubblesKey.Matches(msg, b.keymap.search):
		b.inputC.SetValue("")
		b.searchSuggestion = mo.None[string]()
		b.newState(searchState)
		return b, nil
	case bubblesKey.Matches(msg, b.keymap.featured):
		b.loadingStatus = "Loading featured"
		b.setState(loadingState)
		return b, tea.Batch(b.spinnerC.Tick, b.featured())
	case bubblesKey.Matches(msg, b.keymap.newest):
		b.loadingStatus = "Loading newest"
		b.setState(loadingState)
		return b, tea.Batch(b.spinnerC.Tick, b.newest())
	case bubblesKey.Matches(msg, b.keymap.history):
		b.setState(loadingState)
		return b, b.loadHistory()
	case bubblesKey.Matches(msg, b.keymap.back):
		b.previousState()
		return b, nil
	}

	if cmd, ok := b.handlePlayerKey(msg); ok {
		return b, cmd
	}

	var cmd tea.Cmd
	b.listC, cmd = b.listC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case bubblesKey.Matches(msg, b.keymap.confirm):
		q := strings.TrimSpace(b.inputC.Value())
		if q == "" {
			return b, nil
		}
		b.loadingStatus = fmt.Sprintf("Searching for %q", q)
		b.newState(loadingState)
		return b, tea.Batch(b.spinnerC.Tick, b.search(q))
	case bubblesKey.Matches(msg, b.keymap.acceptSuggestion):
		if suggestion, ok := b.searchSuggestion.Get(); ok {
			b.inputC.SetValue(suggestion)
			b.inputC.CursorEnd()
		}
		return b, nil
	case bubblesKey.Matches(msg, b.keymap.back):
		if !b.previousState() {
			b.setState(listState)
		}
		return b, nil
	}

	var cmd tea.Cmd
	b.inputC, cmd = b.inputC.Update(msg)
	b.searchSuggestion = query.Suggest(b.inputC.Value())
	return b, cmd
}

// updateComponents forwards non-key messages, such as cursor blinks, to the active component.
func (b *statefulBubble) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch b.state {
	case searchState:
		b.inputC, cmd = b.inputC.Update(msg)
	case listState:
		b.listC, cmd = b.listC.Update(msg)
	}
	return b, cmd
}
