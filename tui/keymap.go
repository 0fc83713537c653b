package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
)

type keymap struct {
	state    state
	expanded bool

	quit, forceQuit,
	back, confirm, acceptSuggestion,
	up, down, pageUp, pageDown, top, bottom,
	search, featured, newest, history,
	playPause, seekBack, seekForward,
	volumeUp, volumeDown, mute,
	videoMode, expand, sleep, openURL,
	showHelp key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		acceptSuggestion: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "accept suggestion"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		pageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "prev page"),
		),
		pageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "next page"),
		),
		top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		featured: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "featured"),
		),
		newest: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "newest"),
		),
		history: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "rewind"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "forward"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		videoMode: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "video"),
		),
		expand: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand/collapse"),
		),
		sleep: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sleep timer"),
		),
		openURL: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *keymap) setState(s state, expanded bool) {
	k.state = s
	k.expanded = expanded
}

// playerKeys are the bindings that control playback from any view except text input.
func (k *keymap) playerKeys() []key.Binding {
	return []key.Binding{
		k.playPause, k.seekBack, k.seekForward,
		k.volumeUp, k.volumeDown, k.mute,
		k.videoMode, k.expand, k.sleep, k.openURL,
	}
}

func (k *keymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	if k.expanded {
		short := h(k.playPause, k.seekBack, k.seekForward, k.expand, k.sleep, k.quit)
		return short, append(k.playerKeys(), k.back, k.quit)
	}

	switch k.state {
	case loadingState:
		return h(k.forceQuit, k.back), h(k.forceQuit, k.back)
	case searchState:
		return h(k.confirm, k.acceptSuggestion, k.back), h(k.confirm, k.acceptSuggestion, k.back, k.forceQuit)
	case listState:
		short := h(k.confirm, k.playPause, k.expand, k.search)
		return short, append(h(k.confirm, k.search, k.featured, k.newest, k.history, k.back), k.playerKeys()...)
	case errorState:
		return h(k.back, k.quit), h(k.back, k.quit)
	default:
		return nil, nil
	}
}

func (k *keymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *keymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}

// forList maps the list component onto keys that do not collide with the player's.
func (k *keymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:      k.up,
		CursorDown:    k.down,
		NextPage:      k.pageDown,
		PrevPage:      k.pageUp,
		GoToStart:     k.top,
		GoToEnd:       k.bottom,
		ShowFullHelp:  k.showHelp,
		CloseFullHelp: k.showHelp,
		Quit:          k.quit,
		ForceQuit:     k.forceQuit,
	}
}
