package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/internal/ui"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	"github.com/podtube-cli/podtube/style"
	"github.com/podtube-cli/podtube/util"
	"github.com/samber/mo"
)

type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]
	keymap        *keymap

	ctx     context.Context
	store   *store.Store
	player  Player
	catalog Catalog
	sleep   SleepTimer
	errors  <-chan error

	// snapshot is the store state the views render; refreshed on every store change.
	snapshot    store.State
	changes     chan struct{}
	unsubscribe func()

	spinnerC  spinner.Model
	inputC    textinput.Model
	listC     list.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	loadingStatus    string
	lastError        error
	searchSuggestion mo.Option[string]

	// resume is the position to seek to once the item being continued has loaded.
	resume       mo.Option[float64]
	resumeItem   *media.Item
	continueLast bool

	width, height int
}

func newBubble(ctx context.Context, options *Options) *statefulBubble {
	b := &statefulBubble{
		keymap:       newKeymap(),
		ctx:          ctx,
		store:        options.Store,
		player:       options.Player,
		catalog:      options.Catalog,
		sleep:        options.Sleep,
		errors:       options.Errors,
		snapshot:     options.Store.Snapshot(),
		changes:      make(chan struct{}, 1),
		notifier:     &ui.Model{},
		continueLast: options.Continue,
	}

	// Coalesce store notifications: the view only needs to know that something changed.
	b.unsubscribe = b.store.Subscribe(store.FieldAll, func(store.State, store.Field) {
		select {
		case b.changes <- struct{}{}:
		default:
		}
	})

	b.helpC = help.New()

	b.spinnerC = spinner.New()
	b.spinnerC.Spinner = spinner.Dot
	b.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	b.inputC = textinput.New()
	b.inputC.Placeholder = fmt.Sprintf("Search podcasts and videos (v%s)", constant.Version)
	b.inputC.CharLimit = 80
	b.inputC.Prompt = "> "

	b.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	b.listC = list.New(nil, delegate, 0, 0)
	b.listC.KeyMap = b.keymap.forList()
	b.listC.AdditionalShortHelpKeys = b.keymap.ShortHelp
	b.listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return b.keymap.FullHelp()[0]
	}
	b.listC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(style.AccentColor).Padding(0, 1)
	b.listC.SetFilteringEnabled(false)
	b.listC.SetShowStatusBar(false)
	b.listC.SetStatusBarItemName("item", "items")

	if w, h, err := util.TerminalSize(); err == nil {
		b.resize(w, h)
	}

	b.setState(loadingState)
	return b
}

func (b *statefulBubble) close() {
	b.unsubscribe()
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s, b.snapshot.IsExpanded)
	if s == searchState {
		b.inputC.Focus()
	} else {
		b.inputC.Blur()
	}
}

// newState moves to s, remembering the current view for back navigation.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}
	if b.state != loadingState && b.state != errorState {
		b.statesHistory.Push(b.state)
	}
	b.setState(s)
}

func (b *statefulBubble) previousState() bool {
	if b.statesHistory.Len() == 0 {
		return false
	}
	b.setState(b.statesHistory.Pop())
	return true
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	b.width = width - x
	b.height = height - y

	b.listC.SetSize(b.width, max(b.height-miniPlayerHeight, 0))
	b.listC.Help.Width = b.width
	b.helpC.Width = b.width
	b.inputC.Width = b.width
	b.progressC.Width = b.width
}

// refresh re-reads the store and keeps the list's now-playing marker in step.
func (b *statefulBubble) refresh() {
	b.snapshot = b.store.Snapshot()
	b.keymap.setState(b.state, b.snapshot.IsExpanded)

	for _, it := range b.listC.Items() {
		if li, ok := it.(*listItem); ok {
			li.playing = li.item().Same(b.snapshot.CurrentPodcast)
		}
	}
}
