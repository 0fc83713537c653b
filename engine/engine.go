// Package engine keeps the playback elements in line with the playback store.
//
// The store is the source of truth. The engine subscribes to it and reconciles the audio
// element, which is the timing master, and the muted video element, which follows the audio
// clock while video mode is on. Element events flow back into the store.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/player"
	"github.com/podtube-cli/podtube/store"
	"github.com/samber/mo"
)

// Resolver produces streams for items.
type Resolver interface {
	Resolve(ctx context.Context, item *media.Item) (*catalog.Streams, error)
	ResolveVideo(ctx context.Context, item *media.Item) (*media.VideoStream, error)
}

// ElementState is the lifecycle of one playback element.
type ElementState int

const (
	Idle ElementState = iota
	Loading
	Ready
	Playing
	Paused
	Ended
)

func (s ElementState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// hasSource reports whether commands can be sent to the element's current source.
func (s ElementState) hasSource() bool {
	return s != Idle
}

// ready reports whether the element finished loading its current source.
// Progress reports are only trusted in these states.
func (s ElementState) ready() bool {
	return s != Idle && s != Loading
}

// ErrStale is returned by Open when a newer item replaced the one being opened.
var ErrStale = errors.New("item replaced before its streams resolved")

// Engine is the media synchronization engine.
type Engine struct {
	store    *store.Store
	resolver Resolver
	audio    player.Element
	video    player.Element

	notify         func(error)
	driftThreshold float64

	mu sync.Mutex

	audioState  ElementState
	audioSrc    string
	videoState  ElementState
	videoSrc    string
	videoTime   float64
	pendingSeek mo.Option[float64]

	// loadSeq increments on every Open; only the latest Open may apply its result.
	loadSeq    uint64
	cancelLoad context.CancelFunc

	// itemGen increments whenever the current item changes.
	itemGen       uint64
	videoInflight bool
	cancelVideo   context.CancelFunc

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	closed      bool
}

type Option func(*Engine)

// WithNotifier sets the function receiving failures that prevent playback.
func WithNotifier(notify func(error)) Option {
	return func(e *Engine) {
		if notify != nil {
			e.notify = notify
		}
	}
}

// WithDriftThreshold sets how far, in seconds, video may drift from audio before it is corrected.
func WithDriftThreshold(seconds float64) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.driftThreshold = seconds
		}
	}
}

// New wires the elements to st. The elements are reused for every item and every view.
func New(st *store.Store, resolver Resolver, audio, video player.Element, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:          st,
		resolver:       resolver,
		audio:          audio,
		video:          video,
		notify:         func(error) {},
		driftThreshold: constant.DriftThreshold,
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(e)
	}

	audio.OnEvent(e.onAudioEvent)
	video.OnEvent(e.onVideoEvent)

	s := st.Snapshot()
	if err := audio.SetVolume(s.EffectiveVolume()); err != nil {
		log.Debugf("initial volume not applied: %s", err)
	}
	if err := video.SetMuted(true); err != nil {
		log.Debugf("video element not muted yet: %s", err)
	}

	e.unsubscribe = st.Subscribe(watched, e.onChange)
	return e
}

// AudioState returns the audio element's lifecycle state.
func (e *Engine) AudioState() ElementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audioState
}

// VideoState returns the video element's lifecycle state.
func (e *Engine) VideoState() ElementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.videoState
}

// Close cancels in-flight resolutions, waits for them and closes both elements.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.unsubscribe()
	e.cancel()
	e.wg.Wait()

	e.audio.OnEvent(nil)
	e.video.OnEvent(nil)

	return errors.Join(e.audio.Close(), e.video.Close())
}

// fail reports an error that prevented playback.
func (e *Engine) fail(err error) {
	log.Errorf("playback failed: %s", err)
	if me, ok := media.Classify(err); ok && !me.Surfaced() {
		return
	}
	e.notify(err)
}
