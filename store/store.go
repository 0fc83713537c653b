// Package store holds the process-wide playback state and notifies subscribers of changes.
//
// One Store is created at startup and passed to every component that reads or writes playback state.
// Setters clamp out-of-range values instead of failing, and setting a field to its current value
// does not notify anyone.
package store

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/podtube-cli/podtube/media"
)

// Listener receives the full state after a mutation, together with the fields it changed.
type Listener func(s State, changed Field)

type subscription struct {
	mask   Field
	fn     Listener
	active atomic.Bool
}

type notification struct {
	state   State
	changed Field
}

// Store is the single source of truth for playback.
//
// Listeners run on the goroutine that performed the mutation. A mutation made by a listener,
// or by another goroutine while listeners are running, is queued and delivered after the current
// notification, so every listener observes changes in the order they were applied.
type Store struct {
	mu    sync.Mutex
	state State

	subs        []*subscription
	queue       []notification
	dispatching bool
}

type Option func(*State)

// WithVolume sets the initial volume, clamped to [0, 1].
func WithVolume(v float64) Option {
	return func(s *State) {
		s.Volume = clampVolume(v, s.Volume)
	}
}

// WithExpanded sets the initial expansion.
func WithExpanded(expanded bool) Option {
	return func(s *State) {
		s.IsExpanded = expanded
	}
}

func New(opts ...Option) *Store {
	st := &Store{state: initialState()}
	for _, opt := range opts {
		opt(&st.state)
	}
	return st
}

// Snapshot returns a copy of the current state.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Subscribe registers fn for mutations touching any field in mask.
// The returned function unsubscribes; after it returns fn is not invoked again.
func (st *Store) Subscribe(mask Field, fn Listener) (unsubscribe func()) {
	sub := &subscription{mask: mask, fn: fn}
	sub.active.Store(true)

	st.mu.Lock()
	st.subs = append(st.subs, sub)
	st.mu.Unlock()

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		st.mu.Lock()
		defer st.mu.Unlock()
		subs := make([]*subscription, 0, len(st.subs))
		for _, s := range st.subs {
			if s != sub {
				subs = append(subs, s)
			}
		}
		st.subs = subs
	}
}

// mutate applies fn under the lock and delivers the resulting change, if any.
func (st *Store) mutate(fn func(s *State) Field) {
	st.mu.Lock()
	changed := fn(&st.state)
	if changed == 0 {
		st.mu.Unlock()
		return
	}

	st.queue = append(st.queue, notification{state: st.state, changed: changed})
	if st.dispatching {
		st.mu.Unlock()
		return
	}
	st.dispatching = true
	st.mu.Unlock()

	st.drain()
}

func (st *Store) drain() {
	for {
		st.mu.Lock()
		if len(st.queue) == 0 {
			// cleared under the lock that saw the queue empty
			st.dispatching = false
			st.mu.Unlock()
			return
		}
		n := st.queue[0]
		st.queue[0] = notification{}
		st.queue = st.queue[1:]
		subs := st.subs
		st.mu.Unlock()

		for _, sub := range subs {
			if sub.mask&n.changed != 0 && sub.active.Load() {
				sub.fn(n.state, n.changed)
			}
		}
	}
}

func clampVolume(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(0, math.Min(1, v))
}

// switchItem replaces the current item and resets per-item fields in the same mutation.
func switchItem(s *State, item *media.Item) Field {
	if s.CurrentPodcast.Same(item) {
		return 0
	}

	changed := FieldPodcast
	s.CurrentPodcast = item
	if s.CurrentTime != 0 {
		s.CurrentTime = 0
		changed |= FieldCurrentTime
	}
	if s.Duration != DurationUnknown {
		s.Duration = DurationUnknown
		changed |= FieldDuration
	}
	if s.IsVideoMode {
		s.IsVideoMode = false
		changed |= FieldVideoMode
	}
	if s.VideoStream != nil {
		s.VideoStream = nil
		changed |= FieldVideoStream
	}
	if s.AudioStream != nil {
		s.AudioStream = nil
		changed |= FieldAudioStream
	}
	return changed
}
