package history

import (
	"sync"

	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
)

type checkpoint struct {
	item     *media.Item
	position float64
	duration float64
}

// save is replaced in tests to stall writes.
var save = Save

// Recorder saves the position of the current item when playback pauses and when the item is replaced.
// Writes happen on a background goroutine, in the order they were recorded. Recording never waits for a write.
type Recorder struct {
	unsubscribe func()

	mu     sync.Mutex
	last   store.State
	queue  []checkpoint
	closed bool

	wake chan struct{}
	done chan struct{}
}

// Record starts recording st.
func Record(st *store.Store) *Recorder {
	r := &Recorder{
		last: st.Snapshot(),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()

	mask := store.FieldPodcast | store.FieldPlaying | store.FieldCurrentTime | store.FieldDuration
	r.unsubscribe = st.Subscribe(mask, r.observe)
	return r
}

func (r *Recorder) observe(state store.State, changed store.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	prev := r.last
	r.last = state

	switch {
	case changed.Has(store.FieldPodcast):
		if prev.CurrentPodcast != nil {
			r.enqueue(prev)
		}
	case changed.Has(store.FieldPlaying) && !state.IsPlaying:
		r.enqueue(state)
	}
}

// enqueue must be called with r.mu held.
func (r *Recorder) enqueue(state store.State) {
	if state.CurrentPodcast == nil {
		return
	}
	r.queue = append(r.queue, checkpoint{
		item:     state.CurrentPodcast,
		position: state.CurrentTime,
		duration: state.Duration,
	})
	r.signal()
}

func (r *Recorder) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Recorder) loop() {
	defer close(r.done)
	for range r.wake {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		closed := r.closed
		r.mu.Unlock()

		for _, c := range batch {
			if err := save(c.item, c.position, c.duration); err != nil {
				log.WithField("source_id", c.item.ID).Warnf("save history: %s", err)
			}
		}
		if closed {
			return
		}
	}
}

// Close saves the current position, stops recording and waits for pending writes.
func (r *Recorder) Close() {
	r.unsubscribe()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.enqueue(r.last)
	r.signal()
	r.mu.Unlock()

	<-r.done
}
