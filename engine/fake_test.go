package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/player"
)

type fakeElement struct {
	mu      sync.Mutex
	src     string
	loads   []string
	volume  float64
	muted   bool
	playing bool
	plays   int
	seeks   []float64
	clock   float64
	closed  bool
	handler func(player.Event)

	playErr error
	loadErr error
	onLoad  func(url string)
}

func newFakeElement() *fakeElement {
	return &fakeElement{volume: -1}
}

func (f *fakeElement) Load(url, _ string) error {
	f.mu.Lock()
	hook := f.onLoad
	if f.loadErr != nil {
		f.mu.Unlock()
		return f.loadErr
	}
	f.src = url
	f.loads = append(f.loads, url)
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (f *fakeElement) Unload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.src = ""
	f.playing = false
	return nil
}

func (f *fakeElement) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakeElement) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeElement) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	f.clock = seconds
	return nil
}

func (f *fakeElement) SetVolume(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}

func (f *fakeElement) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
	return nil
}

func (f *fakeElement) CurrentTime() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock, nil
}

func (f *fakeElement) OnEvent(handler func(player.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

func (f *fakeElement) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeElement) emit(ev player.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

type elementView struct {
	src     string
	loads   []string
	volume  float64
	muted   bool
	playing bool
	plays   int
	seeks   []float64
	closed  bool
}

func (f *fakeElement) snapshot() elementView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return elementView{
		src:     f.src,
		loads:   append([]string(nil), f.loads...),
		volume:  f.volume,
		muted:   f.muted,
		playing: f.playing,
		plays:   f.plays,
		seeks:   append([]float64(nil), f.seeks...),
		closed:  f.closed,
	}
}

// fakeResolver serves canned streams. A gated item blocks until its gate is closed, ignoring ctx.
type fakeResolver struct {
	mu       sync.Mutex
	streams  map[string]*catalog.Streams
	errs     map[string]error
	gates    map[string]chan struct{}
	started  map[string]chan struct{}
	video    *media.VideoStream
	videoErr error

	videoCalls   int
	videoGate    chan struct{}
	videoStarted chan struct{}
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		streams: make(map[string]*catalog.Streams),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (r *fakeResolver) serve(item *media.Item, bitrates ...int) {
	streams := &catalog.Streams{Title: item.Title}
	for _, b := range bitrates {
		streams.Audio = append(streams.Audio, &media.AudioStream{Stream: media.Stream{
			URL:     "https://cdn.example/" + item.ID + "/" + strconv.Itoa(b),
			Bitrate: b,
		}})
	}
	r.mu.Lock()
	r.streams[item.ID] = streams
	r.mu.Unlock()
}

func (r *fakeResolver) gate(item *media.Item) (started <-chan struct{}, release func()) {
	gate := make(chan struct{})
	s := make(chan struct{})
	r.mu.Lock()
	r.gates[item.ID] = gate
	r.started[item.ID] = s
	r.mu.Unlock()
	return s, func() { close(gate) }
}

func (r *fakeResolver) Resolve(_ context.Context, item *media.Item) (*catalog.Streams, error) {
	r.mu.Lock()
	gate := r.gates[item.ID]
	started := r.started[item.ID]
	streams, err := r.streams[item.ID], r.errs[item.ID]
	r.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if streams == nil || len(streams.Audio) == 0 {
		return nil, &media.Error{Kind: media.KindNoStreamsAvailable, SourceID: item.ID}
	}
	return streams, nil
}

// gateVideo blocks the next video resolutions until release is called.
func (r *fakeResolver) gateVideo() (started <-chan struct{}, release func()) {
	gate := make(chan struct{})
	s := make(chan struct{})
	r.mu.Lock()
	r.videoGate = gate
	r.videoStarted = s
	r.mu.Unlock()
	return s, func() { close(gate) }
}

func (r *fakeResolver) ResolveVideo(_ context.Context, item *media.Item) (*media.VideoStream, error) {
	r.mu.Lock()
	r.videoCalls++
	gate, started := r.videoGate, r.videoStarted
	r.videoStarted = nil
	r.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.videoErr != nil {
		return nil, r.videoErr
	}
	return r.video, nil
}

func (r *fakeResolver) videoResolutions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.videoCalls
}
