package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/player"
	"github.com/podtube-cli/podtube/resolver"
	"github.com/podtube-cli/podtube/store"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	episodeA = &media.Item{ID: "aaaaaaaaaaa", URL: "/watch?v=aaaaaaaaaaa", Title: "A"}
	episodeB = &media.Item{ID: "bbbbbbbbbbb", URL: "/watch?v=bbbbbbbbbbb", Title: "B"}
	videoA   = &media.VideoStream{Stream: media.Stream{URL: "https://cdn.example/aaaaaaaaaaa/480p", Quality: "480p"}}
)

type fixture struct {
	st    *store.Store
	res   *fakeResolver
	audio *fakeElement
	video *fakeElement
	eng   *Engine

	mu       sync.Mutex
	notified []error
}

func newFixture(r Resolver) *fixture {
	f := &fixture{
		st:    store.New(),
		res:   newFakeResolver(),
		audio: newFakeElement(),
		video: newFakeElement(),
	}
	if r == nil {
		r = f.res
	}
	f.eng = New(f.st, r, f.audio, f.video, WithNotifier(func(err error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.notified = append(f.notified, err)
	}))
	return f
}

func (f *fixture) notifications() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.notified...)
}

// wait blocks until background resolutions settle.
func (f *fixture) wait() {
	f.eng.wg.Wait()
}

func TestEffectiveVolume(t *testing.T) {
	Convey("Given an engine", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()

		Convey("The audio element should start at the store volume", func() {
			So(f.audio.snapshot().volume, ShouldEqual, 1)
			So(f.video.snapshot().muted, ShouldBeTrue)
		})

		Convey("The applied volume should equal muted ? 0 : volume", func() {
			for _, v := range []float64{0, 0.1, 0.5, 0.9, 1} {
				for _, muted := range []bool{false, true} {
					f.st.SetVolume(v)
					f.st.SetMuted(muted)
					want := v
					if muted {
						want = 0
					}
					So(f.audio.snapshot().volume, ShouldEqual, want)
				}
			}
		})

		Convey("Volume changes while muted should stay silent", func() {
			f.st.SetVolume(0.5)
			f.st.ToggleMute()
			f.st.SetVolume(0.5)
			So(f.audio.snapshot().volume, ShouldEqual, 0)

			f.st.SetVolume(0.7)
			So(f.audio.snapshot().volume, ShouldEqual, 0)

			f.st.ToggleMute()
			So(f.audio.snapshot().volume, ShouldEqual, 0.7)
		})
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given an item with three audio streams", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 256000, 64000, 128000)

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)

		Convey("The median stream should be loaded and played", func() {
			s := f.st.Snapshot()
			So(s.AudioStream.Bitrate, ShouldEqual, 128000)
			So(s.IsPlaying, ShouldBeTrue)

			audio := f.audio.snapshot()
			So(audio.src, ShouldEqual, s.AudioStream.URL)
			So(audio.playing, ShouldBeTrue)
			So(f.eng.AudioState(), ShouldEqual, Loading)
		})

		Convey("Element reports should flow into the store", func() {
			f.audio.emit(player.Event{Kind: player.EventLoaded})
			So(f.eng.AudioState(), ShouldEqual, Ready)
			f.audio.emit(player.Event{Kind: player.EventDurationChange, Duration: 300})
			f.audio.emit(player.Event{Kind: player.EventPlaying})
			f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 12.5})

			So(f.st.Duration(), ShouldEqual, 300)
			So(f.st.CurrentTime(), ShouldEqual, 12.5)
			So(f.eng.AudioState(), ShouldEqual, Playing)
		})

		Convey("Pausing should pause the element", func() {
			f.st.SetIsPlaying(false)
			So(f.audio.snapshot().playing, ShouldBeFalse)
		})

		Convey("The end of the media should drop the play intent", func() {
			f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 300})
			f.audio.emit(player.Event{Kind: player.EventEnded})
			So(f.st.IsPlaying(), ShouldBeFalse)
			So(f.eng.AudioState(), ShouldEqual, Ended)

			Convey("Playing again should rewind", func() {
				f.st.SetIsPlaying(true)
				So(f.audio.snapshot().seeks, ShouldResemble, []float64{0})
			})
		})
	})

	Convey("Given an item without streams", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()

		err := f.eng.Open(ctx, episodeA)

		Convey("The failure should be surfaced once and playback stopped", func() {
			So(errors.Is(err, media.ErrNoStreamsAvailable), ShouldBeTrue)
			So(f.notifications(), ShouldHaveLength, 1)
			So(f.st.IsPlaying(), ShouldBeFalse)
			So(f.st.CurrentPodcast(), ShouldEqual, episodeA)
		})
	})

	Convey("Given an item whose link has no identifier", t, func() {
		f := newFixture(resolver.New(nil))
		defer f.eng.Close()

		err := f.eng.Open(ctx, &media.Item{URL: "https://example.com/show/1", Title: "Broken"})
		So(errors.Is(err, media.ErrInvalidSource), ShouldBeTrue)
		So(f.notifications(), ShouldHaveLength, 1)
	})

	Convey("Given an audio element that rejects play", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 128000)
		f.audio.playErr = errors.New("autoplay blocked")

		err := f.eng.Open(ctx, episodeA)

		Convey("The play intent should be reset without surfacing anything", func() {
			So(err, ShouldBeNil)
			So(f.audio.snapshot().plays, ShouldEqual, 1)
			So(f.st.IsPlaying(), ShouldBeFalse)
			So(f.notifications(), ShouldBeEmpty)
		})
	})

	Convey("Given the user pauses while streams are resolving", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 128000)
		started, release := f.res.gate(episodeA)

		done := make(chan error, 1)
		go func() { done <- f.eng.Open(ctx, episodeA) }()
		<-started
		f.st.SetIsPlaying(false)
		release()

		Convey("The stream should load without playing", func() {
			So(<-done, ShouldBeNil)
			So(f.audio.snapshot().src, ShouldNotBeEmpty)
			So(f.audio.snapshot().plays, ShouldEqual, 0)
			So(f.st.IsPlaying(), ShouldBeFalse)
		})
	})
}

func TestStaleResolution(t *testing.T) {
	ctx := context.Background()

	Convey("Given A is still resolving when B is opened", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		f.res.serve(episodeB, 96000)
		started, release := f.res.gate(episodeA)

		done := make(chan error, 1)
		go func() { done <- f.eng.Open(ctx, episodeA) }()
		<-started

		So(f.eng.Open(ctx, episodeB), ShouldBeNil)
		bStream := f.st.AudioStream()

		release()
		err := <-done

		Convey("A's result should not touch the store", func() {
			So(errors.Is(err, ErrStale), ShouldBeTrue)
			So(f.st.CurrentPodcast(), ShouldEqual, episodeB)
			So(f.st.AudioStream(), ShouldEqual, bStream)
			So(f.audio.snapshot().loads, ShouldResemble, []string{bStream.URL})
			So(f.notifications(), ShouldBeEmpty)
		})
	})
}

func TestItemSwitch(t *testing.T) {
	ctx := context.Background()

	Convey("Given A playing in video mode at 2:00", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		f.res.serve(episodeB, 64000)
		f.res.video = videoA

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})
		f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 120})
		f.st.SetVideoMode(true)
		f.wait()
		So(f.video.snapshot().src, ShouldEqual, videoA.URL)

		var atLoad store.State
		f.audio.onLoad = func(string) { atLoad = f.st.Snapshot() }

		So(f.eng.Open(ctx, episodeB), ShouldBeNil)

		Convey("Position and video mode should be reset before B's source is assigned", func() {
			So(atLoad.CurrentPodcast, ShouldEqual, episodeB)
			So(atLoad.CurrentTime, ShouldEqual, 0)
			So(atLoad.IsVideoMode, ShouldBeFalse)
			So(atLoad.VideoStream, ShouldBeNil)
			So(atLoad.DurationKnown(), ShouldBeFalse)
		})

		Convey("The video element should be released", func() {
			So(f.video.snapshot().src, ShouldBeEmpty)
			So(f.eng.VideoState(), ShouldEqual, Idle)
		})
	})
}

func TestStaleProgress(t *testing.T) {
	ctx := context.Background()

	Convey("Given A at 2:00 when B is opened", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		f.res.serve(episodeB, 96000)

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})
		f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 120})
		So(f.st.CurrentTime(), ShouldEqual, 120)

		started, release := f.res.gate(episodeB)
		done := make(chan error, 1)
		go func() { done <- f.eng.Open(ctx, episodeB) }()
		<-started

		Convey("Reports from A's source should not reach B while B resolves", func() {
			f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 121})
			f.audio.emit(player.Event{Kind: player.EventDurationChange, Duration: 600})
			f.audio.emit(player.Event{Kind: player.EventEnded})

			So(f.st.CurrentPodcast(), ShouldEqual, episodeB)
			So(f.st.CurrentTime(), ShouldEqual, 0)
			So(f.st.Snapshot().DurationKnown(), ShouldBeFalse)
			So(f.st.IsPlaying(), ShouldBeTrue)
			So(f.eng.AudioState(), ShouldEqual, Idle)

			release()
			So(<-done, ShouldBeNil)
		})

		Convey("Reports from A's source should not reach B while B loads", func() {
			release()
			So(<-done, ShouldBeNil)
			So(f.eng.AudioState(), ShouldEqual, Loading)

			f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 122})
			f.audio.emit(player.Event{Kind: player.EventDurationChange, Duration: 600})
			So(f.st.CurrentTime(), ShouldEqual, 0)
			So(f.st.Snapshot().DurationKnown(), ShouldBeFalse)

			Convey("B's own reports should apply once it is loaded", func() {
				f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 300})
				f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 3})

				So(f.eng.AudioState(), ShouldEqual, Ready)
				So(f.st.Duration(), ShouldEqual, 300)
				So(f.st.CurrentTime(), ShouldEqual, 3)
			})
		})
	})
}

func TestOpenWithoutItem(t *testing.T) {
	Convey("Opening no item should fail without touching the store", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()

		var err error
		So(func() { err = f.eng.Open(context.Background(), nil) }, ShouldNotPanic)
		So(errors.Is(err, media.ErrInvalidSource), ShouldBeTrue)
		So(f.notifications(), ShouldHaveLength, 1)
		So(f.st.CurrentPodcast(), ShouldBeNil)
		So(f.st.IsPlaying(), ShouldBeFalse)
		So(f.audio.snapshot().loads, ShouldBeEmpty)
	})
}

func TestReopen(t *testing.T) {
	ctx := context.Background()

	Convey("Given A paused at 2:00", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})
		f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 120})
		f.st.SetIsPlaying(false)
		stream := f.st.AudioStream()

		Convey("Opening A again should resume in place", func() {
			f.res.errs[episodeA.ID] = errors.New("must not be resolved again")
			So(f.eng.Open(ctx, episodeA), ShouldBeNil)

			So(f.st.IsPlaying(), ShouldBeTrue)
			So(f.st.CurrentTime(), ShouldEqual, 120)
			So(f.st.AudioStream(), ShouldEqual, stream)
			So(f.audio.snapshot().loads, ShouldHaveLength, 1)
			So(f.audio.snapshot().playing, ShouldBeTrue)
			So(f.eng.AudioState(), ShouldEqual, Ready)
		})

		Convey("Opening A again after its element failed should load it again", func() {
			f.audio.emit(player.Event{Kind: player.EventError, Err: player.ErrNotRunning})
			So(f.eng.Open(ctx, episodeA), ShouldBeNil)

			So(f.audio.snapshot().loads, ShouldHaveLength, 2)
			So(f.eng.AudioState(), ShouldEqual, Loading)
		})
	})
}

func TestVideoMode(t *testing.T) {
	ctx := context.Background()

	Convey("Given an item playing audio", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})
		f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 30})

		Convey("When video resolution fails", func() {
			f.res.videoErr = &media.Error{Kind: media.KindVideoResolution}
			f.st.SetVideoMode(true)
			f.wait()

			Convey("Video mode should be dropped and audio keep playing", func() {
				So(f.st.IsVideoMode(), ShouldBeFalse)
				So(f.st.IsPlaying(), ShouldBeTrue)
				So(f.audio.snapshot().playing, ShouldBeTrue)
				So(f.notifications(), ShouldBeEmpty)
			})
		})

		Convey("When video resolves", func() {
			f.res.video = videoA
			f.st.SetVideoMode(true)
			f.wait()

			video := f.video.snapshot()
			So(video.src, ShouldEqual, videoA.URL)
			So(video.muted, ShouldBeTrue)
			So(video.playing, ShouldBeTrue)
			So(f.eng.VideoState(), ShouldEqual, Loading)
			f.video.emit(player.Event{Kind: player.EventLoaded})
			f.video.emit(player.Event{Kind: player.EventTimeUpdate, Time: 30})
			So(f.eng.VideoState(), ShouldEqual, Ready)

			Convey("Small drift should be tolerated", func() {
				before := len(f.video.snapshot().seeks)
				f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 30.4})
				So(f.video.snapshot().seeks, ShouldHaveLength, before)
			})

			Convey("Drift beyond half a second should move video to the audio clock", func() {
				f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 31})
				seeks := f.video.snapshot().seeks
				So(seeks[len(seeks)-1], ShouldEqual, 31)
			})

			Convey("A user seek should reach both elements with the same clamping", func() {
				f.st.Seek(900)
				So(f.audio.snapshot().seeks, ShouldResemble, []float64{600})
				seeks := f.video.snapshot().seeks
				So(seeks[len(seeks)-1], ShouldEqual, 600)
			})

			Convey("A video element error should fall back to audio", func() {
				f.video.emit(player.Event{Kind: player.EventError, Err: errors.New("decode error")})
				So(f.st.IsVideoMode(), ShouldBeFalse)
				So(f.st.IsPlaying(), ShouldBeTrue)
				So(f.audio.snapshot().playing, ShouldBeTrue)
			})

			Convey("Leaving and re-entering should reuse the resolved stream", func() {
				f.res.videoErr = errors.New("must not be called")
				f.st.SetVideoMode(false)
				So(f.video.snapshot().src, ShouldBeEmpty)
				So(f.st.VideoStream(), ShouldEqual, videoA)

				f.st.SetVideoMode(true)
				f.wait()
				So(f.st.IsVideoMode(), ShouldBeTrue)
				So(f.video.snapshot().src, ShouldEqual, videoA.URL)
			})
		})
	})
}

func TestVideoResolution(t *testing.T) {
	ctx := context.Background()

	Convey("Given A's video resolution is pending when B is opened", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		f.res.serve(episodeB, 64000)
		f.res.video = videoA

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})

		started, release := f.res.gateVideo()
		f.st.SetVideoMode(true)
		<-started

		So(f.eng.Open(ctx, episodeB), ShouldBeNil)
		release()
		f.wait()

		Convey("A's video stream should be discarded", func() {
			So(f.st.CurrentPodcast(), ShouldEqual, episodeB)
			So(f.st.VideoStream(), ShouldBeNil)
			So(f.st.IsVideoMode(), ShouldBeFalse)
			So(f.video.snapshot().loads, ShouldBeEmpty)
			So(f.eng.VideoState(), ShouldEqual, Idle)
			So(f.notifications(), ShouldBeEmpty)
		})
	})

	Convey("Given video mode toggled while the resolution is pending", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		f.res.video = videoA

		So(f.eng.Open(ctx, episodeA), ShouldBeNil)
		f.audio.emit(player.Event{Kind: player.EventLoaded, Duration: 600})

		started, release := f.res.gateVideo()
		f.st.SetVideoMode(true)
		<-started
		for i := 0; i < 3; i++ {
			f.st.SetVideoMode(false)
			f.st.SetVideoMode(true)
		}
		release()
		f.wait()

		Convey("The video stream should be fetched once and shown", func() {
			So(f.res.videoResolutions(), ShouldEqual, 1)
			So(f.st.VideoStream(), ShouldEqual, videoA)
			So(f.video.snapshot().loads, ShouldResemble, []string{videoA.URL})
			So(f.audio.snapshot().loads, ShouldHaveLength, 1)
		})
	})
}

func TestVideoSideChannelStatus(t *testing.T) {
	Convey("Given a catalog whose video side-channel answers status error", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/streams/aaaaaaaaaaa", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"title":"A","audioStreams":[{"url":"https://cdn.example/a","bitrate":128000}]}`))
		})
		mux.HandleFunc("/video/aaaaaaaaaaa", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := catalog.New(catalog.Options{Instance: srv.URL, HTTPClient: srv.Client()})
		f := newFixture(resolver.New(client))
		defer f.eng.Close()

		So(f.eng.Open(context.Background(), episodeA), ShouldBeNil)
		f.st.SetVideoMode(true)
		f.wait()

		Convey("The engine should end in audio-only playback", func() {
			So(f.st.IsVideoMode(), ShouldBeFalse)
			So(f.st.IsPlaying(), ShouldBeTrue)
			So(f.audio.snapshot().playing, ShouldBeTrue)
			So(f.video.snapshot().loads, ShouldBeEmpty)
			So(f.notifications(), ShouldBeEmpty)
		})
	})
}

func TestHeldSeek(t *testing.T) {
	Convey("Given audio that is still loading", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		So(f.eng.Open(context.Background(), episodeA), ShouldBeNil)

		f.st.Seek(45)
		So(f.audio.snapshot().seeks, ShouldBeEmpty)

		Convey("Progress from before the load should not release the seek", func() {
			f.audio.emit(player.Event{Kind: player.EventTimeUpdate, Time: 0})
			So(f.audio.snapshot().seeks, ShouldBeEmpty)
			So(f.st.CurrentTime(), ShouldEqual, 45)
		})

		Convey("The seek should be applied once the element is ready", func() {
			f.audio.emit(player.Event{Kind: player.EventLoaded})
			So(f.audio.snapshot().seeks, ShouldResemble, []float64{45})
			So(f.st.CurrentTime(), ShouldEqual, 45)
		})
	})
}

func TestExpandDoesNotTouchElements(t *testing.T) {
	Convey("Given a playing item", t, func() {
		f := newFixture(nil)
		defer f.eng.Close()
		f.res.serve(episodeA, 64000)
		So(f.eng.Open(context.Background(), episodeA), ShouldBeNil)
		before := f.audio.snapshot()

		for i := 0; i < 5; i++ {
			f.st.ToggleExpanded()
		}

		after := f.audio.snapshot()
		So(after.plays, ShouldEqual, before.plays)
		So(after.loads, ShouldResemble, before.loads)
		So(after.seeks, ShouldResemble, before.seeks)
		So(after.playing, ShouldBeTrue)
	})
}

func TestClose(t *testing.T) {
	Convey("Closing should release both elements once", t, func() {
		f := newFixture(nil)
		So(f.eng.Close(), ShouldBeNil)
		So(f.eng.Close(), ShouldBeNil)
		So(f.audio.snapshot().closed, ShouldBeTrue)
		So(f.video.snapshot().closed, ShouldBeTrue)

		So(f.eng.Open(context.Background(), episodeA), ShouldEqual, context.Canceled)
	})
}
