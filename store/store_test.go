package store

import (
	"math"
	"runtime"
	"sync"
	"testing"

	"github.com/podtube-cli/podtube/media"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	episodeA = &media.Item{ID: "aaaaaaaaaaa", URL: "/watch?v=aaaaaaaaaaa", Title: "A"}
	episodeB = &media.Item{ID: "bbbbbbbbbbb", URL: "/watch?v=bbbbbbbbbbb", Title: "B"}
	audioA   = &media.AudioStream{Stream: media.Stream{URL: "https://cdn.example/a", Bitrate: 128000}}
	videoA   = &media.VideoStream{Stream: media.Stream{URL: "https://cdn.example/v", Quality: "480p"}}
)

type recorder struct {
	mu      sync.Mutex
	changes []Field
	states  []State
}

func (r *recorder) listen(s State, changed Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changed)
	r.states = append(r.states, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func (r *recorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return State{}
	}
	return r.states[len(r.states)-1]
}

func TestDefaults(t *testing.T) {
	Convey("Given a new store", t, func() {
		st := New()
		s := st.Snapshot()

		So(s.CurrentPodcast, ShouldBeNil)
		So(s.Volume, ShouldEqual, 1)
		So(s.DurationKnown(), ShouldBeFalse)
		So(s.IsExpanded, ShouldBeFalse)
		So(s.SleepDeadline().IsAbsent(), ShouldBeTrue)

		Convey("Options should set the initial volume and expansion", func() {
			st := New(WithVolume(1.7), WithExpanded(true))
			So(st.Volume(), ShouldEqual, 1)
			So(st.IsExpanded(), ShouldBeTrue)
		})
	})
}

func TestCurrentTimeClamping(t *testing.T) {
	Convey("Given an item of known duration", t, func() {
		st := New()
		st.Load(episodeA, audioA)
		st.SetDuration(100)

		Convey("Positions should be clamped to [0, duration]", func() {
			for _, tc := range []struct{ in, want float64 }{
				{-5, 0}, {0, 0}, {42.5, 42.5}, {100, 100}, {250, 100}, {math.NaN(), 0},
			} {
				st.SetCurrentTime(tc.in)
				So(st.CurrentTime(), ShouldEqual, tc.want)
			}
		})

		Convey("Seeks should be clamped the same way", func() {
			st.Seek(1000)
			So(st.CurrentTime(), ShouldEqual, 100)
			st.Seek(-1)
			So(st.CurrentTime(), ShouldEqual, 0)
		})

		Convey("A shorter duration should pull the position back", func() {
			st.SetCurrentTime(90)
			st.SetDuration(60)
			So(st.CurrentTime(), ShouldEqual, 60)
		})
	})

	Convey("Given an unknown duration", t, func() {
		st := New()
		st.Load(episodeA, audioA)

		Convey("Only the lower bound should apply", func() {
			st.SetCurrentTime(12345)
			So(st.CurrentTime(), ShouldEqual, 12345)
			st.SetCurrentTime(-3)
			So(st.CurrentTime(), ShouldEqual, 0)
		})

		Convey("Invalid durations should stay unknown", func() {
			st.SetDuration(math.Inf(1))
			So(st.Snapshot().DurationKnown(), ShouldBeFalse)
			st.SetDuration(-10)
			So(st.Duration(), ShouldEqual, DurationUnknown)
		})
	})
}

func TestVolumeAndMute(t *testing.T) {
	Convey("Given a store", t, func() {
		st := New()

		Convey("Volume should be clamped to [0, 1]", func() {
			st.SetVolume(1.5)
			So(st.Volume(), ShouldEqual, 1)
			st.SetVolume(-0.2)
			So(st.Volume(), ShouldEqual, 0)
			st.SetVolume(0.3)
			st.SetVolume(math.NaN())
			So(st.Volume(), ShouldEqual, 0.3)
		})

		Convey("Effective volume should be zero while muted", func() {
			st.SetVolume(0.5)
			st.ToggleMute()
			st.SetVolume(0.5)
			So(st.Snapshot().EffectiveVolume(), ShouldEqual, 0)

			st.ToggleMute()
			So(st.Snapshot().EffectiveVolume(), ShouldEqual, 0.5)
		})

		Convey("Effective volume should follow volume and mute for all combinations", func() {
			for _, v := range []float64{0, 0.25, 0.5, 1} {
				for _, muted := range []bool{false, true} {
					st.SetVolume(v)
					st.SetMuted(muted)
					want := v
					if muted {
						want = 0
					}
					So(st.Snapshot().EffectiveVolume(), ShouldEqual, want)
				}
			}
		})
	})
}

func TestItemSwitch(t *testing.T) {
	Convey("Given an item playing in video mode", t, func() {
		st := New()
		st.Load(episodeA, audioA)
		st.SetDuration(300)
		st.SetCurrentTime(120)
		st.SetVideoMode(true)
		st.SetVideoStream(videoA)
		st.SetIsPlaying(true)

		rec := &recorder{}
		st.Subscribe(FieldAll, rec.listen)

		Convey("Setting another item should reset per-item fields in one notification", func() {
			st.SetCurrentPodcast(episodeB)

			So(rec.count(), ShouldEqual, 1)
			s := rec.states[0]
			So(s.CurrentPodcast, ShouldEqual, episodeB)
			So(s.CurrentTime, ShouldEqual, 0)
			So(s.DurationKnown(), ShouldBeFalse)
			So(s.IsVideoMode, ShouldBeFalse)
			So(s.VideoStream, ShouldBeNil)
			So(s.AudioStream, ShouldBeNil)
			So(s.IsPlaying, ShouldBeTrue)
			So(rec.changes[0].Has(FieldPodcast|FieldCurrentTime|FieldVideoMode), ShouldBeTrue)
		})

		Convey("Setting the same source again should be a no-op", func() {
			same := *episodeA
			st.SetCurrentPodcast(&same)
			So(rec.count(), ShouldEqual, 0)
			So(st.CurrentTime(), ShouldEqual, 120)
		})

		Convey("Clearing should stop playback and keep volume", func() {
			st.SetVolume(0.4)
			st.Clear()
			s := st.Snapshot()
			So(s.CurrentPodcast, ShouldBeNil)
			So(s.IsPlaying, ShouldBeFalse)
			So(s.Volume, ShouldEqual, 0.4)
		})
	})
}

func TestExpandToggle(t *testing.T) {
	Convey("Given a playing item", t, func() {
		st := New()
		st.Load(episodeA, audioA)
		st.SetDuration(300)
		st.SetCurrentTime(42)
		st.SetIsPlaying(true)
		before := st.Snapshot()

		Convey("Toggling expansion any number of times should not touch playback", func() {
			for i := 0; i < 7; i++ {
				st.ToggleExpanded()
				s := st.Snapshot()
				So(s.IsPlaying, ShouldEqual, before.IsPlaying)
				So(s.CurrentTime, ShouldEqual, before.CurrentTime)
				So(s.AudioStream, ShouldEqual, before.AudioStream)
			}
			So(st.IsExpanded(), ShouldBeTrue)
		})
	})
}

func TestSubscriptions(t *testing.T) {
	Convey("Given a scoped subscriber", t, func() {
		st := New()
		rec := &recorder{}
		unsubscribe := st.Subscribe(FieldVolume|FieldMuted, rec.listen)

		Convey("It should only see changes to its fields", func() {
			st.SetExpanded(true)
			st.SetVolume(0.5)
			st.ToggleMute()
			So(rec.count(), ShouldEqual, 2)
		})

		Convey("Setting a field to its current value should not notify", func() {
			st.SetVolume(1)
			st.SetMuted(false)
			So(rec.count(), ShouldEqual, 0)
		})

		Convey("It should not be called after unsubscribing", func() {
			unsubscribe()
			unsubscribe()
			st.SetVolume(0.1)
			So(rec.count(), ShouldEqual, 0)
		})
	})

	Convey("Given a listener that mutates the store", t, func() {
		st := New()
		st.Load(episodeA, audioA)

		var order []Field
		st.Subscribe(FieldPlaying, func(s State, _ Field) {
			order = append(order, FieldPlaying)
			if s.IsPlaying {
				st.SetVolume(0.2)
			}
		})
		st.Subscribe(FieldAll, func(_ State, changed Field) {
			order = append(order, changed)
		})

		st.SetIsPlaying(true)

		Convey("The nested change should be delivered after the current one", func() {
			So(order, ShouldResemble, []Field{FieldPlaying, FieldPlaying, FieldVolume})
			So(st.Volume(), ShouldEqual, 0.2)
		})
	})

	Convey("Given concurrent writers", t, func() {
		st := New()
		rec := &recorder{}
		st.Subscribe(FieldVolume, rec.listen)

		var wg sync.WaitGroup
		for i := 1; i <= 50; i++ {
			wg.Add(1)
			go func(v float64) {
				defer wg.Done()
				st.SetVolume(v)
			}(float64(i) / 100)
		}
		wg.Wait()

		Convey("Every change should be delivered", func() {
			So(rec.count(), ShouldEqual, 50)
			So(rec.last().Volume, ShouldEqual, st.Volume())
		})
	})

	Convey("Given writers racing a dispatcher that is about to finish", t, func() {
		for round := 0; round < 200; round++ {
			st := New()
			rec := &recorder{}
			st.Subscribe(FieldVolume, func(s State, changed Field) {
				runtime.Gosched()
				rec.listen(s, changed)
			})

			var wg sync.WaitGroup
			for i := 1; i <= 4; i++ {
				wg.Add(1)
				go func(v float64) {
					defer wg.Done()
					st.SetVolume(v)
				}(float64(round*4+i) / 1000)
			}
			wg.Wait()

			// every writer has returned, so nothing may still be waiting in the queue
			So(rec.count(), ShouldEqual, 4)
			So(rec.last().Volume, ShouldEqual, st.Volume())
		}
	})
}

func TestSleepTimerFields(t *testing.T) {
	Convey("Given a store", t, func() {
		st := New()

		st.SetSleepTimer(10, 1_700_000_600_000)
		s := st.Snapshot()
		So(s.SleepMinutes().MustGet(), ShouldEqual, 10)
		So(s.SleepDeadline().MustGet().UnixMilli(), ShouldEqual, int64(1_700_000_600_000))

		st.SetSleepTimer(0, 1)
		So(st.Snapshot().SleepTimerArmed(), ShouldBeFalse)
		So(st.SleepTimerMinutes(), ShouldEqual, 0)
	})
}

func TestConditionalStreams(t *testing.T) {
	Convey("Given item B replaced item A", t, func() {
		st := New()
		st.SetCurrentPodcast(episodeA)
		st.SetCurrentPodcast(episodeB)

		Convey("A stream resolved for A should be dropped", func() {
			So(st.SetAudioStreamFor(episodeA, audioA), ShouldBeFalse)
			So(st.AudioStream(), ShouldBeNil)
			So(st.SetVideoStreamFor(episodeA, videoA), ShouldBeFalse)
			So(st.VideoStream(), ShouldBeNil)
		})

		Convey("A stream resolved for B should be applied", func() {
			So(st.SetAudioStreamFor(episodeB, audioA), ShouldBeTrue)
			So(st.AudioStream(), ShouldEqual, audioA)
		})
	})
}
