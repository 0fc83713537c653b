package sleeptimer

import (
	"sync"
	"testing"
	"time"

	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	. "github.com/smartystreets/goconvey/convey"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTimer() (*Scheduler, *store.Store, *clock) {
	c := &clock{now: time.UnixMilli(1_700_000_000_000)}
	st := store.New()
	st.SetCurrentPodcast(&media.Item{ID: "dQw4w9WgXcQ", URL: "/watch?v=dQw4w9WgXcQ", Title: "Episode"})
	st.SetIsPlaying(true)
	return New(st, WithClock(c.Now), WithInterval(time.Hour)), st, c
}

func TestArm(t *testing.T) {
	Convey("Given an idle sleep timer", t, func() {
		s, st, c := newTimer()
		defer s.Close()

		So(s.Active(), ShouldBeFalse)
		So(s.Remaining().IsAbsent(), ShouldBeTrue)

		Convey("Arming with zero minutes should fail", func() {
			So(s.Arm(0), ShouldEqual, ErrInvalidDuration)
			So(st.Snapshot().SleepTimerArmed(), ShouldBeFalse)
		})

		Convey("Arming for 15 minutes should store the deadline and schedule a check", func() {
			So(s.Arm(15), ShouldBeNil)

			state := st.Snapshot()
			So(state.SleepTimerMinutes, ShouldEqual, 15)
			So(state.SleepTimerEndEpochMs, ShouldEqual, c.Now().UnixMilli()+15*60000)
			So(s.Active(), ShouldBeTrue)
			So(s.cron.Len(), ShouldEqual, 1)

			remaining, ok := s.Remaining().Get()
			So(ok, ShouldBeTrue)
			So(remaining, ShouldEqual, 15*time.Minute)

			Convey("Re-arming should replace the deadline without adding a second check", func() {
				c.Advance(time.Minute)
				So(s.Arm(30), ShouldBeNil)
				So(st.SleepTimerEndEpochMs(), ShouldEqual, c.Now().UnixMilli()+30*60000)
				So(s.cron.Len(), ShouldEqual, 1)
			})

			Convey("Cancelling should clear the deadline and the check", func() {
				s.Cancel()
				So(st.Snapshot().SleepTimerArmed(), ShouldBeFalse)
				So(st.SleepTimerMinutes(), ShouldEqual, 0)
				So(s.Active(), ShouldBeFalse)
				So(s.cron.Len(), ShouldEqual, 0)
			})

			Convey("Clearing the store directly should also remove the check", func() {
				st.ClearSleepTimer()
				So(s.Active(), ShouldBeFalse)
				So(s.cron.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestExpiry(t *testing.T) {
	Convey("Given a timer armed for 10 minutes", t, func() {
		s, st, c := newTimer()
		defer s.Close()

		var mu sync.Mutex
		pauses := 0
		st.Subscribe(store.FieldPlaying, func(state store.State, _ store.Field) {
			if !state.IsPlaying {
				mu.Lock()
				pauses++
				mu.Unlock()
			}
		})

		So(s.Arm(10), ShouldBeNil)

		Convey("A check before the deadline should change nothing", func() {
			c.Advance(9 * time.Minute)
			s.check()
			So(st.IsPlaying(), ShouldBeTrue)
			So(st.Snapshot().SleepTimerArmed(), ShouldBeTrue)
		})

		Convey("Checks after the deadline should pause exactly once", func() {
			c.Advance(10 * time.Minute)
			s.check()
			s.check()
			s.check()

			So(st.IsPlaying(), ShouldBeFalse)
			So(st.Snapshot().SleepTimerArmed(), ShouldBeFalse)
			So(st.SleepTimerMinutes(), ShouldEqual, 0)
			So(s.Active(), ShouldBeFalse)

			mu.Lock()
			defer mu.Unlock()
			So(pauses, ShouldEqual, 1)
		})

		Convey("A cancelled timer should never pause", func() {
			s.Cancel()
			c.Advance(time.Hour)
			s.check()
			So(st.IsPlaying(), ShouldBeTrue)

			mu.Lock()
			defer mu.Unlock()
			So(pauses, ShouldEqual, 0)
		})
	})
}

func TestCycle(t *testing.T) {
	Convey("Given presets of 15, 30 and 60 minutes", t, func() {
		s, st, _ := newTimer()
		defer s.Close()
		presets := []int{15, 30, 60}

		Convey("Cycling should step through each preset then cancel", func() {
			s.Cycle(presets)
			So(st.SleepTimerMinutes(), ShouldEqual, 15)
			s.Cycle(presets)
			So(st.SleepTimerMinutes(), ShouldEqual, 30)
			s.Cycle(presets)
			So(st.SleepTimerMinutes(), ShouldEqual, 60)
			s.Cycle(presets)
			So(st.Snapshot().SleepTimerArmed(), ShouldBeFalse)
			So(s.Active(), ShouldBeFalse)
		})
	})
}
