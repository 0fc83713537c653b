// Package sleeptimer pauses playback after a user-chosen number of minutes.
//
// The deadline lives in the playback store. While it is armed a single scheduled check
// runs every second; when nothing is armed no check is scheduled at all.
package sleeptimer

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/store"
	"github.com/samber/mo"
)

// ErrInvalidDuration is returned when arming with a non-positive number of minutes.
var ErrInvalidDuration = errors.New("sleep timer needs a positive number of minutes")

type Scheduler struct {
	store    *store.Store
	now      func() time.Time
	interval time.Duration
	cron     *gocron.Scheduler

	mu       sync.Mutex
	job      *gocron.Job
	firedEnd int64

	unsubscribe func()
}

type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithInterval sets how often an armed timer is checked.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func New(st *store.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		now:      time.Now,
		interval: constant.SleepCheckInterval,
		cron:     gocron.NewScheduler(time.UTC),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cron.StartAsync()
	s.unsubscribe = st.Subscribe(store.FieldSleepTimer, func(state store.State, _ store.Field) {
		s.sync(state)
	})
	s.sync(st.Snapshot())
	return s
}

// Arm sets the deadline to now + minutes, replacing any previous one.
func (s *Scheduler) Arm(minutes int) error {
	if minutes <= 0 {
		return ErrInvalidDuration
	}
	end := s.now().Add(time.Duration(minutes) * time.Minute)
	s.store.SetSleepTimer(minutes, end.UnixMilli())
	log.Infof("sleep timer armed for %d minutes", minutes)
	return nil
}

// Cancel clears the deadline.
func (s *Scheduler) Cancel() {
	s.store.ClearSleepTimer()
}

// Cycle arms the preset following the current one, or cancels after the last preset.
func (s *Scheduler) Cycle(presets []int) {
	current := s.store.SleepTimerMinutes()
	for _, p := range presets {
		if p > current {
			_ = s.Arm(p)
			return
		}
	}
	s.Cancel()
}

// Remaining returns the time left before playback pauses, if armed.
func (s *Scheduler) Remaining() mo.Option[time.Duration] {
	end, ok := s.store.Snapshot().SleepDeadline().Get()
	if !ok {
		return mo.None[time.Duration]()
	}
	return mo.Some(max(end.Sub(s.now()), 0))
}

// Active reports whether a check is scheduled.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

// Close stops checking. The store keeps whatever deadline it holds.
func (s *Scheduler) Close() {
	s.unsubscribe()
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.cron.Stop()
}

// sync keeps exactly one check scheduled while a deadline is armed.
func (s *Scheduler) sync(state store.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !state.SleepTimerArmed() {
		s.stopLocked()
		return
	}
	if s.job != nil {
		return
	}

	job, err := s.cron.Every(s.interval).SingletonMode().Do(s.check)
	if err != nil {
		log.Errorf("schedule sleep timer check: %s", err)
		return
	}
	s.job = job
}

func (s *Scheduler) stopLocked() {
	if s.job == nil {
		return
	}
	s.cron.RemoveByReference(s.job)
	s.job = nil
}

// check pauses playback and clears the timer once the deadline has passed.
// A deadline fires at most once, however many checks observe it.
func (s *Scheduler) check() {
	state := s.store.Snapshot()
	if !state.SleepTimerArmed() {
		return
	}

	end := state.SleepTimerEndEpochMs
	if s.now().UnixMilli() < end {
		return
	}

	s.mu.Lock()
	if s.firedEnd == end {
		s.mu.Unlock()
		return
	}
	s.firedEnd = end
	s.mu.Unlock()

	log.Infof("sleep timer expired, pausing")
	s.store.SetIsPlaying(false)
	s.store.ClearSleepTimer()
}
