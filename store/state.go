package store

import (
	"math"
	"strings"
	"time"

	"github.com/podtube-cli/podtube/media"
	"github.com/samber/mo"
)

// DurationUnknown is the duration until the audio element reports one.
const DurationUnknown = -1.0

// State is a snapshot of the playback state. Values are copies; pointers are shared and immutable.
type State struct {
	CurrentPodcast *media.Item
	AudioStream    *media.AudioStream
	VideoStream    *media.VideoStream

	IsPlaying bool
	Volume    float64
	IsMuted   bool

	// CurrentTime is in seconds, within [0, Duration] once Duration is known.
	CurrentTime float64
	Duration    float64

	IsExpanded  bool
	IsVideoMode bool

	SleepTimerMinutes    int
	SleepTimerEndEpochMs int64
}

func initialState() State {
	return State{Volume: 1, Duration: DurationUnknown}
}

// EffectiveVolume is the volume applied to the audio element.
func (s State) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

func (s State) DurationKnown() bool {
	return s.Duration >= 0
}

// Progress returns CurrentTime as a fraction of Duration, 0 when unknown.
func (s State) Progress() float64 {
	if !s.DurationKnown() || s.Duration == 0 {
		return 0
	}
	return s.CurrentTime / s.Duration
}

func (s State) SleepTimerArmed() bool {
	return s.SleepTimerEndEpochMs > 0
}

// SleepDeadline returns the sleep timer expiry, if armed.
func (s State) SleepDeadline() mo.Option[time.Time] {
	if !s.SleepTimerArmed() {
		return mo.None[time.Time]()
	}
	return mo.Some(time.UnixMilli(s.SleepTimerEndEpochMs))
}

// SleepMinutes returns the armed sleep duration, if any.
func (s State) SleepMinutes() mo.Option[int] {
	if s.SleepTimerMinutes <= 0 {
		return mo.None[int]()
	}
	return mo.Some(s.SleepTimerMinutes)
}

func (s State) clampTime(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if s.DurationKnown() && t > s.Duration {
		return s.Duration
	}
	return t
}

// Field is a bitmask naming state fields, used to scope subscriptions.
type Field uint32

const (
	FieldPodcast Field = 1 << iota
	FieldAudioStream
	FieldVideoStream
	FieldPlaying
	FieldVolume
	FieldMuted
	FieldCurrentTime
	FieldDuration
	FieldExpanded
	FieldVideoMode
	FieldSleepTimer
	// FieldSeek marks a user-initiated position change, as opposed to element progress.
	FieldSeek

	FieldAll = FieldSeek<<1 - 1
)

var fieldNames = []string{
	"podcast",
	"audio_stream",
	"video_stream",
	"playing",
	"volume",
	"muted",
	"current_time",
	"duration",
	"expanded",
	"video_mode",
	"sleep_timer",
	"seek",
}

// Has reports whether any of other is set in f.
func (f Field) Has(other Field) bool {
	return f&other != 0
}

func (f Field) String() string {
	var names []string
	for i, name := range fieldNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
