package store

import (
	"math"

	"github.com/podtube-cli/podtube/media"
)

// SetCurrentPodcast replaces the current item. Nil clears it and stops playback.
// A different item resets the position, duration, video mode and both streams in the same mutation.
func (st *Store) SetCurrentPodcast(item *media.Item) {
	st.mutate(func(s *State) Field {
		changed := switchItem(s, item)
		if item == nil && s.IsPlaying {
			s.IsPlaying = false
			changed |= FieldPlaying
		}
		return changed
	})
}

// Load sets the item and its audio stream as one mutation.
func (st *Store) Load(item *media.Item, audio *media.AudioStream) {
	st.mutate(func(s *State) Field {
		changed := switchItem(s, item)
		if s.AudioStream != audio {
			s.AudioStream = audio
			changed |= FieldAudioStream
		}
		return changed
	})
}

// SetAudioStream replaces the active audio stream. Nil clears it.
func (st *Store) SetAudioStream(audio *media.AudioStream) {
	st.mutate(func(s *State) Field {
		if s.AudioStream == audio {
			return 0
		}
		s.AudioStream = audio
		return FieldAudioStream
	})
}

// SetVideoStream replaces the active video stream. Nil clears it.
func (st *Store) SetVideoStream(video *media.VideoStream) {
	st.mutate(func(s *State) Field {
		if s.VideoStream == video {
			return 0
		}
		s.VideoStream = video
		return FieldVideoStream
	})
}

func (st *Store) SetIsPlaying(playing bool) {
	st.mutate(func(s *State) Field {
		if s.IsPlaying == playing {
			return 0
		}
		s.IsPlaying = playing
		return FieldPlaying
	})
}

func (st *Store) TogglePlaying() {
	st.mutate(func(s *State) Field {
		s.IsPlaying = !s.IsPlaying
		return FieldPlaying
	})
}

// SetVolume sets the volume, clamped to [0, 1]. NaN is ignored.
func (st *Store) SetVolume(v float64) {
	st.mutate(func(s *State) Field {
		v = clampVolume(v, s.Volume)
		if s.Volume == v {
			return 0
		}
		s.Volume = v
		return FieldVolume
	})
}

func (st *Store) SetMuted(muted bool) {
	st.mutate(func(s *State) Field {
		if s.IsMuted == muted {
			return 0
		}
		s.IsMuted = muted
		return FieldMuted
	})
}

func (st *Store) ToggleMute() {
	st.mutate(func(s *State) Field {
		s.IsMuted = !s.IsMuted
		return FieldMuted
	})
}

// SetCurrentTime records the position reported by the audio element, clamped to [0, duration].
func (st *Store) SetCurrentTime(t float64) {
	st.mutate(func(s *State) Field {
		t = s.clampTime(t)
		if s.CurrentTime == t {
			return 0
		}
		s.CurrentTime = t
		return FieldCurrentTime
	})
}

// Seek moves the position on behalf of the user, clamped like SetCurrentTime.
// Subscribers see FieldSeek even when the clamped position equals the current one,
// so the elements can be brought back in line. Without an item it does nothing.
func (st *Store) Seek(t float64) {
	st.mutate(func(s *State) Field {
		if s.CurrentPodcast == nil {
			return 0
		}
		changed := FieldSeek
		t = s.clampTime(t)
		if s.CurrentTime != t {
			s.CurrentTime = t
			changed |= FieldCurrentTime
		}
		return changed
	})
}

// SeekBy moves the position by delta seconds.
func (st *Store) SeekBy(delta float64) {
	st.Seek(st.Snapshot().CurrentTime + delta)
}

// SetDuration records the media duration and re-clamps the position.
// Negative, NaN or infinite values mark the duration unknown.
func (st *Store) SetDuration(d float64) {
	st.mutate(func(s *State) Field {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			d = DurationUnknown
		}
		if s.Duration == d {
			return 0
		}
		s.Duration = d
		changed := FieldDuration
		if t := s.clampTime(s.CurrentTime); t != s.CurrentTime {
			s.CurrentTime = t
			changed |= FieldCurrentTime
		}
		return changed
	})
}

func (st *Store) SetExpanded(expanded bool) {
	st.mutate(func(s *State) Field {
		if s.IsExpanded == expanded {
			return 0
		}
		s.IsExpanded = expanded
		return FieldExpanded
	})
}

func (st *Store) ToggleExpanded() {
	st.mutate(func(s *State) Field {
		s.IsExpanded = !s.IsExpanded
		return FieldExpanded
	})
}

// SetVideoMode switches video mode. Enabling it without a current item does nothing.
func (st *Store) SetVideoMode(on bool) {
	st.mutate(func(s *State) Field {
		if s.IsVideoMode == on || (on && s.CurrentPodcast == nil) {
			return 0
		}
		s.IsVideoMode = on
		return FieldVideoMode
	})
}

func (st *Store) ToggleVideoMode() {
	st.mutate(func(s *State) Field {
		if !s.IsVideoMode && s.CurrentPodcast == nil {
			return 0
		}
		s.IsVideoMode = !s.IsVideoMode
		return FieldVideoMode
	})
}

// SetSleepTimer stores an armed sleep timer. Non-positive minutes clear it.
func (st *Store) SetSleepTimer(minutes int, endEpochMs int64) {
	if minutes <= 0 || endEpochMs <= 0 {
		st.ClearSleepTimer()
		return
	}
	st.mutate(func(s *State) Field {
		if s.SleepTimerMinutes == minutes && s.SleepTimerEndEpochMs == endEpochMs {
			return 0
		}
		s.SleepTimerMinutes = minutes
		s.SleepTimerEndEpochMs = endEpochMs
		return FieldSleepTimer
	})
}

func (st *Store) ClearSleepTimer() {
	st.mutate(func(s *State) Field {
		if s.SleepTimerMinutes == 0 && s.SleepTimerEndEpochMs == 0 {
			return 0
		}
		s.SleepTimerMinutes = 0
		s.SleepTimerEndEpochMs = 0
		return FieldSleepTimer
	})
}

// Clear stops playback without a successor. Volume, mute and expansion survive.
func (st *Store) Clear() {
	st.mutate(func(s *State) Field {
		changed := switchItem(s, nil)
		if s.IsPlaying {
			s.IsPlaying = false
			changed |= FieldPlaying
		}
		if s.SleepTimerArmed() || s.SleepTimerMinutes != 0 {
			s.SleepTimerMinutes = 0
			s.SleepTimerEndEpochMs = 0
			changed |= FieldSleepTimer
		}
		return changed
	})
}

// SetAudioStreamFor applies audio only if item is still the current item.
// It reports whether the stream was applied; a stale resolution is dropped.
func (st *Store) SetAudioStreamFor(item *media.Item, audio *media.AudioStream) bool {
	applied := false
	st.mutate(func(s *State) Field {
		if item == nil || !s.CurrentPodcast.Same(item) {
			return 0
		}
		applied = true
		if s.AudioStream == audio {
			return 0
		}
		s.AudioStream = audio
		return FieldAudioStream
	})
	return applied
}

// SetVideoStreamFor applies video only if item is still the current item.
func (st *Store) SetVideoStreamFor(item *media.Item, video *media.VideoStream) bool {
	applied := false
	st.mutate(func(s *State) Field {
		if item == nil || !s.CurrentPodcast.Same(item) {
			return 0
		}
		applied = true
		if s.VideoStream == video {
			return 0
		}
		s.VideoStream = video
		return FieldVideoStream
	})
	return applied
}
