package engine

import (
	"errors"
	"math"

	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/player"
	"github.com/samber/mo"
)

// onAudioEvent feeds the audio element's reports back into the store. Audio is the timing master.
// Until the element confirms the current source loaded, reports may come from the previous
// source and are dropped.
func (e *Engine) onAudioEvent(ev player.Event) {
	e.mu.Lock()
	state := e.audioState
	e.mu.Unlock()

	switch ev.Kind {
	case player.EventLoaded:
		if state != Loading {
			return
		}
		if !e.transitionAudio(Loading, Ready) {
			return
		}
		if ev.Duration > 0 {
			e.store.SetDuration(ev.Duration)
		}
		e.applyPendingSeek()

	case player.EventTimeUpdate:
		if !state.ready() {
			return
		}
		e.store.SetCurrentTime(ev.Time)
		e.correctDrift(ev.Time)

	case player.EventDurationChange:
		if state.ready() {
			e.store.SetDuration(ev.Duration)
		}

	case player.EventPlaying:
		e.setAudioState(Playing)

	case player.EventPaused:
		e.mu.Lock()
		if e.audioState.ready() && e.audioState != Ended {
			e.audioState = Paused
		}
		e.mu.Unlock()

	case player.EventEnded:
		e.mu.Lock()
		ended := e.audioState.ready() && e.audioState != Ended
		if ended {
			e.audioState = Ended
		}
		e.mu.Unlock()
		if ended {
			e.store.SetIsPlaying(false)
		}

	case player.EventError:
		e.mu.Lock()
		loaded := e.audioState.hasSource()
		e.audioState = Idle
		if errors.Is(ev.Err, player.ErrNotRunning) {
			// the next load restarts the element
			e.audioSrc = ""
		}
		e.mu.Unlock()
		if loaded {
			e.playbackFailed(&media.Error{Kind: media.KindMediaElementPlayback, Message: "audio element error", Cause: ev.Err})
		}
	}
}

// transitionAudio moves the audio element from one state to another, if it is still in the first.
func (e *Engine) transitionAudio(from, to ElementState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audioState != from {
		return false
	}
	e.audioState = to
	return true
}

// applyPendingSeek applies a seek held while the audio element loaded.
func (e *Engine) applyPendingSeek() {
	e.mu.Lock()
	pending := e.pendingSeek
	e.pendingSeek = mo.None[float64]()
	e.mu.Unlock()

	t, ok := pending.Get()
	if !ok {
		return
	}

	e.store.SetCurrentTime(t)
	if err := e.audio.Seek(e.store.CurrentTime()); err != nil {
		log.Debugf("held seek to %.1f: %s", t, err)
	}
}

// setAudioState records element play state changes once the source is loaded.
func (e *Engine) setAudioState(state ElementState) {
	e.mu.Lock()
	if e.audioState.ready() {
		e.audioState = state
	}
	e.mu.Unlock()
}

// onVideoEvent tracks the video clock. A video failure drops back to audio only.
func (e *Engine) onVideoEvent(ev player.Event) {
	e.mu.Lock()
	loaded := e.videoState.hasSource()
	ready := e.videoState.ready()
	switch ev.Kind {
	case player.EventLoaded:
		if e.videoState == Loading {
			e.videoState = Ready
		}
	case player.EventTimeUpdate:
		if ready {
			e.videoTime = ev.Time
		}
	case player.EventPlaying:
		if ready {
			e.videoState = Playing
		}
	case player.EventPaused:
		if ready {
			e.videoState = Paused
		}
	case player.EventEnded:
		if ready {
			e.videoState = Ended
		}
	case player.EventError:
		e.videoState = Idle
		e.videoSrc = ""
	}
	e.mu.Unlock()

	if ev.Kind == player.EventError && loaded && e.store.IsVideoMode() {
		e.videoFailed(&media.Error{Kind: media.KindVideoResolution, Message: "video element error", Cause: ev.Err})
	}
}

// correctDrift pulls the video element back to the audio clock when they drift apart.
func (e *Engine) correctDrift(audioTime float64) {
	e.mu.Lock()
	ready := e.videoState == Ready || e.videoState == Playing || e.videoState == Paused
	drift := math.Abs(e.videoTime - audioTime)
	correct := ready && drift > e.driftThreshold
	if correct {
		e.videoTime = audioTime
	}
	e.mu.Unlock()

	if !correct || !e.store.IsVideoMode() {
		return
	}

	log.Debugf("video drifted %.2fs from audio, correcting", drift)
	if err := e.video.Seek(audioTime); err != nil {
		log.Debugf("video drift correction: %s", err)
	}
}
