package engine

import (
	"context"
	"errors"

	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	"github.com/samber/mo"
)

// watched are the fields the engine reconciles. Element progress and view state are not among them.
const watched = store.FieldPodcast |
	store.FieldAudioStream |
	store.FieldVideoStream |
	store.FieldPlaying |
	store.FieldVolume |
	store.FieldMuted |
	store.FieldSeek |
	store.FieldVideoMode

// onChange reconciles the elements with a store change.
// Item resets come first so nothing of the previous item survives the new source.
func (e *Engine) onChange(s store.State, changed store.Field) {
	if changed.Has(store.FieldPodcast) {
		e.resetForItem(s)
	}
	if changed.Has(store.FieldAudioStream) {
		e.syncAudioSource(s)
	}
	if changed.Has(store.FieldVolume | store.FieldMuted) {
		if err := e.audio.SetVolume(s.EffectiveVolume()); err != nil {
			log.Debugf("volume not applied: %s", err)
		}
	}
	if changed.Has(store.FieldSeek) {
		e.seek(s)
	}
	if changed.Has(store.FieldVideoMode) {
		if s.IsVideoMode {
			e.enterVideoMode(s)
		} else {
			e.leaveVideoMode()
		}
	}
	if changed.Has(store.FieldVideoStream) && !changed.Has(store.FieldVideoMode) {
		e.syncVideoSource(s)
	}
	if changed.Has(store.FieldPlaying) {
		e.syncPlaying(s)
	}
}

func (e *Engine) resetForItem(s store.State) {
	e.mu.Lock()
	e.itemGen++
	e.pendingSeek = mo.None[float64]()
	e.videoInflight = false
	if e.cancelVideo != nil {
		e.cancelVideo()
		e.cancelVideo = nil
	}
	hadVideo := e.videoState.hasSource()
	e.videoState = Idle
	e.videoSrc = ""
	e.videoTime = 0
	e.mu.Unlock()

	if hadVideo {
		if err := e.video.Unload(); err != nil {
			log.Debugf("video unload: %s", err)
		}
	}

	if s.CurrentPodcast == nil {
		e.unloadAudio()
	}
}

func (e *Engine) unloadAudio() {
	e.mu.Lock()
	hadAudio := e.audioState.hasSource()
	e.audioState = Idle
	e.audioSrc = ""
	e.mu.Unlock()

	if hadAudio {
		if err := e.audio.Unload(); err != nil {
			log.Debugf("audio unload: %s", err)
		}
	}
}

// syncAudioSource assigns the active audio stream to the audio element.
func (e *Engine) syncAudioSource(s store.State) {
	if s.AudioStream == nil {
		e.unloadAudio()
		return
	}

	e.mu.Lock()
	if e.audioSrc == s.AudioStream.URL && e.audioState.hasSource() {
		e.mu.Unlock()
		return
	}
	e.audioSrc = s.AudioStream.URL
	e.audioState = Loading
	e.mu.Unlock()

	title := ""
	if s.CurrentPodcast != nil {
		title = s.CurrentPodcast.Title
	}

	if err := e.audio.Load(s.AudioStream.URL, title); err != nil {
		e.mu.Lock()
		e.audioState = Idle
		e.audioSrc = ""
		e.mu.Unlock()
		e.playbackFailed(&media.Error{Kind: media.KindMediaElementPlayback, Message: "audio load failed", Cause: err})
		return
	}

	if err := e.audio.SetVolume(s.EffectiveVolume()); err != nil {
		log.Debugf("volume not applied: %s", err)
	}
	if s.IsPlaying {
		e.playAudio()
	}
}

// playbackFailed recovers from an audio element failure by dropping the play intent.
func (e *Engine) playbackFailed(err error) {
	log.Warnf("audio element: %s", err)
	e.store.SetIsPlaying(false)
}

func (e *Engine) playAudio() {
	e.mu.Lock()
	state := e.audioState
	e.mu.Unlock()

	if !state.hasSource() {
		return
	}

	if state == Ended {
		if err := e.audio.Seek(0); err != nil {
			log.Debugf("rewind: %s", err)
		}
	}

	if err := e.audio.Play(); err != nil {
		e.playbackFailed(&media.Error{Kind: media.KindMediaElementPlayback, Message: "play rejected", Cause: err})
	}
}

func (e *Engine) syncPlaying(s store.State) {
	e.mu.Lock()
	audioLoaded := e.audioState.hasSource()
	videoLoaded := e.videoState.hasSource()
	e.mu.Unlock()

	if s.IsPlaying {
		e.playAudio()
		if s.IsVideoMode && videoLoaded {
			if err := e.video.Play(); err != nil {
				e.videoFailed(err)
			}
		}
		return
	}

	if audioLoaded {
		if err := e.audio.Pause(); err != nil {
			log.Debugf("audio pause: %s", err)
		}
	}
	if videoLoaded {
		if err := e.video.Pause(); err != nil {
			log.Debugf("video pause: %s", err)
		}
	}
}

// seek moves both elements to the store position in one step.
// A seek that arrives while audio is still loading is held until the element is ready.
func (e *Engine) seek(s store.State) {
	t := s.CurrentTime

	e.mu.Lock()
	audioReady := e.audioState.ready()
	if !audioReady {
		e.pendingSeek = mo.Some(t)
	}
	videoLoaded := e.videoState.hasSource()
	if videoLoaded {
		e.videoTime = t
	}
	e.mu.Unlock()

	if audioReady {
		if err := e.audio.Seek(t); err != nil {
			log.Debugf("audio seek: %s", err)
		}
	}
	if s.IsVideoMode && videoLoaded {
		if err := e.video.Seek(t); err != nil {
			log.Debugf("video seek: %s", err)
		}
	}
}

// enterVideoMode shows the video element, resolving a video stream the first time.
// Audio keeps playing while the resolution is pending.
func (e *Engine) enterVideoMode(s store.State) {
	if s.VideoStream != nil {
		e.syncVideoSource(s)
		return
	}

	item := s.CurrentPodcast
	if item == nil {
		e.store.SetVideoMode(false)
		return
	}

	e.mu.Lock()
	if e.videoInflight || e.closed {
		e.mu.Unlock()
		return
	}
	e.videoInflight = true
	gen := e.itemGen
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelVideo = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer cancel()

		video, err := e.resolver.ResolveVideo(ctx, item)

		e.mu.Lock()
		current := gen == e.itemGen
		if current {
			e.videoInflight = false
		}
		e.mu.Unlock()

		if !current || errors.Is(err, context.Canceled) {
			log.WithField("source_id", item.ID).Debugf("discarding stale video resolution")
			return
		}
		if err != nil {
			if e.store.CurrentPodcast().Same(item) {
				e.videoFailed(err)
			}
			return
		}
		if !e.store.SetVideoStreamFor(item, video) {
			log.WithField("source_id", item.ID).Debugf("discarding video stream for replaced item")
		}
	}()
}

// syncVideoSource loads the active video stream into the video element while video mode is on.
func (e *Engine) syncVideoSource(s store.State) {
	if !s.IsVideoMode || s.VideoStream == nil {
		return
	}

	e.mu.Lock()
	if e.videoSrc == s.VideoStream.URL && e.videoState.hasSource() {
		e.mu.Unlock()
		return
	}
	e.videoSrc = s.VideoStream.URL
	e.videoState = Loading
	e.videoTime = s.CurrentTime
	e.mu.Unlock()

	title := ""
	if s.CurrentPodcast != nil {
		title = s.CurrentPodcast.Title
	}

	if err := e.video.Load(s.VideoStream.URL, title); err != nil {
		e.videoFailed(err)
		return
	}
	if err := e.video.SetMuted(true); err != nil {
		log.Debugf("video mute: %s", err)
	}

	// Start from the audio clock rather than the possibly stale snapshot.
	if t, err := e.audio.CurrentTime(); err == nil {
		e.mu.Lock()
		e.videoTime = t
		e.mu.Unlock()
		_ = e.video.Seek(t)
	} else if s.CurrentTime > 0 {
		_ = e.video.Seek(s.CurrentTime)
	}

	if s.IsPlaying {
		if err := e.video.Play(); err != nil {
			e.videoFailed(err)
		}
	}
}

func (e *Engine) leaveVideoMode() {
	e.mu.Lock()
	loaded := e.videoState.hasSource()
	e.videoState = Idle
	e.videoSrc = ""
	e.mu.Unlock()

	if !loaded {
		return
	}
	if err := e.video.Pause(); err != nil {
		log.Debugf("video pause: %s", err)
	}
	if err := e.video.Unload(); err != nil {
		log.Debugf("video unload: %s", err)
	}
}

// videoFailed falls back to audio only. Video failures are never surfaced.
func (e *Engine) videoFailed(err error) {
	log.Warnf("video unavailable, continuing with audio only: %s", err)
	e.store.SetVideoMode(false)
	e.store.SetVideoStream(nil)
}
