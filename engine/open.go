package engine

import (
	"context"
	"errors"

	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/resolver"
)

// Open makes item current and starts playing it.
//
// The play intent is recorded before the streams are fetched, so a pause issued while the
// fetch is pending wins. Only the most recent Open may apply its streams, and only while its
// item is still current; otherwise ErrStale is returned and nothing is changed.
// Failures that prevent playback are reported to the notifier once and returned.
//
// Opening the item that is already current with a stream assigned only resumes it.
func (e *Engine) Open(ctx context.Context, item *media.Item) error {
	if item == nil {
		err := &media.Error{Kind: media.KindInvalidSource, Message: "no item"}
		e.fail(err)
		return err
	}

	if e.loaded(item) {
		e.store.SetIsPlaying(true)
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return context.Canceled
	}
	e.loadSeq++
	seq := e.loadSeq
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	e.cancelLoad = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	defer e.wg.Done()
	defer stop()
	defer cancel()

	logger := log.WithField("source_id", item.ID)

	e.store.SetCurrentPodcast(item)
	e.store.SetIsPlaying(true)

	streams, err := e.resolver.Resolve(ctx, item)
	if !e.latest(seq) || !e.store.CurrentPodcast().Same(item) {
		logger.Debugf("discarding stale resolution")
		return ErrStale
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		e.store.SetIsPlaying(false)
		e.fail(err)
		return err
	}

	audio := resolver.SelectAudio(streams.Audio)
	if !e.store.SetAudioStreamFor(item, audio) {
		logger.Debugf("discarding resolution for replaced item")
		return ErrStale
	}
	// an unchanged stream is not reassigned, so reload it if the element dropped it
	e.syncAudioSource(e.store.Snapshot())

	logger.Infof("playing %q at %d bps", item.Title, audio.Bitrate)
	return nil
}

// loaded reports whether item is current and its stream is still assigned to the audio element.
func (e *Engine) loaded(item *media.Item) bool {
	if !e.store.CurrentPodcast().Same(item) {
		return false
	}
	stream := e.store.AudioStream()
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && stream != nil && e.audioSrc == stream.URL && e.audioState.hasSource()
}

func (e *Engine) latest(seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return seq == e.loadSeq
}
