// Package resolver turns catalog items into playable stream descriptors.
package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/media"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

// Catalog is the part of the catalog API the resolver consumes.
type Catalog interface {
	Streams(ctx context.Context, id string) (*catalog.Streams, error)
	Video(ctx context.Context, id, quality string) (*catalog.Video, error)
}

// Resolver fetches stream lists, bounded by a timeout.
// Concurrent resolutions of the same item share one request.
type Resolver struct {
	catalog Catalog
	timeout time.Duration
	quality string

	group singleflight.Group
}

type Option func(*Resolver)

// WithTimeout bounds every resolution. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithVideoQuality sets the quality label requested for video mode.
func WithVideoQuality(q string) Option {
	return func(r *Resolver) {
		if q = strings.TrimSpace(q); q != "" {
			r.quality = q
		}
	}
}

func New(c Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: c,
		timeout: constant.DefaultStreamTimeout,
		quality: constant.DefaultVideoQuality,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig creates a resolver using the configured timeout and video quality.
func NewFromConfig(c Catalog) *Resolver {
	return New(c,
		WithTimeout(time.Duration(viper.GetInt(key.CatalogTimeout))*time.Second),
		WithVideoQuality(viper.GetString(key.PlayerVideoQuality)),
	)
}

// Timeout returns the bound applied to each resolution.
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}

// Resolve fetches the streams of item.
// The returned error is a *media.Error unless ctx was cancelled, in which case ctx.Err() is returned.
func (r *Resolver) Resolve(ctx context.Context, item *media.Item) (*catalog.Streams, error) {
	id, err := item.SourceID()
	if err != nil {
		return nil, err
	}

	v, err := r.race(ctx, "streams:"+id, func(fetchCtx context.Context) (any, error) {
		return r.catalog.Streams(fetchCtx, id)
	})
	if err != nil {
		return nil, classify(id, err)
	}

	streams := v.(*catalog.Streams)
	if len(streams.Audio) == 0 {
		return nil, &media.Error{Kind: media.KindNoStreamsAvailable, SourceID: id}
	}
	return streams, nil
}

// ResolveVideo asks the video side-channel for a rendition of item at the configured quality.
// Any failure is reported as media.ErrVideoResolution.
func (r *Resolver) ResolveVideo(ctx context.Context, item *media.Item) (*media.VideoStream, error) {
	id, err := item.SourceID()
	if err != nil {
		return nil, &media.Error{Kind: media.KindVideoResolution, Cause: err}
	}

	v, err := r.race(ctx, "video:"+id+":"+r.quality, func(fetchCtx context.Context) (any, error) {
		return r.catalog.Video(fetchCtx, id, r.quality)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &media.Error{Kind: media.KindVideoResolution, SourceID: id, Cause: err}
	}

	video := v.(*catalog.Video)
	if !video.OK() {
		return nil, &media.Error{
			Kind:     media.KindVideoResolution,
			SourceID: id,
			Message:  "video side-channel answered with status " + strconv.Quote(video.Status),
		}
	}

	quality := video.Quality
	if quality == "" {
		quality = r.quality
	}
	return &media.VideoStream{Stream: media.Stream{URL: video.URL, Quality: quality}}, nil
}

var errTimeout = errors.New("stream fetch timed out")

// race runs fetch once per flight and waits for it, a timer or ctx, whichever settles first.
// The shared fetch runs detached from ctx so one caller leaving does not fail the others;
// it is still bounded by the timeout. A late result lands in the buffered channel and is dropped.
func (r *Resolver) race(ctx context.Context, flight string, fetch func(context.Context) (any, error)) (any, error) {
	ch := r.group.DoChan(flight, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return fetch(fetchCtx)
	})

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Shared {
			log.WithField("flight", flight).Debugf("shared in-flight resolution")
		}
		return res.Val, res.Err
	case <-timer.C:
		return nil, errTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func classify(id string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, errTimeout), errors.Is(err, context.DeadlineExceeded):
		return &media.Error{Kind: media.KindStreamFetchTimeout, SourceID: id, Cause: err}
	default:
		return &media.Error{Kind: media.KindNetwork, SourceID: id, Cause: err}
	}
}

// SelectAudio picks the default audio stream: the median by bitrate.
// It returns nil for an empty list.
func SelectAudio(streams []*media.AudioStream) *media.AudioStream {
	switch len(streams) {
	case 0:
		return nil
	case 1:
		return streams[0]
	}

	sorted := slices.Clone(streams)
	slices.SortStableFunc(sorted, func(a, b *media.AudioStream) int {
		return a.Bitrate - b.Bitrate
	})
	return sorted[len(sorted)/2]
}

// SelectVideo picks the stream labelled quality, falling back to the first candidate.
func SelectVideo(streams []*media.VideoStream, quality string) *media.VideoStream {
	if len(streams) == 0 {
		return nil
	}

	for _, s := range streams {
		if s.Quality == quality {
			return s
		}
	}
	// 480p60 and friends
	for _, s := range streams {
		if quality != "" && strings.HasPrefix(s.Quality, quality) {
			return s
		}
	}
	return streams[0]
}
