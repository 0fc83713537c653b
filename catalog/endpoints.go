package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/podtube-cli/podtube/internal/cache"
	"github.com/podtube-cli/podtube/log"
)

// Search returns items matching query.
func (c *Client) Search(ctx context.Context, query string) (*Page, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("filter", "all")

	var env envelopeJSON
	if err := c.get(ctx, "/search", params, &env); err != nil {
		return nil, err
	}
	return env.page(), nil
}

// Featured returns the instance's featured listing.
func (c *Client) Featured(ctx context.Context) (*Page, error) {
	return c.listing(ctx, "featured")
}

// Newest returns the most recently published items.
func (c *Client) Newest(ctx context.Context) (*Page, error) {
	return c.listing(ctx, "newest")
}

func (c *Client) listing(ctx context.Context, name string) (*Page, error) {
	cacheKey := cache.Key(name, c.base)

	var env envelopeJSON
	if c.cacheListings && cache.Read(cacheKey, &env) {
		return env.page(), nil
	}

	if err := c.get(ctx, "/"+name, nil, &env); err != nil {
		return nil, err
	}

	if c.cacheListings {
		if err := cache.Write(cacheKey, &env); err != nil {
			log.WithField("listing", name).Warnf("cache write failed: %s", err)
		}
	}
	return env.page(), nil
}

// Streams fetches the playable streams of the item identified by id.
func (c *Client) Streams(ctx context.Context, id string) (*Streams, error) {
	var raw streamsJSON
	if err := c.get(ctx, "/streams/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return raw.streams(), nil
}

// Channel returns the first page of a channel's uploads.
func (c *Client) Channel(ctx context.Context, id string) (*Page, error) {
	var env envelopeJSON
	if err := c.get(ctx, "/channel/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, err
	}
	return env.page(), nil
}

// ChannelNextPage continues a channel listing from a NextPage token.
func (c *Client) ChannelNextPage(ctx context.Context, id, token string) (*Page, error) {
	params := url.Values{}
	params.Set("nextpage", token)

	var env envelopeJSON
	if err := c.get(ctx, "/nextpage/channel/"+url.PathEscape(id), params, &env); err != nil {
		return nil, err
	}
	return env.page(), nil
}

// Video is the answer of the video side-channel.
type Video struct {
	Status  string
	URL     string
	Quality string
}

// OK reports whether the side-channel produced a playable URL.
func (v *Video) OK() bool {
	return v.Status == "success" && v.URL != ""
}

// Video asks the side-channel for a video rendition of id at quality.
func (c *Client) Video(ctx context.Context, id, quality string) (*Video, error) {
	params := url.Values{}
	if quality != "" {
		params.Set("quality", quality)
	}

	var raw videoJSON
	if err := c.get(ctx, "/video/"+url.PathEscape(id), params, &raw); err != nil {
		return nil, err
	}
	return &Video{Status: raw.Status, URL: raw.URL, Quality: raw.Quality}, nil
}
