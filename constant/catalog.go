package constant

import "time"

// Catalog defaults.
const (
	// DefaultCatalogInstance is the Piped-compatible API instance used when none is configured.
	DefaultCatalogInstance = "https://pipedapi.kavin.rocks"

	// DefaultStreamTimeout bounds a single stream resolution.
	DefaultStreamTimeout = 8 * time.Second

	// DefaultVideoQuality is the quality label requested from the video side-channel.
	DefaultVideoQuality = "480p"

	// ThumbnailHost serves deterministic thumbnails keyed by source identifier.
	ThumbnailHost = "https://i.ytimg.com"

	// WatchURL is the canonical watch link for a source identifier.
	WatchURL = "https://www.youtube.com/watch?v="
)

// Player defaults.
const (
	// DriftThreshold is the maximum tolerated offset between the video and audio clocks, in seconds.
	DriftThreshold = 0.5

	// SleepCheckInterval is the resolution of the sleep timer.
	SleepCheckInterval = time.Second
)

// Banner is printed above the root command help.
const Banner = `                 _ _       _
 _ __   ___   __| | |_ _  _| |__  ___
| '_ \ / _ \ / _` + "`" + ` |  _| || | '_ \/ -_)
| .__/ \___/ \__,_|\__|\_,_|_.__/\___|
|_|`
