package media

import "fmt"

// Stream holds the fields shared by every resolved stream descriptor.
type Stream struct {
	// URL may be signed and expire after a while.
	URL      string `json:"url"`
	Quality  string `json:"quality"`
	MimeType string `json:"mime_type"`
	Codec    string `json:"codec"`
	Format   string `json:"format"`

	// Bitrate in bits per second.
	Bitrate int `json:"bitrate"`

	// ContentLength in bytes, 0 when unknown.
	ContentLength int64 `json:"content_length"`
}

// AudioStream is an audio-only rendition.
type AudioStream struct {
	Stream
}

func (a *AudioStream) String() string {
	return fmt.Sprintf("%s %s (%d kbps)", a.Quality, a.MimeType, a.Bitrate/1000)
}

// VideoStream is a video rendition. It is always played muted.
type VideoStream struct {
	Stream
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v *VideoStream) String() string {
	if v.Width > 0 && v.Height > 0 {
		return fmt.Sprintf("%s %s (%dx%d)", v.Quality, v.MimeType, v.Width, v.Height)
	}
	return fmt.Sprintf("%s %s", v.Quality, v.MimeType)
}
