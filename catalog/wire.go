package catalog

import (
	"strings"

	"github.com/podtube-cli/podtube/media"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type itemJSON struct {
	URL              string `json:"url"`
	Type             string `json:"type,omitempty"`
	Title            string `json:"title"`
	Thumbnail        string `json:"thumbnail"`
	UploaderName     string `json:"uploaderName"`
	UploaderURL      string `json:"uploaderUrl"`
	UploaderAvatar   string `json:"uploaderAvatar"`
	UploaderVerified bool   `json:"uploaderVerified"`
	UploadedDate     string `json:"uploadedDate"`
	ShortDescription string `json:"shortDescription"`
	Duration         int    `json:"duration"`
	Views            int64  `json:"views"`
	Uploaded         int64  `json:"uploaded"`
	IsShort          bool   `json:"isShort"`
}

type envelopeJSON struct {
	Items    []itemJSON `json:"items"`
	Message  string     `json:"message,omitempty"`
	Code     int        `json:"code,omitempty"`
	NextPage *string    `json:"nextpage,omitempty"`
}

type streamJSON struct {
	URL           string `json:"url"`
	Format        string `json:"format"`
	Quality       string `json:"quality"`
	MimeType      string `json:"mimeType"`
	Codec         string `json:"codec"`
	Bitrate       int    `json:"bitrate"`
	ContentLength int64  `json:"contentLength"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	VideoOnly     bool   `json:"videoOnly"`
}

type streamsJSON struct {
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	UploadDate       string       `json:"uploadDate"`
	Uploader         string       `json:"uploader"`
	UploaderURL      string       `json:"uploaderUrl"`
	UploaderAvatar   string       `json:"uploaderAvatar"`
	UploaderVerified bool         `json:"uploaderVerified"`
	ThumbnailURL     string       `json:"thumbnailUrl"`
	Duration         int          `json:"duration"`
	Views            int64        `json:"views"`
	AudioStreams     []streamJSON `json:"audioStreams"`
	VideoStreams     []streamJSON `json:"videoStreams"`
}

type videoJSON struct {
	Status  string `json:"status"`
	URL     string `json:"url"`
	Quality string `json:"quality"`
}

// Page is one listing response.
type Page struct {
	Items    []*media.Item     `json:"items"`
	Message  string            `json:"message,omitempty"`
	Code     int               `json:"code,omitempty"`
	// NextPage is the continuation token, when the listing has more.
	NextPage mo.Option[string] `json:"nextpage"`
}

func (e *envelopeJSON) page() *Page {
	items := make([]*media.Item, 0, len(e.Items))
	for _, raw := range e.Items {
		if raw.Type != "" && raw.Type != "stream" {
			continue
		}
		items = append(items, raw.item())
	}

	p := &Page{Items: items, Message: e.Message, Code: e.Code, NextPage: mo.None[string]()}
	if e.NextPage != nil && *e.NextPage != "" {
		p.NextPage = mo.Some(*e.NextPage)
	}
	return p
}

func (i itemJSON) item() *media.Item {
	item := &media.Item{
		URL:              i.URL,
		Title:            i.Title,
		Thumbnail:        i.Thumbnail,
		UploaderName:     i.UploaderName,
		UploaderURL:      i.UploaderURL,
		UploaderAvatar:   i.UploaderAvatar,
		UploaderVerified: i.UploaderVerified,
		Duration:         max(i.Duration, 0),
		Views:            i.Views,
		Uploaded:         i.Uploaded,
		UploadedLabel:    i.UploadedDate,
		ShortDescription: i.ShortDescription,
		IsShort:          i.IsShort,
	}
	// Items with unusable links are kept; playing them fails with an invalid source error.
	item.ID, _ = media.ExtractSourceID(i.URL)
	return item
}

// Streams is a stream resolution response.
type Streams struct {
	Title            string
	Description      string
	UploadDate       string
	Uploader         string
	UploaderURL      string
	UploaderAvatar   string
	UploaderVerified bool
	Thumbnail        string
	Duration         int
	Views            int64

	Audio []*media.AudioStream
	Video []*media.VideoStream
}

func (s *streamsJSON) streams() *Streams {
	out := &Streams{
		Title:            s.Title,
		Description:      s.Description,
		UploadDate:       s.UploadDate,
		Uploader:         s.Uploader,
		UploaderURL:      s.UploaderURL,
		UploaderAvatar:   s.UploaderAvatar,
		UploaderVerified: s.UploaderVerified,
		Thumbnail:        s.ThumbnailURL,
		Duration:         max(s.Duration, 0),
		Views:            s.Views,
	}

	out.Audio = lo.FilterMap(s.AudioStreams, func(raw streamJSON, _ int) (*media.AudioStream, bool) {
		return &media.AudioStream{Stream: raw.stream()}, raw.URL != ""
	})
	out.Video = lo.FilterMap(s.VideoStreams, func(raw streamJSON, _ int) (*media.VideoStream, bool) {
		return &media.VideoStream{Stream: raw.stream(), Width: raw.Width, Height: raw.Height}, raw.URL != ""
	})

	return out
}

func (s streamJSON) stream() media.Stream {
	return media.Stream{
		URL:           s.URL,
		Quality:       s.Quality,
		MimeType:      s.MimeType,
		Codec:         s.Codec,
		Format:        s.Format,
		Bitrate:       max(s.Bitrate, 0),
		ContentLength: max(s.ContentLength, 0),
	}
}

// ItemFromStreams builds a catalog item from a streams response, for links played directly.
func ItemFromStreams(id string, s *Streams) *media.Item {
	return &media.Item{
		ID:               id,
		URL:              "/watch?v=" + id,
		Title:            s.Title,
		Thumbnail:        s.Thumbnail,
		UploaderName:     s.Uploader,
		UploaderURL:      s.UploaderURL,
		UploaderAvatar:   s.UploaderAvatar,
		UploaderVerified: s.UploaderVerified,
		Duration:         s.Duration,
		Views:            s.Views,
		UploadedLabel:    s.UploadDate,
		ShortDescription: firstLine(s.Description),
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
