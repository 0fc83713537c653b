// Package media defines the catalog entries and resolved streams handled by the player.
package media

import (
	"fmt"
	"time"
)

// Item is a playable catalog entry: one podcast episode or video.
// Items are immutable once decoded; replacing the current item replaces the value.
type Item struct {
	// ID is the source identifier extracted from URL. Empty when extraction failed.
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`

	Thumbnail string `json:"thumbnail"`

	UploaderName     string `json:"uploader_name"`
	UploaderURL      string `json:"uploader_url"`
	UploaderAvatar   string `json:"uploader_avatar"`
	UploaderVerified bool   `json:"uploader_verified"`

	// Duration in whole seconds, 0 when the catalog does not know it.
	Duration int   `json:"duration"`
	Views    int64 `json:"views"`

	// Uploaded is the upload time in epoch milliseconds; UploadedLabel is the catalog's relative label.
	Uploaded      int64  `json:"uploaded"`
	UploadedLabel string `json:"uploaded_label"`

	ShortDescription string `json:"short_description"`
	IsShort          bool   `json:"is_short"`
}

// NewItem builds an item from its source URL, extracting the identifier.
// The item is still returned on failure so callers can display it; playing it will fail with ErrInvalidSource.
func NewItem(url, title string) (*Item, error) {
	item := &Item{URL: url, Title: title}
	id, err := ExtractSourceID(url)
	if err != nil {
		return item, err
	}
	item.ID = id
	return item, nil
}

// SourceID returns the item's identifier, re-deriving it from the URL when needed.
func (i *Item) SourceID() (string, error) {
	if i == nil {
		return "", &Error{Kind: KindInvalidSource, Message: "no item"}
	}
	if i.ID != "" {
		return i.ID, nil
	}
	return ExtractSourceID(i.URL)
}

// Same reports whether both items refer to the same source.
func (i *Item) Same(other *Item) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i == other {
		return true
	}
	a, errA := i.SourceID()
	b, errB := other.SourceID()
	if errA != nil || errB != nil {
		return i.URL == other.URL
	}
	return a == b
}

func (i *Item) String() string {
	return i.Title
}

// Length returns the catalog duration.
func (i *Item) Length() time.Duration {
	return time.Duration(i.Duration) * time.Second
}

// UploadedAt returns the upload time, or the zero time when unknown.
func (i *Item) UploadedAt() time.Time {
	if i.Uploaded <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(i.Uploaded)
}

// Thumb returns the CDN thumbnail for the requested quality, falling back to the catalog thumbnail.
func (i *Item) Thumb(q ThumbnailQuality) string {
	id, err := i.SourceID()
	if err != nil {
		return i.Thumbnail
	}
	return ThumbnailURL(id, q)
}

// Describe returns a one-line summary used by list views.
func (i *Item) Describe() string {
	uploader := i.UploaderName
	if i.UploaderVerified {
		uploader += " ✓"
	}
	if i.Duration <= 0 {
		return uploader
	}
	return fmt.Sprintf("%s • %s", uploader, FormatClock(float64(i.Duration)))
}

// FormatClock renders seconds as m:ss or h:mm:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		return "--:--"
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
