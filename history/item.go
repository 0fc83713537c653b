package history

import (
	"fmt"
	"time"

	"github.com/podtube-cli/podtube/media"
)

// finishedRatio is the share of an item after which it is considered played through.
const finishedRatio = 0.95

// SavedItem is the resume record of one item.
type SavedItem struct {
	SourceID  string    `json:"source_id"`
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SavedItem) String() string {
	if s.Duration > 0 {
		return fmt.Sprintf("%s : %s / %s", s.Title, media.FormatClock(s.Position), media.FormatClock(s.Duration))
	}
	return fmt.Sprintf("%s : %s", s.Title, media.FormatClock(s.Position))
}

// Finished reports whether the item was played to (nearly) the end.
func (s *SavedItem) Finished() bool {
	return s.Duration > 0 && s.Position >= s.Duration*finishedRatio
}

// Resume returns the position playback should continue from.
func (s *SavedItem) Resume() float64 {
	if s.Finished() {
		return 0
	}
	return s.Position
}

// Item rebuilds a playable item from the record.
func (s *SavedItem) Item() *media.Item {
	return &media.Item{
		ID:           s.SourceID,
		URL:          s.URL,
		Title:        s.Title,
		UploaderName: s.Uploader,
		Thumbnail:    s.Thumbnail,
		Duration:     int(s.Duration),
	}
}

func newSavedItem(item *media.Item, position, duration float64) (*SavedItem, error) {
	id, err := item.SourceID()
	if err != nil {
		return nil, err
	}
	return &SavedItem{
		SourceID:  id,
		Title:     item.Title,
		Uploader:  item.UploaderName,
		URL:       item.URL,
		Thumbnail: item.Thumbnail,
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}, nil
}
