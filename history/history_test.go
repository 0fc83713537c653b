package history

import (
	"sync"
	"testing"
	"time"

	"github.com/podtube-cli/podtube/filesystem"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/store"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func reset() {
	saved, _ := Get()
	for id := range saved {
		_ = Remove(id)
	}
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		reset()
		episode := &media.Item{ID: "dQw4w9WgXcQ", URL: "/watch?v=dQw4w9WgXcQ", Title: "Episode", UploaderName: "Host"}

		So(Last().IsAbsent(), ShouldBeTrue)

		Convey("When saving a position", func() {
			So(Save(episode, 42, 600), ShouldBeNil)

			Convey("Then it should be found by source id", func() {
				record, ok := Find("dQw4w9WgXcQ").Get()
				So(ok, ShouldBeTrue)
				So(record.Title, ShouldEqual, "Episode")
				So(record.Uploader, ShouldEqual, "Host")
				So(record.Position, ShouldEqual, 42)
				So(record.Resume(), ShouldEqual, 42)
				So(record.Item().Same(episode), ShouldBeTrue)
			})

			Convey("Then saving with an unknown duration should keep the known one", func() {
				So(Save(episode, 50, store.DurationUnknown), ShouldBeNil)
				record := Find("dQw4w9WgXcQ").MustGet()
				So(record.Position, ShouldEqual, 50)
				So(record.Duration, ShouldEqual, 600)
			})

			Convey("Then a position near the end should resume from the start", func() {
				So(Save(episode, 590, 600), ShouldBeNil)
				record := Find("dQw4w9WgXcQ").MustGet()
				So(record.Finished(), ShouldBeTrue)
				So(record.Resume(), ShouldEqual, 0)
			})

			Convey("Then removing it should forget it", func() {
				So(Remove("dQw4w9WgXcQ"), ShouldBeNil)
				So(Find("dQw4w9WgXcQ").IsAbsent(), ShouldBeTrue)
			})
		})

		Convey("An item without a source id should not be saved", func() {
			So(Save(&media.Item{URL: "https://example.com"}, 1, 2), ShouldNotBeNil)
		})

		Convey("Last should return the most recently updated item", func() {
			other := &media.Item{ID: "aaaaaaaaaaa", URL: "/watch?v=aaaaaaaaaaa", Title: "Other"}
			So(Save(other, 1, 10), ShouldBeNil)
			time.Sleep(5 * time.Millisecond)
			So(Save(episode, 2, 10), ShouldBeNil)

			So(Last().MustGet().SourceID, ShouldEqual, "dQw4w9WgXcQ")
		})
	})
}

func TestRecorder(t *testing.T) {
	Convey("Given a recorder attached to a store", t, func() {
		reset()
		first := &media.Item{ID: "aaaaaaaaaaa", URL: "/watch?v=aaaaaaaaaaa", Title: "First"}
		second := &media.Item{ID: "bbbbbbbbbbb", URL: "/watch?v=bbbbbbbbbbb", Title: "Second"}

		st := store.New()
		r := Record(st)

		st.SetCurrentPodcast(first)
		st.SetIsPlaying(true)
		st.SetDuration(300)
		st.SetCurrentTime(120)

		Convey("Pausing should save the position", func() {
			st.SetIsPlaying(false)
			r.Close()

			So(Find("aaaaaaaaaaa").MustGet().Position, ShouldEqual, 120)
		})

		Convey("Replacing the item should save the position reached in the previous one", func() {
			st.SetCurrentPodcast(second)
			st.SetCurrentTime(7)
			r.Close()

			So(Find("aaaaaaaaaaa").MustGet().Position, ShouldEqual, 120)
			So(Find("bbbbbbbbbbb").MustGet().Position, ShouldEqual, 7)
		})

		Convey("Closing twice should be harmless", func() {
			r.Close()
			So(r.Close, ShouldNotPanic)
		})
	})
}

func TestRecorderStalledWrites(t *testing.T) {
	Convey("Given a recorder whose writes are stalled", t, func() {
		release := make(chan struct{})
		var mu sync.Mutex
		var positions []float64
		save = func(_ *media.Item, position, _ float64) error {
			<-release
			mu.Lock()
			defer mu.Unlock()
			positions = append(positions, position)
			return nil
		}
		defer func() { save = Save }()

		st := store.New()
		st.SetCurrentPodcast(&media.Item{ID: "aaaaaaaaaaa", URL: "/watch?v=aaaaaaaaaaa", Title: "First"})
		r := Record(st)

		paused := make(chan struct{})
		go func() {
			defer close(paused)
			for i := 1; i <= 40; i++ {
				st.SetIsPlaying(true)
				st.SetCurrentTime(float64(i))
				st.SetIsPlaying(false)
			}
		}()

		Convey("Pausing many times should not wait for the writes", func() {
			select {
			case <-paused:
			case <-time.After(5 * time.Second):
			}
			So(st.IsPlaying(), ShouldBeFalse)
			So(st.CurrentTime(), ShouldEqual, 40)

			close(release)
			r.Close()

			mu.Lock()
			defer mu.Unlock()
			So(positions, ShouldHaveLength, 41)
			So(positions[len(positions)-1], ShouldEqual, 40)
		})
	})
}
