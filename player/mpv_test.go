package player

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArgs(t *testing.T) {
	Convey("Given an audio element", t, func() {
		mpv := NewMPV(ModeAudio, "")
		mpv.socketPath = "/tmp/podtube-audio.sock"
		args := strings.Join(mpv.args(), " ")

		Convey("It should start paused, idle and without video", func() {
			So(mpv.binary, ShouldEqual, "mpv")
			So(args, ShouldContainSubstring, "--input-ipc-server=/tmp/podtube-audio.sock")
			So(args, ShouldContainSubstring, "--pause=yes")
			So(args, ShouldContainSubstring, "--idle=yes")
			So(args, ShouldContainSubstring, "--vid=no")
			So(args, ShouldNotContainSubstring, "--mute=yes")
		})
	})

	Convey("Given a video element", t, func() {
		mpv := NewMPV(ModeVideo, "/usr/local/bin/mpv")
		args := strings.Join(mpv.args(), " ")

		Convey("It should be muted and open a window", func() {
			So(args, ShouldContainSubstring, "--mute=yes")
			So(args, ShouldContainSubstring, "--force-window=yes")
		})
	})

	Convey("Commands before start should fail fast", t, func() {
		mpv := NewMPV(ModeAudio, "mpv")
		So(mpv.Play(), ShouldEqual, ErrNotRunning)
		So(mpv.Unload(), ShouldBeNil)
		So(mpv.Close(), ShouldBeNil)
	})
}

func TestSanitize(t *testing.T) {
	Convey("Media targets", t, func() {
		_, err := sanitizeMediaTarget("--script=evil.lua")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("file:///etc/passwd")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("https://cdn.example/a\n--foo")
		So(err, ShouldNotBeNil)

		target, err := sanitizeMediaTarget(" https://cdn.example/audio?sig=1 ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "https://cdn.example/audio?sig=1")
	})

	Convey("Titles", t, func() {
		So(sanitizeTitle(" Episode\n1\t\x00 "), ShouldEqual, "Episode 1")
	})
}

func TestTranslate(t *testing.T) {
	Convey("Given mpv output lines", t, func() {
		cases := []struct {
			line string
			want Event
		}{
			{`{"event":"property-change","id":1,"name":"time-pos","data":12.5}`, Event{Kind: EventTimeUpdate, Time: 12.5}},
			{`{"event":"property-change","id":2,"name":"duration","data":3600}`, Event{Kind: EventDurationChange, Duration: 3600}},
			{`{"event":"property-change","id":3,"name":"pause","data":false}`, Event{Kind: EventPlaying}},
			{`{"event":"property-change","id":3,"name":"pause","data":true}`, Event{Kind: EventPaused}},
			{`{"event":"property-change","id":4,"name":"eof-reached","data":true}`, Event{Kind: EventEnded}},
			{`{"event":"end-file","reason":"eof"}`, Event{Kind: EventEnded}},
			{`{"event":"file-loaded"}`, Event{Kind: EventLoaded}},
		}

		Convey("Each should map to its element event", func() {
			for _, c := range cases {
				got, ok := translate([]byte(c.line))
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, c.want)
			}
		})

		Convey("Errors should carry mpv's reason", func() {
			got, ok := translate([]byte(`{"event":"end-file","reason":"error","file_error":"loading failed"}`))
			So(ok, ShouldBeTrue)
			So(got.Kind, ShouldEqual, EventError)
			So(got.Err.Error(), ShouldContainSubstring, "loading failed")
		})

		Convey("Replies and unobserved values should be dropped", func() {
			for _, line := range []string{
				`{"data":null,"error":"success","request_id":0}`,
				`{"event":"property-change","id":1,"name":"time-pos"}`,
				`{"event":"property-change","id":4,"name":"eof-reached","data":false}`,
				`{"event":"end-file","reason":"stop"}`,
				`not json`,
			} {
				_, ok := translate([]byte(line))
				So(ok, ShouldBeFalse)
			}
		})
	})
}
