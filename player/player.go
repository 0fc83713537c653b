// Package player abstracts the playback elements driven by the engine.
// The implementation targets mpv through its JSON-IPC interface: one process per element.
package player

import "fmt"

// Element is a single media element. It holds at most one source at a time
// and reports its progress through events.
type Element interface {
	// Load replaces the current source. Playback state (paused or not) is kept.
	Load(url, title string) error

	// Unload drops the current source and returns the element to idle.
	Unload() error

	Play() error

	Pause() error

	// Seek moves to an absolute position in seconds.
	Seek(seconds float64) error

	// SetVolume applies a volume in [0, 1].
	SetVolume(v float64) error

	SetMuted(muted bool) error

	// CurrentTime returns the element's own clock, in seconds.
	CurrentTime() (float64, error)

	// OnEvent installs the event handler, replacing any previous one.
	// Handlers run on the element's event goroutine.
	OnEvent(handler func(Event))

	Close() error
}

// EventKind names what an element reported.
type EventKind int

const (
	EventTimeUpdate EventKind = iota + 1
	// EventLoaded is sent once per Load, when the new source is ready.
	// Progress reported before it may still belong to the previous source.
	EventLoaded
	EventDurationChange
	EventPlaying
	EventPaused
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "timeupdate"
	case EventLoaded:
		return "loaded"
	case EventDurationChange:
		return "durationchange"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a notification from an element.
type Event struct {
	Kind EventKind
	// Time is set for EventTimeUpdate.
	Time float64
	// Duration is set for EventDurationChange, and for EventLoaded when known.
	Duration float64
	// Err is set for EventError.
	Err error
}
