package media

import "errors"

// Kind classifies playback failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidSource: the item's URL yields no source identifier. Not retryable with the same item.
	KindInvalidSource
	// KindStreamFetchTimeout: the stream request outlived its deadline. Retryable by the user.
	KindStreamFetchTimeout
	// KindNetwork: the stream request failed in transit. Retryable by the user.
	KindNetwork
	// KindNoStreamsAvailable: the catalog returned no playable audio. Terminal for the item.
	KindNoStreamsAvailable
	// KindMediaElementPlayback: the audio element refused to play or failed to decode.
	KindMediaElementPlayback
	// KindVideoResolution: the optional video channel could not be resolved or played.
	KindVideoResolution
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindInvalidSource:        "invalid source",
	KindStreamFetchTimeout:   "stream fetch timeout",
	KindNetwork:              "network",
	KindNoStreamsAvailable:   "no streams available",
	KindMediaElementPlayback: "media element playback",
	KindVideoResolution:      "video resolution",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Error is a classified playback failure.
type Error struct {
	Kind     Kind
	SourceID string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.SourceID != "" {
		msg = e.SourceID + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether re-selecting the same item may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindStreamFetchTimeout || e.Kind == KindNetwork
}

// Surfaced reports whether the failure prevents playback and must be shown to the user.
// Element and video failures are recovered locally.
func (e *Error) Surfaced() bool {
	switch e.Kind {
	case KindMediaElementPlayback, KindVideoResolution:
		return false
	default:
		return true
	}
}

// UserMessage is the text shown in the transient notification.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidSource:
		return "Cannot play this item"
	case KindStreamFetchTimeout:
		return "The catalog took too long to answer, try again"
	case KindNetwork:
		return "Could not reach the catalog, try again"
	case KindNoStreamsAvailable:
		return "No playable streams for this item"
	default:
		return "Playback problem"
	}
}

// Sentinels for errors.Is.
var (
	ErrInvalidSource        = &Error{Kind: KindInvalidSource}
	ErrStreamFetchTimeout   = &Error{Kind: KindStreamFetchTimeout}
	ErrNetwork              = &Error{Kind: KindNetwork}
	ErrNoStreamsAvailable   = &Error{Kind: KindNoStreamsAvailable}
	ErrMediaElementPlayback = &Error{Kind: KindMediaElementPlayback}
	ErrVideoResolution      = &Error{Kind: KindVideoResolution}
)

// Classify returns err as a *Error when it is one.
func Classify(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
