package main

import "errors"

// Event is a notification raised by the playback engine.
type Event int

const (
	// EventLoadedMetadata fires once the duration is known.
	EventLoadedMetadata Event = iota
	// EventTimeUpdate fires periodically while playing.
	EventTimeUpdate
	// EventEnded fires when playback reaches the end of the resource.
	EventEnded
	// EventError fires when the resource cannot be opened or decoded.
	EventError
)

func (e Event) String() string {
	switch e {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Audio is one loaded audio resource of the playback engine.
//
// Listeners and Play callbacks are delivered on the UI loop, never
// concurrently with each other.
type Audio interface {
	Source() string

	// Position is the playback position in seconds.
	Position() float64
	SetPosition(seconds float64)

	// Duration is the total length in seconds, NaN until metadata loads.
	Duration() float64

	// SetVolume takes a value in [0, 1].
	SetVolume(v float64)

	// Play requests playback start. done is called exactly once with nil
	// when playback started, or with the reason it was refused.
	Play(done func(error))
	Pause()

	On(e Event, fn func())

	// Err reports the load failure, if any.
	Err() error

	// Close releases the resource. No events fire afterwards.
	Close() error
}

// AudioFactory builds an Audio for a source locator. It never fails;
// load failures surface through EventError.
type AudioFactory func(source string) Audio

// Dispatcher schedules fn onto the UI loop.
type Dispatcher func(fn func())

var (
	errUnsupportedFormat = errors.New("unsupported audio format")
	errNotLoaded         = errors.New("audio not loaded")
	errClosed            = errors.New("audio closed")
	errInterrupted       = errors.New("play request interrupted by pause")
)
