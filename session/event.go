package session

import (
	"time"

	"github.com/spetersoncode/aguichat/protocol"
)

// EventType identifies the kind of diagnostic event emitted by a Service.
type EventType string

const (
	// EventStreamStart fires when an outbound request begins.
	EventStreamStart EventType = "stream_start"

	// EventStreamEnd fires when a stream terminates, successfully or not.
	EventStreamEnd EventType = "stream_end"

	// EventApplied fires after a protocol event mutates conversation state.
	EventApplied EventType = "applied"

	// EventInformational fires for protocol events with no state effect
	// (run/step lifecycle, tool calls, RAW, CUSTOM).
	EventInformational EventType = "informational"

	// EventUnrecognized fires for event types outside the known vocabulary.
	// Not an error; the record is ignored for state purposes.
	EventUnrecognized EventType = "unrecognized"

	// EventDecodeFailure fires when a payload is dropped as malformed.
	// The stream keeps flowing.
	EventDecodeFailure EventType = "decode_failure"
)

// Event is an observable occurrence during a stream, for diagnostics only.
// State changes are delivered through the OnChange hook, not through here.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Protocol holds the decoded protocol event, when one exists.
	Protocol *protocol.Event

	// Payload is the raw payload for decode failures.
	Payload string

	// Error carries the decode failure or terminal stream error.
	Error error

	// Duration is the elapsed stream time for EventStreamEnd.
	Duration time.Duration

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
// If the channel is full or nil, the event is dropped.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
