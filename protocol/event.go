// Package protocol decodes AG-UI event payloads into typed events.
//
// Each SSE payload is a JSON object with at least a `type` tag drawn from
// the AG-UI vocabulary. [Decode] validates the tag and the type-specific
// fields; malformed payloads produce a recoverable decode error, and
// unknown tags are wrapped as an unrecognized event rather than failing,
// so a stream from a newer server keeps flowing.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/aguichat"
)

// Event is one decoded AG-UI protocol event. A single struct carries the
// union; only the fields defined for the event's Type are populated.
type Event struct {
	// Type is the AG-UI event tag. For unrecognized tags this holds the
	// raw tag value and Unknown is set.
	Type events.EventType

	// ThreadID and RunID identify the run for lifecycle events.
	ThreadID string
	RunID    string

	// MessageID correlates text-message lifecycle events.
	MessageID string

	// Delta is the incremental text fragment for TEXT_MESSAGE_CONTENT, or
	// the argument fragment for TOOL_CALL_ARGS.
	Delta string

	// Content, when non-nil, is a full replacement for the in-progress
	// message text. TEXT_MESSAGE_CONTENT carries either Content or Delta.
	Content *string

	// Role is the message role announced by TEXT_MESSAGE_START.
	Role string

	// StepName identifies the step for STEP_STARTED and STEP_FINISHED.
	StepName string

	// ToolCallID and ToolCallName identify a tool call.
	ToolCallID   string
	ToolCallName string

	// ErrorMessage carries the RUN_ERROR message.
	ErrorMessage string

	// Result is the optional RUN_FINISHED result, left opaque.
	Result json.RawMessage

	// Snapshot is the full agent state carried by STATE_SNAPSHOT.
	Snapshot *aguichat.AgentState

	// Patch is the partial agent state carried by STATE_DELTA.
	Patch *aguichat.AgentStatePatch

	// Messages is the full message list carried by MESSAGES_SNAPSHOT.
	Messages []aguichat.Message

	// Raw holds the original payload for RAW, CUSTOM, and unrecognized
	// events, which have no defined state effect.
	Raw json.RawMessage

	// Unknown marks an event whose tag is not in the protocol vocabulary.
	Unknown bool

	// Timestamp is the optional event timestamp from the wire.
	Timestamp time.Time
}

// knownTypes is the closed AG-UI vocabulary this client recognizes.
var knownTypes = map[events.EventType]bool{
	events.EventTypeRunStarted:         true,
	events.EventTypeRunFinished:        true,
	events.EventTypeRunError:           true,
	events.EventTypeStepStarted:        true,
	events.EventTypeStepFinished:       true,
	events.EventTypeTextMessageStart:   true,
	events.EventTypeTextMessageContent: true,
	events.EventTypeTextMessageEnd:     true,
	events.EventTypeToolCallStart:      true,
	events.EventTypeToolCallArgs:       true,
	events.EventTypeToolCallEnd:        true,
	events.EventTypeStateSnapshot:      true,
	events.EventTypeStateDelta:         true,
	events.EventTypeMessagesSnapshot:   true,
	events.EventTypeRaw:                true,
	events.EventTypeCustom:             true,
}

// Recognized reports whether typ is part of the protocol vocabulary.
func Recognized(typ events.EventType) bool {
	return knownTypes[typ]
}
