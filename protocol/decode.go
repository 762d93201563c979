package protocol

import (
	"encoding/json"
	"time"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/aguichat"
)

// header is the envelope every payload must at least provide.
type header struct {
	Type      events.EventType `json:"type"`
	Timestamp *int64           `json:"timestamp"` // milliseconds since epoch
}

// Decode parses one event payload. It returns a decode error (category
// [aguichat.ErrorDecode]) when the payload is not a JSON object, lacks a
// type tag, or its type-specific fields do not match the expected shape.
// An unknown type tag is not an error: the event comes back with Unknown
// set and the raw payload attached. Decode never panics; the caller is
// expected to drop errored records and keep consuming the stream.
func Decode(payload []byte) (Event, error) {
	var h header
	if err := json.Unmarshal(payload, &h); err != nil {
		return Event{}, aguichat.NewDecodeError("malformed event payload", err)
	}
	if h.Type == "" {
		return Event{}, aguichat.NewDecodeError("event payload missing type", nil)
	}

	ev := Event{Type: h.Type}
	if h.Timestamp != nil {
		ev.Timestamp = time.UnixMilli(*h.Timestamp)
	}

	if !Recognized(h.Type) {
		ev.Unknown = true
		ev.Raw = append(json.RawMessage(nil), payload...)
		return ev, nil
	}

	var err error
	switch h.Type {
	case events.EventTypeRunStarted:
		var w struct {
			ThreadID string `json:"threadId"`
			RunID    string `json:"runId"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ThreadID = w.ThreadID
			ev.RunID = w.RunID
		}

	case events.EventTypeRunFinished:
		var w struct {
			ThreadID string          `json:"threadId"`
			RunID    string          `json:"runId"`
			Result   json.RawMessage `json:"result"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ThreadID = w.ThreadID
			ev.RunID = w.RunID
			ev.Result = w.Result
		}

	case events.EventTypeRunError:
		var w struct {
			Message string `json:"message"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ErrorMessage = w.Message
		}

	case events.EventTypeStepStarted, events.EventTypeStepFinished:
		var w struct {
			StepName string `json:"stepName"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.StepName = w.StepName
		}

	case events.EventTypeTextMessageStart:
		var w struct {
			MessageID string `json:"messageId"`
			Role      string `json:"role"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.MessageID = w.MessageID
			ev.Role = w.Role
		}

	case events.EventTypeTextMessageContent:
		var w struct {
			MessageID string  `json:"messageId"`
			Delta     string  `json:"delta"`
			Content   *string `json:"content"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.MessageID = w.MessageID
			ev.Delta = w.Delta
			ev.Content = w.Content
		}

	case events.EventTypeTextMessageEnd:
		var w struct {
			MessageID string `json:"messageId"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.MessageID = w.MessageID
		}

	case events.EventTypeToolCallStart:
		var w struct {
			ToolCallID   string `json:"toolCallId"`
			ToolCallName string `json:"toolCallName"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ToolCallID = w.ToolCallID
			ev.ToolCallName = w.ToolCallName
		}

	case events.EventTypeToolCallArgs:
		var w struct {
			ToolCallID string `json:"toolCallId"`
			Delta      string `json:"delta"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ToolCallID = w.ToolCallID
			ev.Delta = w.Delta
		}

	case events.EventTypeToolCallEnd:
		var w struct {
			ToolCallID string `json:"toolCallId"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.ToolCallID = w.ToolCallID
		}

	case events.EventTypeStateSnapshot:
		var w struct {
			Snapshot *aguichat.AgentState `json:"snapshot"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			if w.Snapshot == nil {
				return Event{}, aguichat.NewDecodeError("state snapshot missing snapshot field", nil)
			}
			ev.Snapshot = w.Snapshot.Normalize()
		}

	case events.EventTypeStateDelta:
		// This protocol carries a partial AgentState object, not a JSON
		// Patch array. An array here fails the unmarshal and the record
		// is dropped like any other malformed payload.
		var w struct {
			Delta *aguichat.AgentStatePatch `json:"delta"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			if w.Delta == nil {
				return Event{}, aguichat.NewDecodeError("state delta missing delta field", nil)
			}
			ev.Patch = w.Delta
		}

	case events.EventTypeMessagesSnapshot:
		var w struct {
			Messages []wireMessage `json:"messages"`
		}
		if err = json.Unmarshal(payload, &w); err == nil {
			ev.Messages = make([]aguichat.Message, 0, len(w.Messages))
			for _, m := range w.Messages {
				ev.Messages = append(ev.Messages, m.toMessage())
			}
		}

	case events.EventTypeRaw, events.EventTypeCustom:
		ev.Raw = append(json.RawMessage(nil), payload...)
	}

	if err != nil {
		return Event{}, aguichat.NewDecodeError("malformed "+string(h.Type)+" payload", err)
	}
	return ev, nil
}

// wireMessage is the message shape inside MESSAGES_SNAPSHOT. Content may be
// null on the wire (AG-UI allows content-less messages).
type wireMessage struct {
	Role      string  `json:"role"`
	Content   *string `json:"content"`
	Timestamp *int64  `json:"timestamp"`
}

func (m wireMessage) toMessage() aguichat.Message {
	out := aguichat.Message{Role: aguichat.Role(m.Role)}
	if m.Content != nil {
		out.Content = *m.Content
	}
	if m.Timestamp != nil {
		out.Timestamp = time.UnixMilli(*m.Timestamp)
	}
	return out
}
