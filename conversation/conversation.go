// Package conversation holds the pure state-transition core of the client.
//
// [Reduce] maps (current state, one decoded event) to the next state and has
// no side effects; every slice it returns is freshly cloned before mutation,
// so a State handed to an observer is never changed behind its back. The
// service facade owns the single mutable State and is the only caller.
package conversation

import (
	"slices"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/aguichat"
	"github.com/spetersoncode/aguichat/protocol"
)

// State is the aggregate conversation state.
type State struct {
	// Messages is the ordered message list, arrival order.
	Messages []aguichat.Message

	// Agent is the latest agent-state snapshot, nil until one arrives.
	Agent *aguichat.AgentState

	// Draft is the open assistant buffer: the in-progress text of the
	// currently streaming assistant message. At most one assistant message
	// is open at a time; closing the draft finalizes it.
	Draft *string
}

// Open reports whether an assistant message is currently streaming.
func (s State) Open() bool {
	return s.Draft != nil
}

// WithUser returns the state after an outbound user message: the message is
// appended and any open assistant buffer is closed.
func WithUser(s State, msg aguichat.Message) State {
	s.Messages = append(slices.Clone(s.Messages), msg)
	s.Draft = nil
	return s
}

// Reduce applies one decoded event and returns the next state.
//
// Lifecycle events (RUN_STARTED, STEP_*), tool-call events, RAW, CUSTOM,
// and unrecognized events have no state effect here; the facade forwards
// them to its diagnostics hook. RUN_ERROR likewise does not touch the
// conversation; it surfaces as the session error.
func Reduce(s State, ev protocol.Event) State {
	if ev.Unknown {
		return s
	}

	switch ev.Type {
	case events.EventTypeTextMessageContent:
		buf := ""
		if s.Draft != nil {
			buf = *s.Draft
		}
		if ev.Content != nil {
			buf = *ev.Content
		} else {
			buf += ev.Delta
		}
		s.Draft = &buf
		s.Messages = upsertAssistant(s.Messages, buf, ev)

	case events.EventTypeTextMessageEnd, events.EventTypeRunFinished:
		s.Draft = nil

	case events.EventTypeStateSnapshot:
		if ev.Snapshot == nil {
			return s
		}
		// Reject stale snapshots: version never decreases in a session.
		if s.Agent != nil && ev.Snapshot.Version < s.Agent.Version {
			return s
		}
		snap := *ev.Snapshot
		s.Agent = &snap

	case events.EventTypeStateDelta:
		if ev.Patch == nil {
			return s
		}
		cur := aguichat.AgentState{}
		if s.Agent != nil {
			cur = *s.Agent
		}
		// A delta that carries a version must advance it strictly.
		if ev.Patch.Version != nil && s.Agent != nil && *ev.Patch.Version <= cur.Version {
			return s
		}
		merged := cur.Merge(*ev.Patch)
		s.Agent = &merged

	case events.EventTypeMessagesSnapshot:
		s.Messages = slices.Clone(ev.Messages)
	}

	return s
}

// upsertAssistant makes the trailing message reflect the open buffer: the
// last message's content is replaced if it is an assistant message,
// otherwise a new assistant message is appended. Exactly one assistant
// message mirrors the in-progress text at all times.
func upsertAssistant(msgs []aguichat.Message, content string, ev protocol.Event) []aguichat.Message {
	out := slices.Clone(msgs)
	if n := len(out); n > 0 && out[n-1].Role == aguichat.RoleAssistant {
		out[n-1].Content = content
		return out
	}
	return append(out, aguichat.Message{
		Role:      aguichat.RoleAssistant,
		Content:   content,
		Timestamp: ev.Timestamp,
	})
}
