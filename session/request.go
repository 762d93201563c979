package session

import (
	"github.com/spetersoncode/aguichat"
)

// Request is the outbound JSON body posted to the agent endpoint. The
// baseline shape is just the message history; state and tool declarations
// are optional extensions enabled via Service options.
type Request struct {
	Messages []RequestMessage     `json:"messages"`
	State    *aguichat.AgentState `json:"state,omitempty"`
	Tools    []aguichat.Tool      `json:"tools,omitempty"`
}

// RequestMessage is the wire subset of a message sent upstream: role and
// content only, no timestamps.
type RequestMessage struct {
	Role    aguichat.Role `json:"role"`
	Content string        `json:"content"`
}

// newRequest builds the request body from the current history.
func newRequest(msgs []aguichat.Message, state *aguichat.AgentState, tools []aguichat.Tool) Request {
	req := Request{
		Messages: make([]RequestMessage, 0, len(msgs)),
		State:    state,
		Tools:    tools,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, RequestMessage{Role: m.Role, Content: m.Content})
	}
	return req
}
