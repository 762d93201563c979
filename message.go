package aguichat

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
// Ordering within a conversation is arrival order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Timestamp records when the message was created. Optional; the zero
	// value is omitted on the wire.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Tool declares a frontend tool forwarded to the agent in the request body.
// The client never executes tools itself; declarations are passed through
// so the agent knows what the frontend can handle.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// GenerateConversationID creates a unique conversation identifier.
func GenerateConversationID() string {
	return "conv-" + uuid.New().String()
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}
