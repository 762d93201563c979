package aguichat

import "time"

// AgentState is the agent's side-channel state, synchronized to the client
// via STATE_SNAPSHOT and STATE_DELTA events. The JSON shape matches what the
// agent backend emits (snake_case).
type AgentState struct {
	ConversationID  string         `json:"conversation_id"`
	UserPreferences map[string]any `json:"user_preferences,omitempty"`
	Context         string         `json:"context,omitempty"`
	AgentThoughts   []string       `json:"agent_thoughts,omitempty"`
	CurrentTask     string         `json:"current_task,omitempty"`
	CurrentStep     string         `json:"current_step,omitempty"`
	// Progress is the agent's task completion estimate, always in [0, 1].
	Progress  float64    `json:"progress"`
	Proposals []Proposal `json:"proposals,omitempty"`
	// Version never decreases within a session; stale snapshots and deltas
	// are rejected by the reducer.
	Version        int64          `json:"version"`
	LastUpdated    time.Time      `json:"last_updated,omitzero"`
	ReasoningChain []string       `json:"reasoning_chain,omitempty"`
	WorkingMemory  map[string]any `json:"working_memory,omitempty"`
	NextActions    []string       `json:"next_actions,omitempty"`
}

// Proposal is an action the agent proposes to take, possibly requiring
// user approval before execution.
type Proposal struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Reasoning   string         `json:"reasoning,omitempty"`
	// Confidence is the agent's confidence in the proposal, in [0, 1].
	Confidence       float64   `json:"confidence"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
}

// AgentStatePatch is a partial AgentState carried by STATE_DELTA events.
// Scalar fields are pointers so "absent" and "zero" stay distinguishable;
// slice and map fields use nil for absent and replace wholesale when set.
type AgentStatePatch struct {
	ConversationID  *string        `json:"conversation_id,omitempty"`
	UserPreferences map[string]any `json:"user_preferences,omitempty"`
	Context         *string        `json:"context,omitempty"`
	AgentThoughts   []string       `json:"agent_thoughts,omitempty"`
	CurrentTask     *string        `json:"current_task,omitempty"`
	CurrentStep     *string        `json:"current_step,omitempty"`
	Progress        *float64       `json:"progress,omitempty"`
	Proposals       []Proposal     `json:"proposals,omitempty"`
	Version         *int64         `json:"version,omitempty"`
	LastUpdated     *time.Time     `json:"last_updated,omitempty"`
	ReasoningChain  []string       `json:"reasoning_chain,omitempty"`
	WorkingMemory   map[string]any `json:"working_memory,omitempty"`
	NextActions     []string       `json:"next_actions,omitempty"`
}

// Normalize clamps out-of-range numeric fields to their documented bounds.
// Returns the receiver for chaining.
func (s *AgentState) Normalize() *AgentState {
	if s == nil {
		return nil
	}
	s.Progress = clamp01(s.Progress)
	for i := range s.Proposals {
		s.Proposals[i].Confidence = clamp01(s.Proposals[i].Confidence)
	}
	return s
}

// Merge applies a patch field-by-field and returns the merged state.
// The receiver is not modified. Scalars overwrite; sequences and maps
// replace wholesale per field, never deep-merged. Version monotonicity is
// enforced by the caller, not here.
func (s AgentState) Merge(p AgentStatePatch) AgentState {
	if p.ConversationID != nil {
		s.ConversationID = *p.ConversationID
	}
	if p.UserPreferences != nil {
		s.UserPreferences = p.UserPreferences
	}
	if p.Context != nil {
		s.Context = *p.Context
	}
	if p.AgentThoughts != nil {
		s.AgentThoughts = p.AgentThoughts
	}
	if p.CurrentTask != nil {
		s.CurrentTask = *p.CurrentTask
	}
	if p.CurrentStep != nil {
		s.CurrentStep = *p.CurrentStep
	}
	if p.Progress != nil {
		s.Progress = clamp01(*p.Progress)
	}
	if p.Proposals != nil {
		s.Proposals = p.Proposals
	}
	if p.Version != nil {
		s.Version = *p.Version
	}
	if p.LastUpdated != nil {
		s.LastUpdated = *p.LastUpdated
	}
	if p.ReasoningChain != nil {
		s.ReasoningChain = p.ReasoningChain
	}
	if p.WorkingMemory != nil {
		s.WorkingMemory = p.WorkingMemory
	}
	if p.NextActions != nil {
		s.NextActions = p.NextActions
	}
	return s
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
