// Package session provides the service facade that owns one conversation.
//
// A [Service] issues the outbound agent request, drives the SSE pipeline
// over the response body, and exposes read access to the resulting
// conversation state. It is the only component in the client with mutable,
// observable state; everything below it is a pure or carry-over stage.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/aguichat"
	"github.com/spetersoncode/aguichat/conversation"
	"github.com/spetersoncode/aguichat/protocol"
	"github.com/spetersoncode/aguichat/sse"
)

// Chat is the surface the UI layer binds to. *Service implements it.
type Chat interface {
	// Send posts a user message and consumes the resulting event stream.
	Send(ctx context.Context, text string) error

	// Messages returns the current ordered message list.
	Messages() []aguichat.Message

	// AgentState returns the latest agent state, or nil.
	AgentState() *aguichat.AgentState

	// IsLoading reports whether a stream is in flight.
	IsLoading() bool

	// Err returns the current session error, or nil.
	Err() error

	// Clear resets messages, agent state, and error.
	Clear()
}

var _ Chat = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the HTTP client used for agent requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithEvents sets an optional channel for diagnostic events. Events are
// sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) Option {
	return func(s *Service) { s.events = ch }
}

// WithOnChange registers a hook called with a state snapshot after every
// change. The hook runs on the goroutine driving the stream; keep it cheap.
func WithOnChange(fn func(conversation.State)) Option {
	return func(s *Service) { s.onChange = fn }
}

// WithTools forwards frontend tool declarations in every request body.
func WithTools(tools ...aguichat.Tool) Option {
	return func(s *Service) { s.tools = tools }
}

// WithStateForwarding includes the current agent state in request bodies,
// letting the agent resume from the client's view of its own state.
func WithStateForwarding() Option {
	return func(s *Service) { s.forwardState = true }
}

// Service owns a single conversation against one agent endpoint.
//
// At most one request is in flight at a time; Send during an active stream
// returns [aguichat.ErrBusy] without queuing and without aborting the
// active stream. All state mutation happens on the goroutine running Send;
// accessors may be called from any goroutine.
type Service struct {
	endpoint       string
	conversationID string
	client         *http.Client
	log            *slog.Logger
	events         chan<- Event
	onChange       func(conversation.State)
	tools          []aguichat.Tool
	forwardState   bool

	mu      sync.Mutex
	state   conversation.State
	loading bool
	err     error
}

// New creates a Service for the given agent endpoint.
func New(endpoint string, opts ...Option) *Service {
	s := &Service{
		endpoint:       endpoint,
		conversationID: aguichat.GenerateConversationID(),
		client:         http.DefaultClient,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a user message, posts the conversation to the agent, and
// applies the streamed events to the conversation state. It blocks until
// the stream ends; suspension happens only at network reads, so events are
// applied strictly in the order their lines were observed.
//
// Returns [aguichat.ErrBusy] when a stream is already in flight; the call
// has no effect on state in that case. Transport failures and agent
// RUN_ERROR events become the session error readable via Err.
func (s *Service) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return aguichat.ErrBusy
	}
	s.loading = true
	s.err = nil
	s.state = conversation.WithUser(s.state, aguichat.Message{
		Role:      aguichat.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	msgs := slices.Clone(s.state.Messages)
	var reqState *aguichat.AgentState
	if s.forwardState && s.state.Agent != nil {
		cp := *s.state.Agent
		reqState = &cp
	}
	s.mu.Unlock()
	s.notify()

	start := time.Now()
	log := s.log.With("conversation_id", s.conversationID)
	log.Info("request started", "message_count", len(msgs))
	emit(s.events, Event{Type: EventStreamStart})

	// Loading is cleared exactly once, whatever exit path is taken.
	var streamErr error
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		emit(s.events, Event{
			Type:     EventStreamEnd,
			Error:    streamErr,
			Duration: time.Since(start),
		})
	}()

	body, err := json.Marshal(newRequest(msgs, reqState, s.tools))
	if err != nil {
		streamErr = aguichat.NewTransportError("failed to encode request", 0, err)
		s.setErr(streamErr)
		return streamErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		streamErr = aguichat.NewTransportError("failed to build request", 0, err)
		s.setErr(streamErr)
		return streamErr
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		streamErr = aguichat.NewTransportError("request failed", 0, err)
		s.setErr(streamErr)
		return streamErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		streamErr = aguichat.NewTransportError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode, nil)
		s.setErr(streamErr)
		return streamErr
	}

	var received, applied, dropped int
	sc := sse.NewScanner(resp.Body)
	for sc.Scan() {
		received++
		ev, err := protocol.Decode([]byte(sc.Payload()))
		if err != nil {
			dropped++
			log.Debug("dropped malformed event", "error", err)
			emit(s.events, Event{Type: EventDecodeFailure, Payload: sc.Payload(), Error: err})
			continue
		}
		if s.handle(log, ev) {
			applied++
		}
	}
	if err := sc.Err(); err != nil {
		streamErr = aguichat.NewTransportError("stream read failed", 0, err)
		s.setErr(streamErr)
		log.Error("request failed", "error", err, "events_received", received)
		return streamErr
	}

	log.Info("request completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"events_received", received,
		"events_applied", applied,
		"events_dropped", dropped,
	)
	return nil
}

// handle routes one decoded event. Returns true if conversation state was
// touched.
func (s *Service) handle(log *slog.Logger, ev protocol.Event) bool {
	if ev.Unknown {
		log.Debug("ignoring unrecognized event", "event_type", string(ev.Type))
		emit(s.events, Event{Type: EventUnrecognized, Protocol: &ev})
		return false
	}

	if ev.Type == events.EventTypeRunError {
		perr := aguichat.NewProtocolError(ev.ErrorMessage)
		s.setErr(perr)
		log.Warn("agent reported error", "message", ev.ErrorMessage)
		emit(s.events, Event{Type: EventInformational, Protocol: &ev, Error: perr})
		return false
	}

	if !stateAffecting(ev.Type) {
		log.Debug("informational event", "event_type", string(ev.Type))
		emit(s.events, Event{Type: EventInformational, Protocol: &ev})
		return false
	}

	s.mu.Lock()
	s.state = conversation.Reduce(s.state, ev)
	s.mu.Unlock()
	s.notify()
	emit(s.events, Event{Type: EventApplied, Protocol: &ev})
	return true
}

// stateAffecting reports whether the event type has a defined effect on
// conversation state.
func stateAffecting(typ events.EventType) bool {
	switch typ {
	case events.EventTypeTextMessageContent,
		events.EventTypeTextMessageEnd,
		events.EventTypeRunFinished,
		events.EventTypeStateSnapshot,
		events.EventTypeStateDelta,
		events.EventTypeMessagesSnapshot:
		return true
	}
	return false
}

// Messages returns a copy of the current ordered message list.
func (s *Service) Messages() []aguichat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Messages)
}

// AgentState returns a copy of the latest agent state, or nil if none has
// arrived yet.
func (s *Service) AgentState() *aguichat.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Agent == nil {
		return nil
	}
	cp := *s.state.Agent
	return &cp
}

// Snapshot returns a copy of the full conversation state.
func (s *Service) Snapshot() conversation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Messages = slices.Clone(st.Messages)
	if st.Agent != nil {
		cp := *st.Agent
		st.Agent = &cp
	}
	return st
}

// IsLoading reports whether a stream is currently in flight.
func (s *Service) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the current session error, or nil. Transport and protocol
// errors overwrite any prior value; decode errors never surface here.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Clear resets the conversation to its initial empty value and clears the
// session error. An in-flight stream is not aborted; its remaining events
// apply to the fresh state.
func (s *Service) Clear() {
	s.mu.Lock()
	s.state = conversation.State{}
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// notify delivers a state snapshot to the change hook outside the lock.
func (s *Service) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}
