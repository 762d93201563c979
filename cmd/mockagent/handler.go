package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"

	"github.com/spetersoncode/aguichat"
	"github.com/spetersoncode/aguichat/session"
)

// ScriptedHandler replays a scripted agent run over SSE for every request.
type ScriptedHandler struct {
	// WordDelay is the pause between text deltas, simulating token latency.
	WordDelay time.Duration
}

// ServeHTTP handles POST requests and streams the scripted run.
func (h *ScriptedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req session.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	threadID := aguievents.GenerateThreadID()
	runID := aguievents.GenerateRunID()
	log := slog.With("run_id", runID, "thread_id", threadID)
	log.Info("request started", "message_count", len(req.Messages))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	userText := "Hello"
	if n := len(req.Messages); n > 0 {
		userText = req.Messages[n-1].Content
	}

	sw := &sseWriter{w: w, flusher: flusher}

	sw.event(aguievents.NewRunStartedEvent(threadID, runID))

	// Initial agent state: the snapshot/delta wire shape is this protocol's
	// partial-object form, so it is written as raw JSON rather than via the
	// SDK's JSON-patch state events.
	state := aguichat.AgentState{
		ConversationID: "conv-" + uuid.New().String(),
		Context:        "scripted demo run",
		CurrentTask:    "Answering: " + userText,
		CurrentStep:    "composing response",
		AgentThoughts:  []string{"Received user message", "Drafting a reply"},
		Version:        1,
		LastUpdated:    time.Now().UTC(),
	}
	sw.stateSnapshot(state)

	sw.event(aguievents.NewStepStartedEvent("compose"))

	messageID := aguievents.GenerateMessageID()
	sw.event(aguievents.NewTextMessageStartEvent(messageID, aguievents.WithRole("assistant")))

	words := strings.Fields("You said: " + userText)
	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		sw.event(aguievents.NewTextMessageContentEvent(messageID, delta))
		sw.stateDelta(int64(2+i), float64(i+1)/float64(len(words)))
		time.Sleep(h.WordDelay)
	}

	sw.event(aguievents.NewTextMessageEndEvent(messageID))
	sw.event(aguievents.NewStepFinishedEvent("compose"))
	sw.event(aguievents.NewRunFinishedEvent(threadID, runID))
	sw.done()

	if sw.err != nil {
		log.Error("request failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"events_sent", sw.count,
			"error", sw.err,
		)
		return
	}
	log.Info("request completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", sw.count,
	)
}

// sseWriter writes AG-UI events in SSE format, remembering the first write
// error so the script can run to completion unconditionally.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	count   int
	err     error
}

func (sw *sseWriter) event(ev aguievents.Event) {
	if sw.err != nil {
		return
	}
	data, err := ev.ToJSON()
	if err != nil {
		sw.err = fmt.Errorf("failed to serialize event: %w", err)
		return
	}
	sw.write(string(ev.Type()), data)
}

func (sw *sseWriter) stateSnapshot(state aguichat.AgentState) {
	if sw.err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type":     "STATE_SNAPSHOT",
		"snapshot": state,
	})
	if err != nil {
		sw.err = fmt.Errorf("failed to serialize snapshot: %w", err)
		return
	}
	sw.write("STATE_SNAPSHOT", payload)
}

func (sw *sseWriter) stateDelta(version int64, progress float64) {
	if sw.err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type": "STATE_DELTA",
		"delta": map[string]any{
			"version":      version,
			"progress":     progress,
			"last_updated": time.Now().UTC(),
		},
	})
	if err != nil {
		sw.err = fmt.Errorf("failed to serialize delta: %w", err)
		return
	}
	sw.write("STATE_DELTA", payload)
}

func (sw *sseWriter) done() {
	if sw.err != nil {
		return
	}
	if _, err := fmt.Fprint(sw.w, "data: [DONE]\n\n"); err != nil {
		sw.err = err
		return
	}
	sw.flusher.Flush()
}

// write emits one record in SSE format: event: TYPE\ndata: {json}\n\n.
func (sw *sseWriter) write(eventType string, data []byte) {
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		sw.err = fmt.Errorf("failed to write event: %w", err)
		return
	}
	sw.flusher.Flush()
	sw.count++
}
