// Package aguichat provides a client for AG-UI agent endpoints that stream
// events over Server-Sent Events (SSE).
//
// The client consumes a `text/event-stream` response body chunk by chunk and
// reconstructs a coherent conversation: an ordered message list plus an
// optional agent-state side channel. Reconstruction is correct under
// arbitrary byte-level fragmentation of the response body, and malformed or
// unknown event records are dropped without aborting the stream.
//
// The pipeline is composed from small stages, each in its own package:
//
//   - [github.com/spetersoncode/aguichat/sse]: bytes -> text -> lines ->
//     `data:` payloads, with carry-over across chunk boundaries
//   - [github.com/spetersoncode/aguichat/protocol]: payload JSON -> typed
//     AG-UI event, tolerant of unknown event types
//   - [github.com/spetersoncode/aguichat/conversation]: pure reducer from
//     (state, event) to the next conversation state
//   - [github.com/spetersoncode/aguichat/session]: the service facade that
//     owns one conversation, issues requests, and drives the pipeline
//
// This root package holds the shared data model: messages, agent state,
// proposals, and the error taxonomy.
//
// # Basic usage
//
//	svc := session.New("http://localhost:8000/agent")
//	if err := svc.Send(ctx, "What's the weather in Paris?"); err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range svc.Messages() {
//	    fmt.Printf("%s: %s\n", msg.Role, msg.Content)
//	}
package aguichat
