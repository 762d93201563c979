package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/aguichat"
	"github.com/spetersoncode/aguichat/conversation"
)

// sseHandler writes each payload as a `data:` record and ends with [DONE].
func sseHandler(t *testing.T, payloads ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestService_Send(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"RUN_STARTED","threadId":"t1","runId":"r1"}`,
		`{"type":"TEXT_MESSAGE_START","messageId":"m1","role":"assistant"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"Hel"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"lo"}`,
		`{"type":"STATE_SNAPSHOT","snapshot":{"conversation_id":"c1","version":1,"progress":0.5}}`,
		`{"type":"TEXT_MESSAGE_END","messageId":"m1"}`,
		`{"type":"RUN_FINISHED","threadId":"t1","runId":"r1"}`,
	))
	defer srv.Close()

	svc := New(srv.URL)
	require.NoError(t, svc.Send(context.Background(), "hi there"))

	msgs := svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, aguichat.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi there", msgs[0].Content)
	assert.False(t, msgs[0].Timestamp.IsZero())
	assert.Equal(t, aguichat.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello", msgs[1].Content)

	state := svc.AgentState()
	require.NotNil(t, state)
	assert.Equal(t, "c1", state.ConversationID)

	assert.False(t, svc.IsLoading())
	assert.NoError(t, svc.Err())
	assert.False(t, svc.Snapshot().Open())
}

func TestService_SingleFlight(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := New(srv.URL)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- svc.Send(context.Background(), "first")
	}()

	require.Eventually(t, svc.IsLoading, time.Second, time.Millisecond)

	err := svc.Send(context.Background(), "second")
	assert.ErrorIs(t, err, aguichat.ErrBusy)
	assert.Len(t, svc.Messages(), 1, "rejected send must not touch state")

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, int32(1), requests.Load())
	assert.False(t, svc.IsLoading())
}

func TestService_TransportError(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "agent down", http.StatusBadGateway)
		}))
		defer srv.Close()

		svc := New(srv.URL)
		err := svc.Send(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, aguichat.IsTransport(err))
		assert.Equal(t, http.StatusBadGateway, aguichat.StatusCodeOf(err))

		assert.ErrorIs(t, svc.Err(), err)
		assert.False(t, svc.IsLoading(), "loading cleared on the error path")
		assert.Len(t, svc.Messages(), 1, "user message is not rolled back")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		svc := New("http://127.0.0.1:1/agent")
		err := svc.Send(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, aguichat.IsTransport(err))
		assert.False(t, svc.IsLoading())
	})
}

func TestService_RunError(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"partial"}`,
		`{"type":"RUN_ERROR","message":"model exploded"}`,
	))
	defer srv.Close()

	svc := New(srv.URL)
	require.NoError(t, svc.Send(context.Background(), "hi"), "protocol errors do not fail the call")

	err := svc.Err()
	require.Error(t, err)
	assert.True(t, aguichat.IsProtocol(err))
	assert.Contains(t, err.Error(), "model exploded")

	msgs := svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "partial", msgs[1].Content, "state before the error is preserved")
}

func TestService_MalformedPayloadRecovery(t *testing.T) {
	events := make(chan Event, 32)
	srv := httptest.NewServer(sseHandler(t,
		`{not json}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"still works"}`,
	))
	defer srv.Close()

	svc := New(srv.URL, WithEvents(events))
	require.NoError(t, svc.Send(context.Background(), "hi"))

	assert.NoError(t, svc.Err(), "decode errors never surface as the session error")
	msgs := svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "still works", msgs[1].Content)

	var sawDecodeFailure bool
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventDecodeFailure {
			sawDecodeFailure = true
			assert.True(t, aguichat.IsDecode(ev.Error))
		}
	}
	assert.True(t, sawDecodeFailure)
}

func TestService_UnrecognizedEvent(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"SOME_FUTURE_TYPE","payload":"whatever"}`,
	))
	defer srv.Close()

	svc := New(srv.URL)
	require.NoError(t, svc.Send(context.Background(), "hi"))

	assert.NoError(t, svc.Err())
	assert.Len(t, svc.Messages(), 1, "unknown events do not alter messages")
	assert.Nil(t, svc.AgentState())
}

func TestService_Clear(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"hello"}`,
		`{"type":"STATE_SNAPSHOT","snapshot":{"conversation_id":"c1","version":1}}`,
		`{"type":"RUN_ERROR","message":"boom"}`,
	))
	defer srv.Close()

	svc := New(srv.URL)
	require.NoError(t, svc.Send(context.Background(), "hi"))
	require.NotEmpty(t, svc.Messages())
	require.Error(t, svc.Err())

	svc.Clear()

	assert.Empty(t, svc.Messages())
	assert.Nil(t, svc.AgentState())
	assert.NoError(t, svc.Err())
}

func TestService_OnChange(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"hi"}`,
	))
	defer srv.Close()

	var notifications int
	var last conversation.State
	svc := New(srv.URL, WithOnChange(func(s conversation.State) {
		notifications++
		last = s
	}))
	require.NoError(t, svc.Send(context.Background(), "question"))

	// One notification for the user message, one for the applied delta.
	assert.Equal(t, 2, notifications)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "hi", last.Messages[1].Content)
}

func TestService_RequestBody(t *testing.T) {
	t.Run("baseline shape", func(t *testing.T) {
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer srv.Close()

		svc := New(srv.URL)
		require.NoError(t, svc.Send(context.Background(), "hello"))
		assert.JSONEq(t, `{"messages":[{"role":"user","content":"hello"}]}`, string(gotBody))
	})

	t.Run("tools forwarded when configured", func(t *testing.T) {
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer srv.Close()

		svc := New(srv.URL, WithTools(aguichat.Tool{Name: "calc", Description: "math"}))
		require.NoError(t, svc.Send(context.Background(), "2+2"))
		assert.Contains(t, string(gotBody), `"tools"`)
		assert.Contains(t, string(gotBody), `"calc"`)
	})
}
