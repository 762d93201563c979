// Package main provides an interactive terminal client for an AG-UI agent
// endpoint.
//
// Configuration is via environment variables (a .env file is honored):
//
//	AGUI_ENDPOINT - Agent endpoint URL (default: http://localhost:8000/agent)
//	AGUI_DEBUG    - Enable debug logging (default: false)
//
// Usage:
//
//	go run ./cmd/chat
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/aguichat"
	"github.com/spetersoncode/aguichat/session"
)

var reader = bufio.NewReader(os.Stdin)

func main() {
	godotenv.Load()
	ctx := context.Background()

	endpoint := os.Getenv("AGUI_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:8000/agent"
	}

	level := slog.LevelWarn
	if os.Getenv("AGUI_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	svc := session.New(endpoint,
		session.WithLogger(log),
		session.WithStateForwarding(),
	)

	fmt.Println("AG-UI chat client")
	fmt.Printf("Endpoint: %s\n", endpoint)
	fmt.Println("Commands: /clear resets the conversation, /state shows agent state, /quit exits.")
	fmt.Println()

	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		text := strings.TrimSpace(line)
		switch {
		case text == "":
			continue
		case text == "/quit":
			return
		case text == "/clear":
			svc.Clear()
			fmt.Println("(conversation cleared)")
			continue
		case text == "/state":
			printState(svc.AgentState())
			continue
		}

		if err := svc.Send(ctx, text); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if err := svc.Err(); err != nil {
			fmt.Printf("error: %v\n", err)
		}

		msgs := svc.Messages()
		if n := len(msgs); n > 0 && msgs[n-1].Role == aguichat.RoleAssistant {
			fmt.Printf("agent> %s\n", msgs[n-1].Content)
		}
	}
}

func printState(state *aguichat.AgentState) {
	if state == nil {
		fmt.Println("(no agent state yet)")
		return
	}
	fmt.Printf("conversation: %s (v%d)\n", state.ConversationID, state.Version)
	if state.CurrentTask != "" {
		fmt.Printf("task: %s", state.CurrentTask)
		if state.CurrentStep != "" {
			fmt.Printf(" / %s", state.CurrentStep)
		}
		fmt.Printf(" (%.0f%%)\n", state.Progress*100)
	}
	for _, thought := range state.AgentThoughts {
		fmt.Printf("  thought: %s\n", thought)
	}
	for _, p := range state.Proposals {
		fmt.Printf("  proposal: %s (%.0f%% confident)\n", p.Action, p.Confidence*100)
	}
	for _, a := range state.NextActions {
		fmt.Printf("  next: %s\n", a)
	}
}
