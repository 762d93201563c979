// Package main provides a scripted AG-UI agent endpoint for exercising the
// client end-to-end without a model behind it.
//
// The server replays a realistic run for every request: run lifecycle, an
// agent-state snapshot, word-by-word text deltas echoing the user's message,
// progressive state deltas, and a [DONE] sentinel.
//
// Configuration is via environment variables:
//
//	AGUI_PORT - Server port (default: 8000)
//
// Usage:
//
//	go run ./cmd/mockagent
//	AGUI_ENDPOINT=http://localhost:8000/agent go run ./cmd/chat
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("AGUI_PORT")
	if port == "" {
		port = "8000"
	}

	mux := http.NewServeMux()
	mux.Handle("/agent", corsMiddleware(&ScriptedHandler{WordDelay: 40 * time.Millisecond}))
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Mock agent starting on :%s", port)
	log.Printf("Endpoint: POST http://localhost:%s/agent", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
