package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openaiOption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicedesk-server/internal/observability"
)

func contentChunk(text string) string {
	return fmt.Sprintf(`{"id":"chunk-1","object":"chat.completion.chunk","created":1,"model":"test-model",`+
		`"choices":[{"index":0,"delta":{"role":"assistant","content":%q}}]}`, text)
}

func TestStreamTurnAccumulatesStreamedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", contentChunk("Hello "))
		flusher.Flush()
		fmt.Fprintf(w, "data: %s\n\n", contentChunk("world"))
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewDialogueClient(observability.NewLogger(), openaiOption.WithBaseURL(srv.URL+"/"))

	var deltas []string
	result, err := client.StreamTurn(context.Background(), "test-key", "test-model",
		[]Message{{Role: "user", Content: "hi"}}, nil,
		func(delta string) bool {
			deltas = append(deltas, delta)
			return true
		})

	require.NoError(t, err)
	assert.False(t, result.Interrupted)
	assert.Equal(t, []string{"Hello ", "world"}, deltas)
	assert.Equal(t, "Hello world", result.Content)
}

func TestStreamTurnReleasesResponseOnEarlyStop(t *testing.T) {
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(released)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", contentChunk("Hello "))
		flusher.Flush()
		// Hold the stream open; only the client abandoning the response body
		// tears this request down.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewDialogueClient(observability.NewLogger(), openaiOption.WithBaseURL(srv.URL+"/"))

	result, err := client.StreamTurn(context.Background(), "test-key", "test-model",
		[]Message{{Role: "user", Content: "hi"}}, nil,
		func(string) bool { return false })

	require.NoError(t, err)
	assert.True(t, result.Interrupted)

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("response body still held after the early stop")
	}
}
