// Package deepgram wraps the Deepgram live transcription SDK behind a
// channel-based stream the session loop can consume.
package deepgram

import (
	"context"
	"fmt"
	"sync"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"voicedesk-server/internal/observability"
)

// Transcript is one recognition hypothesis. Interim transcripts refine each
// other until a final one arrives.
type Transcript struct {
	Text    string
	IsFinal bool
}

// Client opens live transcription streams.
type Client struct {
	logger *observability.Logger
}

func NewClient(logger *observability.Logger) *Client {
	return &Client{logger: logger}
}

// Stream is one live transcription session. The stream owns its channels;
// Close tears the connection down exactly once and closes Results so
// consumers unwind.
type Stream struct {
	ws        *listenClient.WSCallback
	results   chan Transcript
	errs      chan error
	logger    *observability.Logger
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// callbackHandler embeds the SDK default handler and overrides the two
// callbacks the stream cares about.
type callbackHandler struct {
	*websocketv1api.DefaultCallbackHandler
	onMessage func(*msginterfaces.MessageResponse)
	onError   func(*msginterfaces.ErrorResponse)
}

func (h *callbackHandler) Message(msg *msginterfaces.MessageResponse) error {
	h.onMessage(msg)
	return nil
}

func (h *callbackHandler) Error(errResp *msginterfaces.ErrorResponse) error {
	h.onError(errResp)
	return nil
}

// OpenStream connects to the live transcription endpoint with the tenant's
// provider key. Audio is 16kHz mono linear PCM as produced by the widget.
func (c *Client) OpenStream(ctx context.Context, apiKey string) (*Stream, error) {
	s := &Stream{
		results: make(chan Transcript, 32),
		errs:    make(chan error, 1),
		logger:  c.logger,
	}

	options := &interfaces.LiveTranscriptionOptions{
		Model:          "nova-2",
		Language:       "en",
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
		Encoding:       "linear16",
		Channels:       1,
		SampleRate:     16000,
	}

	callback := &callbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		onMessage:              s.handleMessage,
		onError: func(errResp *msginterfaces.ErrorResponse) {
			err := fmt.Errorf("recognition stream error: %s", errResp.Description)
			c.logger.Error(ctx, "recognition stream reported an error", err)
			select {
			case s.errs <- err:
			default:
			}
		},
	}

	ws, err := listenClient.NewWSUsingCallback(ctx, apiKey, nil, options, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open recognition stream: %w", err)
	}
	s.ws = ws

	return s, nil
}

func (s *Stream) handleMessage(msg *msginterfaces.MessageResponse) {
	if msg == nil {
		return
	}
	switch msg.Type {
	case "Results", "Message":
		if len(msg.Channel.Alternatives) == 0 {
			return
		}
		text := msg.Channel.Alternatives[0].Transcript
		if text == "" {
			return
		}
		s.publish(text, msg.IsFinal)
	default:
	}
}

// publish hands a transcript to the session loop. Callbacks arriving after
// Close are discarded; the channel is already closed by then.
func (s *Stream) publish(text string, isFinal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.results <- Transcript{Text: text, IsFinal: isFinal}:
	default:
		// The session loop has fallen badly behind; dropping an interim
		// hypothesis is preferable to stalling the provider socket.
		s.logger.Warn(context.Background(), "transcript channel full, dropping hypothesis")
	}
}

// Send forwards an audio chunk to the recognizer.
func (s *Stream) Send(audio []byte) error {
	if _, err := s.ws.Write(audio); err != nil {
		return fmt.Errorf("failed to send audio to recognizer: %w", err)
	}
	return nil
}

// Results yields transcripts as the recognizer produces them.
func (s *Stream) Results() <-chan Transcript {
	return s.results
}

// Errors yields at most one fatal stream error.
func (s *Stream) Errors() <-chan error {
	return s.errs
}

// Close finishes the transcription session and closes the results channel so
// downstream consumers unwind. Safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		if s.ws != nil {
			s.ws.Finish()
		}
		s.mu.Lock()
		s.closed = true
		close(s.results)
		s.mu.Unlock()
	})
}
