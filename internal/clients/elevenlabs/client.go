// Package elevenlabs implements a streaming text-to-speech client over the
// ElevenLabs websocket input-stream protocol. One Stream serves one spoken
// reply; text goes in as it is generated and PCM audio comes back.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"voicedesk-server/internal/observability"
)

const streamInputURLFormat = "wss://api.elevenlabs.io/v1/text-to-speech/%s/stream-input?model_id=%s&output_format=pcm_16000"

const defaultModelID = "eleven_turbo_v2"

type Client struct {
	logger *observability.Logger
}

func NewClient(logger *observability.Logger) *Client {
	return &Client{logger: logger}
}

// outbound is the websocket message shape for the stream-input protocol. An
// empty Text signals end of input.
type outbound struct {
	Text                 string         `json:"text"`
	VoiceSettings        *voiceSettings `json:"voice_settings,omitempty"`
	TryTriggerGeneration bool           `json:"try_trigger_generation,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type inbound struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Stream is a single synthesis session. Audio delivers decoded PCM chunks;
// Done closes once the provider has flushed the final chunk or the connection
// dropped. Close is safe to call any number of times and from any goroutine.
type Stream struct {
	conn    *websocket.Conn
	audio   chan []byte
	done    chan struct{}
	logger  *observability.Logger
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    bool
}

// OpenStream dials the synthesis endpoint for the given voice and primes the
// session. The returned stream is ready to accept text immediately.
func (c *Client) OpenStream(ctx context.Context, apiKey, voiceID string) (*Stream, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("synthesis API key is required")
	}

	url := fmt.Sprintf(streamInputURLFormat, voiceID, defaultModelID)
	headers := http.Header{}
	headers.Set("xi-api-key", apiKey)

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to synthesis endpoint: %w", err)
	}

	s := &Stream{
		conn:   conn,
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
		logger: c.logger,
	}

	// The protocol requires a priming message carrying voice settings before
	// any real text.
	prime := outbound{
		Text:          " ",
		VoiceSettings: &voiceSettings{Stability: 0.5, SimilarityBoost: 0.8},
	}
	if err := s.write(prime); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prime synthesis stream: %w", err)
	}

	go s.readLoop(ctx)

	return s, nil
}

func (s *Stream) readLoop(ctx context.Context) {
	defer close(s.done)
	defer close(s.audio)

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			// Expected after Close; anything else ends the stream the same way
			// and the session treats missing audio as a text-only turn.
			return
		}

		var in inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		if in.Error != "" {
			s.logger.Warn(ctx, fmt.Sprintf("synthesis stream error: %s %s", in.Error, in.Message))
			return
		}
		if in.Audio != "" {
			pcm, err := base64.StdEncoding.DecodeString(in.Audio)
			if err != nil {
				s.logger.Warn(ctx, "dropping undecodable synthesis chunk")
				continue
			}
			select {
			case s.audio <- pcm:
			case <-ctx.Done():
				return
			}
		}
		if in.IsFinal {
			return
		}
	}
}

func (s *Stream) write(msg outbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return fmt.Errorf("synthesis stream is closed")
	}
	return s.conn.WriteJSON(msg)
}

// SendText feeds a text fragment into the synthesis session.
func (s *Stream) SendText(text string) error {
	if text == "" {
		return nil
	}
	if err := s.write(outbound{Text: text, TryTriggerGeneration: true}); err != nil {
		return fmt.Errorf("failed to send text to synthesizer: %w", err)
	}
	return nil
}

// Flush signals end of input so the provider synthesizes and delivers any
// buffered text. Done closes once the final chunk has been read.
func (s *Stream) Flush() error {
	if err := s.write(outbound{Text: ""}); err != nil {
		return fmt.Errorf("failed to flush synthesis stream: %w", err)
	}
	return nil
}

// Audio yields decoded PCM chunks until the stream ends.
func (s *Stream) Audio() <-chan []byte {
	return s.audio
}

// Done closes when the provider has delivered the last chunk or the
// connection ended.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close drops the connection. Any buffered provider audio is discarded, which
// is exactly what an interrupted turn wants.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.closed = true
		s.writeMu.Unlock()
		s.conn.Close()
	})
}
