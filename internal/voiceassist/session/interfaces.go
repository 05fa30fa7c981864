package session

import (
	"context"

	"github.com/google/uuid"

	aiclient "voicedesk-server/internal/clients/openai"
	"voicedesk-server/internal/memory"
	"voicedesk-server/internal/voiceassist/tools"
)

// Transcript is one recognition hypothesis delivered by the recognition leg.
type Transcript struct {
	Text    string
	IsFinal bool
}

// RecognitionStream is the session-long speech-to-text leg. Errors yields at
// most one fatal error; losing recognition ends the session since there is no
// input without it.
type RecognitionStream interface {
	Send(audio []byte) error
	Results() <-chan Transcript
	Errors() <-chan error
	Close()
}

// SynthesisStream is one per-turn text-to-speech leg. Close must be safe to
// call repeatedly and from a goroutine other than the turn loop.
type SynthesisStream interface {
	SendText(text string) error
	Flush() error
	Audio() <-chan []byte
	Done() <-chan struct{}
	Close()
}

// SynthesisOpener creates a fresh synthesis stream for each turn. Streams are
// never reused across turns; that keeps interrupt teardown unambiguous.
type SynthesisOpener interface {
	OpenStream(ctx context.Context) (SynthesisStream, error)
}

// DialogueClient runs one model round, streaming content deltas through
// onDelta. Returning false from onDelta stops the relay early.
type DialogueClient interface {
	StreamTurn(ctx context.Context, msgs []aiclient.Message, defs []tools.Definition,
		onDelta func(string) bool) (*aiclient.TurnResult, error)
}

// ToolRunner selects and executes tools on behalf of a turn.
type ToolRunner interface {
	Select(utterance string) []string
	Execute(ctx context.Context, tenantID uuid.UUID, call tools.Call) tools.Result
}

// Memory is the TTL-bounded conversational history collaborator.
type Memory interface {
	Append(ctx context.Context, userID uuid.UUID, role, content string)
	History(ctx context.Context, userID uuid.UUID) []memory.Entry
}

// EventSink delivers outbound events and audio to the client connection.
// Implementations must serialize writes internally.
type EventSink interface {
	SendEvent(event interface{}) error
	SendAudio(chunk []byte) error
}
