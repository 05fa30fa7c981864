// Package session implements the per-connection voice conversation
// orchestrator: it fans client audio into the recognition leg, turns final
// transcripts into serialized dialogue turns, and relays text and synthesized
// audio back to the client with cooperative barge-in.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/voiceassist/queue"
	"voicedesk-server/internal/voiceassist/tenantconfig"
)

// Config is the immutable per-session snapshot taken at open time.
type Config struct {
	TenantID        uuid.UUID
	UserID          uuid.UUID
	ConnectionID    string
	Voice           *tenantconfig.VoiceConfig
	BusinessContext string
	QueueCapacity   int
}

// Session owns one duplex voice conversation. All dialogue state is touched
// only by the turn loop goroutine; the recognition consumer and the public
// Interrupt/Stop API communicate with it through the queue and the
// interrupted flag.
type Session struct {
	cfg         Config
	recognition RecognitionStream
	synthesis   SynthesisOpener
	dialogue    DialogueClient
	tools       ToolRunner
	memory      Memory
	sink        EventSink
	logger      *observability.Logger

	queue *queue.Queue
	wake  chan struct{}

	mu           sync.Mutex
	interrupted  bool
	processing   bool
	currentSynth SynthesisStream

	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once
}

// New builds the session with its lifecycle context already in place, so
// Stop is safe from any goroutine the moment New returns.
func New(ctx context.Context, cfg Config, recognition RecognitionStream, synthesis SynthesisOpener,
	dialogue DialogueClient, toolRunner ToolRunner, mem Memory, sink EventSink,
	logger *observability.Logger) *Session {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "tenant_id", Value: cfg.TenantID.String()},
		observability.Field{Key: "connection_id", Value: cfg.ConnectionID},
	)
	s := &Session{
		cfg:         cfg,
		recognition: recognition,
		synthesis:   synthesis,
		dialogue:    dialogue,
		tools:       toolRunner,
		memory:      mem,
		sink:        sink,
		logger:      logger,
		queue:       queue.New(cfg.QueueCapacity),
		wake:        make(chan struct{}, 1),
		stopped:     make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	return s
}

// Start launches the transcript consumer and the turn loop, then tells the
// client the session is live.
func (s *Session) Start() {
	go s.consumeTranscripts()
	go s.runTurns()

	if err := s.sink.SendEvent(NewReadyEvent()); err != nil {
		s.logger.Error(s.ctx, "failed to send ready event", err)
	}
}

// HandleAudio forwards one binary audio frame into the recognition leg.
func (s *Session) HandleAudio(data []byte) error {
	if err := s.recognition.Send(data); err != nil {
		return fmt.Errorf("failed to forward audio: %w", err)
	}
	return nil
}

// Interrupt flags the in-flight turn to stop and asks the current synthesis
// stream to close. It is advisory: the turn loop observes the flag at each
// delta boundary, and only the next drain resets it. The ack goes out
// immediately so the client can reflect "stopped" at once.
func (s *Session) Interrupt(ctx context.Context) {
	s.mu.Lock()
	s.interrupted = true
	synth := s.currentSynth
	s.mu.Unlock()

	if synth != nil {
		synth.Close()
	}

	if err := s.sink.SendEvent(NewInterruptAckEvent()); err != nil {
		s.logger.Error(ctx, "failed to send interrupt ack", err)
	}
}

// Stop tears the session down: both streams are closed and the turn loop
// unwinds. Idempotent, callable from any goroutine.
func (s *Session) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.cancel()
		s.recognition.Close()

		s.mu.Lock()
		synth := s.currentSynth
		s.currentSynth = nil
		s.mu.Unlock()
		if synth != nil {
			synth.Close()
		}

		close(s.stopped)
		s.logger.Info(observability.WithFields(ctx,
			observability.Field{Key: "connection_id", Value: s.cfg.ConnectionID}), "voice session stopped")
	})
}

// Stopped closes once the session has been torn down.
func (s *Session) Stopped() <-chan struct{} {
	return s.stopped
}

// consumeTranscripts is the single consumer of the recognition leg. Interim
// hypotheses are forwarded for live captioning only; finals become queued
// work. A saturated queue rejects the transcript and tells the user.
func (s *Session) consumeTranscripts() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case err := <-s.recognition.Errors():
			s.logger.Error(s.ctx, "recognition leg failed, ending session", err)
			s.sendEvent(NewErrorEvent("Speech recognition was lost. Please reconnect."))
			s.Stop(s.ctx)
			return
		case t, ok := <-s.recognition.Results():
			if !ok {
				return
			}
			s.sendEvent(NewTranscriptEvent(t.Text, t.IsFinal))
			if !t.IsFinal {
				continue
			}
			if err := s.queue.Push(queue.Utterance{Text: t.Text, IsFinal: true}); err != nil {
				s.sendEvent(NewBusyEvent())
				continue
			}
			if s.queue.NearCapacity() {
				s.sendEvent(NewProcessingLoadEvent(s.queue.Len()))
			}
			s.kick()
		}
	}
}

// kick nudges the turn loop without blocking; a pending wake is enough.
func (s *Session) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// runTurns drains the queue one utterance at a time. This is the only
// goroutine that touches dialogue state, which serializes turns per session.
func (s *Session) runTurns() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}
		for {
			if s.ctx.Err() != nil {
				return
			}
			u, ok := s.queue.Pop()
			if !ok {
				break
			}
			s.setProcessing(true)
			s.processTurn(s.ctx, u)
			s.setProcessing(false)
		}
	}
}

func (s *Session) setProcessing(v bool) {
	s.mu.Lock()
	s.processing = v
	s.mu.Unlock()
}

func (s *Session) isInterrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}

// consumeInterrupt reads and resets the flag. Draining is the single place
// the flag returns to false.
func (s *Session) consumeInterrupt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.interrupted
	s.interrupted = false
	return was
}

func (s *Session) setCurrentSynth(synth SynthesisStream) {
	s.mu.Lock()
	s.currentSynth = synth
	s.mu.Unlock()
}

func (s *Session) takeCurrentSynth() SynthesisStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	synth := s.currentSynth
	s.currentSynth = nil
	return synth
}

func (s *Session) sendEvent(event interface{}) {
	if err := s.sink.SendEvent(event); err != nil {
		s.logger.Error(s.ctx, "failed to send event to client", err)
	}
}
