package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	aiclient "voicedesk-server/internal/clients/openai"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/voiceassist/queue"
	"voicedesk-server/internal/voiceassist/tools"
	"voicedesk-server/internal/voiceassist/verrors"
)

const (
	// Budget for waiting on an interrupted synthesis stream to close before
	// forcing it and moving on. Forward progress beats a clean teardown.
	interruptDrainRetries = 10
	interruptDrainDelay   = 200 * time.Millisecond

	synthOpenRetries = 3
	synthOpenDelay   = 250 * time.Millisecond

	// Upper bound on waiting for the final audio chunks after a flush.
	synthFlushTimeout = 10 * time.Second

	maxToolRounds = 3
)

const fallbackReply = "I'm sorry, I'm having trouble answering right now. Could you say that again in a moment?"

// processTurn runs one full utterance-to-reply cycle.
func (s *Session) processTurn(ctx context.Context, u queue.Utterance) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "utterance_len", Value: len(u.Text)})

	wasInterrupted := s.consumeInterrupt()
	if prev := s.takeCurrentSynth(); prev != nil {
		if !s.awaitSynthClosed(ctx, prev, wasInterrupted) {
			prev.Close()
			s.logger.Error(ctx, "previous synthesis stream would not close", verrors.ErrInterruptTimeout)
			s.sendEvent(NewErrorEvent("The previous reply could not be stopped cleanly."))
		}
	}

	msgs := s.buildMessages(ctx, u.Text)
	defs := tools.Definitions(s.tools.Select(u.Text))

	synth := s.openSynthesis(ctx)
	if synth == nil {
		// Turn abandoned, session survives.
		s.sendEvent(NewErrorEvent("I couldn't prepare a spoken reply. Please try again."))
		return
	}
	s.setCurrentSynth(synth)

	audioDone := make(chan struct{})
	go func() {
		defer close(audioDone)
		for chunk := range synth.Audio() {
			if err := s.sink.SendAudio(chunk); err != nil {
				s.logger.Error(ctx, "failed to relay audio chunk", err)
				return
			}
		}
	}()

	var spoken strings.Builder
	textOnly := false
	onDelta := func(delta string) bool {
		if s.isInterrupted() {
			return false
		}
		s.sendEvent(NewAIChunkEvent(delta))
		spoken.WriteString(delta)
		if !textOnly {
			if err := synth.SendText(delta); err != nil {
				// Synthesis died mid-turn; keep the text flowing.
				s.logger.Error(ctx, "synthesis send failed, continuing text-only", err)
				textOnly = true
			}
		}
		return true
	}

	interrupted, err := s.runDialogue(ctx, msgs, defs, onDelta)
	if err != nil {
		s.logger.Error(ctx, "dialogue turn failed, sending fallback", fmt.Errorf("%w: %v", verrors.ErrModelCall, err))
		s.sendEvent(NewAIChunkEvent(fallbackReply))
		spoken.Reset()
		spoken.WriteString(fallbackReply)
		if !textOnly {
			if sendErr := synth.SendText(fallbackReply); sendErr != nil {
				textOnly = true
			}
		}
	}

	if interrupted {
		// No flush, no done event, no memory write. The stream stays recorded
		// as current so the next drain can wait for it to close.
		synth.Close()
		s.setCurrentSynth(synth)
		return
	}

	if !textOnly {
		if err := synth.Flush(); err != nil {
			s.logger.Error(ctx, "failed to flush synthesis stream", err)
		} else {
			select {
			case <-audioDone:
			case <-time.After(synthFlushTimeout):
				s.logger.Warn(ctx, "timed out waiting for final audio chunks")
			case <-ctx.Done():
			}
		}
	}
	synth.Close()
	s.takeCurrentSynth()

	s.memory.Append(ctx, s.cfg.UserID, "user", u.Text)
	if spoken.Len() > 0 {
		s.memory.Append(ctx, s.cfg.UserID, "assistant", spoken.String())
	}
	s.sendEvent(NewAIDoneEvent())
}

// awaitSynthClosed waits, within the retry budget, for a previous stream to
// report closed. Returns false when the budget runs out.
func (s *Session) awaitSynthClosed(ctx context.Context, synth SynthesisStream, wasInterrupted bool) bool {
	if !wasInterrupted {
		// A leftover stream outside the interrupt path should already be
		// closed; give it one quick check.
		select {
		case <-synth.Done():
			return true
		default:
			return false
		}
	}
	for i := 0; i < interruptDrainRetries; i++ {
		select {
		case <-synth.Done():
			return true
		case <-ctx.Done():
			return true
		case <-time.After(interruptDrainDelay):
		}
	}
	return false
}

// openSynthesis opens a fresh stream with bounded retries. A nil return means
// the turn must be abandoned.
func (s *Session) openSynthesis(ctx context.Context) SynthesisStream {
	var lastErr error
	for i := 0; i < synthOpenRetries; i++ {
		synth, err := s.synthesis.OpenStream(ctx)
		if err == nil {
			return synth
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(synthOpenDelay):
		}
	}
	s.logger.Error(ctx, "synthesis stream failed to open",
		fmt.Errorf("%w: %v", verrors.ErrProviderConnect, lastErr))
	return nil
}

// runDialogue drives the model through tool rounds until it produces a plain
// reply, gets interrupted, or exhausts the round budget.
func (s *Session) runDialogue(ctx context.Context, msgs []aiclient.Message, defs []tools.Definition,
	onDelta func(string) bool) (interrupted bool, err error) {
	for round := 0; round <= maxToolRounds; round++ {
		if s.isInterrupted() {
			return true, nil
		}
		if round == maxToolRounds {
			// Force a spoken answer; no more tool calls.
			defs = nil
		}

		result, err := s.dialogue.StreamTurn(ctx, msgs, defs, onDelta)
		if err != nil {
			return false, err
		}
		if result.Interrupted {
			return true, nil
		}
		if len(result.ToolCalls) == 0 {
			return false, nil
		}

		msgs = append(msgs, aiclient.Message{
			Role:      "assistant",
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})
		for _, call := range result.ToolCalls {
			res := s.tools.Execute(ctx, s.cfg.TenantID, call)
			if call.Name == tools.NameCatalogSearch && res.Success {
				s.sendEvent(NewProductsEvent(res.Data))
			}
			msgs = append(msgs, aiclient.Message{
				Role:       "tool",
				Content:    res.ModelPayload(),
				ToolCallID: call.ID,
			})
		}
	}
	return false, nil
}

// buildMessages assembles the model context: system prompt, remembered
// history, then the new utterance.
func (s *Session) buildMessages(ctx context.Context, utterance string) []aiclient.Message {
	msgs := []aiclient.Message{{Role: "system", Content: s.systemPrompt()}}
	for _, entry := range s.memory.History(ctx, s.cfg.UserID) {
		msgs = append(msgs, aiclient.Message{Role: entry.Role, Content: entry.Content})
	}
	return append(msgs, aiclient.Message{Role: "user", Content: utterance})
}

func (s *Session) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s voice assistant for this business: %s\n",
		s.cfg.Voice.Personality, s.cfg.Voice.BusinessDescription)
	fmt.Fprintf(&b, "Prices are in %s. Keep replies short and conversational; they are spoken aloud.\n",
		s.cfg.Voice.Currency)
	if s.cfg.Voice.CustomInstructions != "" {
		b.WriteString(s.cfg.Voice.CustomInstructions)
		b.WriteString("\n")
	}
	if s.cfg.BusinessContext != "" {
		b.WriteString("Business context:\n")
		b.WriteString(s.cfg.BusinessContext)
	}
	return b.String()
}
