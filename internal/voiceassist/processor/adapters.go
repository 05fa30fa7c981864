package processor

import (
	"context"

	"voicedesk-server/internal/clients/deepgram"
	"voicedesk-server/internal/clients/elevenlabs"
	aiclient "voicedesk-server/internal/clients/openai"
	"voicedesk-server/internal/voiceassist/session"
	"voicedesk-server/internal/voiceassist/tools"
)

// deepgramOpener adapts the Deepgram client to the recognition interface,
// converting provider transcripts into session transcripts.
type deepgramOpener struct {
	client *deepgram.Client
}

func NewDeepgramOpener(client *deepgram.Client) RecognitionOpener {
	return deepgramOpener{client: client}
}

func (o deepgramOpener) OpenRecognition(ctx context.Context, apiKey string) (session.RecognitionStream, error) {
	stream, err := o.client.OpenStream(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	a := &recognitionAdapter{
		stream:  stream,
		results: make(chan session.Transcript, 32),
	}
	go a.pump()
	return a, nil
}

type recognitionAdapter struct {
	stream  *deepgram.Stream
	results chan session.Transcript
}

func (a *recognitionAdapter) pump() {
	defer close(a.results)
	for t := range a.stream.Results() {
		a.results <- session.Transcript{Text: t.Text, IsFinal: t.IsFinal}
	}
}

func (a *recognitionAdapter) Send(audio []byte) error            { return a.stream.Send(audio) }
func (a *recognitionAdapter) Results() <-chan session.Transcript { return a.results }
func (a *recognitionAdapter) Errors() <-chan error               { return a.stream.Errors() }
func (a *recognitionAdapter) Close()                             { a.stream.Close() }

// elevenLabsFactory binds per-turn synthesis streams to a tenant key and a
// voice.
type elevenLabsFactory struct {
	client  *elevenlabs.Client
	voiceID string
}

func NewElevenLabsFactory(client *elevenlabs.Client, voiceID string) SynthesisFactory {
	return elevenLabsFactory{client: client, voiceID: voiceID}
}

func (f elevenLabsFactory) ForTenant(apiKey string) session.SynthesisOpener {
	return synthesisOpener{client: f.client, apiKey: apiKey, voiceID: f.voiceID}
}

type synthesisOpener struct {
	client  *elevenlabs.Client
	apiKey  string
	voiceID string
}

func (o synthesisOpener) OpenStream(ctx context.Context) (session.SynthesisStream, error) {
	return o.client.OpenStream(ctx, o.apiKey, o.voiceID)
}

// openAIDialogueFactory binds the dialogue client to a tenant's model key.
type openAIDialogueFactory struct {
	client *aiclient.DialogueClient
	model  string
}

func NewOpenAIDialogueFactory(client *aiclient.DialogueClient, model string) DialogueFactory {
	return openAIDialogueFactory{client: client, model: model}
}

func (f openAIDialogueFactory) ForTenant(apiKey string) session.DialogueClient {
	return dialogueAdapter{client: f.client, apiKey: apiKey, model: f.model}
}

type dialogueAdapter struct {
	client *aiclient.DialogueClient
	apiKey string
	model  string
}

func (d dialogueAdapter) StreamTurn(ctx context.Context, msgs []aiclient.Message,
	defs []tools.Definition, onDelta func(string) bool) (*aiclient.TurnResult, error) {
	return d.client.StreamTurn(ctx, d.apiKey, d.model, msgs, defs, onDelta)
}
