// Package openai streams tool-calling chat completions for dialogue turns.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/voiceassist/tools"
)

const defaultModel = "gpt-4o-mini"

// Message is one entry of the dialogue transcript sent to the model.
type Message struct {
	Role       string // "system", "user", "assistant" or "tool"
	Content    string
	ToolCallID string       // set on tool results
	ToolCalls  []tools.Call // set on assistant messages that requested tools
}

// TurnResult is the outcome of one model round. When the model requested
// tools, Content is usually empty and ToolCalls carries the requests.
type TurnResult struct {
	Content     string
	ToolCalls   []tools.Call
	Interrupted bool
}

type DialogueClient struct {
	logger *observability.Logger
	opts   []openaiOption.RequestOption
}

func NewDialogueClient(logger *observability.Logger, opts ...openaiOption.RequestOption) *DialogueClient {
	return &DialogueClient{logger: logger, opts: opts}
}

// StreamTurn runs one model round, invoking onDelta for every content
// fragment as it streams in. onDelta returning false stops the relay early;
// the partial result comes back with Interrupted set.
func (c *DialogueClient) StreamTurn(ctx context.Context, apiKey, model string, msgs []Message,
	defs []tools.Definition, onDelta func(string) bool) (*TurnResult, error) {
	if model == "" {
		model = defaultModel
	}

	client := openai.NewClient(append([]openaiOption.RequestOption{openaiOption.WithAPIKey(apiKey)}, c.opts...)...)

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toMessageParams(msgs),
	}
	if len(defs) > 0 {
		params.Tools = toToolParams(defs)
	}

	stream := client.Chat.Completions.NewStreaming(ctx, params)
	// Release the response body even when an interrupt breaks out mid-stream.
	defer stream.Close()
	acc := openai.ChatCompletionAccumulator{}
	interrupted := false

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if !onDelta(delta) {
			interrupted = true
			break
		}
	}
	if err := stream.Err(); err != nil {
		c.logger.Error(ctx, "dialogue model stream failed", err)
		return nil, fmt.Errorf("dialogue model stream failed: %w", err)
	}

	result := &TurnResult{Interrupted: interrupted}
	if len(acc.Choices) > 0 {
		msg := acc.Choices[0].Message
		result.Content = msg.Content
		for _, tc := range msg.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, tools.Call{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return result, nil
}

func toMessageParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		case "user":
			params = append(params, openai.UserMessage(m.Content))
		case "assistant":
			if len(m.ToolCalls) == 0 {
				params = append(params, openai.AssistantMessage(m.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			params = append(params, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case "tool":
			params = append(params, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return params
}

func toToolParams(defs []tools.Definition) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(d.Parameters),
			},
		})
	}
	return params
}
