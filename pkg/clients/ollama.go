package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LLMGenerator produces text from any langchaingo model. The system context,
// when set, goes in as a separate system message.
type LLMGenerator struct {
	LLM     llms.Model
	Options []llms.CallOption
}

func NewLLMGenerator(llm llms.Model, opts ...llms.CallOption) *LLMGenerator {
	return &LLMGenerator{LLM: llm, Options: opts}
}

// NewOllamaGenerator talks to a local Ollama server.
func NewOllamaGenerator(baseURL, model string, temperature, topP float64) (*LLMGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLLMGenerator(llm, llms.WithTemperature(temperature), llms.WithTopP(topP)), nil
}

func (g *LLMGenerator) Generate(ctx context.Context, prompt, systemContext string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if systemContext != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemContext))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := g.LLM.GenerateContent(ctx, messages, g.Options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
