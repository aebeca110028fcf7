package clients

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGoogleModel is used when GOOGLE_MODEL is unset.
const DefaultGoogleModel = "gemini-2.0-flash"

// GoogleGenerator calls the Gemini API.
type GoogleGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	topP        float32
}

func NewGoogleGenerator(ctx context.Context, apiKey, model string, temperature, topP float64) (*GoogleGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required for the google provider")
	}
	if model == "" {
		model = DefaultGoogleModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GoogleGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		topP:        float32(topP),
	}, nil
}

func (g *GoogleGenerator) Generate(ctx context.Context, prompt, systemContext string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
		TopP:        genai.Ptr(g.topP),
	}
	if systemContext != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemContext}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
