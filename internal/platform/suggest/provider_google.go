package suggest

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGoogleModel = "gemini-2.0-flash"

type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogleProvider(ctx context.Context, apiKey, model string) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao criar cliente genai: %w", err)
	}
	if model == "" {
		model = DefaultGoogleModel
	}
	return &googleProvider{client: client, model: model}, nil
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}
	return resp.Text(), nil
}
