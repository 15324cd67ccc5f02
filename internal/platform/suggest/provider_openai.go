package suggest

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(apiKey, model string) *openAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(openai.DefaultConfig(apiKey)),
		model:  model,
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: 200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
