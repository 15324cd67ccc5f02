package suggest

import (
	"context"
	"fmt"
	"strings"
)

// Provedores aceitos em suggest_provider.
const (
	ProviderGoogle    = "google"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// NewProvider devolve nil (sem erro) quando o provedor e "none" ou a chave esta vazia.
func NewProvider(ctx context.Context, name, apiKey, model string) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}
	switch name {
	case ProviderGoogle:
		p, err := newGoogleProvider(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderOpenAI:
		return newOpenAIProvider(apiKey, model), nil
	case ProviderAnthropic:
		return newAnthropicProvider(apiKey, model), nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("provedor de sugestao desconhecido: %s", name)
	}
}
