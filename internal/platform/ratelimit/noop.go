package ratelimit

import (
	"context"

	"github.com/marcelojr/placar-show/internal/domain"
)

// Noop deixa tudo passar; usado quando o limite e desligado via config ou sem Redis.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Allow(ctx context.Context, key string) error {
	return nil
}

var _ domain.RateLimiter = Noop{}
