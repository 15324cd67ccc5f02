// Pacote ratelimit segura pedidos de sugestao de comentario por jurado.
// O servico de julgamento chama Allow com a chave "suggest:<judgeID>"; cada jurado
// tem sua propria janela fixa, entao um jurado insistente nao consome a cota dos outros.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/placar-show/internal/domain"
)

var ErrRateLimitExceeded = errors.New("limite de sugestoes atingido; aguarde a proxima janela")

// RedisLimiter guarda um contador por chave em <prefix>:<key>. O contador nasce com
// TTL igual a janela; quando expira, o jurado volta a ter a cota inteira.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "placar:ratelimit"
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow conta o pedido e devolve ErrRateLimitExceeded acima de limit pedidos na janela.
// Limite ou janela nao positivos desligam o controle.
func (r *RedisLimiter) Allow(ctx context.Context, key string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		return nil
	}

	counterKey := r.counterKey(key)
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, counterKey)
		ttl = pipe.TTL(ctx, counterKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ratelimit: contar pedido de %s: %w", key, err)
	}

	// Sem TTL o contador nunca zeraria: primeiro pedido da janela ou EXPIRE perdido antes.
	if ttl.Val() < 0 {
		if err := r.client.Expire(ctx, counterKey, r.window).Err(); err != nil {
			return fmt.Errorf("ratelimit: abrir janela de %s: %w", key, err)
		}
	}

	if incr.Val() > int64(r.limit) {
		return ErrRateLimitExceeded
	}
	return nil
}

func (r *RedisLimiter) counterKey(key string) string {
	return r.prefix + ":" + key
}

var _ domain.RateLimiter = (*RedisLimiter)(nil)
