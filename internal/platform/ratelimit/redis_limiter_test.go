package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, limit, window, "placar:ratelimit"), mr
}

func TestAllow_QuandoJuradoPassaDoLimite_DeveBloquearSomenteEle(t *testing.T) {
	limiter, mr := setupLimiter(t, 2, time.Minute)
	ctx := context.Background()

	// Act
	require.NoError(t, limiter.Allow(ctx, "suggest:j1"))
	require.NoError(t, limiter.Allow(ctx, "suggest:j1"))
	err := limiter.Allow(ctx, "suggest:j1")

	// Assert
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.NoError(t, limiter.Allow(ctx, "suggest:j2"))
	assert.True(t, mr.Exists("placar:ratelimit:suggest:j1"))
	assert.Greater(t, mr.TTL("placar:ratelimit:suggest:j1"), time.Duration(0))
}

func TestAllow_QuandoJanelaExpira_DeveLiberarNovamente(t *testing.T) {
	window := 30 * time.Second
	limiter, mr := setupLimiter(t, 1, window)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "suggest:j1"))
	require.ErrorIs(t, limiter.Allow(ctx, "suggest:j1"), ErrRateLimitExceeded)

	mr.FastForward(window + time.Second)

	assert.NoError(t, limiter.Allow(ctx, "suggest:j1"))
}

func TestAllow_QuandoContadorFicouSemTTL_DeveReabrirJanela(t *testing.T) {
	limiter, mr := setupLimiter(t, 5, time.Minute)
	// Contador herdado de uma gravacao cujo EXPIRE se perdeu.
	require.NoError(t, mr.Set("placar:ratelimit:suggest:j1", "3"))

	require.NoError(t, limiter.Allow(context.Background(), "suggest:j1"))

	assert.Greater(t, mr.TTL("placar:ratelimit:suggest:j1"), time.Duration(0))
}

func TestAllow_QuandoLimiteDesligado_DevePermitirSempre(t *testing.T) {
	limiter, mr := setupLimiter(t, 0, time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Allow(context.Background(), "suggest:j1"))
	}
	assert.False(t, mr.Exists("placar:ratelimit:suggest:j1"))
}

func TestNoop_NaoDeveBloquear(t *testing.T) {
	limiter := NewNoop()
	for i := 0; i < 100; i++ {
		assert.NoError(t, limiter.Allow(context.Background(), "suggest:j1"))
	}
}
