// Pacote storage escolhe e monta o store em arvore configurado para os binarios.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/config"
	"github.com/marcelojr/placar-show/internal/platform/retry"
	"github.com/marcelojr/placar-show/internal/platform/storage/memory"
	redisstorage "github.com/marcelojr/placar-show/internal/platform/storage/redis"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Opened e o store pronto para uso. Redis fica nil no backend em memoria.
type Opened struct {
	Store domain.Store
	Redis *goredis.Client
}

func (o Opened) Close() error {
	if o.Redis == nil {
		return nil
	}
	return o.Redis.Close()
}

// OpenStore conecta no backend configurado e envolve o store com repeticao de escritas.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (Opened, error) {
	var opened Opened

	switch cfg.StoreBackend {
	case BackendRedis:
		client, err := redisstorage.NewClient(ctx, redisstorage.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			return Opened{}, err
		}
		opened.Redis = client
		opened.Store = redisstorage.NewTreeStore(client, cfg.StoreKeyPrefix, logger,
			redisstorage.WithResync(cfg.StoreResync()))
	case BackendMemory:
		opened.Store = memory.NewStore(logger)
	default:
		return Opened{}, fmt.Errorf("storage: backend desconhecido: %s", cfg.StoreBackend)
	}

	opened.Store = retry.NewStore(opened.Store, cfg.StoreRetry(), logger)
	return opened, nil
}
