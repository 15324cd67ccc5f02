package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPoolSize = 50

// Options reune o que os binarios precisam para abrir o cliente.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewClient abre o cliente e confirma a conexao com PING antes de devolver.
// Assinaturas Pub/Sub ocupam uma conexao do pool cada.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		PoolTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping falhou em %s: %w", opts.Addr, err)
	}

	return client, nil
}
