package retry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
	"github.com/marcelojr/placar-show/internal/platform/storage/tree"
)

// Store decora um domain.Store repetindo escritas que falham no transporte.
// Write, Patch e Delete sao idempotentes no mesmo caminho, entao repetir e seguro.
type Store struct {
	next   domain.Store
	cfg    Config
	logger *slog.Logger
}

func NewStore(next domain.Store, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, cfg: cfg, logger: logger}
}

func (s *Store) Subscribe(ctx context.Context, fn func(domain.Snapshot)) (func(), error) {
	var unsubscribe func()
	err := Do(ctx, s.cfg, func(ctx context.Context) error {
		var err error
		unsubscribe, err = s.next.Subscribe(ctx, fn)
		return err
	})
	return unsubscribe, err
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	return s.run(ctx, "write", path, func(ctx context.Context) error {
		return s.next.Write(ctx, path, value)
	})
}

func (s *Store) Patch(ctx context.Context, path string, fields map[string]any) error {
	return s.run(ctx, "patch", path, func(ctx context.Context) error {
		return s.next.Patch(ctx, path, fields)
	})
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.run(ctx, "delete", path, func(ctx context.Context) error {
		return s.next.Delete(ctx, path)
	})
}

func (s *Store) run(ctx context.Context, op, path string, fn func(ctx context.Context) error) error {
	attempts := 0
	err := Do(ctx, s.cfg, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			metrics.IncStoreRetry(op)
			s.logger.Warn("repetindo escrita no store", "op", op, "path", path, "tentativa", attempts)
		}
		if err := fn(ctx); err != nil {
			if errors.Is(err, tree.ErrInvalidValue) {
				return Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		metrics.ObserveStoreWrite(op, "error")
		s.logger.Error("escrita no store falhou", "op", op, "path", path, "err", err)
		return err
	}
	metrics.ObserveStoreWrite(op, "ok")
	return nil
}

var _ domain.Store = (*Store)(nil)
