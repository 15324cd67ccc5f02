// Pacote retry aplica backoff exponencial com jitter a operacoes de transporte
// e distingue falha persistente (tentativas esgotadas) de falha transitoria.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 100 * time.Millisecond
	DefaultMaxDelay      = 2 * time.Second
	DefaultJitterPercent = 0.1
)

// ErrPersistent indica que todas as tentativas falharam.
var ErrPersistent = errors.New("falha persistente apos novas tentativas")

// Config controla o backoff. MaxAttempts conta apenas as novas tentativas:
// 0 executa a operacao uma unica vez.
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent float64
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		JitterPercent: DefaultJitterPercent,
	}
}

// Permanent embrulha erros que nao devem ser repetidos (ex.: validacao).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Do executa op ate ter sucesso, receber erro permanente, o contexto acabar ou
// esgotar as tentativas. No ultimo caso o erro satisfaz errors.Is(err, ErrPersistent).
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: contexto encerrado entre tentativas: %w", ctx.Err())
		case <-time.After(cfg.delay(attempt)):
		}
	}

	return fmt.Errorf("%w (%d tentativas): %w", ErrPersistent, cfg.MaxAttempts+1, lastErr)
}

func (c Config) delay(attempt int) time.Duration {
	d := c.BaseDelay * time.Duration(1<<attempt)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}

	jitter := int64(float64(d) * c.JitterPercent)
	if jitter > 0 {
		//nolint:gosec // jitter nao precisa de aleatoriedade criptografica.
		d += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	if d < c.BaseDelay {
		return c.BaseDelay
	}
	return d
}
