// Pacote health expoe liveness e readiness do processo: banco de rascunhos,
// Redis e a chegada do primeiro snapshot do placar.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

var ErrNotSynced = errors.New("placar ainda sem snapshot")

// Check e uma verificacao nomeada; erro significa indisponivel.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Checker struct {
	checks []Check
}

type Option func(*Checker)

// WithSynced marca o processo como pronto so depois do primeiro snapshot.
func WithSynced(synced func() bool) Option {
	return func(c *Checker) {
		c.checks = append(c.checks, Check{Name: "snapshot", Run: func(context.Context) error {
			if !synced() {
				return ErrNotSynced
			}
			return nil
		}})
	}
}

func WithCheck(check Check) Option {
	return func(c *Checker) {
		c.checks = append(c.checks, check)
	}
}

// NewChecker ignora dependencias nil (ex.: store em memoria sem Redis).
func NewChecker(db *sql.DB, rdb *redis.Client, opts ...Option) *Checker {
	c := &Checker{}
	if db != nil {
		c.checks = append(c.checks, Check{Name: "database", Run: db.PingContext})
	}
	if rdb != nil {
		c.checks = append(c.checks, Check{Name: "redis", Run: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Run executa todas as verificacoes, na ordem de registro.
func (c *Checker) Run(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(map[string]string, len(c.checks))
	ok := true
	for _, check := range c.checks {
		if err := ctx.Err(); err != nil {
			results[check.Name] = err.Error()
			ok = false
			continue
		}
		if err := check.Run(ctx); err != nil {
			results[check.Name] = err.Error()
			ok = false
			continue
		}
		results[check.Name] = "ok"
	}
	return results, ok
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks, ok := c.Run(r.Context())

		rep := report{Status: "ok", Checks: checks}
		status := http.StatusOK
		if !ok {
			rep.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// LiveHandler responde enquanto o processo estiver de pe.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
