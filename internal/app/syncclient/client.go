// Pacote syncclient mantem a visao tipada do placar a partir do store em
// tempo real e traduz cada mutacao de dominio numa unica escrita por caminho.
package syncclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/marcelojr/placar-show/internal/domain"
)

var ErrAlreadyStarted = errors.New("syncclient: assinatura ja iniciada")

// Client assina o store uma unica vez e guarda o ultimo estado materializado.
// Nao ha aplicacao otimista: a visao so muda quando o snapshot chega.
type Client struct {
	store  domain.Store
	ids    domain.IDGenerator
	clock  domain.Clock
	logger *slog.Logger

	mu           sync.RWMutex
	state        domain.State
	started      bool
	unsubscribe  func()
	listeners    map[int]func(domain.State)
	nextListener int

	ready     chan struct{}
	readyOnce sync.Once
}

func New(store domain.Store, ids domain.IDGenerator, clock domain.Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:     store,
		ids:       ids,
		clock:     clock,
		logger:    logger,
		state:     Materialize(domain.Snapshot{}),
		listeners: map[int]func(domain.State){},
		ready:     make(chan struct{}),
	}
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	unsubscribe, err := c.store.Subscribe(ctx, c.apply)
	if err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

func (c *Client) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State devolve o ultimo estado entregue. Os slices sao somente leitura.
func (c *Client) State() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// WaitReady bloqueia ate o primeiro snapshot (estado de "carregando").
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Synced informa, sem bloquear, se o primeiro snapshot ja chegou.
func (c *Client) Synced() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// OnChange registra um ouvinte local chamado a cada novo estado. O ouvinte roda
// na goroutine de entrega do store e deve retornar rapido.
func (c *Client) OnChange(fn func(domain.State)) (remove func()) {
	c.mu.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) apply(snap domain.Snapshot) {
	state := Materialize(snap)

	c.mu.Lock()
	select {
	case <-c.ready:
		if state.Version < c.state.Version {
			c.mu.Unlock()
			c.logger.Warn("snapshot antigo ignorado", "version", state.Version, "atual", c.state.Version)
			return
		}
	default:
	}
	c.state = state
	listeners := make([]func(domain.State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })
	c.logger.Debug("estado sincronizado", "version", state.Version, "apresentacoes", len(state.Performances), "notas", len(state.Scores))

	for _, fn := range listeners {
		fn(state)
	}
}
