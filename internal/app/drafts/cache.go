// Pacote drafts guarda rascunhos de nota por (jurado, apresentacao) com
// gravacao adiada: edicoes seguidas dentro da janela viram uma unica gravacao.
package drafts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

const (
	DefaultWindow = 500 * time.Millisecond
	saveTimeout   = 5 * time.Second
)

type Key struct {
	JudgeID       string
	PerformanceID string
}

// Entry e o que o jurado ve ao abrir a apresentacao.
type Entry struct {
	Score     float64 `json:"score"`
	Comment   string  `json:"comment"`
	Submitted bool    `json:"submitted"`
}

// Status e observavel pela interface: Saved fica falso enquanto houver gravacao pendente.
type Status struct {
	Saved bool  `json:"saved"`
	Err   error `json:"-"`
}

type pending struct {
	draft domain.Draft
	timer *time.Timer
}

// keyState serializa gravacao e remocao no repositorio para uma chave. gen muda a
// cada Drop; uma gravacao tirada antes do Drop nao chega ao repositorio depois dele.
// refs conta operacoes em voo; sem nenhuma, a entrada sai do mapa.
type keyState struct {
	io   sync.Mutex
	gen  uint64
	refs int
}

// Cache mantem no maximo um timer pendente por chave. Cada gravacao pendente
// termina de exatamente um jeito: disparada, descarregada (Flush) ou descartada (Drop).
type Cache struct {
	repo   domain.DraftRepository
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[Key]*pending
	status  map[Key]Status
	keys    map[Key]*keyState
}

type Option func(*Cache)

func WithWindow(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCache(repo domain.DraftRepository, opts ...Option) *Cache {
	c := &Cache{
		repo:    repo,
		window:  DefaultWindow,
		logger:  slog.Default(),
		pending: map[Key]*pending{},
		status:  map[Key]Status{},
		keys:    map[Key]*keyState{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load devolve a nota enviada quando existe (rascunho ignorado), senao o rascunho
// pendente ou salvo, senao {0, ""}.
func (c *Cache) Load(ctx context.Context, key Key, submitted *domain.Score) (Entry, error) {
	if submitted != nil {
		return Entry{Score: submitted.Value, Comment: submitted.Comment, Submitted: true}, nil
	}

	c.mu.Lock()
	if p, ok := c.pending[key]; ok {
		c.mu.Unlock()
		return Entry{Score: p.draft.Score, Comment: p.draft.Comment}, nil
	}
	c.mu.Unlock()

	d, err := c.repo.Get(ctx, key.JudgeID, key.PerformanceID)
	if errors.Is(err, domain.ErrNotFound) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	return Entry{Score: d.Score, Comment: d.Comment}, nil
}

// Edit agenda a gravacao apos a janela, cancelando a anterior da mesma chave.
func (c *Cache) Edit(key Key, score float64, comment string) {
	draft := domain.Draft{
		JudgeID:       key.JudgeID,
		PerformanceID: key.PerformanceID,
		Score:         score,
		Comment:       comment,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
	}
	p := &pending{draft: draft}
	p.timer = time.AfterFunc(c.window, func() { c.fire(key, p) })
	c.pending[key] = p
	c.status[key] = Status{Saved: false}
}

func (c *Cache) fire(key Key, p *pending) {
	ks, gen, ok := c.take(key, p)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	c.save(ctx, key, p.draft, ks, gen)
}

// acquireLocked exige c.mu.
func (c *Cache) acquireLocked(key Key) *keyState {
	ks, ok := c.keys[key]
	if !ok {
		ks = &keyState{}
		c.keys[key] = ks
	}
	ks.refs++
	return ks
}

// releaseLocked exige c.mu. A geracao so importa enquanto ha operacao em voo,
// entao a chave pode ser esquecida quando a ultima termina.
func (c *Cache) releaseLocked(key Key, ks *keyState) {
	ks.refs--
	if ks.refs == 0 && c.keys[key] == ks {
		delete(c.keys, key)
	}
}

// take remove a pendencia se ainda for a mesma; quem remove e quem grava.
func (c *Cache) take(key Key, p *pending) (*keyState, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[key] != p {
		return nil, 0, false
	}
	delete(c.pending, key)
	ks := c.acquireLocked(key)
	return ks, ks.gen, true
}

// save grava o rascunho e libera a referencia tomada em take ou Flush.
func (c *Cache) save(ctx context.Context, key Key, draft domain.Draft, ks *keyState, gen uint64) {
	ks.io.Lock()
	c.mu.Lock()
	dropped := ks.gen != gen
	c.mu.Unlock()

	var err error
	if !dropped {
		err = c.repo.Save(ctx, draft)
	}
	ks.io.Unlock()

	c.mu.Lock()
	// Uma edicao nova durante a gravacao mantem o status como pendente.
	if _, again := c.pending[key]; !again && !dropped {
		if err != nil {
			c.status[key] = Status{Saved: false, Err: err}
		} else {
			delete(c.status, key)
		}
	}
	c.releaseLocked(key, ks)
	c.mu.Unlock()

	if dropped {
		return
	}
	if err != nil {
		metrics.ObserveDraftSave("error")
		c.logger.Error("falha ao gravar rascunho", "judge", key.JudgeID, "performance", key.PerformanceID, "err", err)
		return
	}
	metrics.ObserveDraftSave("ok")
}

// Status informa se a ultima edicao ja foi gravada. Chaves sem edicao contam como salvas.
func (c *Cache) Status(key Key) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.status[key]; ok {
		return st
	}
	return Status{Saved: true}
}

// Flush grava agora a pendencia da chave, se houver (ex.: ao sair da tela).
func (c *Cache) Flush(ctx context.Context, key Key) {
	c.mu.Lock()
	p, ok := c.pending[key]
	var (
		ks  *keyState
		gen uint64
	)
	if ok {
		p.timer.Stop()
		delete(c.pending, key)
		ks = c.acquireLocked(key)
		gen = ks.gen
	}
	c.mu.Unlock()

	if ok {
		c.save(ctx, key, p.draft, ks, gen)
	}
}

// Drop cancela a pendencia sem grava-la e apaga o rascunho salvo (ex.: apos enviar a nota).
func (c *Cache) Drop(ctx context.Context, key Key) error {
	c.mu.Lock()
	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
		delete(c.pending, key)
	}
	delete(c.status, key)
	ks := c.acquireLocked(key)
	ks.gen++
	c.mu.Unlock()

	ks.io.Lock()
	err := c.repo.Delete(ctx, key.JudgeID, key.PerformanceID)
	ks.io.Unlock()

	c.mu.Lock()
	c.releaseLocked(key, ks)
	c.mu.Unlock()

	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// tracked informa quantas chaves ainda tem estado guardado (status ou operacao em voo).
func (c *Cache) tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[Key]bool, len(c.status)+len(c.keys))
	for k := range c.status {
		seen[k] = true
	}
	for k := range c.keys {
		seen[k] = true
	}
	return len(seen)
}

// Close descarrega todas as pendencias.
func (c *Cache) Close(ctx context.Context) {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.pending))
	for k := range c.pending {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	for _, k := range keys {
		c.Flush(ctx, k)
	}
}
