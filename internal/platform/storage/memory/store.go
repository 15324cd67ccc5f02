// Pacote memory implementa o store em arvore dentro do processo (modo no unico e testes).
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
	"github.com/marcelojr/placar-show/internal/platform/storage/tree"
)

// Store guarda a arvore com copia na escrita: o mapa publicado num snapshot
// nunca e alterado depois, entao assinantes podem le-lo sem trava.
type Store struct {
	mu      sync.Mutex
	tree    map[string]any
	version uint64
	subs    map[uint64]*subscriber
	nextID  uint64
	logger  *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		tree:   map[string]any{},
		subs:   map[uint64]*subscriber{},
		logger: logger,
	}
}

func (s *Store) Subscribe(ctx context.Context, fn func(domain.Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := newSubscriber(fn)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = sub
	sub.push(domain.Snapshot{Version: s.version, Tree: s.tree})
	s.mu.Unlock()

	go sub.run()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			sub.stop()
		})
	}
	context.AfterFunc(ctx, unsubscribe)

	return unsubscribe, nil
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Set(root, path, value)
	})
}

func (s *Store) Patch(ctx context.Context, path string, fields map[string]any) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Merge(root, path, fields)
	})
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Remove(root, path), nil
	})
}

func (s *Store) mutate(ctx context.Context, apply func(map[string]any) (map[string]any, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := apply(tree.Clone(s.tree))
	if err != nil {
		return err
	}
	s.tree = next
	s.version++

	snap := domain.Snapshot{Version: s.version, Tree: s.tree}
	for _, sub := range s.subs {
		sub.push(snap)
	}
	s.logger.Debug("store em memoria atualizado", "version", s.version, "assinantes", len(s.subs))
	return nil
}

// subscriber entrega snapshots em ordem, numa goroutine propria, sem bloquear escritores.
type subscriber struct {
	fn    func(domain.Snapshot)
	mu    sync.Mutex
	queue []domain.Snapshot
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newSubscriber(fn func(domain.Snapshot)) *subscriber {
	return &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *subscriber) push(snap domain.Snapshot) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, snap := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(snap)
			metrics.IncSnapshotDelivered("memory")
		}
	}
}

var _ domain.Store = (*Store)(nil)
