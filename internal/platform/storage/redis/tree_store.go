package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
	"github.com/marcelojr/placar-show/internal/platform/storage/tree"
)

const (
	defaultMaxTxAttempts = 32
	defaultResync        = 15 * time.Second
)

// ErrContention indica que a transacao otimista nao fechou dentro do limite de tentativas.
var ErrContention = errors.New("redis store: contencao excessiva na arvore")

// TreeStore guarda a arvore inteira num unico documento JSON {version, tree}.
// Cada escrita roda em WATCH/MULTI e publica o documento novo no canal de
// mudancas dentro da mesma transacao; assinantes descartam versoes antigas.
type TreeStore struct {
	client  *redis.Client
	docKey  string
	channel string
	maxTx   int
	resync  time.Duration
	logger  *slog.Logger
}

type TreeStoreOption func(*TreeStore)

// WithResync ajusta a releitura periodica que cobre mensagens perdidas em reconexoes.
func WithResync(d time.Duration) TreeStoreOption {
	return func(s *TreeStore) { s.resync = d }
}

func WithMaxTxAttempts(n int) TreeStoreOption {
	return func(s *TreeStore) {
		if n > 0 {
			s.maxTx = n
		}
	}
}

func NewTreeStore(client *redis.Client, prefix string, logger *slog.Logger, opts ...TreeStoreOption) *TreeStore {
	if prefix == "" {
		prefix = "placar"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &TreeStore{
		client:  client,
		docKey:  prefix + ":tree",
		channel: prefix + ":changes",
		maxTx:   defaultMaxTxAttempts,
		resync:  defaultResync,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type document struct {
	Version uint64         `json:"version"`
	Tree    map[string]any `json:"tree"`
}

func (d document) snapshot() domain.Snapshot {
	if d.Tree == nil {
		d.Tree = map[string]any{}
	}
	return domain.Snapshot{Version: d.Version, Tree: d.Tree}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readDocument(ctx context.Context, g getter, key string) (document, error) {
	raw, err := g.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return document{Tree: map[string]any{}}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("redis store: ler arvore: %w", err)
	}
	return decodeDocument(raw)
}

func decodeDocument(raw []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("redis store: decodificar arvore: %w", err)
	}
	if doc.Tree == nil {
		doc.Tree = map[string]any{}
	}
	return doc, nil
}

func (s *TreeStore) Subscribe(ctx context.Context, fn func(domain.Snapshot)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	// Receive confirma a inscricao antes da leitura inicial; nada publicado depois se perde.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis store: assinar %s: %w", s.channel, err)
	}

	initial, err := readDocument(ctx, s.client, s.docKey)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	go s.deliver(subCtx, pubsub, initial, fn)

	return cancel, nil
}

func (s *TreeStore) deliver(ctx context.Context, pubsub *redis.PubSub, initial document, fn func(domain.Snapshot)) {
	defer func() { _ = pubsub.Close() }()

	last := initial.Version
	fn(initial.snapshot())
	metrics.IncSnapshotDelivered("redis")

	var tick <-chan time.Time
	if s.resync > 0 {
		ticker := time.NewTicker(s.resync)
		defer ticker.Stop()
		tick = ticker.C
	}

	emit := func(doc document) {
		if doc.Version <= last {
			return
		}
		last = doc.Version
		fn(doc.snapshot())
		metrics.IncSnapshotDelivered("redis")
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			doc, err := decodeDocument([]byte(msg.Payload))
			if err != nil {
				s.logger.Warn("mensagem de arvore invalida descartada", "err", err)
				continue
			}
			emit(doc)
		case <-tick:
			doc, err := readDocument(ctx, s.client, s.docKey)
			if err != nil {
				s.logger.Warn("releitura periodica da arvore falhou", "err", err)
				continue
			}
			emit(doc)
		}
	}
}

func (s *TreeStore) Write(ctx context.Context, path string, value any) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Set(root, path, value)
	})
}

func (s *TreeStore) Patch(ctx context.Context, path string, fields map[string]any) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Merge(root, path, fields)
	})
}

func (s *TreeStore) Delete(ctx context.Context, path string) error {
	return s.mutate(ctx, func(root map[string]any) (map[string]any, error) {
		return tree.Remove(root, path), nil
	})
}

func (s *TreeStore) mutate(ctx context.Context, apply func(map[string]any) (map[string]any, error)) error {
	for attempt := 0; attempt < s.maxTx; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			doc, err := readDocument(ctx, tx, s.docKey)
			if err != nil {
				return err
			}

			next, err := apply(doc.Tree)
			if err != nil {
				return err
			}
			doc.Tree = next
			doc.Version++

			payload, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("redis store: codificar arvore: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.docKey, payload, 0)
				pipe.Publish(ctx, s.channel, payload)
				return nil
			})
			return err
		}, s.docKey)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContention
}

var _ domain.Store = (*TreeStore)(nil)
