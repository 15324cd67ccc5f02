package domain

import (
	"context"
	"time"
)

// Snapshot e o estado completo da arvore num instante. Version cresce a cada mutacao.
type Snapshot struct {
	Version uint64
	Tree    map[string]any
}

// Store e o armazenamento em arvore com assinatura em tempo real.
//
// Subscribe dispara imediatamente com o estado atual e depois a cada mutacao de
// qualquer cliente, inclusive as do proprio chamador. Cada assinante recebe versoes
// nao decrescentes. Escritas sao "dispare e esqueca": o erro retornado indica apenas
// falha de transporte; a visibilidade chega pelo proximo snapshot.
type Store interface {
	Subscribe(ctx context.Context, fn func(Snapshot)) (unsubscribe func(), err error)
	Write(ctx context.Context, path string, value any) error
	Patch(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
}

type DraftRepository interface {
	Get(ctx context.Context, judgeID, performanceID string) (Draft, error)
	Save(ctx context.Context, draft Draft) error
	Delete(ctx context.Context, judgeID, performanceID string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// SuggestionRequest alimenta o colaborador de sugestao de comentario.
type SuggestionRequest struct {
	Score           float64
	PerformanceName string
	MaxScore        float64
}

// CommentSuggester nunca falha: indisponibilidade vira texto de fallback.
type CommentSuggester interface {
	Suggest(ctx context.Context, req SuggestionRequest) string
}

// RateLimiter limita acoes por chave (ex.: sugestoes por jurado).
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	New() string
}
