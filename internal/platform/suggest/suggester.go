// Pacote suggest gera sugestoes de comentario para o jurado via LLM
// (Gemini, OpenAI ou Anthropic). Nunca propaga erro: falhas viram texto fixo.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

// Textos exibidos quando nao ha sugestao real.
const (
	FallbackNoKey = "Vui lòng cấu hình API Key để sử dụng tính năng này."
	FallbackEmpty = "Không thể tạo nhận xét lúc này."
	FallbackError = "Lỗi khi kết nối với AI giám khảo."
)

// Provider e o contrato minimo de um modelo de texto.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Suggester aplica ritmo global (x/time/rate), timeout e fallback sobre um Provider.
type Suggester struct {
	provider Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Suggester)

// WithPerMinute limita chamadas ao provedor; 0 desliga o limite.
func WithPerMinute(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Suggester) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Suggester) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSuggester aceita provider nil (sem chave configurada).
func NewSuggester(provider Provider, opts ...Option) *Suggester {
	s := &Suggester{
		provider: provider,
		timeout:  10 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Suggester) Suggest(ctx context.Context, req domain.SuggestionRequest) string {
	if s.provider == nil {
		s.logger.Warn("sugestao pedida sem chave de API configurada")
		return FallbackNoKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	name := s.provider.Name()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			metrics.ObserveSuggestion(name, "throttled", time.Since(start).Seconds())
			s.logger.Warn("sugestao abortada aguardando limite", "provider", name, "err", err)
			return FallbackError
		}
	}

	text, err := s.provider.Complete(ctx, BuildPrompt(req))
	if err != nil {
		metrics.ObserveSuggestion(name, "error", time.Since(start).Seconds())
		s.logger.Error("falha ao gerar sugestao", "provider", name, "err", err)
		return FallbackError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ObserveSuggestion(name, "empty", time.Since(start).Seconds())
		return FallbackEmpty
	}

	metrics.ObserveSuggestion(name, "ok", time.Since(start).Seconds())
	return text
}

var _ domain.CommentSuggester = (*Suggester)(nil)
