// Pacote judging junta a visao do placar, o cache de rascunhos e o envio de notas
// no fluxo da tela do jurado.
package judging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/marcelojr/placar-show/internal/app/drafts"
	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
	"github.com/marcelojr/placar-show/internal/platform/validation"
)

var (
	ErrNoActivePerformance = errors.New("nenhuma apresentacao ativa")
	ErrReadOnly            = errors.New("nota ja enviada; solicite edicao antes de alterar")
)

// QuickComments sao os atalhos de comentario exibidos ao jurado.
var QuickComments = []string{
	"Sáng tạo độc đáo",
	"Biểu cảm tốt",
	"Kỹ thuật điêu luyện",
	"Trang phục đẹp",
	"Dàn dựng công phu",
	"Cần tự tin hơn",
	"Chọn bài phù hợp",
	"Phối hợp ăn ý",
}

// AppendQuickComment acrescenta o atalho ao comentario, sem repetir o que ja esta la.
func AppendQuickComment(comment, chip string) string {
	chip = strings.TrimSpace(chip)
	if chip == "" || strings.Contains(comment, chip) {
		return comment
	}
	if strings.TrimSpace(comment) == "" {
		return chip
	}
	return comment + ", " + chip
}

// View e o que a tela do jurado mostra para a apresentacao ativa.
type View struct {
	Judge         domain.Judge        `json:"judge"`
	Performance   *domain.Performance `json:"performance"`
	MaxScore      float64             `json:"maxScore"`
	Step          float64             `json:"step"`
	Entry         drafts.Entry        `json:"entry"`
	Editing       bool                `json:"editing"`
	Saved         bool                `json:"saved"`
	QuickComments []string            `json:"quickComments"`
}

// ReadOnly indica nota enviada sem pedido de edicao.
func (v View) ReadOnly() bool {
	return v.Entry.Submitted && !v.Editing
}

type SubmitInput struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment" validate:"max=2000"`
}

type Service struct {
	client    *syncclient.Client
	cache     *drafts.Cache
	suggester domain.CommentSuggester
	limiter   domain.RateLimiter
	logger    *slog.Logger

	mu      sync.Mutex
	editing map[drafts.Key]bool
	current map[string]drafts.Key
}

func NewService(client *syncclient.Client, cache *drafts.Cache, suggester domain.CommentSuggester, limiter domain.RateLimiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		cache:     cache,
		suggester: suggester,
		limiter:   limiter,
		logger:    logger,
		editing:   map[drafts.Key]bool{},
		current:   map[string]drafts.Key{},
	}
}

type target struct {
	state       domain.State
	judge       domain.Judge
	performance domain.Performance
	key         drafts.Key
	submitted   *domain.Score
}

func (s *Service) resolve(judgeID string) (target, error) {
	state := s.client.State()
	judge, ok := state.Judge(judgeID)
	if !ok {
		return target{}, fmt.Errorf("%w: %s", syncclient.ErrJudgeNotFound, judgeID)
	}
	active, ok := state.ActivePerformance()
	if !ok {
		return target{state: state, judge: judge}, ErrNoActivePerformance
	}

	t := target{
		state:       state,
		judge:       judge,
		performance: active,
		key:         drafts.Key{JudgeID: judgeID, PerformanceID: active.ID},
	}
	if sc, ok := state.Score(judgeID, active.ID); ok {
		t.submitted = &sc
	}
	return t, nil
}

func (s *Service) isEditing(key drafts.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing[key]
}

// switchTo descarrega o rascunho pendente da apresentacao anterior do jurado.
// O rascunho antigo continua salvo e volta se a apresentacao for reativada.
func (s *Service) switchTo(ctx context.Context, key drafts.Key) {
	s.mu.Lock()
	previous, had := s.current[key.JudgeID]
	s.current[key.JudgeID] = key
	s.mu.Unlock()

	if had && previous != key {
		s.cache.Flush(ctx, previous)
	}
}

// View carrega a nota enviada (somente leitura) ou o rascunho da apresentacao ativa.
// Sem apresentacao ativa devolve a tela de espera, sem erro.
func (s *Service) View(ctx context.Context, judgeID string) (View, error) {
	t, err := s.resolve(judgeID)
	if errors.Is(err, ErrNoActivePerformance) {
		return View{
			Judge:         t.judge,
			MaxScore:      t.state.Settings.MaxScore,
			Step:          domain.ScoreStep(t.state.Settings.MaxScore),
			Saved:         true,
			QuickComments: QuickComments,
		}, nil
	}
	if err != nil {
		return View{}, err
	}

	s.switchTo(ctx, t.key)

	editing := t.submitted != nil && s.isEditing(t.key)
	submitted := t.submitted
	if editing {
		submitted = nil
	}

	entry, err := s.cache.Load(ctx, t.key, submitted)
	if err != nil {
		return View{}, fmt.Errorf("judging: carregar rascunho: %w", err)
	}
	entry.Submitted = t.submitted != nil

	performance := t.performance
	return View{
		Judge:         t.judge,
		Performance:   &performance,
		MaxScore:      t.state.Settings.MaxScore,
		Step:          domain.ScoreStep(t.state.Settings.MaxScore),
		Entry:         entry,
		Editing:       editing,
		Saved:         s.cache.Status(t.key).Saved,
		QuickComments: QuickComments,
	}, nil
}

// BeginEdit libera a nota enviada para edicao, semeando o rascunho com os valores enviados.
func (s *Service) BeginEdit(ctx context.Context, judgeID string) (View, error) {
	t, err := s.resolve(judgeID)
	if err != nil {
		return View{}, err
	}
	if t.submitted == nil {
		return s.View(ctx, judgeID)
	}

	s.mu.Lock()
	already := s.editing[t.key]
	s.editing[t.key] = true
	s.mu.Unlock()

	if !already {
		s.cache.Edit(t.key, t.submitted.Value, t.submitted.Comment)
		s.cache.Flush(ctx, t.key)
	}
	return s.View(ctx, judgeID)
}

// Edit registra a entrada do jurado no rascunho (gravacao adiada). A nota e ajustada
// ao passo e ao intervalo da escala.
func (s *Service) Edit(ctx context.Context, judgeID string, score float64, comment string) (View, error) {
	t, err := s.resolve(judgeID)
	if err != nil {
		return View{}, err
	}
	if t.submitted != nil && !s.isEditing(t.key) {
		return View{}, ErrReadOnly
	}

	s.switchTo(ctx, t.key)
	s.cache.Edit(t.key, domain.ClampScore(score, t.state.Settings.MaxScore), comment)
	return s.View(ctx, judgeID)
}

// Submit envia a nota da apresentacao ativa e apaga o rascunho da chave.
func (s *Service) Submit(ctx context.Context, judgeID string, in SubmitInput) (domain.Score, error) {
	t, err := s.resolve(judgeID)
	if err != nil {
		metrics.ObserveScoreSubmission("rejected")
		return domain.Score{}, err
	}
	if t.submitted != nil && !s.isEditing(t.key) {
		metrics.ObserveScoreSubmission("rejected")
		return domain.Score{}, ErrReadOnly
	}
	if err := validation.Struct(in); err != nil {
		metrics.ObserveScoreSubmission("invalid")
		return domain.Score{}, err
	}

	score, err := s.client.SubmitScore(ctx, syncclient.ScoreInput{
		JudgeID:       judgeID,
		PerformanceID: t.performance.ID,
		Value:         in.Score,
		Comment:       in.Comment,
	})
	if err != nil {
		if errors.Is(err, syncclient.ErrInvalidScore) || errors.Is(err, validation.ErrInvalid) {
			metrics.ObserveScoreSubmission("invalid")
		} else {
			metrics.ObserveScoreSubmission("error")
		}
		return domain.Score{}, err
	}
	metrics.ObserveScoreSubmission("ok")
	s.logger.Info("nota enviada", "judge", judgeID, "performance", t.performance.ID, "value", score.Value)

	s.mu.Lock()
	delete(s.editing, t.key)
	s.mu.Unlock()

	if err := s.cache.Drop(ctx, t.key); err != nil {
		// A nota ja foi aceita; rascunho velho e ignorado enquanto a nota existir.
		s.logger.Warn("falha ao apagar rascunho apos envio", "judge", judgeID, "performance", t.performance.ID, "err", err)
	}
	return score, nil
}

// Suggest pede um comentario ao colaborador de texto, respeitando o limite por jurado.
func (s *Service) Suggest(ctx context.Context, judgeID string, score float64) (string, error) {
	t, err := s.resolve(judgeID)
	if err != nil {
		return "", err
	}
	if err := s.limiter.Allow(ctx, "suggest:"+judgeID); err != nil {
		return "", err
	}

	return s.suggester.Suggest(ctx, domain.SuggestionRequest{
		Score:           score,
		PerformanceName: t.performance.Name,
		MaxScore:        t.state.Settings.MaxScore,
	}), nil
}

// Leave descarrega o rascunho pendente do jurado (logout ou fim da conexao).
func (s *Service) Leave(ctx context.Context, judgeID string) {
	s.mu.Lock()
	key, ok := s.current[judgeID]
	delete(s.current, judgeID)
	s.mu.Unlock()

	if ok {
		s.cache.Flush(ctx, key)
	}
}
