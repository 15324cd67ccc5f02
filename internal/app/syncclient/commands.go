package syncclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/ids"
	"github.com/marcelojr/placar-show/internal/platform/validation"
)

const (
	// MaxImageURLLength comporta uma imagem de 2 MB codificada como data URL.
	MaxImageURLLength = 2_800_000

	accessCodeAttempts = 20
)

var (
	ErrPerformanceNotFound = errors.New("apresentacao nao encontrada")
	ErrJudgeNotFound       = errors.New("jurado nao encontrado")
	ErrInvalidScore        = errors.New("nota fora da escala")
	ErrAccessCodeExhausted = errors.New("nao foi possivel gerar codigo de acesso unico")
	ErrUnknownAccessCode   = errors.New("codigo de acesso invalido")
)

type PerformanceInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	Performer string `json:"performer" validate:"max=200"`
	ImageURL  string `json:"imageUrl" validate:"max=2800000"`
}

type JudgeInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

type ScoreInput struct {
	JudgeID       string  `json:"judgeId" validate:"required"`
	PerformanceID string  `json:"performanceId" validate:"required"`
	Value         float64 `json:"value"`
	Comment       string  `json:"comment" validate:"max=2000"`
}

type maxScoreInput struct {
	MaxScore float64 `json:"maxScore" validate:"gt=0"`
}

// DefaultImageURL e a imagem de espera usada quando o admin nao envia uma.
func DefaultImageURL(seed string) string {
	return fmt.Sprintf("https://picsum.photos/400/300?random=%s", seed)
}

func performancePath(id string) string { return domain.PathPerformances + "/" + id }
func judgePath(id string) string       { return domain.PathJudges + "/" + id }
func scorePath(key string) string      { return domain.PathScores + "/" + key }

func (in PerformanceInput) normalized() PerformanceInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Performer = strings.TrimSpace(in.Performer)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

// CreatePerformance grava uma nova apresentacao com order = quantidade atual + 1.
// A ordem nunca e renumerada; remocoes deixam lacunas.
func (c *Client) CreatePerformance(ctx context.Context, in PerformanceInput) (domain.Performance, error) {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return domain.Performance{}, err
	}

	id := c.ids.New()
	p := domain.Performance{
		ID:        id,
		Name:      in.Name,
		Performer: in.Performer,
		ImageURL:  in.ImageURL,
		Order:     len(c.State().Performances) + 1,
	}
	if p.ImageURL == "" {
		p.ImageURL = DefaultImageURL(id)
	}

	if err := c.store.Write(ctx, performancePath(id), p); err != nil {
		return domain.Performance{}, fmt.Errorf("syncclient: criar apresentacao: %w", err)
	}
	c.logger.Info("apresentacao criada", "performance", id, "order", p.Order)
	return p, nil
}

// UpdatePerformance mescla nome, apresentador e imagem; order e preservado.
// Imagem vazia mantem a atual.
func (c *Client) UpdatePerformance(ctx context.Context, id string, in PerformanceInput) error {
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return err
	}
	if _, ok := c.State().Performance(id); !ok {
		return fmt.Errorf("%w: %s", ErrPerformanceNotFound, id)
	}

	fields := map[string]any{
		"name":      in.Name,
		"performer": in.Performer,
	}
	if in.ImageURL != "" {
		fields["imageUrl"] = in.ImageURL
	}

	if err := c.store.Patch(ctx, performancePath(id), fields); err != nil {
		return fmt.Errorf("syncclient: atualizar apresentacao %s: %w", id, err)
	}
	return nil
}

// DeletePerformance remove a apresentacao. Em seguida, como escritas separadas e
// nao atomicas, limpa o ponteiro ativo e as notas associadas que estao na visao atual.
// Leitores podem observar a apresentacao sumida com as notas ainda presentes; a
// agregacao ignora essas notas orfas.
func (c *Client) DeletePerformance(ctx context.Context, id string) error {
	state := c.State()

	if err := c.store.Delete(ctx, performancePath(id)); err != nil {
		return fmt.Errorf("syncclient: remover apresentacao %s: %w", id, err)
	}
	c.logger.Info("apresentacao removida", "performance", id)

	var errs []error
	if state.Settings.ActivePerformanceID == id {
		if err := c.store.Write(ctx, domain.PathActivePerformance, nil); err != nil {
			errs = append(errs, fmt.Errorf("limpar apresentacao ativa: %w", err))
		}
	}
	for _, s := range state.Scores {
		if s.PerformanceID != id {
			continue
		}
		if err := c.store.Delete(ctx, scorePath(s.Key())); err != nil {
			errs = append(errs, fmt.Errorf("remover nota %s: %w", s.Key(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("syncclient: limpeza apos remover %s: %w", id, err)
	}
	return nil
}

// SetActivePerformance troca o ponteiro singleton; id vazio significa nenhuma.
func (c *Client) SetActivePerformance(ctx context.Context, id string) error {
	var value any
	if id != "" {
		if _, ok := c.State().Performance(id); !ok {
			return fmt.Errorf("%w: %s", ErrPerformanceNotFound, id)
		}
		value = id
	}

	if err := c.store.Write(ctx, domain.PathActivePerformance, value); err != nil {
		return fmt.Errorf("syncclient: definir apresentacao ativa: %w", err)
	}
	c.logger.Info("apresentacao ativa alterada", "performance", id)
	return nil
}

// SubmitScore faz upsert em scores/{judgeId}_{performanceId}. Reenvio sobrescreve.
func (c *Client) SubmitScore(ctx context.Context, in ScoreInput) (domain.Score, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validation.Struct(in); err != nil {
		return domain.Score{}, err
	}

	state := c.State()
	if _, ok := state.Judge(in.JudgeID); !ok {
		return domain.Score{}, fmt.Errorf("%w: %s", ErrJudgeNotFound, in.JudgeID)
	}
	if _, ok := state.Performance(in.PerformanceID); !ok {
		return domain.Score{}, fmt.Errorf("%w: %s", ErrPerformanceNotFound, in.PerformanceID)
	}
	if !domain.ValidScore(in.Value, state.Settings.MaxScore) {
		return domain.Score{}, fmt.Errorf("%w: %v (max %v, passo %v)", ErrInvalidScore,
			in.Value, state.Settings.MaxScore, domain.ScoreStep(state.Settings.MaxScore))
	}

	score := domain.Score{
		PerformanceID: in.PerformanceID,
		JudgeID:       in.JudgeID,
		Value:         in.Value,
		Comment:       in.Comment,
		Timestamp:     c.clock.Now().UnixMilli(),
	}
	if err := c.store.Write(ctx, scorePath(score.Key()), score); err != nil {
		return domain.Score{}, fmt.Errorf("syncclient: enviar nota %s: %w", score.Key(), err)
	}
	return score, nil
}

// AddJudge gera id e codigo de acesso de quatro digitos no momento da chamada.
// O codigo e sorteado de novo enquanto colidir com outro jurado da visao atual.
func (c *Client) AddJudge(ctx context.Context, in JudgeInput) (domain.Judge, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return domain.Judge{}, err
	}

	code, err := c.uniqueAccessCode()
	if err != nil {
		return domain.Judge{}, err
	}

	judge := domain.Judge{ID: c.ids.New(), Name: in.Name, AccessCode: code}
	if err := c.store.Write(ctx, judgePath(judge.ID), judge); err != nil {
		return domain.Judge{}, fmt.Errorf("syncclient: adicionar jurado: %w", err)
	}
	c.logger.Info("jurado adicionado", "judge", judge.ID)
	return judge, nil
}

func (c *Client) uniqueAccessCode() (string, error) {
	used := map[string]bool{}
	for _, j := range c.State().Judges {
		used[j.AccessCode] = true
	}
	for i := 0; i < accessCodeAttempts; i++ {
		if code := ids.AccessCode(); !used[code] {
			return code, nil
		}
	}
	return "", ErrAccessCodeExhausted
}

func (c *Client) UpdateJudge(ctx context.Context, id string, in JudgeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return err
	}
	if _, ok := c.State().Judge(id); !ok {
		return fmt.Errorf("%w: %s", ErrJudgeNotFound, id)
	}

	if err := c.store.Patch(ctx, judgePath(id), map[string]any{"name": in.Name}); err != nil {
		return fmt.Errorf("syncclient: atualizar jurado %s: %w", id, err)
	}
	return nil
}

// DeleteJudge remove o jurado e, em escritas separadas, as notas dele na visao atual.
func (c *Client) DeleteJudge(ctx context.Context, id string) error {
	state := c.State()

	if err := c.store.Delete(ctx, judgePath(id)); err != nil {
		return fmt.Errorf("syncclient: remover jurado %s: %w", id, err)
	}
	c.logger.Info("jurado removido", "judge", id)

	var errs []error
	for _, s := range state.Scores {
		if s.JudgeID != id {
			continue
		}
		if err := c.store.Delete(ctx, scorePath(s.Key())); err != nil {
			errs = append(errs, fmt.Errorf("remover nota %s: %w", s.Key(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("syncclient: limpeza apos remover jurado %s: %w", id, err)
	}
	return nil
}

func (c *Client) SetMaxScore(ctx context.Context, maxScore float64) error {
	if err := validation.Struct(maxScoreInput{MaxScore: maxScore}); err != nil {
		return err
	}
	if err := c.store.Write(ctx, domain.PathMaxScore, maxScore); err != nil {
		return fmt.Errorf("syncclient: definir nota maxima: %w", err)
	}
	return nil
}

// AuthenticateJudge compara o codigo (sem espacos nas pontas) por igualdade exata.
func (c *Client) AuthenticateJudge(accessCode string) (domain.Judge, error) {
	code := strings.TrimSpace(accessCode)
	if code == "" {
		return domain.Judge{}, ErrUnknownAccessCode
	}
	for _, j := range c.State().Judges {
		if j.AccessCode == code {
			return j, nil
		}
	}
	return domain.Judge{}, ErrUnknownAccessCode
}
