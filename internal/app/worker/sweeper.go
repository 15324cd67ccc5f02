// Pacote worker contem a limpeza assincrona das sobras de remocoes em cascata
// (notas orfas, ponteiro ativo pendente, sessoes e rascunhos sem dono).
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

// Board e a visao sincronizada do placar que dispara cada varredura.
type Board interface {
	State() domain.State
	OnChange(fn func(domain.State)) (remove func())
}

type SessionPurger interface {
	PurgeJudgeSessions(ctx context.Context, keep []string) (int64, error)
}

type DraftPurger interface {
	PurgeOrphans(ctx context.Context, judgeIDs, performanceIDs []string) (int64, error)
}

// Report resume o que uma varredura removeu.
type Report struct {
	Scores        int
	ClearedActive bool
	Sessions      int64
	Drafts        int64
}

func (r Report) Empty() bool {
	return r.Scores == 0 && !r.ClearedActive && r.Sessions == 0 && r.Drafts == 0
}

// Sweeper remove fisicamente o que a agregacao ja ignora logicamente.
type Sweeper struct {
	store    domain.Store
	sessions SessionPurger
	drafts   DraftPurger
	logger   *slog.Logger
}

func NewSweeper(store domain.Store, sessions SessionPurger, drafts DraftPurger, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, sessions: sessions, drafts: drafts, logger: logger}
}

// Sweep compara o estado com suas proprias referencias e apaga o que sobrou.
// Cada remocao e uma escrita independente; falhas sao acumuladas.
func (s *Sweeper) Sweep(ctx context.Context, state domain.State) (Report, error) {
	return s.sweep(ctx, state, nil)
}

// sweep usa current, quando informado, para reler o ponteiro ativo logo antes de
// limpa-lo: o admin pode ter ativado outra apresentacao desde a leitura de state.
func (s *Sweeper) sweep(ctx context.Context, state domain.State, current func() domain.State) (Report, error) {
	var (
		report Report
		errs   []error
	)

	judges := make(map[string]bool, len(state.Judges))
	judgeIDs := make([]string, 0, len(state.Judges))
	for _, j := range state.Judges {
		judges[j.ID] = true
		judgeIDs = append(judgeIDs, j.ID)
	}
	performances := make(map[string]bool, len(state.Performances))
	performanceIDs := make([]string, 0, len(state.Performances))
	for _, p := range state.Performances {
		performances[p.ID] = true
		performanceIDs = append(performanceIDs, p.ID)
	}

	for _, sc := range state.Scores {
		if judges[sc.JudgeID] && performances[sc.PerformanceID] {
			continue
		}
		if err := s.store.Delete(ctx, domain.PathScores+"/"+sc.Key()); err != nil {
			errs = append(errs, fmt.Errorf("remover nota %s: %w", sc.Key(), err))
			continue
		}
		report.Scores++
	}

	if id := state.Settings.ActivePerformanceID; id != "" && !performances[id] && stillDangling(id, current) {
		if err := s.store.Write(ctx, domain.PathActivePerformance, nil); err != nil {
			errs = append(errs, fmt.Errorf("limpar apresentacao ativa: %w", err))
		} else {
			report.ClearedActive = true
		}
	}

	if s.sessions != nil {
		n, err := s.sessions.PurgeJudgeSessions(ctx, judgeIDs)
		if err != nil {
			errs = append(errs, err)
		}
		report.Sessions = n
	}

	if s.drafts != nil {
		n, err := s.drafts.PurgeOrphans(ctx, judgeIDs, performanceIDs)
		if err != nil {
			errs = append(errs, err)
		}
		report.Drafts = n
	}

	metrics.AddOrphansRemoved(report.Scores)
	if !report.Empty() {
		s.logger.Info("varredura concluida",
			"version", state.Version,
			"notas", report.Scores,
			"ativa_limpa", report.ClearedActive,
			"sessoes", report.Sessions,
			"rascunhos", report.Drafts,
		)
	}

	if err := errors.Join(errs...); err != nil {
		return report, fmt.Errorf("worker: varredura: %w", err)
	}
	return report, nil
}

// Run varre a cada novo snapshot e tambem periodicamente, ate o contexto acabar.
// Snapshots que chegam durante uma varredura colapsam numa unica proxima rodada.
func (s *Sweeper) Run(ctx context.Context, board Board, interval time.Duration) error {
	changed := make(chan struct{}, 1)
	remove := board.OnChange(func(domain.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer remove()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		if _, err := s.sweep(ctx, board.State(), board.State); err != nil && ctx.Err() == nil {
			s.logger.Error("erro na varredura de orfaos", "err", err)
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			sweep()
		case <-ticker.C:
			sweep()
		}
	}
}

// stillDangling confirma no estado mais recente que o ponteiro continua apontando
// para a mesma apresentacao inexistente.
func stillDangling(id string, current func() domain.State) bool {
	if current == nil {
		return true
	}
	latest := current()
	if latest.Settings.ActivePerformanceID != id {
		return false
	}
	_, exists := latest.Performance(id)
	return !exists
}
