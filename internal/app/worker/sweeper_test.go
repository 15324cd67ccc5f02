package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/placar-show/internal/domain"
)

type storeGravador struct {
	mu      sync.Mutex
	deletes []string
	writes  map[string]any
	falhar  string
}

func novoStore() *storeGravador {
	return &storeGravador{writes: map[string]any{}}
}

func (s *storeGravador) Subscribe(context.Context, func(domain.Snapshot)) (func(), error) {
	return func() {}, nil
}

func (s *storeGravador) Write(_ context.Context, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[path] = value
	return nil
}

func (s *storeGravador) Patch(context.Context, string, map[string]any) error {
	return nil
}

func (s *storeGravador) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.falhar {
		return errors.New("conexao recusada")
	}
	s.deletes = append(s.deletes, path)
	return nil
}

func (s *storeGravador) removidos() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

type purgador struct {
	keep     []string
	judges   []string
	perfs    []string
	sessions int64
	drafts   int64
}

func (p *purgador) PurgeJudgeSessions(_ context.Context, keep []string) (int64, error) {
	p.keep = keep
	return p.sessions, nil
}

func (p *purgador) PurgeOrphans(_ context.Context, judgeIDs, performanceIDs []string) (int64, error) {
	p.judges, p.perfs = judgeIDs, performanceIDs
	return p.drafts, nil
}

func silencioso() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func estadoComOrfaos() domain.State {
	return domain.State{
		Version:      12,
		Performances: []domain.Performance{{ID: "p1", Order: 1}},
		Judges:       []domain.Judge{{ID: "j1"}},
		Scores: []domain.Score{
			{JudgeID: "j1", PerformanceID: "p1", Value: 8},
			{JudgeID: "j1", PerformanceID: "p-removida", Value: 7},
			{JudgeID: "j-removido", PerformanceID: "p1", Value: 6},
		},
		Settings: domain.Settings{ActivePerformanceID: "p-removida", MaxScore: 10},
	}
}

func TestSweep_DeveRemoverNotasOrfasELimparAtiva(t *testing.T) {
	// Arrange
	store := novoStore()
	p := &purgador{sessions: 1, drafts: 2}
	sweeper := NewSweeper(store, p, p, silencioso())

	// Act
	report, err := sweeper.Sweep(context.Background(), estadoComOrfaos())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scores)
	assert.True(t, report.ClearedActive)
	assert.Equal(t, int64(1), report.Sessions)
	assert.Equal(t, int64(2), report.Drafts)
	assert.ElementsMatch(t, []string{"scores/j1_p-removida", "scores/j-removido_p1"}, store.removidos())
	v, ok := store.writes[domain.PathActivePerformance]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, []string{"j1"}, p.keep)
	assert.Equal(t, []string{"p1"}, p.perfs)
}

func TestSweep_QuandoEstadoConsistente_NaoDeveEscrever(t *testing.T) {
	store := novoStore()
	state := estadoComOrfaos()
	state.Scores = state.Scores[:1]
	state.Settings.ActivePerformanceID = "p1"

	report, err := NewSweeper(store, nil, nil, silencioso()).Sweep(context.Background(), state)

	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, store.removidos())
	assert.Empty(t, store.writes)
}

func TestSweep_QuandoRemocaoFalha_DeveSeguirEAcumularErro(t *testing.T) {
	store := novoStore()
	store.falhar = "scores/j1_p-removida"

	report, err := NewSweeper(store, nil, nil, silencioso()).Sweep(context.Background(), estadoComOrfaos())

	require.Error(t, err)
	assert.Equal(t, 1, report.Scores)
	assert.Equal(t, []string{"scores/j-removido_p1"}, store.removidos())
}

func TestSweep_QuandoAdminAtivaOutraApresentacaoDuranteVarredura_NaoDeveLimparAtiva(t *testing.T) {
	// Arrange
	store := novoStore()
	recente := estadoComOrfaos()
	recente.Performances = append(recente.Performances, domain.Performance{ID: "p2", Order: 2})
	recente.Settings.ActivePerformanceID = "p2"
	sweeper := NewSweeper(store, nil, nil, silencioso())

	// Act
	report, err := sweeper.sweep(context.Background(), estadoComOrfaos(), func() domain.State { return recente })

	// Assert
	require.NoError(t, err)
	assert.False(t, report.ClearedActive)
	assert.Equal(t, 2, report.Scores)
	_, escreveu := store.writes[domain.PathActivePerformance]
	assert.False(t, escreveu)
}

func TestSweep_QuandoPonteiroContinuaPendente_DeveLimparAtiva(t *testing.T) {
	store := novoStore()
	sweeper := NewSweeper(store, nil, nil, silencioso())

	report, err := sweeper.sweep(context.Background(), estadoComOrfaos(), estadoComOrfaos)

	require.NoError(t, err)
	assert.True(t, report.ClearedActive)
}

type placarFalso struct {
	mu       sync.Mutex
	state    domain.State
	listener func(domain.State)
}

func (b *placarFalso) State() domain.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *placarFalso) OnChange(fn func(domain.State)) func() {
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
	return func() {}
}

func (b *placarFalso) publicar(state domain.State) {
	b.mu.Lock()
	b.state = state
	fn := b.listener
	b.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

func TestRun_DeveVarrerACadaNovoSnapshot(t *testing.T) {
	// Arrange
	store := novoStore()
	board := &placarFalso{state: domain.State{Settings: domain.Settings{MaxScore: 10}}}
	sweeper := NewSweeper(store, nil, nil, silencioso())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx, board, time.Hour) }()

	// Act
	require.Eventually(t, func() bool {
		board.mu.Lock()
		defer board.mu.Unlock()
		return board.listener != nil
	}, time.Second, 5*time.Millisecond)
	board.publicar(estadoComOrfaos())

	// Assert
	require.Eventually(t, func() bool { return len(store.removidos()) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
