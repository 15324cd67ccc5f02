package results

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/placar-show/internal/domain"
)

func apresentacoes() []domain.Performance {
	return []domain.Performance{
		{ID: "p1", Name: "Abertura", Order: 1},
		{ID: "p2", Name: "Danca", Order: 2},
		{ID: "p3", Name: "Coral", Order: 3},
	}
}

func nota(judge, perf string, value float64) domain.Score {
	return domain.Score{JudgeID: judge, PerformanceID: perf, Value: value, Timestamp: 1}
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Performance.ID)
	}
	return out
}

func TestCompute_QuandoMediaETotalEmpatam_DeveDesempatarPorOrder(t *testing.T) {
	scores := []domain.Score{
		nota("j1", "p2", 9), nota("j2", "p2", 8),
		nota("j1", "p1", 8), nota("j2", "p1", 9),
	}

	rows := Compute(apresentacoes()[:2], scores)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"p1", "p2"}, ids(rows))
	assert.Equal(t, 8.5, rows[0].Average)
	assert.Equal(t, 17.0, rows[0].Total)
	assert.Equal(t, 2, rows[0].Votes)
}

func TestCompute_QuandoMediasIguais_DeveDesempatarPorTotal(t *testing.T) {
	scores := []domain.Score{
		nota("j1", "p1", 8),
		nota("j1", "p2", 8), nota("j2", "p2", 8),
	}

	rows := Compute(apresentacoes()[:2], scores)

	assert.Equal(t, []string{"p2", "p1"}, ids(rows))
}

func TestCompute_QuandoSemNotas_DeveTerMediaZeroNoFim(t *testing.T) {
	scores := []domain.Score{nota("j1", "p2", 3)}

	rows := Compute(apresentacoes(), scores)

	assert.Equal(t, []string{"p2", "p1", "p3"}, ids(rows))
	assert.Equal(t, 0, rows[1].Votes)
	assert.Equal(t, 0.0, rows[1].Average)
}

func TestCompute_QuandoNotaOrfa_DeveIgnorar(t *testing.T) {
	scores := []domain.Score{nota("j1", "removida", 10), nota("j1", "p1", 5)}

	rows := Compute(apresentacoes()[:1], scores)

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Votes)
	assert.Equal(t, 5.0, rows[0].Total)
}

func TestCompute_QuandoEntradaEmbaralhada_DeveProduzirMesmaSaida(t *testing.T) {
	perfs := apresentacoes()
	scores := []domain.Score{
		nota("j1", "p1", 7.5), nota("j2", "p1", 9), nota("j3", "p1", 6.5),
		nota("j1", "p2", 8), nota("j2", "p2", 8), nota("j3", "p2", 8),
		nota("j1", "p3", 10), nota("j2", "p3", 4.5),
	}
	esperado := Compute(perfs, scores)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		p := append([]domain.Performance(nil), perfs...)
		s := append([]domain.Score(nil), scores...)
		rng.Shuffle(len(p), func(a, b int) { p[a], p[b] = p[b], p[a] })
		rng.Shuffle(len(s), func(a, b int) { s[a], s[b] = s[b], s[a] })

		assert.Equal(t, esperado, Compute(p, s))
	}
}

func TestCompute_QuandoParDuplicado_DeveManterMaisRecente(t *testing.T) {
	antiga := domain.Score{JudgeID: "j1", PerformanceID: "p1", Value: 3, Timestamp: 10}
	recente := domain.Score{JudgeID: "j1", PerformanceID: "p1", Value: 9, Timestamp: 20}

	rows := Compute(apresentacoes()[:1], []domain.Score{recente, antiga})

	assert.Equal(t, 1, rows[0].Votes)
	assert.Equal(t, 9.0, rows[0].Total)
}

func TestRow_RoundedAverage_DeveArredondarDuasCasas(t *testing.T) {
	scores := []domain.Score{nota("j1", "p1", 8), nota("j2", "p1", 8), nota("j3", "p1", 9)}

	rows := Compute(apresentacoes()[:1], scores)

	assert.InDelta(t, 8.3333333, rows[0].Average, 1e-6)
	assert.Equal(t, 8.33, rows[0].RoundedAverage())
}

func TestRow_Coverage_DeveCalcularPercentual(t *testing.T) {
	row := Row{Votes: 3}

	assert.Equal(t, 75.0, row.Coverage(4))
	assert.Equal(t, 0.0, row.Coverage(0))
}

func TestComputeState_QuandoJuradoRemovido_DeveDescartarNotas(t *testing.T) {
	state := domain.State{
		Performances: apresentacoes()[:1],
		Judges:       []domain.Judge{{ID: "j1"}},
		Scores:       []domain.Score{nota("j1", "p1", 6), nota("removido", "p1", 10)},
		Settings:     domain.Settings{MaxScore: 10},
	}

	rows := ComputeState(state)

	assert.Equal(t, 1, rows[0].Votes)
	assert.Equal(t, 6.0, rows[0].Average)
}

func TestDetailFor_QuandoJuradoSemNota_DeveMarcarPendente(t *testing.T) {
	judges := []domain.Judge{{ID: "j1", Name: "Ana"}, {ID: "j2", Name: "Bia"}}
	scores := []domain.Score{nota("j2", "p1", 7), nota("j1", "p2", 9)}

	detail := DetailFor(apresentacoes()[0], judges, scores)

	require.Len(t, detail.Entries, 2)
	assert.Equal(t, "j1", detail.Entries[0].Judge.ID)
	assert.Nil(t, detail.Entries[0].Score)
	require.NotNil(t, detail.Entries[1].Score)
	assert.Equal(t, 7.0, detail.Entries[1].Score.Value)
	assert.Equal(t, 1, detail.Votes)
	assert.Equal(t, 7.0, detail.Average)
}
