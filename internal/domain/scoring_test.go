package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreStep_QuandoEscalaAte20_DeveUsarMeioPonto(t *testing.T) {
	assert.Equal(t, 0.5, ScoreStep(10))
	assert.Equal(t, 0.5, ScoreStep(20))
	assert.Equal(t, 1.0, ScoreStep(100))
}

func TestValidScore_QuandoForaDoIntervaloOuPasso_DeveRejeitar(t *testing.T) {
	casos := []struct {
		nome     string
		valor    float64
		max      float64
		esperado bool
	}{
		{"zero", 0, 10, true},
		{"maximo", 10, 10, true},
		{"meio ponto", 7.5, 10, true},
		{"acima do maximo", 10.5, 10, false},
		{"negativo", -0.5, 10, false},
		{"fora do passo", 7.3, 10, false},
		{"meio ponto em escala grande", 50.5, 100, false},
		{"inteiro em escala grande", 87, 100, true},
		{"NaN", math.NaN(), 10, false},
	}

	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			assert.Equal(t, c.esperado, ValidScore(c.valor, c.max))
		})
	}
}

func TestClampScore_QuandoEntradaLivre_DeveAjustarAoPasso(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-3, 10))
	assert.Equal(t, 10.0, ClampScore(12, 10))
	assert.Equal(t, 7.5, ClampScore(7.4, 10))
	assert.Equal(t, 87.0, ClampScore(86.6, 100))
}

func TestState_ActivePerformance_QuandoPonteiroPendente_DeveRetornarNenhuma(t *testing.T) {
	state := State{
		Performances: []Performance{{ID: "p1", Order: 1}},
		Settings:     Settings{ActivePerformanceID: "removida", MaxScore: DefaultMaxScore},
	}

	_, ok := state.ActivePerformance()
	assert.False(t, ok)

	state.Settings.ActivePerformanceID = "p1"
	active, ok := state.ActivePerformance()
	assert.True(t, ok)
	assert.Equal(t, "p1", active.ID)
}

func TestScoreKey_DeveConcatenarJuradoEApresentacao(t *testing.T) {
	assert.Equal(t, "j1_p1", ScoreKey("j1", "p1"))
	assert.Equal(t, "j1_p1", Score{JudgeID: "j1", PerformanceID: "p1"}.Key())
}
