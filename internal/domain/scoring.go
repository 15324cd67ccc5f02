package domain

import "math"

// ScoreStep devolve o incremento permitido para a escala configurada.
func ScoreStep(maxScore float64) float64 {
	if maxScore > 20 {
		return 1
	}
	return 0.5
}

// ValidScore verifica intervalo [0, maxScore] e aderencia ao passo da escala.
func ValidScore(value, maxScore float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if value < 0 || value > maxScore {
		return false
	}
	steps := value / ScoreStep(maxScore)
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// ClampScore ajusta uma entrada livre ao passo mais proximo dentro da escala.
func ClampScore(value, maxScore float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	step := ScoreStep(maxScore)
	rounded := math.Round(value/step) * step
	if rounded > maxScore {
		rounded = math.Floor(maxScore/step) * step
	}
	return rounded
}
