package syncclient

import (
	"encoding/json"
	"sort"

	"github.com/marcelojr/placar-show/internal/domain"
)

// Materialize converte a arvore crua na visao tipada. E pura: subarvores
// ausentes viram colecoes vazias, entradas malformadas sao ignoradas e
// settings recebem os defaults (maxScore 10, nenhuma apresentacao ativa).
func Materialize(snap domain.Snapshot) domain.State {
	state := domain.State{
		Version:      snap.Version,
		Performances: []domain.Performance{},
		Judges:       []domain.Judge{},
		Scores:       []domain.Score{},
		Settings:     domain.Settings{MaxScore: domain.DefaultMaxScore},
	}

	for id, raw := range children(snap.Tree, domain.PathPerformances) {
		var p domain.Performance
		if !decode(raw, &p) {
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		state.Performances = append(state.Performances, p)
	}

	for id, raw := range children(snap.Tree, domain.PathJudges) {
		var j domain.Judge
		if !decode(raw, &j) {
			continue
		}
		if j.ID == "" {
			j.ID = id
		}
		state.Judges = append(state.Judges, j)
	}

	for _, raw := range children(snap.Tree, domain.PathScores) {
		var s domain.Score
		if !decode(raw, &s) || s.JudgeID == "" || s.PerformanceID == "" {
			continue
		}
		state.Scores = append(state.Scores, s)
	}

	if settings, ok := snap.Tree[domain.PathSettings].(map[string]any); ok {
		if active, ok := settings["activePerformanceId"].(string); ok {
			state.Settings.ActivePerformanceID = active
		}
		if max, ok := settings["maxScore"].(float64); ok && max > 0 {
			state.Settings.MaxScore = max
		}
	}

	sort.Slice(state.Performances, func(i, j int) bool {
		a, b := state.Performances[i], state.Performances[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	// IDs ULID ordenam por criacao.
	sort.Slice(state.Judges, func(i, j int) bool {
		return state.Judges[i].ID < state.Judges[j].ID
	})
	sort.Slice(state.Scores, func(i, j int) bool {
		return state.Scores[i].Key() < state.Scores[j].Key()
	})

	return state
}

func children(root map[string]any, key string) map[string]any {
	node, _ := root[key].(map[string]any)
	return node
}

func decode(raw any, out any) bool {
	if _, ok := raw.(map[string]any); !ok {
		return false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}
