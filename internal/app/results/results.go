// Pacote results agrega notas em ranking e detalhamento por jurado. Tudo aqui
// e puro: mesma entrada (em qualquer ordem) produz a mesma saida.
package results

import (
	"math"
	"sort"

	"github.com/marcelojr/placar-show/internal/domain"
)

// Row e a linha do ranking. Average guarda a razao sem arredondar e e a chave
// de ordenacao; RoundedAverage serve apenas para exibicao.
type Row struct {
	Performance domain.Performance `json:"performance"`
	Votes       int                `json:"votes"`
	Total       float64            `json:"total"`
	Average     float64            `json:"average"`
}

func (r Row) RoundedAverage() float64 {
	return Round2(r.Average)
}

// Coverage e o percentual de jurados que ja pontuaram (0 quando nao ha jurados).
func (r Row) Coverage(judgeCount int) float64 {
	if judgeCount <= 0 {
		return 0
	}
	return float64(r.Votes) / float64(judgeCount) * 100
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compute produz uma linha por apresentacao, considerando so as notas cujo
// performanceId casa. Ordena por media desc, total desc, order asc e id asc.
func Compute(performances []domain.Performance, scores []domain.Score) []Row {
	byPerformance := canonical(scores)

	rows := make([]Row, 0, len(performances))
	for _, p := range performances {
		row := Row{Performance: p}
		for _, s := range byPerformance[p.ID] {
			row.Votes++
			row.Total += s.Value
		}
		if row.Votes > 0 {
			row.Average = row.Total / float64(row.Votes)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Average != b.Average {
			return a.Average > b.Average
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Performance.Order != b.Performance.Order {
			return a.Performance.Order < b.Performance.Order
		}
		return a.Performance.ID < b.Performance.ID
	})

	return rows
}

// ComputeState descarta notas cujo jurado ou apresentacao nao existe mais e delega a Compute.
func ComputeState(state domain.State) []Row {
	judges := make(map[string]bool, len(state.Judges))
	for _, j := range state.Judges {
		judges[j.ID] = true
	}

	valid := make([]domain.Score, 0, len(state.Scores))
	for _, s := range state.Scores {
		if judges[s.JudgeID] {
			valid = append(valid, s)
		}
	}
	return Compute(state.Performances, valid)
}

// canonical agrupa por apresentacao, deduplica (jurado, apresentacao) mantendo o
// timestamp mais recente e ordena por jurado para a soma nao depender da entrada.
func canonical(scores []domain.Score) map[string][]domain.Score {
	latest := make(map[string]domain.Score, len(scores))
	for _, s := range scores {
		key := s.Key()
		prev, ok := latest[key]
		if !ok || newer(s, prev) {
			latest[key] = s
		}
	}

	out := map[string][]domain.Score{}
	for _, s := range latest {
		out[s.PerformanceID] = append(out[s.PerformanceID], s)
	}
	for id := range out {
		list := out[id]
		sort.Slice(list, func(i, j int) bool { return list[i].JudgeID < list[j].JudgeID })
	}
	return out
}

func newer(a, b domain.Score) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.Comment > b.Comment
}

// JudgeEntry e a linha do detalhamento. Score nil significa "ainda nao pontuou".
type JudgeEntry struct {
	Judge domain.Judge  `json:"judge"`
	Score *domain.Score `json:"score"`
}

type Detail struct {
	Performance domain.Performance `json:"performance"`
	Entries     []JudgeEntry       `json:"entries"`
	Votes       int                `json:"votes"`
	Total       float64            `json:"total"`
	Average     float64            `json:"average"`
}

// DetailFor monta uma entrada por jurado, na ordem recebida, com no maximo uma nota cada.
func DetailFor(performance domain.Performance, judges []domain.Judge, scores []domain.Score) Detail {
	mine := canonical(scores)[performance.ID]
	byJudge := make(map[string]domain.Score, len(mine))
	for _, s := range mine {
		byJudge[s.JudgeID] = s
	}

	detail := Detail{Performance: performance, Entries: make([]JudgeEntry, 0, len(judges))}
	for _, j := range judges {
		entry := JudgeEntry{Judge: j}
		if s, ok := byJudge[j.ID]; ok {
			s := s
			entry.Score = &s
			detail.Votes++
			detail.Total += s.Value
		}
		detail.Entries = append(detail.Entries, entry)
	}
	if detail.Votes > 0 {
		detail.Average = detail.Total / float64(detail.Votes)
	}
	return detail
}
