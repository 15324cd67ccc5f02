package httpapi

import (
	"fmt"
	"net/http"

	"github.com/marcelojr/placar-show/internal/app/export"
	"github.com/marcelojr/placar-show/internal/app/results"
	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/domain"
)

// ResultRow e a linha do ranking como vai para os clientes.
type ResultRow struct {
	Rank        int                `json:"rank"`
	Performance domain.Performance `json:"performance"`
	Votes       int                `json:"votes"`
	Total       float64            `json:"total"`
	Average     float64            `json:"average"`
	Coverage    float64            `json:"coverage"`
}

// Ranking converte o resultado agregado para resposta, com media arredondada.
func Ranking(state domain.State) []ResultRow {
	rows := results.ComputeState(state)
	out := make([]ResultRow, 0, len(rows))
	for i, row := range rows {
		out = append(out, ResultRow{
			Rank:        i + 1,
			Performance: row.Performance,
			Votes:       row.Votes,
			Total:       row.Total,
			Average:     row.RoundedAverage(),
			Coverage:    row.Coverage(len(state.Judges)),
		})
	}
	return out
}

func (a *API) listResults(w http.ResponseWriter, r *http.Request) {
	responderJSON(w, http.StatusOK, Ranking(a.board.State()))
}

func (a *API) exportResults(w http.ResponseWriter, r *http.Request) {
	rows := results.ComputeState(a.board.State())
	filename := export.Filename(a.clock.Now().Format("2006-01-02"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteCSV(w, rows); err != nil {
		a.logger.Error("erro ao exportar resultados", "err", err)
	}
}

func (a *API) resultDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state := a.board.State()
	performance, ok := state.Performance(id)
	if !ok {
		responderErro(w, fmt.Errorf("%w: %s", syncclient.ErrPerformanceNotFound, id))
		return
	}

	detail := results.DetailFor(performance, state.Judges, state.Scores)
	detail.Average = results.Round2(detail.Average)
	responderJSON(w, http.StatusOK, detail)
}

func (a *API) createPerformance(w http.ResponseWriter, r *http.Request) {
	var in syncclient.PerformanceInput
	if err := decodeJSON(w, r, &in); err != nil {
		responderErro(w, err)
		return
	}

	p, err := a.board.CreatePerformance(r.Context(), in)
	if err != nil {
		a.logger.Warn("falha ao criar apresentacao", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusAccepted, p)
}

func (a *API) updatePerformance(w http.ResponseWriter, r *http.Request) {
	var in syncclient.PerformanceInput
	if err := decodeJSON(w, r, &in); err != nil {
		responderErro(w, err)
		return
	}

	if err := a.board.UpdatePerformance(r.Context(), r.PathValue("id"), in); err != nil {
		a.logger.Warn("falha ao atualizar apresentacao", "err", err, "performance", r.PathValue("id"))
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) deletePerformance(w http.ResponseWriter, r *http.Request) {
	if err := a.board.DeletePerformance(r.Context(), r.PathValue("id")); err != nil {
		a.logger.Error("falha ao remover apresentacao", "err", err, "performance", r.PathValue("id"))
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type activeRequest struct {
	PerformanceID string `json:"performanceId"`
}

func (a *API) setActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	if err := a.board.SetActivePerformance(r.Context(), req.PerformanceID); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type maxScoreRequest struct {
	MaxScore float64 `json:"maxScore"`
}

func (a *API) setMaxScore(w http.ResponseWriter, r *http.Request) {
	var req maxScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	if err := a.board.SetMaxScore(r.Context(), req.MaxScore); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) addJudge(w http.ResponseWriter, r *http.Request) {
	var in syncclient.JudgeInput
	if err := decodeJSON(w, r, &in); err != nil {
		responderErro(w, err)
		return
	}

	judge, err := a.board.AddJudge(r.Context(), in)
	if err != nil {
		a.logger.Warn("falha ao adicionar jurado", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusAccepted, judge)
}

func (a *API) updateJudge(w http.ResponseWriter, r *http.Request) {
	var in syncclient.JudgeInput
	if err := decodeJSON(w, r, &in); err != nil {
		responderErro(w, err)
		return
	}

	if err := a.board.UpdateJudge(r.Context(), r.PathValue("id"), in); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) deleteJudge(w http.ResponseWriter, r *http.Request) {
	if err := a.board.DeleteJudge(r.Context(), r.PathValue("id")); err != nil {
		a.logger.Error("falha ao remover jurado", "err", err, "judge", r.PathValue("id"))
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
