package httpapi

import (
	"net/http"

	"github.com/marcelojr/placar-show/internal/app/judging"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

type draftRequest struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

type suggestRequest struct {
	Score float64 `json:"score"`
}

type suggestResponse struct {
	Comment string `json:"comment"`
}

func judgeID(r *http.Request) string {
	sess, _ := SessionFrom(r.Context())
	return sess.JudgeID
}

func (a *API) judgeView(w http.ResponseWriter, r *http.Request) {
	view, err := a.judging.View(r.Context(), judgeID(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, view)
}

func (a *API) judgeDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	view, err := a.judging.Edit(r.Context(), judgeID(r), req.Score, req.Comment)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, view)
}

func (a *API) judgeBeginEdit(w http.ResponseWriter, r *http.Request) {
	view, err := a.judging.BeginEdit(r.Context(), judgeID(r))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, view)
}

func (a *API) judgeSubmit(w http.ResponseWriter, r *http.Request) {
	var in judging.SubmitInput
	if err := decodeJSON(w, r, &in); err != nil {
		metrics.ObserveScoreSubmission("invalid_payload")
		responderErro(w, err)
		return
	}

	score, err := a.judging.Submit(r.Context(), judgeID(r), in)
	if err != nil {
		a.logger.Warn("falha ao enviar nota", "err", err, "judge", judgeID(r))
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusAccepted, score)
}

func (a *API) judgeSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	text, err := a.judging.Suggest(r.Context(), judgeID(r), req.Score)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, suggestResponse{Comment: text})
}
