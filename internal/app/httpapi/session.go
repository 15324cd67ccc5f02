package httpapi

import (
	"net/http"

	"github.com/marcelojr/placar-show/internal/domain"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

type judgeLoginRequest struct {
	AccessCode string `json:"accessCode"`
}

type sessionResponse struct {
	Token   string      `json:"token"`
	Role    domain.Role `json:"role"`
	JudgeID string      `json:"judgeId,omitempty"`
}

func (a *API) loginAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	sess, err := a.sessions.LoginAdmin(r.Context(), req.Password)
	if err != nil {
		a.logger.Warn("falha no login de admin", "err", err)
		responderErro(w, err)
		return
	}
	a.startSession(w, sess)
}

func (a *API) loginJudge(w http.ResponseWriter, r *http.Request) {
	var req judgeLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responderErro(w, err)
		return
	}

	sess, err := a.sessions.LoginJudge(r.Context(), req.AccessCode)
	if err != nil {
		a.logger.Warn("falha no login de jurado", "err", err)
		responderErro(w, err)
		return
	}
	a.startSession(w, sess)
}

func (a *API) startSession(w http.ResponseWriter, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	responderJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, Role: sess.Role, JudgeID: sess.JudgeID})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	if sess.Role == domain.RoleJudge {
		a.judging.Leave(r.Context(), sess.JudgeID)
	}

	if err := a.sessions.Logout(r.Context(), sess.Token); err != nil {
		a.logger.Error("erro ao encerrar sessao", "err", err)
		responderErro(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	responderJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, Role: sess.Role, JudgeID: sess.JudgeID})
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	responderJSON(w, http.StatusOK, visibleState(a.board.State(), sess.Role))
}

// visibleState esconde os codigos de acesso de quem nao e admin.
func visibleState(state domain.State, role domain.Role) domain.State {
	if role == domain.RoleAdmin {
		return state
	}
	judges := make([]domain.Judge, len(state.Judges))
	for i, j := range state.Judges {
		j.AccessCode = ""
		judges[i] = j
	}
	state.Judges = judges
	return state
}
