// Pacote httpapi expõe os handlers REST e o canal websocket do placar.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marcelojr/placar-show/internal/app/judging"
	"github.com/marcelojr/placar-show/internal/app/session"
	"github.com/marcelojr/placar-show/internal/app/syncclient"
	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/ratelimit"
	"github.com/marcelojr/placar-show/internal/platform/retry"
	redisstore "github.com/marcelojr/placar-show/internal/platform/storage/redis"
	"github.com/marcelojr/placar-show/internal/platform/validation"
)

// maxBodyBytes comporta uma imagem de 2 MB em data URL mais os demais campos.
const maxBodyBytes = 4 << 20

// Scoreboard e a parte do cliente de sincronizacao usada pela API.
type Scoreboard interface {
	State() domain.State
	OnChange(fn func(domain.State)) (remove func())
	CreatePerformance(ctx context.Context, in syncclient.PerformanceInput) (domain.Performance, error)
	UpdatePerformance(ctx context.Context, id string, in syncclient.PerformanceInput) error
	DeletePerformance(ctx context.Context, id string) error
	SetActivePerformance(ctx context.Context, id string) error
	AddJudge(ctx context.Context, in syncclient.JudgeInput) (domain.Judge, error)
	UpdateJudge(ctx context.Context, id string, in syncclient.JudgeInput) error
	DeleteJudge(ctx context.Context, id string) error
	SetMaxScore(ctx context.Context, maxScore float64) error
}

type Sessions interface {
	LoginAdmin(ctx context.Context, password string) (domain.Session, error)
	LoginJudge(ctx context.Context, accessCode string) (domain.Session, error)
	Resolve(ctx context.Context, token string) (domain.Session, error)
	Logout(ctx context.Context, token string) error
}

type Judging interface {
	View(ctx context.Context, judgeID string) (judging.View, error)
	Edit(ctx context.Context, judgeID string, score float64, comment string) (judging.View, error)
	BeginEdit(ctx context.Context, judgeID string) (judging.View, error)
	Submit(ctx context.Context, judgeID string, in judging.SubmitInput) (domain.Score, error)
	Suggest(ctx context.Context, judgeID string, score float64) (string, error)
	Leave(ctx context.Context, judgeID string)
}

// API empacota os handlers HTTP e suas dependencias.
type API struct {
	board    Scoreboard
	sessions Sessions
	judging  Judging
	clock    domain.Clock
	logger   *slog.Logger
}

func New(board Scoreboard, sessions Sessions, judging Judging, clock domain.Clock, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{board: board, sessions: sessions, judging: judging, clock: clock, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(pattern, h))
	}

	route("GET /healthz", a.handleHealthz)

	route("POST /login/admin", a.loginAdmin)
	route("POST /login/judge", a.loginJudge)
	route("POST /logout", a.authenticated(a.logout))
	route("GET /session", a.authenticated(a.currentSession))
	route("GET /state", a.authenticated(a.getState))

	route("GET /results", a.adminOnly(a.listResults))
	route("GET /results/export.csv", a.adminOnly(a.exportResults))
	route("GET /results/{id}", a.adminOnly(a.resultDetail))

	route("POST /performances", a.adminOnly(a.createPerformance))
	route("PUT /performances/{id}", a.adminOnly(a.updatePerformance))
	route("DELETE /performances/{id}", a.adminOnly(a.deletePerformance))
	route("POST /settings/active", a.adminOnly(a.setActive))
	route("POST /settings/max-score", a.adminOnly(a.setMaxScore))

	route("POST /judges", a.adminOnly(a.addJudge))
	route("PUT /judges/{id}", a.adminOnly(a.updateJudge))
	route("DELETE /judges/{id}", a.adminOnly(a.deleteJudge))

	route("GET /judge/view", a.judgeOnly(a.judgeView))
	route("PUT /judge/draft", a.judgeOnly(a.judgeDraft))
	route("POST /judge/edit", a.judgeOnly(a.judgeBeginEdit))
	route("POST /judge/submit", a.judgeOnly(a.judgeSubmit))
	route("POST /judge/suggest", a.judgeOnly(a.judgeSuggest))

	// O upgrade do websocket nao passa pelo wrapper de metricas (Hijack).
	mux.Handle("GET /ws", a.authenticated(a.handleWebsocket))
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errPayload
	}
	return nil
}

var errPayload = errors.New("payload invalido")

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func responderErro(w http.ResponseWriter, err error) {
	responderJSON(w, statusFromError(err), map[string]string{"erro": err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, errPayload),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, syncclient.ErrInvalidScore):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, syncclient.ErrPerformanceNotFound),
		errors.Is(err, syncclient.ErrJudgeNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, judging.ErrNoActivePerformance),
		errors.Is(err, judging.ErrReadOnly),
		errors.Is(err, syncclient.ErrAccessCodeExhausted):
		return http.StatusConflict
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, retry.ErrPersistent),
		errors.Is(err, redisstore.ErrContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
