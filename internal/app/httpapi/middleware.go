package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

const (
	// SessionCookie guarda o token no navegador; clientes de API usam Authorization: Bearer.
	SessionCookie = "placar_session"
)

var errForbidden = errors.New("acesso nao permitido para este papel")

type sessionKey struct{}

func withSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom devolve a sessao anexada pelo middleware de autenticacao.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(domain.Session)
	return sess, ok
}

// tokenFrom aceita Bearer, cookie ou ?token= (navegadores nao enviam cabecalho no websocket).
func tokenFrom(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

func (a *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.Resolve(r.Context(), tokenFrom(r))
		if err != nil {
			responderErro(w, err)
			return
		}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}

func (a *API) requireRole(role domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.authenticated(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r.Context())
		if sess.Role != role {
			responderErro(w, errForbidden)
			return
		}
		next(w, r)
	})
}

func (a *API) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return a.requireRole(domain.RoleAdmin, next)
}

func (a *API) judgeOnly(next http.HandlerFunc) http.HandlerFunc {
	return a.requireRole(domain.RoleJudge, next)
}

// instrument registra latencia e status por rota.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		metrics.ObserveHTTPRequest(route, r.Method, strconv.Itoa(wrapped.statusCode), time.Since(start).Seconds())
	})
}

// responseWriter captura o status devolvido pelo handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
