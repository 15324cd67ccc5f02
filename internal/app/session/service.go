// Pacote session emite e resolve o marcador de autenticacao {role, judgeId}.
// Senha de admin estatica e codigo de acesso de jurado; sem endurecimento.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marcelojr/placar-show/internal/domain"
)

var (
	// ErrInvalidCredentials e unico para senha e codigo: nao revela qual falhou.
	ErrInvalidCredentials = errors.New("credenciais invalidas")
	ErrUnauthenticated    = errors.New("sessao inexistente ou encerrada")
)

// Judges e a parte do cliente de sincronizacao usada no login.
type Judges interface {
	AuthenticateJudge(accessCode string) (domain.Judge, error)
	State() domain.State
}

type Service struct {
	repo          domain.SessionRepository
	judges        Judges
	adminPassword string
	logger        *slog.Logger
}

func NewService(repo domain.SessionRepository, judges Judges, adminPassword string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, judges: judges, adminPassword: adminPassword, logger: logger}
}

func (s *Service) LoginAdmin(ctx context.Context, password string) (domain.Session, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		s.logger.Warn("login de admin recusado")
		return domain.Session{}, ErrInvalidCredentials
	}
	return s.create(ctx, domain.Session{Role: domain.RoleAdmin})
}

func (s *Service) LoginJudge(ctx context.Context, accessCode string) (domain.Session, error) {
	judge, err := s.judges.AuthenticateJudge(accessCode)
	if err != nil {
		s.logger.Warn("login de jurado recusado")
		return domain.Session{}, ErrInvalidCredentials
	}
	return s.create(ctx, domain.Session{Role: domain.RoleJudge, JudgeID: judge.ID})
}

func (s *Service) create(ctx context.Context, sess domain.Session) (domain.Session, error) {
	sess.Token = uuid.NewString()
	if err := s.repo.Create(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("session: criar: %w", err)
	}
	s.logger.Info("sessao iniciada", "role", sess.Role, "judge", sess.JudgeID)
	return sess, nil
}

// Resolve devolve a sessao do token. Sessao de jurado removido e recusada.
func (s *Service) Resolve(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, ErrUnauthenticated
	}
	sess, err := s.repo.Find(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, ErrUnauthenticated
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: resolver: %w", err)
	}
	if sess.Role == domain.RoleJudge {
		if _, ok := s.judges.State().Judge(sess.JudgeID); !ok {
			return domain.Session{}, ErrUnauthenticated
		}
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.repo.Delete(ctx, token); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}
