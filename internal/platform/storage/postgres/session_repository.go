package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/marcelojr/placar-show/internal/domain"
)

// SessionRepository guarda o marcador {role, judgeId} de cada token ate o logout.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	if err := r.db.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("gorm sessions: inserir: %w", err)
	}
	return nil
}

func (r *SessionRepository) Find(ctx context.Context, token string) (domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("token = ?", token).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("gorm sessions: buscar: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.Session{}).Error; err != nil {
		return fmt.Errorf("gorm sessions: remover: %w", err)
	}
	return nil
}

// PurgeJudgeSessions encerra as sessoes de jurado cujo judge_id nao esta em keep.
// Sessoes de admin nunca sao tocadas.
func (r *SessionRepository) PurgeJudgeSessions(ctx context.Context, keep []string) (int64, error) {
	q := r.db.WithContext(ctx).Where("role = ?", domain.RoleJudge)
	if len(keep) > 0 {
		q = q.Where("judge_id NOT IN ?", keep)
	}
	res := q.Delete(&domain.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm sessions: remover sessoes orfas: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ domain.SessionRepository = (*SessionRepository)(nil)
