package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/placar-show/internal/domain"
)

// DraftRepository persiste rascunhos com chave composta (judge_id, performance_id).
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Get(ctx context.Context, judgeID, performanceID string) (domain.Draft, error) {
	var d domain.Draft
	err := r.db.WithContext(ctx).
		Where("judge_id = ? AND performance_id = ?", judgeID, performanceID).
		Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Draft{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("gorm drafts: buscar: %w", err)
	}
	return d, nil
}

// Save faz upsert: a ultima gravacao da chave vence.
func (r *DraftRepository) Save(ctx context.Context, draft domain.Draft) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "judge_id"}, {Name: "performance_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		}).
		Create(&draft).Error
	if err != nil {
		return fmt.Errorf("gorm drafts: gravar: %w", err)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, judgeID, performanceID string) error {
	err := r.db.WithContext(ctx).
		Where("judge_id = ? AND performance_id = ?", judgeID, performanceID).
		Delete(&domain.Draft{}).Error
	if err != nil {
		return fmt.Errorf("gorm drafts: remover: %w", err)
	}
	return nil
}

// PurgeOrphans apaga rascunhos cujo jurado ou apresentacao nao existe mais.
func (r *DraftRepository) PurgeOrphans(ctx context.Context, judgeIDs, performanceIDs []string) (int64, error) {
	q := r.db.WithContext(ctx)
	if len(judgeIDs) == 0 || len(performanceIDs) == 0 {
		q = q.Where("1 = 1")
	} else {
		q = q.Where("judge_id NOT IN ? OR performance_id NOT IN ?", judgeIDs, performanceIDs)
	}
	res := q.Delete(&domain.Draft{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm drafts: remover orfaos: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ domain.DraftRepository = (*DraftRepository)(nil)
