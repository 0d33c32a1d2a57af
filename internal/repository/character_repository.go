package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/ai-community/internal/model"
)

var ErrNotFound = errors.New("record not found")

type CharacterRepository interface {
	Create(ctx context.Context, ch *model.Character) error
	GetByID(ctx context.Context, id string) (*model.Character, error)
	List(ctx context.Context, limit int) ([]*model.Character, error)
	ListActive(ctx context.Context) ([]*model.Character, error)
	Update(ctx context.Context, ch *model.Character) error
	SetActive(ctx context.Context, id string, active bool) error
	// RecordAction 动作成功后回写：last_posted=now，interaction_count+1
	RecordAction(ctx context.Context, id string, now time.Time) error
	IncrementHumanInteractions(ctx context.Context, id string) error
	IncrementInteractionCount(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type characterRepository struct{ db *gorm.DB }

func NewCharacterRepository(db *gorm.DB) CharacterRepository { return &characterRepository{db: db} }

func (r *characterRepository) Create(ctx context.Context, ch *model.Character) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *characterRepository) GetByID(ctx context.Context, id string) (*model.Character, error) {
	var ch model.Character
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *characterRepository) List(ctx context.Context, limit int) ([]*model.Character, error) {
	var res []*model.Character
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&res).Error
	return res, err
}

func (r *characterRepository) ListActive(ctx context.Context) ([]*model.Character, error) {
	var res []*model.Character
	err := r.db.WithContext(ctx).Where("active = ?", true).Find(&res).Error
	return res, err
}

func (r *characterRepository) Update(ctx context.Context, ch *model.Character) error {
	return r.db.WithContext(ctx).Save(ch).Error
}

func (r *characterRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Character{}).
		Where("id = ?", id).Update("active", active).Error
}

func (r *characterRepository) RecordAction(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Character{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_posted":       now,
			"interaction_count": gorm.Expr("interaction_count + 1"),
		}).Error
}

func (r *characterRepository) IncrementHumanInteractions(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Character{}).
		Where("id = ?", id).
		Update("human_interactions", gorm.Expr("human_interactions + 1")).Error
}

func (r *characterRepository) IncrementInteractionCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Character{}).
		Where("id = ?", id).
		Update("interaction_count", gorm.Expr("interaction_count + 1")).Error
}

func (r *characterRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Character{}).Count(&cnt).Error
	return cnt, err
}
