package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/ai-community/internal/model"
)

type InteractionRepository interface {
	Create(ctx context.Context, it *model.Interaction) error
	// ListUnprocessedHuman 待应答的人类评论/回复，最新优先
	ListUnprocessedHuman(ctx context.Context, limit int) ([]*model.Interaction, error)
	// ListHumanTargeting 指向某角色的人类互动（发帖上下文用）
	ListHumanTargeting(ctx context.Context, characterID string, limit int) ([]*model.Interaction, error)
	// MarkProcessed 条件置位，只允许 false→true；返回是否真正翻转
	MarkProcessed(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountHumanSourced(ctx context.Context) (int64, error)
}

type interactionRepository struct{ db *gorm.DB }

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Create(ctx context.Context, it *model.Interaction) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *interactionRepository) ListUnprocessedHuman(ctx context.Context, limit int) ([]*model.Interaction, error) {
	var res []*model.Interaction
	err := r.db.WithContext(ctx).
		Where("is_human_source = ? AND processed = ? AND type IN ?",
			true, false, []string{model.InteractionComment, model.InteractionReply}).
		Order("created_at DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *interactionRepository) ListHumanTargeting(ctx context.Context, characterID string, limit int) ([]*model.Interaction, error) {
	var res []*model.Interaction
	err := r.db.WithContext(ctx).
		Where("target_character_id = ? AND is_human_source = ?", characterID, true).
		Order("created_at DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *interactionRepository) MarkProcessed(ctx context.Context, id string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&model.Interaction{}).
		Where("id = ? AND processed = ?", id, false).
		Update("processed", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *interactionRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Interaction{}).Count(&cnt).Error
	return cnt, err
}

func (r *interactionRepository) CountHumanSourced(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Interaction{}).
		Where("is_human_source = ?", true).Count(&cnt).Error
	return cnt, err
}
