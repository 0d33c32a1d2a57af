package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/ai-community/internal/model"
)

type SettingRepository interface {
	// Get 读取单行配置，不存在则落库默认值
	Get(ctx context.Context) (*model.AutomationSetting, error)
	Save(ctx context.Context, s *model.AutomationSetting) error
	// Reset 重建默认配置
	Reset(ctx context.Context) (*model.AutomationSetting, error)
}

type settingRepository struct{ db *gorm.DB }

func NewSettingRepository(db *gorm.DB) SettingRepository { return &settingRepository{db: db} }

func (r *settingRepository) Get(ctx context.Context) (*model.AutomationSetting, error) {
	var s model.AutomationSetting
	err := r.db.WithContext(ctx).First(&s, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := model.DefaultAutomationSetting()
		if cErr := r.db.WithContext(ctx).Create(def).Error; cErr != nil {
			return nil, cErr
		}
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepository) Save(ctx context.Context, s *model.AutomationSetting) error {
	s.ID = 1
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *settingRepository) Reset(ctx context.Context) (*model.AutomationSetting, error) {
	if err := r.db.WithContext(ctx).Where("id = ?", 1).Delete(&model.AutomationSetting{}).Error; err != nil {
		return nil, err
	}
	def := model.DefaultAutomationSetting()
	if err := r.db.WithContext(ctx).Create(def).Error; err != nil {
		return nil, err
	}
	return def, nil
}
