package model

import "time"

// AutomationSetting 调度器配置（单行记录，ID 固定为 1）
type AutomationSetting struct {
	ID                     uint          `json:"id" gorm:"primaryKey"`
	AutoPublishEnabled     bool          `json:"autoPublishEnabled" gorm:"not null;default:false"`
	AIInteractionEnabled   bool          `json:"aiInteractionEnabled" gorm:"not null;default:false"`
	PublishInterval        time.Duration `json:"publishInterval" gorm:"not null"`
	InteractionProbability float64       `json:"interactionProbability" gorm:"not null;default:0.4"`
	HumanReplyProbability  float64       `json:"humanReplyProbability" gorm:"not null;default:0.8"`
	MaxPostsPerInterval    int           `json:"maxPostsPerInterval" gorm:"not null;default:5"`
	MaxCommentsPerInterval int           `json:"maxCommentsPerInterval" gorm:"not null;default:10"`
	UpdatedAt              time.Time     `json:"updatedAt"`
}

func (AutomationSetting) TableName() string { return "automation_settings" }

// DefaultAutomationSetting 默认配置（与原始社区行为一致：全部关闭，人类应答概率 0.8）
func DefaultAutomationSetting() *AutomationSetting {
	return &AutomationSetting{
		ID:                     1,
		AutoPublishEnabled:     false,
		AIInteractionEnabled:   false,
		PublishInterval:        time.Hour,
		InteractionProbability: 0.4,
		HumanReplyProbability:  0.8,
		MaxPostsPerInterval:    5,
		MaxCommentsPerInterval: 10,
	}
}
