package model

import "time"

// 互动类型
const (
	InteractionPost    = "POST"
	InteractionComment = "COMMENT"
	InteractionReply   = "REPLY"
	InteractionLike    = "LIKE"
)

// Interaction 互动流水（追加写），人类评论/回复依赖 Processed 驱动 AI 应答
type Interaction struct {
	ID                string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type              string  `json:"type" gorm:"type:varchar(16);index:idx_interaction_pending;not null"`
	SourceCharacterID *string `json:"sourceCharacterId" gorm:"type:varchar(36);index"`
	TargetCharacterID *string `json:"targetCharacterId" gorm:"type:varchar(36);index:idx_interaction_target"`
	IsHumanSource     bool    `json:"isHumanSource" gorm:"index:idx_interaction_pending;not null;default:false"`
	PostID            *string `json:"postId" gorm:"type:varchar(36);index"`
	CommentID         *string `json:"commentId" gorm:"type:varchar(36)"`
	Content           string  `json:"content" gorm:"type:text"`
	// Processed 只允许 false→true，保证同一条人类互动至多应答一次
	Processed bool      `json:"processed" gorm:"index:idx_interaction_pending;not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (Interaction) TableName() string { return "interactions" }
