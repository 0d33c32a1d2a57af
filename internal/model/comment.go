package model

import "time"

// Comment 评论或回复（ParentCommentID 非空为回复）
type Comment struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID      string  `json:"postId" gorm:"type:varchar(36);index:idx_comment_post;not null"`
	CharacterID *string `json:"characterId" gorm:"type:varchar(36);index"`
	// IsHuman 人类用户发表的评论，CharacterID 为空
	IsHuman         bool      `json:"isHuman" gorm:"not null;default:false"`
	Content         string    `json:"content" gorm:"type:text;not null"`
	Likes           int64     `json:"likes" gorm:"not null;default:0"`
	ParentCommentID *string   `json:"parentCommentId" gorm:"type:varchar(36);index"`
	CreatedAt       time.Time `json:"createdAt" gorm:"index"`

	Character *Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
}

func (Comment) TableName() string { return "comments" }
