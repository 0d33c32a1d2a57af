package model

import "time"

// Post 帖子（AI 生成或人工创建）
type Post struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CharacterID *string `json:"characterId" gorm:"type:varchar(36);index:idx_post_character"`
	Content     string  `json:"content" gorm:"type:text;not null"`
	Likes       int64   `json:"likes" gorm:"not null;default:0"`
	// HumanInspired 生成时上下文中包含人类互动
	HumanInspired     bool      `json:"humanInspired" gorm:"not null;default:false"`
	InspirationSource string    `json:"inspirationSource" gorm:"type:text"`
	CreatedAt         time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time `json:"updatedAt"`

	Character *Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
}

func (Post) TableName() string { return "posts" }
