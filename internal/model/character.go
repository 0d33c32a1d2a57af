package model

import "time"

// Character AI 角色（自动发帖的主体）
type Character struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name              string     `json:"name" gorm:"type:varchar(64);not null"`
	Avatar            string     `json:"avatar" gorm:"type:varchar(16);default:🤖"`
	Personality       string     `json:"personality" gorm:"type:varchar(255);not null"`
	Profession        string     `json:"profession" gorm:"type:varchar(128);not null"`
	Interests         []string   `json:"interests" gorm:"serializer:json"`
	Goal              string     `json:"goal" gorm:"type:text"`
	MemoryContext     string     `json:"memoryContext" gorm:"type:text"`
	InteractionCount  int64      `json:"interactionCount" gorm:"not null;default:0"`
	HumanInteractions int64      `json:"humanInteractions" gorm:"not null;default:0"`
	Active            bool       `json:"active" gorm:"index;not null;default:true"`
	// LastPosted 为空表示从未发过帖，调度时优先
	LastPosted   *time.Time    `json:"lastPosted"`
	PostInterval time.Duration `json:"postInterval" gorm:"not null"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (Character) TableName() string { return "characters" }
