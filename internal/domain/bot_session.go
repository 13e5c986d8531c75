package domain

import "time"

// BotSessionSnapshot holds the serialized local session directory as a JSON
// object mapping relative file paths to base64 content. A save fully replaces
// the previous content; there is no incremental diffing.
type BotSessionSnapshot struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BotSessionSnapshot) TableName() string {
	return "bot_session"
}
