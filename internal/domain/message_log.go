package domain

import "time"

const (
	MessageIn  = "in"
	MessageOut = "out"
)

// MessageLog records relayed messages in both directions.
type MessageLog struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	ChatID    string    `json:"chat_id" gorm:"index"`
	Direction string    `json:"direction"` // in, out
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (MessageLog) TableName() string {
	return "message_log"
}
