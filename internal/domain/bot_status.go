package domain

import "time"

// Connection status values mirrored into the bot_status row.
const (
	StatusWaitingScan  = "waiting_scan"
	StatusConnected    = "connected"
	StatusReady        = "ready"
	StatusDisconnected = "disconnected"
)

// Fixed row ids; this deployment runs a single bot instance.
const (
	BotStatusID  int64 = 1
	BotSessionID int64 = 1
)

// BotStatus is the single remote record mirroring the WhatsApp connection
// state. QrCode is populated only while the status is waiting_scan.
type BotStatus struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	QrCode    *string   `json:"qr_code"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BotStatus) TableName() string {
	return "bot_status"
}
