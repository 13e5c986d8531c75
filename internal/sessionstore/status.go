package sessionstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/warelay/internal/domain"
	"gorm.io/gorm/clause"
)

// StatusStore upserts the single bot_status row mirroring the connection
// state machine. The row is never deleted.
type StatusStore struct {
	store *Store
}

func NewStatusStore(s *Store) *StatusStore {
	return &StatusStore{store: s}
}

// UpsertStatus writes the current status and pending QR code (nil unless a
// scan is awaited) by fixed id.
func (s *StatusStore) UpsertStatus(ctx context.Context, status string, qrCode *string) error {
	row := domain.BotStatus{
		ID:        domain.BotStatusID,
		QrCode:    qrCode,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	err := s.store.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "upsert bot status")
	}
	return nil
}

// Current returns the stored status row, if any.
func (s *StatusStore) Current(ctx context.Context) (*domain.BotStatus, error) {
	var row domain.BotStatus
	if err := s.store.db.WithContext(ctx).Where("id = ?", domain.BotStatusID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
