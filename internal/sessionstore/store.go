package sessionstore

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/talkincode/warelay/internal/domain"
	"github.com/talkincode/warelay/internal/sessionblob"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSnapshotNotFound reports that no session snapshot row exists yet. This
// is the normal first-run outcome and must never be conflated with a query
// failure: a transient store error must not silently skip restoration.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists the single session snapshot row in the remote database.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load fetches the stored snapshot. Returns ErrSnapshotNotFound when no row
// exists; any other error is a genuine fetch failure.
func (s *Store) Load(ctx context.Context) (sessionblob.Blob, error) {
	var row domain.BotSessionSnapshot
	err := s.db.WithContext(ctx).Where("id = ?", domain.BotSessionID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrSnapshotNotFound
	case err != nil:
		return nil, errors.Wrap(err, "load session snapshot")
	}
	var blob sessionblob.Blob
	if err := json.UnmarshalFromString(row.Content, &blob); err != nil {
		return nil, errors.Wrap(err, "unmarshal session snapshot")
	}
	return blob, nil
}

// Save upserts the full snapshot, replacing any prior content. An empty blob
// is a no-op: a snapshot requested before any session file exists must not
// overwrite a possibly-good earlier one.
func (s *Store) Save(ctx context.Context, blob sessionblob.Blob) error {
	if len(blob) == 0 {
		zap.L().Debug("session store: skipping save of empty snapshot")
		return nil
	}
	content, err := json.MarshalToString(blob)
	if err != nil {
		return errors.Wrap(err, "marshal session snapshot")
	}
	row := domain.BotSessionSnapshot{
		ID:        domain.BotSessionID,
		Content:   content,
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "save session snapshot")
	}
	return nil
}
