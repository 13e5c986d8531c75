package sessionstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/warelay/internal/domain"
	"github.com/talkincode/warelay/internal/sessionblob"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestLoadNotFound(t *testing.T) {
	store := NewStore(testDB(t))

	blob, err := store.Load(context.Background())
	assert.Nil(t, blob)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	blob := sessionblob.Blob{
		"session.json":    "eyJhIjoxfQ==",
		"Default/Cookies": "AAEC",
	}
	require.NoError(t, store.Save(ctx, blob))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestSaveReplacesPriorContent(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sessionblob.Blob{"old.bin": "b2xk"}))
	require.NoError(t, store.Save(ctx, sessionblob.Blob{"new.bin": "bmV3"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sessionblob.Blob{"new.bin": "bmV3"}, got)
}

func TestSaveEmptyBlobIsNoop(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	blob := sessionblob.Blob{"keep.bin": "a2VlcA=="}
	require.NoError(t, store.Save(ctx, blob))

	require.NoError(t, store.Save(ctx, sessionblob.Blob{}))
	require.NoError(t, store.Save(ctx, nil))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestUpsertStatus(t *testing.T) {
	store := NewStore(testDB(t))
	status := NewStatusStore(store)
	ctx := context.Background()

	qr := "2@abcdef"
	require.NoError(t, status.UpsertStatus(ctx, domain.StatusWaitingScan, &qr))

	cur, err := status.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingScan, cur.Status)
	require.NotNil(t, cur.QrCode)
	assert.Equal(t, qr, *cur.QrCode)

	require.NoError(t, status.UpsertStatus(ctx, domain.StatusConnected, nil))

	cur, err = status.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, cur.Status)
	assert.Nil(t, cur.QrCode)

	var count int64
	require.NoError(t, store.db.Model(&domain.BotStatus{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
