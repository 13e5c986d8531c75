package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/warelay/config"
	"github.com/talkincode/warelay/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateAndDrop(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	a := NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	require.Same(t, db, a.DB())

	require.NoError(t, a.MigrateDB(false))
	for _, table := range []string{"bot_status", "bot_session", "message_log"} {
		assert.True(t, a.DB().Migrator().HasTable(table), table)
	}

	require.NoError(t, a.DB().Create(&domain.BotStatus{ID: domain.BotStatusID, Status: domain.StatusReady}).Error)

	a.DropAll()
	for _, table := range []string{"bot_status", "bot_session", "message_log"} {
		assert.False(t, a.DB().Migrator().HasTable(table), table)
	}
}
