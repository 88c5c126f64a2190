package database

import (
	"testing"

	"gamenight/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	for _, model := range []interface{}{
		&models.User{}, &models.Profile{}, &models.GameSession{},
		&models.SessionParticipant{}, &models.ChatMessage{},
		&models.CommunityPost{}, &models.UserConnection{},
		&models.UserRating{}, &models.StoredFile{},
	} {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}

	// The open-session listing filters on status and scheduled time together
	assert.True(t, db.Migrator().HasIndex(&models.GameSession{}, "idx_sessions_status_scheduled"))
	assert.True(t, db.Migrator().HasIndex(&models.SessionParticipant{}, "idx_session_user"))
	assert.True(t, db.Migrator().HasIndex(&models.UserConnection{}, "idx_follower_following"))
	assert.True(t, db.Migrator().HasIndex(&models.UserRating{}, "idx_rater_rated_session"))
}
