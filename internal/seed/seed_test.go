package seed

import (
	"testing"

	"photogram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Like{}, &models.Follow{}))
	return db
}

func TestSeed(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 5, NumPosts: 10}))

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)

	// Username collisions can drop a user or two, never all of them.
	assert.Greater(t, userCount, int64(0))
	assert.LessOrEqual(t, userCount, int64(5))
	assert.Equal(t, int64(10), postCount)

	// Every post belongs to a seeded user.
	var orphans int64
	require.NoError(t, db.Model(&models.Post{}).
		Where("user_id NOT IN (SELECT id FROM users)").
		Count(&orphans).Error)
	assert.Zero(t, orphans)

	// Seeded accounts all authenticate with the shared password.
	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
}

func TestSeed_CleanReplacesExistingData(t *testing.T) {
	db := setupSeedDB(t)

	stale := models.User{Username: "leftover", Email: "leftover@example.com", Password: "x"}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&models.Post{UserID: stale.ID, Image: "1.jpg", Description: "old"}).Error)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumPosts: 4, ShouldClean: true}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "leftover").Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeed_NoSelfFollows(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 6, NumPosts: 0}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("follower_id = followee_id").
		Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
}
