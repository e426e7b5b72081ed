package services

import (
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

func setupTestDB() {
	os.Setenv("JWT_SECRET", "test_secret")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	// Drop tables to ensure a clean state between tests
	db.Migrator().DropTable(
		&models.PromptVersion{},
		"prompt_tags",
		&models.Prompt{},
		&models.Tag{},
		&models.SystemSetting{},
		&models.User{},
	)

	err = db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Prompt{},
		&models.PromptVersion{},
		&models.SystemSetting{},
	)
	if err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
}

func setupTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}
