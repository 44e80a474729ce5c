package db

import (
	"fmt"
	"log"
	"mixins/internal/config"
	"mixins/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the global connection, migrates and seeds.
func Init(cfg *config.Config) {
	var err error
	DB, err = Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedTags(DB)
}

// Open connects with the named driver: postgres, mysql or sqlite.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return conn, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.UserVote{},
		&models.Comment{},
		&models.Article{},
		&models.Place{},
		&models.Site{},
	)
}

func seedTags(conn *gorm.DB) {
	var count int64
	conn.Model(&models.Tag{}).Count(&count)
	if count > 0 {
		log.Println("Tags already seeded, skipping")
		return
	}

	tags := []models.Tag{
		{Tag: "news"},
		{Tag: "howto"},
		{Tag: "review"},
	}

	for _, tag := range tags {
		if err := conn.Create(&tag).Error; err != nil {
			log.Printf("Failed to create tag %s: %v", tag.Tag, err)
		}
	}
	log.Println("Initial tags created successfully")
}
