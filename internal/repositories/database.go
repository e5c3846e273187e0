package repositories

import (
	"fmt"
	"log"

	"github.com/whitedevilpython/hackathon-registration/internal/config"
	"github.com/whitedevilpython/hackathon-registration/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Printf("Connected to %s database", cfg.DBDriver)
	return db, nil
}

// Migrate creates the tables and indexes and seeds the sequence guard row.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Participant{}, &models.PendingRegistration{}, &models.Sequence{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Sequence{Name: ParticipantSequence}).Error
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", ParticipantSequence, err)
	}
	return nil
}
