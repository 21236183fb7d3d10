package database

import (
	"fmt"

	"github.com/gamefund/backend/internal/config"
	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Contribution{},
		&models.Expense{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
	); err != nil {
		return err
	}

	// A bounded pause window must end on or after it starts. The unique
	// (group, user) and (poll, voter) pairs are covered by uniqueIndex
	// tags; this check cannot be expressed as a tag.
	constraint := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1
    FROM pg_constraint
    WHERE conname = 'pause_window_check'
  ) THEN
    ALTER TABLE group_members
    ADD CONSTRAINT pause_window_check
    CHECK (
      pause_start_date IS NULL
      OR pause_end_date IS NULL
      OR pause_end_date >= pause_start_date
    );
  END IF;
END $$;`

	return db.Exec(constraint).Error
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@gamefund.local",
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Admin",
		Role:         models.UserRoleAdmin,
	}

	return db.Create(&admin).Error
}
