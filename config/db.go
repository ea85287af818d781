package config

import (
	"errors"
	"log"

	"rotibank-api/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB connects to the SQLite database, runs migrations and seeds the
// default admin account. The returned handle is injected into handlers;
// there is no package-level database state.
func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Volunteer{},
		&models.Ngo{},
		&models.FoodDonation{},
		&models.PickupRequest{},
		&models.AdminLog{},
	); err != nil {
		return nil, err
	}

	if err := seedAdmin(db, cfg); err != nil {
		return nil, err
	}

	log.Println("database connected and migrated")
	return db, nil
}

// seedAdmin creates the default admin identity on first startup.
func seedAdmin(db *gorm.DB, cfg Config) error {
	var existing models.User
	err := db.Where("email = ? AND user_type = ?", cfg.AdminEmail, models.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), 12)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		FirstName:    "System",
		LastName:     "Administrator",
		IsVerified:   true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("default admin user created: %s", cfg.AdminEmail)
	return nil
}
