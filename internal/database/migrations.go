package database

import (
	"errors"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Message{},
		&models.Notification{},
	)
}

// SeedData bootstraps the first administrator account when the users table is
// empty. The credentials come from ALUMNET_ADMIN_EMAIL / ALUMNET_ADMIN_PASSWORD;
// when either is missing, seeding is skipped and the instance starts without
// an admin (one can be promoted manually).
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.TrimSpace(os.Getenv("ALUMNET_ADMIN_EMAIL"))
	password := os.Getenv("ALUMNET_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := models.User{
		Username:    "admin",
		Email:       email,
		Password:    string(hash),
		DisplayName: "Administrator",
		IsAdmin:     true,
		IsApproved:  true,
		ApprovedAt:  &now,
	}
	return db.Create(&admin).Error
}
