package models

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	console "packvault/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

// CreateSiteAdminFromEnv creates the platform admin account on first
// boot. Idempotent: does nothing once any ADMIN user exists.
func CreateSiteAdminFromEnv(db *gorm.DB) error {
	var count int64
	db.Model(&User{}).Where("site_role = ?", SiteRoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	email, ok := os.LookupEnv("ADMIN_EMAIL")
	if !ok {
		return fmt.Errorf("ADMIN_EMAIL not set")
	}

	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("ADMIN_PASSWORD not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	user := User{
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: name,
		SiteRole:    SiteRoleAdmin,
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}

	log.Success("Created site admin %s", email)
	return nil
}
