package models

import (
	"strings"

	"gorm.io/gorm"
)

// User represents an account in the system.
type User struct {
	gorm.Model
	Username     string  `gorm:"size:255;uniqueIndex;not null"`
	Email        *string `gorm:"size:255;uniqueIndex"`
	Name         string  `gorm:"size:255"`
	PasswordHash string  `gorm:"size:255;not null"`
	Admin        bool    `gorm:"not null;default:false;index"`
}

// BeforeSave normalizes the username. Lookups at login time lowercase the
// submitted username, so the stored value must be lowercase as well.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	return nil
}
