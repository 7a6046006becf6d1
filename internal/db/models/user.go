package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"` // Bcrypt hash of password
	FirstName    string
	LastName     string
	ActiveStatus bool `gorm:"not null;default:true"`
	LastLogin    time.Time
	SecureFiles  []SecureFile
}
