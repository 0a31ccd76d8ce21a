package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionToken records an issued JWT so tokens can be checked against the
// database and invalidated server-side.
type SessionToken struct {
	gorm.Model
	UserID    string    `gorm:"not null;index"`
	Token     string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
