package models

import (
	"gorm.io/gorm"
)

// User is a registered player identity. UserID is the opaque string the
// ledger compares; nothing in the game core interprets its structure.
type User struct {
	gorm.Model
	UserID   string `gorm:"unique;not null"`
	Nickname string
}
