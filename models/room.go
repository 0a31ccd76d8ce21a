package models

import (
	"gorm.io/gorm"
)

// RoomRecord is the durable history row for one room. It is maintained by
// the history recorder from ledger events and outlives the in-memory room
// entry, so terminal rooms stay readable forever.
type RoomRecord struct {
	gorm.Model
	RoomID     uint64 `gorm:"uniqueIndex;not null"`
	Player1    string `gorm:"not null"`
	Player2    string
	Stake      int64  `gorm:"not null"`
	Decision1  string `gorm:"not null;default:'unset'"`
	Decision2  string `gorm:"not null;default:'unset'"`
	Status     string `gorm:"not null;index"`
	Message    string
	StartTime  int64
	ResolvedAt int64
}
