package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameStatus is the moderation state of a catalog game.
type GameStatus string

const (
	StatusPending  GameStatus = "pending"
	StatusApproved GameStatus = "approved"
	StatusRejected GameStatus = "rejected"
)

// Valid reports whether s is one of the known moderation states.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Game represents a board game in the shared catalog. New games start out
// pending and become publicly visible only once an admin approves them.
type Game struct {
	gorm.Model
	Title      string `gorm:"size:255;not null"`
	MinPlayers *int
	MaxPlayers *int
	Status     GameStatus `gorm:"size:20;not null;default:'pending';index"`
	Tags       []*Tag     `gorm:"many2many:game_tags;"`

	// Shelves is the denormalized list of users currently holding this
	// game. It is recomputed on a schedule from the shelf rows and is
	// never authoritative at write time.
	Shelves datatypes.JSONSlice[uint]
}
