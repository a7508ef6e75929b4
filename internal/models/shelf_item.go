package models

import "time"

// ShelfItem links a user to a game on their personal shelf. Rows are kept
// in insertion order; nothing prevents the same game from being added
// twice, which matches how shelves have always behaved.
type ShelfItem struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;index"`
	GameID    uint `gorm:"not null;index"`
	CreatedAt time.Time
}
