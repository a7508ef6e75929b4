package models

import "gorm.io/gorm"

// TagCategory groups tags into broad kinds.
type TagCategory string

const (
	CategoryMechanics TagCategory = "Mechanics"
	CategoryThemes    TagCategory = "Themes"
)

// Valid reports whether c is one of the known categories.
func (c TagCategory) Valid() bool {
	return c == CategoryMechanics || c == CategoryThemes
}

// Tag represents a shared vocabulary entry (e.g. "Dice Rolling", "Fantasy").
type Tag struct {
	gorm.Model
	Name     string       `gorm:"size:100;uniqueIndex;not null"`
	Category *TagCategory `gorm:"size:50"`
}
