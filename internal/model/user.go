package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the solver. The calibration engine reads Rating as context for the
// rating differential but never writes it.
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Username      string         `json:"username" gorm:"not null;uniqueIndex"`
	Rating        int            `json:"rating" gorm:"not null;default:1200"`
	PuzzlesSolved int            `json:"puzzles_solved" gorm:"not null;default:0"`
	IsGuest       bool           `json:"is_guest" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
