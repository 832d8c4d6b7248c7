// Package models defines domain models for the gamification engine.
package models

import (
	"time"
)

// User represents a platform user as seen by the engine. The engine owns
// TotalPoints; TrustScore is written by an external trust workflow and is
// read-only here. Users are never deleted, deactivation is a flag.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	ImageURL    string    `gorm:"size:512" json:"image_url,omitempty"`
	TotalPoints int       `gorm:"not null;default:0" json:"total_points"`
	TrustScore  int       `gorm:"not null;default:0" json:"trust_score"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// PointHistory is one append-only ledger entry. The sum of a user's entries
// always equals User.TotalPoints; both are written in the same transaction.
type PointHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Points      int       `gorm:"not null" json:"points"` // signed, negative for penalties and redemptions
	Action      string    `gorm:"size:100;not null;index" json:"action"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for PointHistory model.
func (PointHistory) TableName() string {
	return "point_history"
}
