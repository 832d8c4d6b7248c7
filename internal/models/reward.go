package models

import (
	"time"
)

// Reward represents a catalog item users can spend points on. Quantity is
// finite and decremented inside the redemption transaction; a reward is
// visible and purchasable only while IsActive and Quantity > 0.
type Reward struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"not null;size:255" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Category       string    `gorm:"size:100;index" json:"category"`
	PointsRequired int       `gorm:"not null" json:"points_required"`
	Quantity       int       `gorm:"not null;default:0" json:"quantity"`
	IsActive       bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Reward model.
func (Reward) TableName() string {
	return "rewards"
}

// Redemption status constants. Transitions past PENDING are made by an
// external moderation workflow, never by the engine.
const (
	RedemptionStatusPending  = "PENDING"
	RedemptionStatusApproved = "APPROVED"
	RedemptionStatusRejected = "REJECTED"
)

// Redemption records a user spending points for a reward. Created
// atomically with the ledger deduction and the quantity decrement.
type Redemption struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RewardID    uint       `gorm:"not null;index" json:"reward_id"`
	Reward      Reward     `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	RedeemedAt  time.Time  `gorm:"not null" json:"redeemed_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TableName specifies the table name for Redemption model.
func (Redemption) TableName() string {
	return "redemptions"
}
