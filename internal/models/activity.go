package models

import (
	"time"
)

// The models below are owned by collaborator services (events, social
// graph, referrals, trust, feedback). The engine reads them to count
// badge criteria and leaderboard aggregates; it never writes them.

// Event represents a platform event with a host.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HostID    uint      `gorm:"not null;index" json:"host_id"`
	Host      User      `gorm:"foreignKey:HostID" json:"host,omitempty"`
	Type      string    `gorm:"size:100;index" json:"type"`
	Location  string    `gorm:"size:255" json:"location"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Event model.
func (Event) TableName() string {
	return "events"
}

// EventAttendance records a user checking in to an event. CheckedInAt
// feeds the weekly streak detection.
type EventAttendance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EventID     uint      `gorm:"not null;index" json:"event_id"`
	Event       Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CheckedInAt time.Time `gorm:"not null;index" json:"checked_in_at"`
}

// TableName specifies the table name for EventAttendance model.
func (EventAttendance) TableName() string {
	return "event_attendances"
}

// Connection status constants.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
)

// Connection is an edge in the social graph. A user's accepted
// connections are counted on either side of the edge.
type Connection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;index" json:"addressee_id"`
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Connection model.
func (Connection) TableName() string {
	return "connections"
}

// Referral tracks an invite; Activated flips when the invitee completes
// onboarding.
type Referral struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReferrerID uint      `gorm:"not null;index" json:"referrer_id"`
	RefereeID  *uint     `gorm:"index" json:"referee_id,omitempty"`
	Activated  bool      `gorm:"not null;default:false;index" json:"activated"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for Referral model.
func (Referral) TableName() string {
	return "referrals"
}

// TrustRating is a trust-moment rating one user gives another, 1 to 5.
type TrustRating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RaterID   uint      `gorm:"not null;index" json:"rater_id"`
	RatedID   uint      `gorm:"not null;index" json:"rated_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for TrustRating model.
func (TrustRating) TableName() string {
	return "trust_ratings"
}

// Feedback is a feedback submission counted by engagement badges.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Feedback model.
func (Feedback) TableName() string {
	return "feedback"
}
