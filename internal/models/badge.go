package models

import (
	"encoding/json"
	"time"
)

// Badge represents a badge definition. Criteria holds the serialized
// CriteriaConfig; definitions are created and edited by admin tooling,
// the engine only reads them.
type Badge struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Type          string          `gorm:"uniqueIndex;not null;size:100" json:"type"`
	Name          string          `gorm:"not null;size:255" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Icon          string          `gorm:"size:50" json:"icon"`
	IsActive      bool            `gorm:"not null;default:true;index" json:"is_active"`
	Criteria      json.RawMessage `gorm:"type:jsonb" json:"criteria"`
	RequiredCount int             `gorm:"not null;default:1" json:"required_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// Criteria type constants.
const (
	CriteriaEventAttendance = "event_attendance"
	CriteriaConnection      = "connection"
	CriteriaReferral        = "referral"
	CriteriaEventHosting    = "event_hosting"
	CriteriaStreak          = "streak"
	CriteriaTrustMoment     = "trust_moment"
	CriteriaEngagement      = "engagement"
	CriteriaMeta            = "meta"
)

// Criteria condition constants.
const (
	ConditionTotalEventsAttended = "total_events_attended"
	ConditionEventTypeCount      = "event_type_count"
	ConditionUniqueLocations     = "unique_locations"
	ConditionAcceptedConnections = "accepted_connections"
	ConditionActivatedReferrals  = "activated_referrals"
	ConditionEventsHosted        = "events_hosted"
	ConditionConsecutiveWeeks    = "consecutive_weeks"
	ConditionPositiveRatings     = "positive_ratings_given"
	ConditionFeedbackCount       = "feedback_count"
	ConditionBadgesEarned        = "badges_earned"
)

// CriteriaConfig is the tagged criteria descriptor attached to a badge.
// Type selects the criteria family, Condition the metric within it; the
// remaining fields are only meaningful for the conditions that use them.
type CriteriaConfig struct {
	Type      string `json:"type"`
	Condition string `json:"condition"`
	Count     int    `json:"count,omitempty"`
	EventType string `json:"event_type,omitempty"` // event_attendance/event_type_count
	Weeks     int    `json:"weeks,omitempty"`      // streak/consecutive_weeks
	MinRating int    `json:"min_rating,omitempty"` // trust_moment/positive_ratings_given
}

// ParseCriteria decodes the badge's criteria column. An empty column
// yields a zero config, which evaluates fail-closed downstream.
func (b *Badge) ParseCriteria() (CriteriaConfig, error) {
	var cfg CriteriaConfig
	if len(b.Criteria) == 0 {
		return cfg, nil
	}
	err := json.Unmarshal(b.Criteria, &cfg)
	return cfg, err
}

// UserBadge represents a badge earned by a user. The composite unique
// index is the schema-level exactly-once guarantee: two concurrent
// evaluations can both pass the pre-check but only one insert survives.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}

// BadgeProgress reports how far a user is toward one badge. Current and
// IsEarned come from the same counting function, so they cannot disagree.
type BadgeProgress struct {
	Badge      Badge   `json:"badge"`
	IsEarned   bool    `json:"is_earned"`
	Current    int     `json:"current"`
	Required   int     `json:"required"`
	Percentage float64 `json:"percentage"`
}
