package repository

import (
	"time"

	"github.com/huddleup/gamification-engine/internal/models"
)

// UserCount is a per-user aggregate row used by badge criteria counting
// and the aggregate leaderboard dimensions.
type UserCount struct {
	UserID    uint   `json:"user_id"`
	UserName  string `json:"user_name"`
	UserImage string `json:"user_image"`
	Value     int64  `json:"value"`
}

// ActivityRepository reads the collaborator-owned activity tables
// (events, attendances, connections, referrals, trust ratings, feedback).
// The engine only counts over these, it never writes them.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CountAttendances returns how many events a user has attended.
func (r *ActivityRepository) CountAttendances(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.EventAttendance{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountAttendancesByEventType returns attendances filtered by event type.
func (r *ActivityRepository) CountAttendancesByEventType(userID uint, eventType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.EventAttendance{}).
		Joins("JOIN events ON events.id = event_attendances.event_id").
		Where("event_attendances.user_id = ? AND events.type = ?", userID, eventType).
		Count(&count).Error
	return count, err
}

// CountUniqueLocations returns the number of distinct event locations a
// user has attended.
func (r *ActivityRepository) CountUniqueLocations(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.EventAttendance{}).
		Joins("JOIN events ON events.id = event_attendances.event_id").
		Where("event_attendances.user_id = ?", userID).
		Distinct("events.location").
		Count(&count).Error
	return count, err
}

// CountAcceptedConnections counts accepted connections on either side of
// the edge for a user.
func (r *ActivityRepository) CountAcceptedConnections(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Connection{}).
		Where("status = ?", models.ConnectionStatusAccepted).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// CountActivatedReferrals counts a user's referrals whose invitee
// completed onboarding.
func (r *ActivityRepository) CountActivatedReferrals(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND activated = ?", userID, true).
		Count(&count).Error
	return count, err
}

// CountHostedEvents counts events where the user is the host.
func (r *ActivityRepository) CountHostedEvents(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Event{}).
		Where("host_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CheckInsSince returns a user's check-in timestamps on or after the
// cutoff, unordered. Streak detection is order-independent.
func (r *ActivityRepository) CheckInsSince(userID uint, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Model(&models.EventAttendance{}).
		Where("user_id = ? AND checked_in_at >= ?", userID, since).
		Pluck("checked_in_at", &times).Error
	return times, err
}

// CountPositiveRatingsGiven counts trust-moment ratings the user gave at
// or above the minimum rating.
func (r *ActivityRepository) CountPositiveRatingsGiven(userID uint, minRating int) (int64, error) {
	var count int64
	err := r.db.Model(&models.TrustRating{}).
		Where("rater_id = ? AND rating >= ?", userID, minRating).
		Count(&count).Error
	return count, err
}

// CountFeedback counts feedback submissions by the user.
func (r *ActivityRepository) CountFeedback(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Feedback{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// TopByAttendance returns active users grouped by attendance count,
// descending.
func (r *ActivityRepository) TopByAttendance(limit, offset int) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.Model(&models.EventAttendance{}).
		Select("users.id AS user_id, users.name AS user_name, users.image_url AS user_image, COUNT(event_attendances.id) AS value").
		Joins("JOIN users ON users.id = event_attendances.user_id").
		Where("users.is_active = ?", true).
		Group("users.id, users.name, users.image_url").
		Order("value DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// CountAttendanceGroups returns the number of active users with at least
// one attendance.
func (r *ActivityRepository) CountAttendanceGroups() (int64, error) {
	var count int64
	err := r.db.Model(&models.EventAttendance{}).
		Joins("JOIN users ON users.id = event_attendances.user_id").
		Where("users.is_active = ?", true).
		Distinct("event_attendances.user_id").
		Count(&count).Error
	return count, err
}

// CountUsersWithMoreAttendances counts active users with strictly more
// attendances than the given user.
func (r *ActivityRepository) CountUsersWithMoreAttendances(userID uint) (int64, error) {
	own, err := r.CountAttendances(userID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT event_attendances.user_id
			FROM event_attendances
			JOIN users ON users.id = event_attendances.user_id
			WHERE users.is_active = ?
			GROUP BY event_attendances.user_id
			HAVING COUNT(event_attendances.id) > ?
		) ranked`, true, own).Scan(&count).Error
	return count, err
}

// TopByConnections returns active users grouped by accepted connection
// count, descending. Each accepted edge counts for both endpoints.
func (r *ActivityRepository) TopByConnections(limit, offset int) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.Model(&models.Connection{}).
		Select("users.id AS user_id, users.name AS user_name, users.image_url AS user_image, COUNT(connections.id) AS value").
		Joins("JOIN users ON users.id = connections.requester_id OR users.id = connections.addressee_id").
		Where("connections.status = ?", models.ConnectionStatusAccepted).
		Where("users.is_active = ?", true).
		Group("users.id, users.name, users.image_url").
		Order("value DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// CountConnectionGroups returns the number of active users with at least
// one accepted connection.
func (r *ActivityRepository) CountConnectionGroups() (int64, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT users.id
			FROM users
			JOIN connections ON (connections.requester_id = users.id OR connections.addressee_id = users.id)
				AND connections.status = ?
			WHERE users.is_active = ?
			GROUP BY users.id
		) ranked`, models.ConnectionStatusAccepted, true).Scan(&count).Error
	return count, err
}

// CountUsersWithMoreConnections counts active users with strictly more
// accepted connections than the given user.
func (r *ActivityRepository) CountUsersWithMoreConnections(userID uint) (int64, error) {
	own, err := r.CountAcceptedConnections(userID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT users.id
			FROM users
			JOIN connections ON (connections.requester_id = users.id OR connections.addressee_id = users.id)
				AND connections.status = ?
			WHERE users.is_active = ?
			GROUP BY users.id
			HAVING COUNT(connections.id) > ?
		) ranked`, models.ConnectionStatusAccepted, true, own).Scan(&count).Error
	return count, err
}

// TopByReferrals returns active users grouped by activated referral
// count, descending.
func (r *ActivityRepository) TopByReferrals(limit, offset int) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.Model(&models.Referral{}).
		Select("users.id AS user_id, users.name AS user_name, users.image_url AS user_image, COUNT(referrals.id) AS value").
		Joins("JOIN users ON users.id = referrals.referrer_id").
		Where("referrals.activated = ?", true).
		Where("users.is_active = ?", true).
		Group("users.id, users.name, users.image_url").
		Order("value DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// CountReferralGroups returns the number of active users with at least
// one activated referral.
func (r *ActivityRepository) CountReferralGroups() (int64, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Joins("JOIN users ON users.id = referrals.referrer_id").
		Where("referrals.activated = ?", true).
		Where("users.is_active = ?", true).
		Distinct("referrals.referrer_id").
		Count(&count).Error
	return count, err
}

// CountUsersWithMoreReferrals counts active users with strictly more
// activated referrals than the given user.
func (r *ActivityRepository) CountUsersWithMoreReferrals(userID uint) (int64, error) {
	own, err := r.CountActivatedReferrals(userID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT referrals.referrer_id
			FROM referrals
			JOIN users ON users.id = referrals.referrer_id
			WHERE referrals.activated = ? AND users.is_active = ?
			GROUP BY referrals.referrer_id
			HAVING COUNT(referrals.id) > ?
		) ranked`, true, true, own).Scan(&count).Error
	return count, err
}
