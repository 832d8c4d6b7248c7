package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/huddleup/gamification-engine/internal/models"
)

// BadgeRepository handles badge-related database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create creates a new badge definition.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	return r.db.Create(badge).Error
}

// GetByID retrieves a badge by its ID.
func (r *BadgeRepository) GetByID(id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.First(&badge, id).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetByType retrieves a badge by its unique type key.
func (r *BadgeRepository) GetByType(badgeType string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.Where("type = ?", badgeType).First(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetActive retrieves all active badge definitions.
func (r *BadgeRepository) GetActive() ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Where("is_active = ?", true).Order("created_at ASC").Find(&badges).Error
	return badges, err
}

// HasUserEarnedBadge checks if a user has earned a specific badge.
func (r *BadgeRepository) HasUserEarnedBadge(userID, badgeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AwardBadge records a badge as earned, exactly once. The pre-check makes
// the common repeat call a cheap no-op; the unique index on
// (user_id, badge_id) closes the race between two concurrent evaluations,
// and the losing insert is swallowed. Returns whether a row was inserted.
func (r *BadgeRepository) AwardBadge(userID, badgeID uint) (bool, error) {
	exists, err := r.HasUserEarnedBadge(userID, badgeID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	userBadge := &models.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now(),
	}
	if err := r.db.Create(userBadge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to award badge %d to user %d: %w", badgeID, userID, err)
	}
	return true, nil
}

// RevokeUserBadge deletes an earned badge. Returns whether a row existed.
func (r *BadgeRepository) RevokeUserBadge(userID, badgeID uint) (bool, error) {
	res := r.db.
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Delete(&models.UserBadge{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetUserBadges retrieves all badges earned by a user with badge details preloaded.
func (r *BadgeRepository) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC").
		Find(&userBadges).Error
	return userBadges, err
}

// GetUserBadgeCount returns the total number of badges a user has earned.
func (r *BadgeRepository) GetUserBadgeCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// GetUsersWithBadge retrieves all users who have earned a specific badge.
func (r *BadgeRepository) GetUsersWithBadge(badgeID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN user_badges ON user_badges.user_id = users.id").
		Where("user_badges.badge_id = ?", badgeID).
		Order("user_badges.earned_at DESC").
		Find(&users).Error
	return users, err
}

// GetBadgeHoldersCount returns the number of users who have earned a specific badge.
func (r *BadgeRepository) GetBadgeHoldersCount(badgeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("badge_id = ?", badgeID).
		Count(&count).Error
	return count, err
}

// TopByBadges returns active users grouped by earned badge count,
// descending, for the badges leaderboard dimension.
func (r *BadgeRepository) TopByBadges(limit, offset int) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.Model(&models.UserBadge{}).
		Select("users.id AS user_id, users.name AS user_name, users.image_url AS user_image, COUNT(user_badges.id) AS value").
		Joins("JOIN users ON users.id = user_badges.user_id").
		Where("users.is_active = ?", true).
		Group("users.id, users.name, users.image_url").
		Order("value DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// CountBadgeGroups returns the number of active users holding at least one badge.
func (r *BadgeRepository) CountBadgeGroups() (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Joins("JOIN users ON users.id = user_badges.user_id").
		Where("users.is_active = ?", true).
		Distinct("user_badges.user_id").
		Count(&count).Error
	return count, err
}

// CountUsersWithMoreBadges counts active users holding strictly more
// badges than the given user, for the single-user rank lookup.
func (r *BadgeRepository) CountUsersWithMoreBadges(userID uint) (int64, error) {
	own, err := r.GetUserBadgeCount(userID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT user_badges.user_id
			FROM user_badges
			JOIN users ON users.id = user_badges.user_id
			WHERE users.is_active = ?
			GROUP BY user_badges.user_id
			HAVING COUNT(user_badges.id) > ?
		) ranked`, true, own).Scan(&count).Error
	return count, err
}
