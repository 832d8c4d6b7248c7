package repository

import (
	"fmt"

	"github.com/huddleup/gamification-engine/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// ListActive retrieves all active users.
func (r *UserRepository) ListActive() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("is_active = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}

// CountActive returns the number of active users.
func (r *UserRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// ListByField retrieves a page of active users ordered by the given
// column descending. The column name is constrained by the caller to the
// leaderboard dimensions, never user input.
func (r *UserRepository) ListByField(column string, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("is_active = ?", true).
		Order(column + " DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users by %s: %w", column, err)
	}
	return users, nil
}

// CountActiveWithFieldAbove counts active users whose column value
// strictly exceeds the given value. Rank is this count plus one.
func (r *UserRepository) CountActiveWithFieldAbove(column string, value int) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("is_active = ?", true).
		Where(column+" > ?", value).
		Count(&count).Error
	return count, err
}
