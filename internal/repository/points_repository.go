package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/huddleup/gamification-engine/internal/models"
)

// PointsRepository owns the ledger: the user's balance and the append-only
// point history. Balance mutation and history append always happen in one
// transaction so the conservation invariant (sum of history == balance)
// holds for every committed state.
type PointsRepository struct {
	db *DB
}

// NewPointsRepository creates a new points repository.
func NewPointsRepository(db *DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Award applies a signed point amount to a user and appends the matching
// history entry. Negative amounts (penalties) may drive the balance below
// what a deduction would allow; the non-negative floor is clamped at zero.
func (r *PointsRepository) Award(userID uint, points int, action, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return applyPoints(tx, userID, points, action, description)
	})
}

// Deduct removes points from a user, guarded against overdraw inside the
// same transaction. Returns ErrInsufficientBalance when the balance check
// fails; nothing is written in that case.
func (r *PointsRepository) Deduct(userID uint, points int, action, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deductPoints(tx, userID, points, action, description)
	})
}

// applyPoints increments the balance and appends history within tx. The
// balance is read under a row lock so the clamp for penalty actions is
// computed against the value the UPDATE will see: without the lock, two
// concurrent penalties can both clamp against the same stale balance and
// the second drives it negative once the first commits. A penalty larger
// than the locked balance clamps to zero and the history entry records
// the amount actually applied. SQLite ignores the locking clause; its
// single-writer transactions serialize the read and the update anyway.
func applyPoints(tx *gorm.DB, userID uint, points int, action, description string) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	applied := points
	if user.TotalPoints+points < 0 {
		applied = -user.TotalPoints
	}

	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", applied))
	if res.Error != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", userID, res.Error)
	}

	entry := &models.PointHistory{
		UserID:      userID,
		Points:      applied,
		Action:      action,
		Description: description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append point history for user %d: %w", userID, err)
	}
	return nil
}

// deductPoints is the shared deduction step, also used by the redemption
// transaction. The balance check and the decrement are one guarded UPDATE
// so concurrent deductions cannot both pass the check.
func deductPoints(tx *gorm.DB, userID uint, points int, action, description string) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND total_points >= ?", userID, points).
		Update("total_points", gorm.Expr("total_points - ?", points))
	if res.Error != nil {
		return fmt.Errorf("failed to deduct points for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing user from an overdraw.
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("user %d: %w", userID, gorm.ErrRecordNotFound)
		}
		return ErrInsufficientBalance
	}

	entry := &models.PointHistory{
		UserID:      userID,
		Points:      -points,
		Action:      action,
		Description: description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append point history for user %d: %w", userID, err)
	}
	return nil
}

// GetBalance returns the user's current point balance.
func (r *PointsRepository) GetBalance(userID uint) (int, error) {
	var user models.User
	if err := r.db.Select("total_points").First(&user, userID).Error; err != nil {
		return 0, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return user.TotalPoints, nil
}

// GetHistory returns a page of the user's ledger entries, newest first.
func (r *PointsRepository) GetHistory(userID uint, page, pageSize int) ([]models.PointHistory, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var entries []models.PointHistory
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get point history for user %d: %w", userID, err)
	}
	return entries, nil
}

// SumHistory returns the sum of all ledger entries for a user.
func (r *PointsRepository) SumHistory(userID uint) (int, error) {
	var sum *int
	err := r.db.Model(&models.PointHistory{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&sum).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to sum point history for user %d: %w", userID, err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
