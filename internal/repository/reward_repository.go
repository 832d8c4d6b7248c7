package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/huddleup/gamification-engine/internal/models"
)

// RewardRepository handles the reward catalog and redemptions.
type RewardRepository struct {
	db *DB
}

// NewRewardRepository creates a new reward repository.
func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create creates a new catalog reward.
func (r *RewardRepository) Create(reward *models.Reward) error {
	return r.db.Create(reward).Error
}

// GetByID retrieves a reward by its ID.
func (r *RewardRepository) GetByID(id uint) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.First(&reward, id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListAvailable retrieves rewards that are active and in stock,
// optionally filtered by category.
func (r *RewardRepository) ListAvailable(category string) ([]models.Reward, error) {
	query := r.db.Where("is_active = ? AND quantity > ?", true, 0)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var rewards []models.Reward
	err := query.Order("points_required ASC").Find(&rewards).Error
	return rewards, err
}

// Redeem spends points on a reward as one atomic unit: the stock
// decrement, the ledger deduction with its history entry, and the
// redemption insert all commit together or not at all. Both guards use
// conditional UPDATEs, so two concurrent redemptions of the last unit
// cannot both succeed.
func (r *RewardRepository) Redeem(userID, rewardID uint) (*models.Redemption, error) {
	var redemption *models.Redemption

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reward models.Reward
		if err := tx.First(&reward, rewardID).Error; err != nil {
			return fmt.Errorf("failed to load reward %d: %w", rewardID, err)
		}

		res := tx.Model(&models.Reward{}).
			Where("id = ? AND is_active = ? AND quantity > ?", rewardID, true, 0).
			Update("quantity", gorm.Expr("quantity - ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement reward %d stock: %w", rewardID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRewardUnavailable
		}

		description := fmt.Sprintf("Redeemed reward: %s", reward.Title)
		if err := deductPoints(tx, userID, reward.PointsRequired, "reward_redemption", description); err != nil {
			return err
		}

		redemption = &models.Redemption{
			UserID:     userID,
			RewardID:   rewardID,
			Status:     models.RedemptionStatusPending,
			RedeemedAt: time.Now(),
		}
		if err := tx.Create(redemption).Error; err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

// GetRedemptionByID retrieves a redemption with its reward preloaded.
func (r *RewardRepository) GetRedemptionByID(id uint) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.Preload("Reward").First(&redemption, id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// GetUserRedemptions retrieves a user's redemptions, newest first.
func (r *RewardRepository) GetUserRedemptions(userID uint) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Reward").
		Order("redeemed_at DESC").
		Find(&redemptions).Error
	return redemptions, err
}

// UpdateRedemptionStatus applies a moderation decision and stamps
// ProcessedAt. The engine never calls this on its own.
func (r *RewardRepository) UpdateRedemptionStatus(id uint, status, notes string) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.First(&redemption, id).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	redemption.Status = status
	redemption.Notes = notes
	redemption.ProcessedAt = &now
	if err := r.db.Save(&redemption).Error; err != nil {
		return nil, fmt.Errorf("failed to update redemption %d: %w", id, err)
	}
	return &redemption, nil
}
