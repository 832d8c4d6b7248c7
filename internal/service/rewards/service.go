// Package rewards provides the reward catalog and the redemption
// workflow, the one operation that composes the point ledger with
// catalog inventory atomically.
package rewards

import (
	"context"
	"errors"
	"fmt"

	prommetrics "github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/notifications"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// RewardRepository interface for catalog and redemption operations.
type RewardRepository interface {
	GetByID(id uint) (*models.Reward, error)
	ListAvailable(category string) ([]models.Reward, error)
	Redeem(userID, rewardID uint) (*models.Redemption, error)
	GetRedemptionByID(id uint) (*models.Redemption, error)
	GetUserRedemptions(userID uint) ([]models.Redemption, error)
	UpdateRedemptionStatus(id uint, status, notes string) (*models.Redemption, error)
}

// Service handles reward listing, redemption, and moderation updates.
type Service struct {
	repo     RewardRepository
	notifier notifications.Notifier
	log      *logger.Logger
}

// NewService creates a new rewards service.
func NewService(repo *repository.RewardRepository, notifier notifications.Notifier, log *logger.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// NewServiceWithInterfaces creates a new rewards service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo RewardRepository, notifier notifications.Notifier, log *logger.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// ListAvailable returns rewards that are active and in stock.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) ListAvailable(ctx context.Context, category string) ([]models.Reward, error) {
	return s.repo.ListAvailable(category)
}

// GetReward retrieves a single catalog reward.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetReward(ctx context.Context, rewardID uint) (*models.Reward, error) {
	return s.repo.GetByID(rewardID)
}

// Redeem spends points on a reward. The stock decrement, ledger
// deduction, and redemption insert commit as one unit; on any failure no
// partial effect remains. The confirmation notification runs only after
// commit and cannot fail the redemption.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) Redeem(ctx context.Context, userID, rewardID uint) (*models.Redemption, error) {
	redemption, err := s.repo.Redeem(userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRewardUnavailable):
			prommetrics.RecordRedemption("unavailable")
		case errors.Is(err, repository.ErrInsufficientBalance):
			prommetrics.RecordRedemption("insufficient_balance")
		default:
			prommetrics.RecordRedemption("error")
		}
		return nil, err
	}

	prommetrics.RecordRedemption("pending")

	reward, rewardErr := s.repo.GetByID(rewardID)
	if rewardErr != nil {
		s.log.Warn().Err(rewardErr).Uint("reward_id", rewardID).Msg("Failed to reload reward for notification")
	}

	s.log.Info().
		Uint("user_id", userID).
		Uint("reward_id", rewardID).
		Uint("redemption_id", redemption.ID).
		Msg("Reward redeemed")

	// Post-commit side effect: best-effort only.
	if s.notifier != nil && reward != nil {
		s.notifier.SendRedemptionNotification(userID, reward.Title, reward.PointsRequired)
	}

	return redemption, nil
}

// GetUserRedemptions returns a user's redemption history, newest first.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetUserRedemptions(ctx context.Context, userID uint) ([]models.Redemption, error) {
	return s.repo.GetUserRedemptions(userID)
}

// UpdateStatus applies a moderation decision to a redemption. The engine
// only executes the transition; deciding it is external.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) UpdateStatus(ctx context.Context, redemptionID uint, status, notes string) (*models.Redemption, error) {
	if status != models.RedemptionStatusApproved && status != models.RedemptionStatusRejected {
		return nil, fmt.Errorf("invalid redemption status: %s", status)
	}

	redemption, err := s.repo.UpdateRedemptionStatus(redemptionID, status, notes)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("redemption_id", redemptionID).
		Str("status", status).
		Msg("Redemption status updated")
	return redemption, nil
}
