// Package badges provides badge criteria evaluation, progress
// calculation, and idempotent awarding.
package badges

import (
	"context"
	"fmt"
	"time"

	prommetrics "github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/notifications"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	GetActive() ([]models.Badge, error)
	GetByID(id uint) (*models.Badge, error)
	GetByType(badgeType string) (*models.Badge, error)
	HasUserEarnedBadge(userID, badgeID uint) (bool, error)
	AwardBadge(userID, badgeID uint) (bool, error)
	RevokeUserBadge(userID, badgeID uint) (bool, error)
	GetUserBadges(userID uint) ([]models.UserBadge, error)
	GetUserBadgeCount(userID uint) (int64, error)
	GetUsersWithBadge(badgeID uint) ([]models.User, error)
	GetBadgeHoldersCount(badgeID uint) (int64, error)
}

// ActivityRepository interface for the collaborator-owned counts the
// criteria table reads.
type ActivityRepository interface {
	CountAttendances(userID uint) (int64, error)
	CountAttendancesByEventType(userID uint, eventType string) (int64, error)
	CountUniqueLocations(userID uint) (int64, error)
	CountAcceptedConnections(userID uint) (int64, error)
	CountActivatedReferrals(userID uint) (int64, error)
	CountHostedEvents(userID uint) (int64, error)
	CheckInsSince(userID uint, since time.Time) ([]time.Time, error)
	CountPositiveRatingsGiven(userID uint, minRating int) (int64, error)
	CountFeedback(userID uint) (int64, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	ListActive() ([]models.User, error)
}

// Service evaluates badge criteria and awards badges exactly once.
type Service struct {
	badgeRepo    BadgeRepository
	activityRepo ActivityRepository
	userRepo     UserRepository
	notifier     notifications.Notifier
	log          *logger.Logger
	now          func() time.Time
}

// NewService creates a new badge service.
func NewService(
	badgeRepo *repository.BadgeRepository,
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	notifier notifications.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
	}
}

// NewServiceWithInterfaces creates a new badge service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	badgeRepo BadgeRepository,
	activityRepo ActivityRepository,
	userRepo UserRepository,
	notifier notifications.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
	}
}

// EvaluateUser re-scans every active, not-yet-earned badge for one user
// and awards any that now qualify. Each badge is an independent
// read-then-decide step: a failure on one never blocks the rest.
// Returns the newly earned badges.
func (s *Service) EvaluateUser(ctx context.Context, userID uint) ([]models.Badge, error) {
	start := time.Now()
	defer func() { prommetrics.ObserveBadgeEvaluation(time.Since(start)) }()

	badgeDefs, err := s.badgeRepo.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to get badge definitions: %w", err)
	}

	var newlyEarned []models.Badge
	for i := range badgeDefs {
		badge := &badgeDefs[i]

		hasEarned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
		if err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", userID).
				Str("badge", badge.Type).
				Msg("Failed to check earned badge")
			continue
		}
		if hasEarned {
			continue
		}

		current, err := s.currentCount(badge, userID)
		if err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", userID).
				Str("badge", badge.Type).
				Msg("Failed to evaluate badge criteria")
			continue
		}

		required := requiredCount(badge)
		if required <= 0 || current < int64(required) {
			continue
		}

		awarded, err := s.award(ctx, userID, badge)
		if err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", userID).
				Str("badge", badge.Type).
				Msg("Failed to award badge")
			continue
		}
		if awarded {
			newlyEarned = append(newlyEarned, *badge)
		}
	}

	return newlyEarned, nil
}

// EvaluateAll runs a full evaluation sweep over all active users,
// typically from the scheduler. Returns the number of badges awarded.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	s.log.Info().Msg("Starting badge evaluation sweep")
	start := time.Now()

	users, err := s.userRepo.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	awardsCount := 0
	for _, user := range users {
		earned, err := s.EvaluateUser(ctx, user.ID)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to evaluate user")
			continue
		}
		awardsCount += len(earned)
	}

	s.log.Info().
		Int("users_evaluated", len(users)).
		Int("badges_awarded", awardsCount).
		Dur("duration", time.Since(start)).
		Msg("Badge evaluation sweep complete")

	return awardsCount, nil
}

// award records the badge and, only if a row was actually inserted,
// fires the achievement notification. The notification runs after the
// insert has committed and its failure never surfaces here.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) award(ctx context.Context, userID uint, badge *models.Badge) (bool, error) {
	inserted, err := s.badgeRepo.AwardBadge(userID, badge.ID)
	if err != nil {
		return false, err
	}
	if !inserted {
		// Lost the race or already earned: silent no-op.
		return false, nil
	}

	prommetrics.RecordBadgeAwarded(badge.Type)
	if count, err := s.badgeRepo.GetBadgeHoldersCount(badge.ID); err == nil {
		prommetrics.SetBadgeHolders(badge.Type, int(count))
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("badge", badge.Type).
		Msg("Badge awarded")

	if s.notifier != nil {
		s.notifier.SendAchievementNotification(
			userID,
			fmt.Sprintf("Badge earned: %s", badge.Name),
			badge.Description,
			badge.ID,
		)
	}
	return true, nil
}

// AwardByType awards a badge identified by its type key, idempotently.
// Safe to call repeatedly, including concurrently, for the same pair.
func (s *Service) AwardByType(ctx context.Context, userID uint, badgeType string) error {
	badge, err := s.badgeRepo.GetByType(badgeType)
	if err != nil {
		return fmt.Errorf("failed to find badge %q: %w", badgeType, err)
	}
	_, err = s.award(ctx, userID, badge)
	return err
}

// Revoke removes an earned badge. Reports whether a row existed so the
// caller can surface not-found.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) Revoke(ctx context.Context, userID, badgeID uint) (bool, error) {
	removed, err := s.badgeRepo.RevokeUserBadge(userID, badgeID)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().
			Uint("user_id", userID).
			Uint("badge_id", badgeID).
			Msg("Badge revoked")
	}
	return removed, nil
}

// Progress computes per-badge progress for a user across every active
// definition. IsEarned and Current come from the same counting path, so
// isEarned == (current >= required) always holds for computable criteria;
// already-earned badges report full progress regardless of the current
// count, which may have moved since the award.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) Progress(ctx context.Context, userID uint) ([]models.BadgeProgress, error) {
	badgeDefs, err := s.badgeRepo.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to get badge definitions: %w", err)
	}

	progress := make([]models.BadgeProgress, 0, len(badgeDefs))
	for i := range badgeDefs {
		badge := &badgeDefs[i]
		required := requiredCount(badge)

		earned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check earned badge: %w", err)
		}

		var current int64
		if earned {
			current = int64(required)
		} else {
			current, err = s.currentCount(badge, userID)
			if err != nil {
				s.log.Error().
					Err(err).
					Uint("user_id", userID).
					Str("badge", badge.Type).
					Msg("Failed to compute badge progress")
				current = 0
			}
			if required > 0 && current >= int64(required) {
				earned = true
			}
		}

		pct := 0.0
		if required > 0 {
			pct = float64(current) / float64(required) * 100
			if pct > 100 {
				pct = 100
			}
		}

		progress = append(progress, models.BadgeProgress{
			Badge:      *badge,
			IsEarned:   earned,
			Current:    int(current),
			Required:   required,
			Percentage: pct,
		})
	}

	return progress, nil
}

// GetUserBadges retrieves all badges earned by a user.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	return s.badgeRepo.GetUserBadges(userID)
}

// GetCatalog retrieves all active badge definitions.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetCatalog(ctx context.Context) ([]models.Badge, error) {
	return s.badgeRepo.GetActive()
}

// GetHolders retrieves users who have earned a specific badge.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetHolders(ctx context.Context, badgeID uint) ([]models.User, error) {
	return s.badgeRepo.GetUsersWithBadge(badgeID)
}
