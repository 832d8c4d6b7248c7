// Package leaderboard computes paginated rank listings across the engine's
// ranked dimensions and answers single-user rank lookups.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huddleup/gamification-engine/internal/cache"
	prommetrics "github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// Dimension names. Points and trust score rank a stored field; the rest
// rank a per-user aggregate count.
const (
	DimensionPoints      = "points"
	DimensionTrustScore  = "trust_score"
	DimensionBadges      = "badges"
	DimensionEvents      = "events"
	DimensionConnections = "connections"
	DimensionReferrals   = "referrals"
)

// UserRepository interface for the simple-field boards.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	ListByField(column string, limit, offset int) ([]models.User, error)
	CountActive() (int64, error)
	CountActiveWithFieldAbove(column string, value int) (int64, error)
}

// BadgeRepository interface for the badges board.
type BadgeRepository interface {
	TopByBadges(limit, offset int) ([]repository.UserCount, error)
	CountBadgeGroups() (int64, error)
	CountUsersWithMoreBadges(userID uint) (int64, error)
	GetUserBadgeCount(userID uint) (int64, error)
}

// ActivityRepository interface for the aggregate boards.
type ActivityRepository interface {
	TopByAttendance(limit, offset int) ([]repository.UserCount, error)
	CountAttendanceGroups() (int64, error)
	CountUsersWithMoreAttendances(userID uint) (int64, error)
	TopByConnections(limit, offset int) ([]repository.UserCount, error)
	CountConnectionGroups() (int64, error)
	CountUsersWithMoreConnections(userID uint) (int64, error)
	TopByReferrals(limit, offset int) ([]repository.UserCount, error)
	CountReferralGroups() (int64, error)
	CountUsersWithMoreReferrals(userID uint) (int64, error)
}

// Entry is one leaderboard row. Rank is the row's 1-based position in
// the full ordering; tied values keep strict sequential positions when
// listing, while the single-user lookup uses count-strictly-greater.
type Entry struct {
	UserID    uint   `json:"user_id"`
	UserName  string `json:"user_name"`
	UserImage string `json:"user_image,omitempty"`
	Value     int64  `json:"value"`
	Rank      int    `json:"rank"`
}

// Board is one page of a leaderboard plus the board's total population.
type Board struct {
	Dimension string  `json:"dimension"`
	Entries   []Entry `json:"entries"`
	Total     int64   `json:"total"`
}

// Service computes leaderboards. Listings are advisory reads, not
// transactionally isolated from concurrent writers, so pages may be
// cached for a short TTL.
type Service struct {
	userRepo     UserRepository
	badgeRepo    BadgeRepository
	activityRepo ActivityRepository
	cache        cache.Cache
	cacheTTL     time.Duration
	log          *logger.Logger
}

// NewService creates a new leaderboard service. A nil cache or zero TTL
// disables caching.
func NewService(
	userRepo *repository.UserRepository,
	badgeRepo *repository.BadgeRepository,
	activityRepo *repository.ActivityRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	userRepo UserRepository,
	badgeRepo BadgeRepository,
	activityRepo ActivityRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

// GetLeaderboard returns one page of a dimension's board. Rows are
// annotated with rank = offset + index + 1.
func (s *Service) GetLeaderboard(ctx context.Context, dimension string, limit, offset int) (*Board, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	cacheKey := fmt.Sprintf("leaderboard:%s:%d:%d", dimension, limit, offset)

	if board, ok := s.cachedBoard(ctx, cacheKey); ok {
		prommetrics.ObserveLeaderboardRequest(dimension, "hit", time.Since(start))
		return board, nil
	}

	board, err := s.computeBoard(dimension, limit, offset)
	if err != nil {
		return nil, err
	}

	s.storeBoard(ctx, cacheKey, board)
	prommetrics.ObserveLeaderboardRequest(dimension, "miss", time.Since(start))
	return board, nil
}

func (s *Service) computeBoard(dimension string, limit, offset int) (*Board, error) {
	switch dimension {
	case DimensionPoints:
		return s.fieldBoard(dimension, "total_points", limit, offset, func(u *models.User) int64 {
			return int64(u.TotalPoints)
		})
	case DimensionTrustScore:
		return s.fieldBoard(dimension, "trust_score", limit, offset, func(u *models.User) int64 {
			return int64(u.TrustScore)
		})
	case DimensionBadges:
		return s.aggregateBoard(dimension, limit, offset, s.badgeRepo.TopByBadges, s.badgeRepo.CountBadgeGroups)
	case DimensionEvents:
		return s.aggregateBoard(dimension, limit, offset, s.activityRepo.TopByAttendance, s.activityRepo.CountAttendanceGroups)
	case DimensionConnections:
		return s.aggregateBoard(dimension, limit, offset, s.activityRepo.TopByConnections, s.activityRepo.CountConnectionGroups)
	case DimensionReferrals:
		return s.aggregateBoard(dimension, limit, offset, s.activityRepo.TopByReferrals, s.activityRepo.CountReferralGroups)
	default:
		return nil, fmt.Errorf("unknown leaderboard dimension: %s", dimension)
	}
}

// fieldBoard builds a board ranked on a stored user column.
func (s *Service) fieldBoard(dimension, column string, limit, offset int, value func(*models.User) int64) (*Board, error) {
	users, err := s.userRepo.ListByField(column, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s leaderboard: %w", dimension, err)
	}
	total, err := s.userRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	entries := make([]Entry, 0, len(users))
	for i := range users {
		entries = append(entries, Entry{
			UserID:    users[i].ID,
			UserName:  users[i].Name,
			UserImage: users[i].ImageURL,
			Value:     value(&users[i]),
			Rank:      offset + i + 1,
		})
	}
	return &Board{Dimension: dimension, Entries: entries, Total: total}, nil
}

// aggregateBoard builds a board from a per-user grouped count.
func (s *Service) aggregateBoard(
	dimension string,
	limit, offset int,
	top func(limit, offset int) ([]repository.UserCount, error),
	totalFn func() (int64, error),
) (*Board, error) {
	rows, err := top(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s leaderboard: %w", dimension, err)
	}
	total, err := totalFn()
	if err != nil {
		return nil, fmt.Errorf("failed to count %s leaderboard groups: %w", dimension, err)
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, Entry{
			UserID:    row.UserID,
			UserName:  row.UserName,
			UserImage: row.UserImage,
			Value:     row.Value,
			Rank:      offset + i + 1,
		})
	}
	return &Board{Dimension: dimension, Entries: entries, Total: total}, nil
}

// GetUserRank answers "what is this user's rank" without materializing
// the board: rank = 1 + count of users with a strictly greater value, so
// tied users share a rank.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetUserRank(ctx context.Context, dimension string, userID uint) (int, error) {
	switch dimension {
	case DimensionPoints:
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return 0, err
		}
		above, err := s.userRepo.CountActiveWithFieldAbove("total_points", user.TotalPoints)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	case DimensionTrustScore:
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return 0, err
		}
		above, err := s.userRepo.CountActiveWithFieldAbove("trust_score", user.TrustScore)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	case DimensionBadges:
		above, err := s.badgeRepo.CountUsersWithMoreBadges(userID)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	case DimensionEvents:
		above, err := s.activityRepo.CountUsersWithMoreAttendances(userID)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	case DimensionConnections:
		above, err := s.activityRepo.CountUsersWithMoreConnections(userID)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	case DimensionReferrals:
		above, err := s.activityRepo.CountUsersWithMoreReferrals(userID)
		if err != nil {
			return 0, err
		}
		return int(above) + 1, nil
	default:
		return 0, fmt.Errorf("unknown leaderboard dimension: %s", dimension)
	}
}

func (s *Service) cachedBoard(ctx context.Context, key string) (*Board, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var board Board
	if err := json.Unmarshal([]byte(raw), &board); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupt leaderboard cache entry")
		return nil, false
	}
	return &board, true
}

func (s *Service) storeBoard(ctx context.Context, key string, board *Board) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache write failed")
	}
}
