// Package points provides the point ledger service: balance, append-only
// history, and the static action table.
package points

import (
	"context"
	"fmt"

	prommetrics "github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// LedgerRepository interface for ledger operations.
type LedgerRepository interface {
	Award(userID uint, points int, action, description string) error
	Deduct(userID uint, points int, action, description string) error
	GetBalance(userID uint) (int, error)
	GetHistory(userID uint, page, pageSize int) ([]models.PointHistory, error)
}

// Service is the point ledger. All balance mutations go through here.
type Service struct {
	repo LedgerRepository
	log  *logger.Logger
}

// NewService creates a new points service.
func NewService(repo *repository.PointsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NewServiceWithInterfaces creates a new points service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo LedgerRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Award applies the fixed amount for a named action. An action missing
// from the table is a logged no-op, not an error: callers raising
// activities must not break on configuration drift.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) Award(ctx context.Context, userID uint, action, description string) error {
	def, ok := LookupAction(action)
	if !ok {
		s.log.Warn().
			Str("action", action).
			Uint("user_id", userID).
			Msg("Unknown point action, skipping award")
		return nil
	}

	if description == "" {
		description = def.Description
	}

	if err := s.repo.Award(userID, def.Points, action, description); err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}

	prommetrics.RecordPointsAwarded(action, def.Points)
	s.log.Debug().
		Uint("user_id", userID).
		Str("action", action).
		Int("points", def.Points).
		Msg("Points awarded")
	return nil
}

// Deduct removes a caller-specified amount, guarded against overdraw.
// Returns repository.ErrInsufficientBalance when the user holds fewer
// points than requested; balance and history are untouched in that case.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) Deduct(ctx context.Context, userID uint, pts int, description string) error {
	if pts <= 0 {
		return fmt.Errorf("deduction amount must be positive, got %d", pts)
	}

	if err := s.repo.Deduct(userID, pts, "reward_redemption", description); err != nil {
		return err
	}

	prommetrics.RecordPointsDeducted(pts)
	s.log.Debug().
		Uint("user_id", userID).
		Int("points", pts).
		Msg("Points deducted")
	return nil
}

// GetBalance returns the user's current point balance.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetBalance(ctx context.Context, userID uint) (int, error) {
	return s.repo.GetBalance(userID)
}

// GetHistory returns a page of ledger entries, newest first.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetHistory(ctx context.Context, userID uint, page, pageSize int) ([]models.PointHistory, error) {
	return s.repo.GetHistory(userID, page, pageSize)
}
