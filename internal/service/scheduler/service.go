// Package scheduler provides the periodic jobs: the full badge
// evaluation sweep and the notification dedupe-cache eviction.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/huddleup/gamification-engine/internal/config"
	"github.com/huddleup/gamification-engine/internal/notifications"
	"github.com/huddleup/gamification-engine/internal/service/badges"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// Service runs the engine's scheduled jobs.
type Service struct {
	config       *config.Config
	badgeService *badges.Service
	dedupe       *notifications.DedupeCache
	log          *logger.Logger
	cron         *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	badgeService *badges.Service,
	dedupe *notifications.DedupeCache,
	log *logger.Logger,
) *Service {
	return &Service{
		config:       cfg,
		badgeService: badgeService,
		dedupe:       dedupe,
		log:          log,
	}
}

// Start registers and starts the cron jobs.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.Scheduler.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.Scheduler.BadgeEvaluationCron != "" && s.badgeService != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.BadgeEvaluationCron, func() {
			s.runBadgeSweep(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register badge evaluation job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.BadgeEvaluationCron).
			Msg("Registered badge evaluation sweep")
	}

	if s.config.Scheduler.DedupeEvictionCron != "" && s.dedupe != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.DedupeEvictionCron, s.runDedupeEviction)
		if err != nil {
			return fmt.Errorf("failed to register dedupe eviction job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.DedupeEvictionCron).
			Msg("Registered dedupe cache eviction")
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron scheduler, waiting for running jobs.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runBadgeSweep evaluates all badges for all active users. Online
// evaluation after each award covers the common path; the sweep catches
// criteria that move without an award, like streak windows sliding.
func (s *Service) runBadgeSweep(ctx context.Context) {
	awarded, err := s.badgeService.EvaluateAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Badge evaluation sweep failed")
		return
	}
	s.log.Info().Int("badges_awarded", awarded).Msg("Scheduled badge sweep finished")
}

// runDedupeEviction ages out notification dedupe entries.
func (s *Service) runDedupeEviction() {
	ttl := time.Duration(s.config.Notifications.DedupeTTL) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	evicted := s.dedupe.EvictOlderThan(ttl)
	if evicted > 0 {
		s.log.Debug().Int("evicted", evicted).Msg("Evicted stale dedupe entries")
	}
}
