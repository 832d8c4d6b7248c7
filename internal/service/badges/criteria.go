package badges

import (
	"fmt"

	"github.com/huddleup/gamification-engine/internal/models"
)

// defaultMinRating applies when a trust_moment criteria omits min_rating.
const defaultMinRating = 4

// countFn measures a user's current progress toward one criteria. The
// same function backs both the pass/fail decision and the progress
// report, so the two can never drift apart.
type countFn func(s *Service, userID uint, cfg *models.CriteriaConfig) (int64, error)

// criteriaKey identifies one (type, condition) pair.
type criteriaKey struct {
	Type      string
	Condition string
}

// criteriaTable maps every supported (type, condition) pair to its
// counting function. A pair absent from the table evaluates fail-closed.
var criteriaTable = map[criteriaKey]countFn{
	{models.CriteriaEventAttendance, models.ConditionTotalEventsAttended}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountAttendances(userID)
	},
	{models.CriteriaEventAttendance, models.ConditionEventTypeCount}: func(s *Service, userID uint, cfg *models.CriteriaConfig) (int64, error) {
		if cfg.EventType == "" {
			return 0, fmt.Errorf("event_type_count criteria missing event_type")
		}
		return s.activityRepo.CountAttendancesByEventType(userID, cfg.EventType)
	},
	{models.CriteriaEventAttendance, models.ConditionUniqueLocations}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountUniqueLocations(userID)
	},
	{models.CriteriaConnection, models.ConditionAcceptedConnections}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountAcceptedConnections(userID)
	},
	{models.CriteriaReferral, models.ConditionActivatedReferrals}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountActivatedReferrals(userID)
	},
	{models.CriteriaEventHosting, models.ConditionEventsHosted}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountHostedEvents(userID)
	},
	{models.CriteriaStreak, models.ConditionConsecutiveWeeks}: func(s *Service, userID uint, cfg *models.CriteriaConfig) (int64, error) {
		if cfg.Weeks <= 0 {
			return 0, nil
		}
		since := s.now().AddDate(0, 0, -cfg.Weeks*7)
		checkIns, err := s.activityRepo.CheckInsSince(userID, since)
		if err != nil {
			return 0, err
		}
		return int64(LongestWeeklyRun(checkIns)), nil
	},
	{models.CriteriaTrustMoment, models.ConditionPositiveRatings}: func(s *Service, userID uint, cfg *models.CriteriaConfig) (int64, error) {
		minRating := cfg.MinRating
		if minRating == 0 {
			minRating = defaultMinRating
		}
		return s.activityRepo.CountPositiveRatingsGiven(userID, minRating)
	},
	{models.CriteriaEngagement, models.ConditionFeedbackCount}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.activityRepo.CountFeedback(userID)
	},
	{models.CriteriaMeta, models.ConditionBadgesEarned}: func(s *Service, userID uint, _ *models.CriteriaConfig) (int64, error) {
		return s.badgeRepo.GetUserBadgeCount(userID)
	},
}

// currentCount returns the user's progress count for a badge's criteria.
// Unknown (type, condition) pairs and unparseable configs count zero,
// never error: badge configuration drift must not break evaluation.
func (s *Service) currentCount(badge *models.Badge, userID uint) (int64, error) {
	cfg, err := badge.ParseCriteria()
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("badge", badge.Type).
			Msg("Unparseable badge criteria, evaluating as not met")
		return 0, nil
	}

	fn, ok := criteriaTable[criteriaKey{cfg.Type, cfg.Condition}]
	if !ok {
		s.log.Warn().
			Str("badge", badge.Type).
			Str("criteria_type", cfg.Type).
			Str("condition", cfg.Condition).
			Msg("Unknown badge criteria, evaluating as not met")
		return 0, nil
	}

	return fn(s, userID, &cfg)
}

// requiredCount resolves the threshold for a badge: the criteria's own
// count (weeks for streaks), falling back to the definition-level
// required_count. A zero threshold means the badge can never be earned.
func requiredCount(badge *models.Badge) int {
	cfg, err := badge.ParseCriteria()
	if err != nil {
		return badge.RequiredCount
	}
	if cfg.Type == models.CriteriaStreak {
		if cfg.Weeks > 0 {
			return cfg.Weeks
		}
		return badge.RequiredCount
	}
	if cfg.Count > 0 {
		return cfg.Count
	}
	return badge.RequiredCount
}
