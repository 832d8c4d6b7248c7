// Package activity provides the named-event dispatch table mapping
// semantic platform activities to point actions, and chains badge
// evaluation after every successful award.
package activity

import (
	"context"

	prommetrics "github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// PointsService interface for the ledger dependency.
type PointsService interface {
	Award(ctx context.Context, userID uint, action, description string) error
}

// BadgeService interface for the evaluation dependency.
type BadgeService interface {
	EvaluateUser(ctx context.Context, userID uint) ([]models.Badge, error)
}

// route binds a semantic activity name to a point action and an optional
// description override.
type route struct {
	Action      string
	Description string
}

// routes maps the activity names collaborators raise to point actions.
// Collaborators speak in platform events ("event attended"); the ledger
// speaks in action keys. Several activities can share an action.
var routes = map[string]route{
	"profile completed":        {Action: "profile_completed"},
	"profile photo added":      {Action: "profile_photo_added"},
	"bio completed":            {Action: "bio_completed"},
	"interests added":          {Action: "interests_added"},
	"onboarding completed":     {Action: "onboarding_completed"},
	"email verified":           {Action: "email_verified"},
	"phone verified":           {Action: "phone_verified"},
	"identity verified":        {Action: "id_verified"},
	"profile verified":         {Action: "profile_verified"},
	"event attended":           {Action: "event_attended"},
	"event check-in":           {Action: "event_checked_in"},
	"first event attended":     {Action: "first_event_attended"},
	"event rsvp":               {Action: "event_rsvp"},
	"event shared":             {Action: "event_shared"},
	"event created":            {Action: "event_created"},
	"event hosted":             {Action: "event_hosted"},
	"first event hosted":       {Action: "first_event_hosted"},
	"event feedback given":     {Action: "event_feedback_given"},
	"event photo uploaded":     {Action: "event_photo_uploaded"},
	"connection request sent":  {Action: "connection_request_sent"},
	"connection accepted":      {Action: "connection_accepted"},
	"first connection made":    {Action: "first_connection"},
	"group joined":             {Action: "group_joined"},
	"group created":            {Action: "group_created"},
	"referral sent":            {Action: "referral_sent"},
	"referral successful":      {Action: "referral_activated"},
	"referral subscribed":      {Action: "referral_subscribed"},
	"trust moment rated":       {Action: "trust_rating_given"},
	"trust rating received":    {Action: "trust_rating_received"},
	"feedback submitted":       {Action: "feedback_submitted"},
	"bug reported":             {Action: "bug_reported"},
	"survey completed":         {Action: "survey_completed"},
	"app review left":          {Action: "app_review_left"},
	"daily check-in":           {Action: "daily_check_in"},
	"weekly streak kept":       {Action: "weekly_streak_kept"},
	"community post created":   {Action: "community_post_created"},
	"community comment added":  {Action: "community_comment"},
	"subscription started":     {Action: "subscription_started"},
	"subscription renewed":     {Action: "subscription_renewed"},
	"marketplace purchase":     {Action: "marketplace_purchase"},
	"rsvp cancelled late":      {Action: "event_cancelled_late"},
	"event no-show":            {Action: "event_no_show"},
	"spam warning issued":      {Action: "spam_warning"},
	"content removed":          {Action: "content_removed"},
	"user report confirmed":    {Action: "reported_confirmed"},
}

// Router resolves activity names, applies the award, and re-evaluates
// badges for the user after every successful award.
type Router struct {
	points PointsService
	badges BadgeService
	log    *logger.Logger
}

// NewRouter creates a new activity router.
func NewRouter(points PointsService, badges BadgeService, log *logger.Logger) *Router {
	return &Router{points: points, badges: badges, log: log}
}

// Notify handles one raised activity, fire-and-forget from the caller's
// perspective. Unknown activity names are logged and dropped; callers
// emitting activities must never break on engine configuration drift.
func (r *Router) Notify(ctx context.Context, activityName string, userID uint, description string) error {
	rt, ok := routes[activityName]
	if !ok {
		prommetrics.RecordUnknownActivity()
		r.log.Warn().
			Str("activity", activityName).
			Uint("user_id", userID).
			Msg("Unknown activity name, dropping")
		return nil
	}

	if description == "" {
		description = rt.Description
	}
	if err := r.points.Award(ctx, userID, rt.Action, description); err != nil {
		return err
	}

	// A fresh award can tip any counting criteria over its threshold.
	if _, err := r.badges.EvaluateUser(ctx, userID); err != nil {
		// Evaluation failure must not undo or fail the award.
		r.log.Error().
			Err(err).
			Uint("user_id", userID).
			Str("activity", activityName).
			Msg("Badge evaluation after award failed")
	}
	return nil
}

// KnownActivities returns the registered activity names, for diagnostics.
func (r *Router) KnownActivities() []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	return names
}
