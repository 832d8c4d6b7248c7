// Package notifications provides the best-effort webhook client for
// achievement and redemption notifications. Dispatch failures are logged
// and counted, never propagated to the operation that triggered them.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/huddleup/gamification-engine/internal/config"
	"github.com/huddleup/gamification-engine/internal/metrics"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// Notifier is what the engine services depend on. The concrete Client
// posts to the notification fan-out service; tests substitute a recorder.
type Notifier interface {
	SendAchievementNotification(userID uint, title, message string, badgeID uint)
	SendRedemptionNotification(userID uint, rewardTitle string, pointsSpent int)
}

// Client posts notification payloads to the delivery service webhook.
type Client struct {
	webhookURL string
	enabled    bool
	dedupe     *DedupeCache
	log        *logger.Logger
}

// NewClient creates a new notification client.
func NewClient(cfg *config.NotificationsConfig, dedupe *DedupeCache, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		dedupe:     dedupe,
		log:        log,
	}
}

// payload is the wire shape the delivery service accepts.
type payload struct {
	UserID  uint   `json:"user_id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
	BadgeID uint   `json:"badge_id,omitempty"`
}

// SendAchievementNotification notifies a user about a newly earned badge.
// The dedupe cache suppresses repeats for the same user/badge within its
// TTL; a suppressed send is not a failure.
func (c *Client) SendAchievementNotification(userID uint, title, message string, badgeID uint) {
	key := fmt.Sprintf("achievement:%d:%d", userID, badgeID)
	if c.dedupe != nil && !c.dedupe.Add(key) {
		c.log.Debug().Str("key", key).Msg("Achievement notification already sent, skipping")
		return
	}

	err := c.post(&payload{
		UserID:  userID,
		Kind:    "achievement",
		Title:   title,
		Message: message,
		BadgeID: badgeID,
	})
	if err != nil {
		metrics.RecordNotificationFailure("achievement")
		c.log.Error().
			Err(err).
			Uint("user_id", userID).
			Uint("badge_id", badgeID).
			Msg("Failed to send achievement notification")
	}
}

// SendRedemptionNotification confirms a redemption to the user.
func (c *Client) SendRedemptionNotification(userID uint, rewardTitle string, pointsSpent int) {
	err := c.post(&payload{
		UserID:  userID,
		Kind:    "redemption",
		Title:   "Redemption received",
		Message: fmt.Sprintf("You spent %d points on %s. Your redemption is pending review.", pointsSpent, rewardTitle),
	})
	if err != nil {
		metrics.RecordNotificationFailure("redemption")
		c.log.Error().
			Err(err).
			Uint("user_id", userID).
			Str("reward", rewardTitle).
			Msg("Failed to send redemption notification")
	}
}

func (c *Client) post(p *payload) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifications are disabled, skipping")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Uint("user_id", p.UserID).
		Str("kind", p.Kind).
		Msg("Sent notification")

	return nil
}
