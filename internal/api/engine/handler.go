// Package engine provides the REST API surface of the gamification
// engine: activity notifications, the ledger, badges and progress,
// leaderboards, and reward redemption. Transport concerns beyond these
// handlers (auth, sessions, rate limits) live in the API gateway.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/internal/service/activity"
	"github.com/huddleup/gamification-engine/internal/service/badges"
	"github.com/huddleup/gamification-engine/internal/service/leaderboard"
	"github.com/huddleup/gamification-engine/internal/service/points"
	"github.com/huddleup/gamification-engine/internal/service/rewards"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// ActivityRouter interface for activity dispatch.
type ActivityRouter interface {
	Notify(ctx context.Context, activityName string, userID uint, description string) error
}

// PointsService interface for ledger operations.
type PointsService interface {
	Award(ctx context.Context, userID uint, action, description string) error
	Deduct(ctx context.Context, userID uint, pts int, description string) error
	GetBalance(ctx context.Context, userID uint) (int, error)
	GetHistory(ctx context.Context, userID uint, page, pageSize int) ([]models.PointHistory, error)
}

// BadgeService interface for badge operations.
type BadgeService interface {
	EvaluateUser(ctx context.Context, userID uint) ([]models.Badge, error)
	Progress(ctx context.Context, userID uint) ([]models.BadgeProgress, error)
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	GetCatalog(ctx context.Context) ([]models.Badge, error)
	GetHolders(ctx context.Context, badgeID uint) ([]models.User, error)
	Revoke(ctx context.Context, userID, badgeID uint) (bool, error)
}

// LeaderboardService interface for ranking operations.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, dimension string, limit, offset int) (*leaderboard.Board, error)
	GetUserRank(ctx context.Context, dimension string, userID uint) (int, error)
}

// RewardsService interface for catalog and redemption operations.
type RewardsService interface {
	ListAvailable(ctx context.Context, category string) ([]models.Reward, error)
	Redeem(ctx context.Context, userID, rewardID uint) (*models.Redemption, error)
	GetUserRedemptions(ctx context.Context, userID uint) ([]models.Redemption, error)
	UpdateStatus(ctx context.Context, redemptionID uint, status, notes string) (*models.Redemption, error)
}

// Handler handles engine API requests.
type Handler struct {
	router      ActivityRouter
	points      PointsService
	badges      BadgeService
	leaderboard LeaderboardService
	rewards     RewardsService
	log         *logger.Logger
}

// NewHandler creates a new engine handler.
func NewHandler(
	router *activity.Router,
	pointsService *points.Service,
	badgeService *badges.Service,
	leaderboardService *leaderboard.Service,
	rewardsService *rewards.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		router:      router,
		points:      pointsService,
		badges:      badgeService,
		leaderboard: leaderboardService,
		rewards:     rewardsService,
		log:         log,
	}
}

// NewHandlerWithInterfaces creates a new engine handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	router ActivityRouter,
	pointsService PointsService,
	badgeService BadgeService,
	leaderboardService LeaderboardService,
	rewardsService RewardsService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		router:      router,
		points:      pointsService,
		badges:      badgeService,
		leaderboard: leaderboardService,
		rewards:     rewardsService,
		log:         log,
	}
}

// RegisterRoutes mounts the engine API under the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/activities", h.NotifyActivity)
	rg.GET("/users/:id/balance", h.GetBalance)
	rg.GET("/users/:id/history", h.GetHistory)
	rg.POST("/users/:id/points/award", h.AwardPoints)
	rg.POST("/users/:id/points/deduct", h.DeductPoints)
	rg.POST("/users/:id/badges/evaluate", h.EvaluateBadges)
	rg.GET("/users/:id/badges", h.GetUserBadges)
	rg.GET("/users/:id/badges/progress", h.GetBadgeProgress)
	rg.DELETE("/users/:id/badges/:badgeId", h.RevokeBadge)
	rg.GET("/badges", h.GetBadgeCatalog)
	rg.GET("/badges/:id/holders", h.GetBadgeHolders)
	rg.GET("/leaderboard/:dimension", h.GetLeaderboard)
	rg.GET("/leaderboard/:dimension/users/:id", h.GetUserRank)
	rg.GET("/rewards", h.ListRewards)
	rg.POST("/users/:id/redemptions", h.RedeemReward)
	rg.GET("/users/:id/redemptions", h.GetUserRedemptions)
	rg.PUT("/redemptions/:id/status", h.UpdateRedemptionStatus)
}

// notifyRequest is the payload collaborators post when an activity fires.
type notifyRequest struct {
	Activity    string `json:"activity" binding:"required"`
	UserID      uint   `json:"user_id" binding:"required"`
	Description string `json:"description"`
}

// NotifyActivity accepts a raised activity.
// POST /api/v1/activities.
func (h *Handler) NotifyActivity(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.router.Notify(c.Request.Context(), req.Activity, req.UserID, req.Description); err != nil {
		h.log.Error().Err(err).Str("activity", req.Activity).Msg("Failed to process activity")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to process activity")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// GetBalance returns the user's current point balance.
// GET /api/v1/users/:id/balance.
func (h *Handler) GetBalance(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.points.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get balance")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "total_points": balance})
}

// GetHistory returns a page of the user's point history, newest first.
// GET /api/v1/users/:id/history?page=1&page_size=20.
func (h *Handler) GetHistory(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	pageSize := h.parseIntQuery(c, "page_size", 20)

	entries, err := h.points.GetHistory(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get point history")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"page":      page,
		"page_size": pageSize,
		"entries":   entries,
	})
}

// awardRequest is the payload for a direct ledger award.
type awardRequest struct {
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

// AwardPoints applies a point action directly to a user's ledger. Most
// awards arrive through the activity route; this is the direct path for
// collaborators that already know the action name.
// POST /api/v1/users/:id/points/award.
func (h *Handler) AwardPoints(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.points.Award(c.Request.Context(), userID, req.Action, req.Description); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Str("action", req.Action).Msg("Failed to award points")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to award points")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "awarded"})
}

// deductRequest is the payload for a manual points deduction.
type deductRequest struct {
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// DeductPoints removes points from a user's balance.
// POST /api/v1/users/:id/points/deduct.
func (h *Handler) DeductPoints(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req deductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.points.Deduct(c.Request.Context(), userID, req.Points, req.Description); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			h.errorResponse(c, http.StatusUnprocessableEntity, "insufficient point balance")
		case errors.Is(err, gorm.ErrRecordNotFound):
			h.errorResponse(c, http.StatusNotFound, "user not found")
		default:
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to deduct points")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to deduct points")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deducted"})
}

// EvaluateBadges re-evaluates all badges for a user and awards any that
// now qualify.
// POST /api/v1/users/:id/badges/evaluate.
func (h *Handler) EvaluateBadges(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	earned, err := h.badges.EvaluateUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to evaluate badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to evaluate badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"newly_earned": earned,
	})
}

// GetUserBadges returns badges earned by a specific user.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userBadges, err := h.badges.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"badges":  userBadges,
		"count":   len(userBadges),
	})
}

// GetBadgeProgress returns per-badge progress for a user.
// GET /api/v1/users/:id/badges/progress.
func (h *Handler) GetBadgeProgress(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.badges.Progress(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get badge progress")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"progress": progress,
	})
}

// RevokeBadge removes an earned badge from a user (admin action).
// DELETE /api/v1/users/:id/badges/:badgeId.
func (h *Handler) RevokeBadge(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	badgeID, err := h.parseIDParam(c, "badgeId")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := h.badges.Revoke(c.Request.Context(), userID, badgeID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Uint("badge_id", badgeID).Msg("Failed to revoke badge")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to revoke badge")
		return
	}
	if !removed {
		h.errorResponse(c, http.StatusNotFound, "badge not earned by user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// GetBadgeCatalog returns all active badge definitions.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalog, err := h.badges.GetCatalog(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges": catalog,
		"count":  len(catalog),
	})
}

// GetBadgeHolders returns users who have earned a specific badge.
// GET /api/v1/badges/:id/holders.
func (h *Handler) GetBadgeHolders(c *gin.Context) {
	badgeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	holders, err := h.badges.GetHolders(c.Request.Context(), badgeID)
	if err != nil {
		h.log.Error().Err(err).Uint("badge_id", badgeID).Msg("Failed to get badge holders")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge holders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badge_id": badgeID,
		"holders":  holders,
		"count":    len(holders),
	})
}

// GetLeaderboard returns one page of a leaderboard dimension.
// GET /api/v1/leaderboard/:dimension?limit=20&offset=0.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	dimension := c.Param("dimension")
	if err := validateDimension(dimension); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	limit := h.parseIntQuery(c, "limit", 20)
	offset := h.parseIntQuery(c, "offset", 0)

	board, err := h.leaderboard.GetLeaderboard(c.Request.Context(), dimension, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("dimension", dimension).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dimension":    board.Dimension,
		"entries":      board.Entries,
		"total":        board.Total,
		"limit":        limit,
		"offset":       offset,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserRank returns a single user's rank in a dimension.
// GET /api/v1/leaderboard/:dimension/users/:id.
func (h *Handler) GetUserRank(c *gin.Context) {
	dimension := c.Param("dimension")
	if err := validateDimension(dimension); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rank, err := h.leaderboard.GetUserRank(c.Request.Context(), dimension, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Str("dimension", dimension).Uint("user_id", userID).Msg("Failed to get user rank")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve rank")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dimension": dimension,
		"user_id":   userID,
		"rank":      rank,
	})
}

// ListRewards returns available catalog rewards.
// GET /api/v1/rewards?category=merch.
func (h *Handler) ListRewards(c *gin.Context) {
	category := c.Query("category")

	available, err := h.rewards.ListAvailable(c.Request.Context(), category)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list rewards")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve rewards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rewards": available,
		"count":   len(available),
	})
}

// redeemRequest is the payload for a redemption.
type redeemRequest struct {
	RewardID uint `json:"reward_id" binding:"required"`
}

// RedeemReward spends a user's points on a catalog reward.
// POST /api/v1/users/:id/redemptions.
func (h *Handler) RedeemReward(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	redemption, err := h.rewards.Redeem(c.Request.Context(), userID, req.RewardID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRewardUnavailable):
			h.errorResponse(c, http.StatusConflict, "reward unavailable")
		case errors.Is(err, repository.ErrInsufficientBalance):
			h.errorResponse(c, http.StatusUnprocessableEntity, "insufficient point balance")
		case errors.Is(err, gorm.ErrRecordNotFound):
			h.errorResponse(c, http.StatusNotFound, "reward not found")
		default:
			h.log.Error().Err(err).Uint("user_id", userID).Uint("reward_id", req.RewardID).Msg("Failed to redeem reward")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to redeem reward")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"redemption": redemption})
}

// GetUserRedemptions returns a user's redemption history.
// GET /api/v1/users/:id/redemptions.
func (h *Handler) GetUserRedemptions(c *gin.Context) {
	userID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	redemptions, err := h.rewards.GetUserRedemptions(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get redemptions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve redemptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"redemptions": redemptions,
		"count":       len(redemptions),
	})
}

// statusRequest is the payload for a moderation decision.
type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// UpdateRedemptionStatus applies a moderation decision to a redemption.
// PUT /api/v1/redemptions/:id/status.
func (h *Handler) UpdateRedemptionStatus(c *gin.Context) {
	redemptionID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	redemption, err := h.rewards.UpdateStatus(c.Request.Context(), redemptionID, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "redemption not found")
			return
		}
		h.log.Error().Err(err).Uint("redemption_id", redemptionID).Msg("Failed to update redemption status")
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"redemption": redemption})
}

// Helper functions

// parseIDParam extracts and validates a numeric URL parameter.
func (h *Handler) parseIDParam(c *gin.Context, name string) (uint, error) {
	idStr := c.Param(name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, idStr)
	}
	return uint(id), nil
}

// parseIntQuery extracts an integer query parameter with a default.
func (h *Handler) parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// validateDimension validates the leaderboard dimension parameter.
func validateDimension(dimension string) error {
	switch dimension {
	case leaderboard.DimensionPoints,
		leaderboard.DimensionTrustScore,
		leaderboard.DimensionBadges,
		leaderboard.DimensionEvents,
		leaderboard.DimensionConnections,
		leaderboard.DimensionReferrals:
		return nil
	default:
		return fmt.Errorf("invalid dimension: %s", dimension)
	}
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
