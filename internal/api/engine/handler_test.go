//nolint:noctx // Test file uses http.NewRequest for simplicity
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/internal/service/leaderboard"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// Mock Activity Router
type mockActivityRouter struct {
	notified []string
}

func (m *mockActivityRouter) Notify(ctx context.Context, activityName string, userID uint, description string) error {
	m.notified = append(m.notified, fmt.Sprintf("%s:%d", activityName, userID))
	return nil
}

// Mock Points Service
type mockPointsService struct {
	balances  map[uint]int
	history   map[uint][]models.PointHistory
	awards    []string
	deductErr error
}

func newMockPointsService() *mockPointsService {
	return &mockPointsService{
		balances: make(map[uint]int),
		history:  make(map[uint][]models.PointHistory),
	}
}

func (m *mockPointsService) Award(ctx context.Context, userID uint, action, description string) error {
	m.awards = append(m.awards, fmt.Sprintf("%d:%s", userID, action))
	return nil
}

func (m *mockPointsService) Deduct(ctx context.Context, userID uint, pts int, description string) error {
	if m.deductErr != nil {
		return m.deductErr
	}
	m.balances[userID] -= pts
	return nil
}

func (m *mockPointsService) GetBalance(ctx context.Context, userID uint) (int, error) {
	balance, exists := m.balances[userID]
	if !exists {
		return 0, gorm.ErrRecordNotFound
	}
	return balance, nil
}

func (m *mockPointsService) GetHistory(ctx context.Context, userID uint, page, pageSize int) ([]models.PointHistory, error) {
	return m.history[userID], nil
}

// Mock Badge Service
type mockBadgeService struct {
	userBadges   map[uint][]models.UserBadge
	progress     map[uint][]models.BadgeProgress
	catalog      []models.Badge
	holders      map[uint][]models.User
	earnedOnEval map[uint][]models.Badge
	revoked      map[string]bool
}

func newMockBadgeService() *mockBadgeService {
	return &mockBadgeService{
		userBadges:   make(map[uint][]models.UserBadge),
		progress:     make(map[uint][]models.BadgeProgress),
		holders:      make(map[uint][]models.User),
		earnedOnEval: make(map[uint][]models.Badge),
		revoked:      make(map[string]bool),
	}
}

func (m *mockBadgeService) EvaluateUser(ctx context.Context, userID uint) ([]models.Badge, error) {
	return m.earnedOnEval[userID], nil
}

func (m *mockBadgeService) Progress(ctx context.Context, userID uint) ([]models.BadgeProgress, error) {
	return m.progress[userID], nil
}

func (m *mockBadgeService) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	return m.userBadges[userID], nil
}

func (m *mockBadgeService) GetCatalog(ctx context.Context) ([]models.Badge, error) {
	return m.catalog, nil
}

func (m *mockBadgeService) GetHolders(ctx context.Context, badgeID uint) ([]models.User, error) {
	return m.holders[badgeID], nil
}

func (m *mockBadgeService) Revoke(ctx context.Context, userID, badgeID uint) (bool, error) {
	key := fmt.Sprintf("%d:%d", userID, badgeID)
	if m.revoked[key] {
		return false, nil
	}
	m.revoked[key] = true
	return true, nil
}

// Mock Leaderboard Service
type mockLeaderboardService struct {
	boards map[string]*leaderboard.Board
	ranks  map[string]int
}

func newMockLeaderboardService() *mockLeaderboardService {
	return &mockLeaderboardService{
		boards: make(map[string]*leaderboard.Board),
		ranks:  make(map[string]int),
	}
}

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context, dimension string, limit, offset int) (*leaderboard.Board, error) {
	board, exists := m.boards[dimension]
	if !exists {
		return &leaderboard.Board{Dimension: dimension, Entries: []leaderboard.Entry{}}, nil
	}
	return board, nil
}

func (m *mockLeaderboardService) GetUserRank(ctx context.Context, dimension string, userID uint) (int, error) {
	rank, exists := m.ranks[fmt.Sprintf("%s:%d", dimension, userID)]
	if !exists {
		return 0, gorm.ErrRecordNotFound
	}
	return rank, nil
}

// Mock Rewards Service
type mockRewardsService struct {
	rewards     []models.Reward
	redemptions map[uint][]models.Redemption
	redeemErr   error
}

func newMockRewardsService() *mockRewardsService {
	return &mockRewardsService{redemptions: make(map[uint][]models.Redemption)}
}

func (m *mockRewardsService) ListAvailable(ctx context.Context, category string) ([]models.Reward, error) {
	return m.rewards, nil
}

func (m *mockRewardsService) Redeem(ctx context.Context, userID, rewardID uint) (*models.Redemption, error) {
	if m.redeemErr != nil {
		return nil, m.redeemErr
	}
	return &models.Redemption{ID: 1, UserID: userID, RewardID: rewardID, Status: models.RedemptionStatusPending}, nil
}

func (m *mockRewardsService) GetUserRedemptions(ctx context.Context, userID uint) ([]models.Redemption, error) {
	return m.redemptions[userID], nil
}

func (m *mockRewardsService) UpdateStatus(ctx context.Context, redemptionID uint, status, notes string) (*models.Redemption, error) {
	return &models.Redemption{ID: redemptionID, Status: status, Notes: notes}, nil
}

// Test Setup

type handlerMocks struct {
	router      *mockActivityRouter
	points      *mockPointsService
	badges      *mockBadgeService
	leaderboard *mockLeaderboardService
	rewards     *mockRewardsService
}

func setupTestHandler() (*Handler, *handlerMocks) {
	mocks := &handlerMocks{
		router:      &mockActivityRouter{},
		points:      newMockPointsService(),
		badges:      newMockBadgeService(),
		leaderboard: newMockLeaderboardService(),
		rewards:     newMockRewardsService(),
	}
	handler := NewHandlerWithInterfaces(
		mocks.router,
		mocks.points,
		mocks.badges,
		mocks.leaderboard,
		mocks.rewards,
		logger.New("error", "console", ""),
	)
	return handler, mocks
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

// Tests

func TestNotifyActivity_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"activity":"event attended","user_id":42,"description":"Rooftop social"}`)
	req, _ := http.NewRequest("POST", "/api/v1/activities", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"event attended:42"}, mocks.router.notified)
}

func TestNotifyActivity_MissingFields(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"description":"no activity or user"}`)
	req, _ := http.NewRequest("POST", "/api/v1/activities", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.points.balances[42] = 120

	req, _ := http.NewRequest("GET", "/api/v1/users/42/balance", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, float64(120), response["total_points"])
}

func TestGetBalance_UserNotFound(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/users/999/balance", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBalance_InvalidID(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/users/abc/balance", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAwardPoints_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"action":"event_attended"}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/points/award", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"42:event_attended"}, mocks.points.awards)
}

func TestAwardPoints_MissingAction(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"description":"no action"}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/points/award", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeductPoints_InsufficientBalance(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.points.deductErr = repository.ErrInsufficientBalance

	body := bytes.NewBufferString(`{"points":50,"description":"manual adjustment"}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/points/deduct", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], "insufficient")
}

func TestEvaluateBadges_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.badges.earnedOnEval[42] = []models.Badge{{ID: 1, Type: "explorer", Name: "Explorer"}}

	req, _ := http.NewRequest("POST", "/api/v1/users/42/badges/evaluate", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	earned := response["newly_earned"].([]interface{})
	assert.Len(t, earned, 1)
}

func TestGetBadgeProgress_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.badges.progress[42] = []models.BadgeProgress{
		{Badge: models.Badge{ID: 1, Type: "regular"}, Current: 4, Required: 10, Percentage: 40},
	}

	req, _ := http.NewRequest("GET", "/api/v1/users/42/badges/progress", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	progress := response["progress"].([]interface{})
	assert.Len(t, progress, 1)
}

func TestRevokeBadge(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("DELETE", "/api/v1/users/42/badges/7", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Second revoke finds nothing.
	req, _ = http.NewRequest("DELETE", "/api/v1/users/42/badges/7", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBadgeCatalog(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.badges.catalog = []models.Badge{
		{ID: 1, Type: "explorer"},
		{ID: 2, Type: "regular"},
	}

	req, _ := http.NewRequest("GET", "/api/v1/badges", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, float64(2), response["count"])
}

func TestGetLeaderboard_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.leaderboard.boards["points"] = &leaderboard.Board{
		Dimension: "points",
		Entries: []leaderboard.Entry{
			{UserID: 1, UserName: "alice", Value: 300, Rank: 1},
			{UserID: 2, UserName: "bob", Value: 150, Rank: 2},
		},
		Total: 2,
	}

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard/points?limit=10", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "points", response["dimension"])
	assert.Equal(t, float64(2), response["total"])
	assert.NotEmpty(t, response["generated_at"])
}

func TestGetLeaderboard_InvalidDimension(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard/charisma", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], "invalid dimension")
}

func TestGetUserRank_Success(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.leaderboard.ranks["badges:42"] = 3

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard/badges/users/42", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, float64(3), response["rank"])
}

func TestRedeemReward_Success(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"reward_id":7}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/redemptions", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	redemption := response["redemption"].(map[string]interface{})
	assert.Equal(t, "PENDING", redemption["status"])
}

func TestRedeemReward_Unavailable(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.rewards.redeemErr = repository.ErrRewardUnavailable

	body := bytes.NewBufferString(`{"reward_id":7}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/redemptions", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRedeemReward_InsufficientBalance(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.rewards.redeemErr = repository.ErrInsufficientBalance

	body := bytes.NewBufferString(`{"reward_id":7}`)
	req, _ := http.NewRequest("POST", "/api/v1/users/42/redemptions", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateRedemptionStatus_Success(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	body := bytes.NewBufferString(`{"status":"APPROVED","notes":"picked up"}`)
	req, _ := http.NewRequest("PUT", "/api/v1/redemptions/1/status", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListRewards(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)
	mocks.rewards.rewards = []models.Reward{{ID: 1, Title: "Mug", PointsRequired: 30, Quantity: 5, IsActive: true}}

	req, _ := http.NewRequest("GET", "/api/v1/rewards", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, float64(1), response["count"])
}
