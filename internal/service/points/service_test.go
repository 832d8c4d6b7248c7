package points

import (
	"context"
	"errors"
	"testing"

	"github.com/huddleup/gamification-engine/internal/models"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

// mockLedgerRepository records ledger calls in memory.
type mockLedgerRepository struct {
	balances  map[uint]int
	entries   []models.PointHistory
	deductErr error
}

func newMockLedgerRepository() *mockLedgerRepository {
	return &mockLedgerRepository{balances: make(map[uint]int)}
}

func (m *mockLedgerRepository) Award(userID uint, points int, action, description string) error {
	applied := points
	if m.balances[userID]+points < 0 {
		applied = -m.balances[userID]
	}
	m.balances[userID] += applied
	m.entries = append(m.entries, models.PointHistory{UserID: userID, Points: applied, Action: action, Description: description})
	return nil
}

func (m *mockLedgerRepository) Deduct(userID uint, points int, action, description string) error {
	if m.deductErr != nil {
		return m.deductErr
	}
	if m.balances[userID] < points {
		return repository.ErrInsufficientBalance
	}
	m.balances[userID] -= points
	m.entries = append(m.entries, models.PointHistory{UserID: userID, Points: -points, Action: action, Description: description})
	return nil
}

func (m *mockLedgerRepository) GetBalance(userID uint) (int, error) {
	return m.balances[userID], nil
}

func (m *mockLedgerRepository) GetHistory(userID uint, page, pageSize int) ([]models.PointHistory, error) {
	var result []models.PointHistory
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result, nil
}

func newTestService(repo *mockLedgerRepository) *Service {
	return NewServiceWithInterfaces(repo, logger.New("error", "console", ""))
}

func TestService_Award_KnownAction(t *testing.T) {
	repo := newMockLedgerRepository()
	svc := newTestService(repo)

	err := svc.Award(context.Background(), 42, "profile_completed", "")
	if err != nil {
		t.Fatalf("Award() failed: %v", err)
	}

	if repo.balances[42] != 50 {
		t.Errorf("Expected balance 50, got %d", repo.balances[42])
	}
	if len(repo.entries) != 1 {
		t.Fatalf("Expected 1 ledger entry, got %d", len(repo.entries))
	}
	// The table's description fills in when the caller gives none.
	if repo.entries[0].Description != "Completed profile" {
		t.Errorf("Expected default description, got %q", repo.entries[0].Description)
	}
}

func TestService_Award_CallerDescriptionWins(t *testing.T) {
	repo := newMockLedgerRepository()
	svc := newTestService(repo)

	err := svc.Award(context.Background(), 42, "event_attended", "Attended the rooftop social")
	if err != nil {
		t.Fatalf("Award() failed: %v", err)
	}
	if repo.entries[0].Description != "Attended the rooftop social" {
		t.Errorf("Expected caller description, got %q", repo.entries[0].Description)
	}
}

func TestService_Award_UnknownActionIsNoOp(t *testing.T) {
	repo := newMockLedgerRepository()
	svc := newTestService(repo)

	err := svc.Award(context.Background(), 42, "cosmic_alignment", "")
	if err != nil {
		t.Fatalf("Unknown action must not error, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Errorf("Expected no ledger entry for unknown action, got %d", len(repo.entries))
	}
}

func TestService_Award_Penalty(t *testing.T) {
	repo := newMockLedgerRepository()
	repo.balances[42] = 100
	svc := newTestService(repo)

	err := svc.Award(context.Background(), 42, "event_no_show", "")
	if err != nil {
		t.Fatalf("Award() failed: %v", err)
	}
	if repo.balances[42] != 75 {
		t.Errorf("Expected balance 75 after -25 penalty, got %d", repo.balances[42])
	}
}

func TestService_Deduct(t *testing.T) {
	repo := newMockLedgerRepository()
	repo.balances[42] = 100
	svc := newTestService(repo)

	err := svc.Deduct(context.Background(), 42, 60, "Redeemed: mug")
	if err != nil {
		t.Fatalf("Deduct() failed: %v", err)
	}
	if repo.balances[42] != 40 {
		t.Errorf("Expected balance 40, got %d", repo.balances[42])
	}
}

func TestService_Deduct_RejectsNonPositive(t *testing.T) {
	repo := newMockLedgerRepository()
	svc := newTestService(repo)

	if err := svc.Deduct(context.Background(), 42, 0, ""); err == nil {
		t.Error("Expected error for zero deduction")
	}
	if err := svc.Deduct(context.Background(), 42, -5, ""); err == nil {
		t.Error("Expected error for negative deduction")
	}
	if len(repo.entries) != 0 {
		t.Errorf("Expected no ledger entries, got %d", len(repo.entries))
	}
}

func TestService_Deduct_InsufficientBalancePassesThrough(t *testing.T) {
	repo := newMockLedgerRepository()
	repo.balances[42] = 10
	svc := newTestService(repo)

	err := svc.Deduct(context.Background(), 42, 50, "")
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
}

func TestLookupAction(t *testing.T) {
	def, ok := LookupAction("referral_activated")
	if !ok {
		t.Fatal("Expected referral_activated to be a known action")
	}
	if def.Points <= 0 {
		t.Errorf("Expected positive points for referral_activated, got %d", def.Points)
	}

	penalty, ok := LookupAction("reported_confirmed")
	if !ok {
		t.Fatal("Expected reported_confirmed to be a known action")
	}
	if penalty.Points >= 0 {
		t.Errorf("Expected negative points for reported_confirmed, got %d", penalty.Points)
	}

	if _, ok := LookupAction("unknown_action"); ok {
		t.Error("Expected unknown_action to be missing from the table")
	}
}
