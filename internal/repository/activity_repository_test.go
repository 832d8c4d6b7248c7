package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/huddleup/gamification-engine/internal/models"
)

// setupActivityTestDB creates an in-memory SQLite database for testing.
func setupActivityTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventAttendance{},
		&models.Connection{},
		&models.Referral{},
		&models.TrustRating{},
		&models.Feedback{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

// createActivityTestUser creates a test user in the database.
func createActivityTestUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()

	user := &models.User{Name: name, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestEvent creates an event hosted by the given user.
func createTestEvent(t *testing.T, db *DB, hostID uint, eventType, location string) *models.Event {
	t.Helper()

	event := &models.Event{
		HostID:   hostID,
		Type:     eventType,
		Location: location,
		StartsAt: time.Now(),
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return event
}

// checkIn records an attendance for a user at an event.
func checkIn(t *testing.T, db *DB, userID, eventID uint, at time.Time) {
	t.Helper()

	attendance := &models.EventAttendance{
		UserID:      userID,
		EventID:     eventID,
		CheckedInAt: at,
	}
	if err := db.Create(attendance).Error; err != nil {
		t.Fatalf("Failed to create attendance: %v", err)
	}
}

func TestActivityRepository_CountAttendances(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	host := createActivityTestUser(t, db, "host")
	user := createActivityTestUser(t, db, "alice")

	workshop := createTestEvent(t, db, host.ID, "workshop", "Berlin")
	social := createTestEvent(t, db, host.ID, "social", "Hamburg")
	checkIn(t, db, user.ID, workshop.ID, time.Now())
	checkIn(t, db, user.ID, social.ID, time.Now())

	count, err := repo.CountAttendances(user.ID)
	if err != nil {
		t.Fatalf("CountAttendances() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 attendances, got %d", count)
	}

	byType, err := repo.CountAttendancesByEventType(user.ID, "workshop")
	if err != nil {
		t.Fatalf("CountAttendancesByEventType() failed: %v", err)
	}
	if byType != 1 {
		t.Errorf("Expected 1 workshop attendance, got %d", byType)
	}

	locations, err := repo.CountUniqueLocations(user.ID)
	if err != nil {
		t.Fatalf("CountUniqueLocations() failed: %v", err)
	}
	if locations != 2 {
		t.Errorf("Expected 2 unique locations, got %d", locations)
	}
}

func TestActivityRepository_CountUniqueLocations_Deduplicates(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	host := createActivityTestUser(t, db, "host")
	user := createActivityTestUser(t, db, "bob")

	first := createTestEvent(t, db, host.ID, "social", "Berlin")
	second := createTestEvent(t, db, host.ID, "workshop", "Berlin")
	checkIn(t, db, user.ID, first.ID, time.Now())
	checkIn(t, db, user.ID, second.ID, time.Now())

	locations, err := repo.CountUniqueLocations(user.ID)
	if err != nil {
		t.Fatalf("CountUniqueLocations() failed: %v", err)
	}
	if locations != 1 {
		t.Errorf("Expected 1 unique location, got %d", locations)
	}
}

func TestActivityRepository_CountAcceptedConnections_BothSides(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	alice := createActivityTestUser(t, db, "alice")
	bob := createActivityTestUser(t, db, "bob")
	carol := createActivityTestUser(t, db, "carol")

	conns := []models.Connection{
		{RequesterID: alice.ID, AddresseeID: bob.ID, Status: models.ConnectionStatusAccepted},
		{RequesterID: carol.ID, AddresseeID: alice.ID, Status: models.ConnectionStatusAccepted},
		{RequesterID: alice.ID, AddresseeID: carol.ID, Status: models.ConnectionStatusPending},
	}
	for i := range conns {
		if err := db.Create(&conns[i]).Error; err != nil {
			t.Fatalf("Failed to create connection: %v", err)
		}
	}

	// Accepted edges count from either side; pending ones never do.
	count, err := repo.CountAcceptedConnections(alice.ID)
	if err != nil {
		t.Fatalf("CountAcceptedConnections() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 accepted connections, got %d", count)
	}
}

func TestActivityRepository_CountActivatedReferrals(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	alice := createActivityTestUser(t, db, "alice")
	bob := createActivityTestUser(t, db, "bob")

	bobID := bob.ID
	referrals := []models.Referral{
		{ReferrerID: alice.ID, RefereeID: &bobID, Activated: true},
		{ReferrerID: alice.ID, Activated: false},
	}
	for i := range referrals {
		if err := db.Create(&referrals[i]).Error; err != nil {
			t.Fatalf("Failed to create referral: %v", err)
		}
	}

	count, err := repo.CountActivatedReferrals(alice.ID)
	if err != nil {
		t.Fatalf("CountActivatedReferrals() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 activated referral, got %d", count)
	}
}

func TestActivityRepository_CheckInsSince(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	host := createActivityTestUser(t, db, "host")
	user := createActivityTestUser(t, db, "carol")
	event := createTestEvent(t, db, host.ID, "social", "Berlin")

	now := time.Now().UTC().Truncate(time.Second)
	checkIn(t, db, user.ID, event.ID, now.AddDate(0, 0, -30))
	checkIn(t, db, user.ID, event.ID, now.AddDate(0, 0, -3))
	checkIn(t, db, user.ID, event.ID, now.AddDate(0, 0, -1))

	checkIns, err := repo.CheckInsSince(user.ID, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("CheckInsSince() failed: %v", err)
	}
	if len(checkIns) != 2 {
		t.Errorf("Expected 2 check-ins in window, got %d", len(checkIns))
	}
}

func TestActivityRepository_CountPositiveRatingsGiven(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	alice := createActivityTestUser(t, db, "alice")
	bob := createActivityTestUser(t, db, "bob")

	ratings := []models.TrustRating{
		{RaterID: alice.ID, RatedID: bob.ID, Rating: 5},
		{RaterID: alice.ID, RatedID: bob.ID, Rating: 4},
		{RaterID: alice.ID, RatedID: bob.ID, Rating: 2},
		{RaterID: bob.ID, RatedID: alice.ID, Rating: 5}, // someone else's rating
	}
	for i := range ratings {
		if err := db.Create(&ratings[i]).Error; err != nil {
			t.Fatalf("Failed to create rating: %v", err)
		}
	}

	count, err := repo.CountPositiveRatingsGiven(alice.ID, 4)
	if err != nil {
		t.Fatalf("CountPositiveRatingsGiven() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 positive ratings given, got %d", count)
	}
}

func TestActivityRepository_TopByAttendance(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	host := createActivityTestUser(t, db, "host")
	alice := createActivityTestUser(t, db, "alice")
	bob := createActivityTestUser(t, db, "bob")
	event := createTestEvent(t, db, host.ID, "social", "Berlin")

	for i := 0; i < 3; i++ {
		checkIn(t, db, alice.ID, event.ID, time.Now())
	}
	checkIn(t, db, bob.ID, event.ID, time.Now())

	rows, err := repo.TopByAttendance(10, 0)
	if err != nil {
		t.Fatalf("TopByAttendance() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].UserID != alice.ID || rows[0].Value != 3 {
		t.Errorf("Expected alice first with 3, got user %d with %d", rows[0].UserID, rows[0].Value)
	}

	groups, err := repo.CountAttendanceGroups()
	if err != nil {
		t.Fatalf("CountAttendanceGroups() failed: %v", err)
	}
	if groups != 2 {
		t.Errorf("Expected 2 users on the board, got %d", groups)
	}

	ahead, err := repo.CountUsersWithMoreAttendances(bob.ID)
	if err != nil {
		t.Fatalf("CountUsersWithMoreAttendances() failed: %v", err)
	}
	if ahead != 1 {
		t.Errorf("Expected 1 user ahead of bob, got %d", ahead)
	}
}

func TestActivityRepository_CountHostedEventsAndFeedback(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)

	alice := createActivityTestUser(t, db, "alice")
	createTestEvent(t, db, alice.ID, "workshop", "Berlin")
	createTestEvent(t, db, alice.ID, "social", "Hamburg")

	hosted, err := repo.CountHostedEvents(alice.ID)
	if err != nil {
		t.Fatalf("CountHostedEvents() failed: %v", err)
	}
	if hosted != 2 {
		t.Errorf("Expected 2 hosted events, got %d", hosted)
	}

	if err := db.Create(&models.Feedback{UserID: alice.ID, Subject: "idea", Body: "more workshops"}).Error; err != nil {
		t.Fatalf("Failed to create feedback: %v", err)
	}

	feedback, err := repo.CountFeedback(alice.ID)
	if err != nil {
		t.Fatalf("CountFeedback() failed: %v", err)
	}
	if feedback != 1 {
		t.Errorf("Expected 1 feedback entry, got %d", feedback)
	}
}
