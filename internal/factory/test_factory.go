package factory

import (
	"context"
	"time"

	"github.com/mcoot/openworld/internal/dependencies/async"
	"github.com/mcoot/openworld/internal/dependencies/mocks"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/services/auth"
	"github.com/mcoot/openworld/internal/storage/memory"
)

// TestSecret signs tokens for test apps
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MemStore   *memory.Storage

	secret string
}

// NewTestApp creates an App configured for testing with mocked clock and
// random. Rooms still tick on a real ticker; budget writes run on goroutines
// and are awaited by Shutdown.
func NewTestApp(cfg Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = TestSecret
	}

	app := newWithDependencies(store, mockClock, mockRandom, async.New(), cfg)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MemStore:   store,
		secret:     cfg.Auth.Secret,
	}
}

// ParentToken signs a parent token for the given user
func (t *TestApp) ParentToken(parentUserID string) (string, error) {
	return auth.SignToken(t.secret, auth.Claims{
		Parent: parentUserID,
		Exp:    t.MockClock.Now().Add(10 * time.Minute).Unix(),
	})
}

// SeedKid stores an approved child in an active family and returns a signed kid token
func (t *TestApp) SeedKid(ctx context.Context, familyID, childID string, timeLeft int) (string, error) {
	if err := t.MemStore.SaveFamily(ctx, &model.Family{
		ID:           familyID,
		ParentUserID: "parent-" + familyID,
		Status:       model.StatusApproved,
	}); err != nil {
		return "", err
	}
	if err := t.MemStore.SaveChild(ctx, &model.Child{
		ID:            childID,
		FamilyID:      familyID,
		DisplayName:   childID,
		Status:        model.StatusApproved,
		TimeBudgetDay: timeLeft,
		TimeLeftDay:   timeLeft,
	}); err != nil {
		return "", err
	}
	return auth.SignToken(t.secret, auth.Claims{
		Kid: childID,
		Exp: t.MockClock.Now().Add(5 * time.Minute).Unix(),
	})
}
