package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lamarea/storefront/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const throttleMaxAttempts = 5

func setupThrottleTest(t *testing.T) (*TestDB, *repositories.UserRepository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.Teardown(context.Background()) })

	return testDB, repositories.NewUserRepository(testDB.DB)
}

func TestUserRepository_RecordFailedAttempt_Increments(t *testing.T) {
	testDB, repo := setupThrottleTest(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "user@example.com", "SecurePassword123", true)
	require.NoError(t, err)

	lockUntil := time.Now().Add(30 * time.Minute)

	for i := 1; i < throttleMaxAttempts; i++ {
		attempts, lockedUntil, err := repo.RecordFailedAttempt(ctx, user.ID, throttleMaxAttempts, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, i, attempts)
		assert.Nil(t, lockedUntil, "attempt %d must not lock", i)
	}

	// Threshold attempt locks
	attempts, lockedUntil, err := repo.RecordFailedAttempt(ctx, user.ID, throttleMaxAttempts, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, throttleMaxAttempts, attempts)
	require.NotNil(t, lockedUntil)
	assert.WithinDuration(t, lockUntil, *lockedUntil, time.Second)
}

func TestUserRepository_RecordFailedAttempt_ConcurrentNoLostUpdates(t *testing.T) {
	testDB, repo := setupThrottleTest(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "user@example.com", "SecurePassword123", true)
	require.NoError(t, err)

	// Far threshold so no attempt locks; every increment must land
	const workers = 10
	lockUntil := time.Now().Add(30 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.RecordFailedAttempt(ctx, user.ID, 1000, lockUntil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.FailedLoginAttempts, "concurrent failures must not lose increments")
}

func TestUserRepository_ResetThrottle(t *testing.T) {
	testDB, repo := setupThrottleTest(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "user@example.com", "SecurePassword123", true)
	require.NoError(t, err)

	lockUntil := time.Now().Add(30 * time.Minute)
	for i := 0; i < throttleMaxAttempts; i++ {
		_, _, err := repo.RecordFailedAttempt(ctx, user.ID, throttleMaxAttempts, lockUntil)
		require.NoError(t, err)
	}

	require.NoError(t, repo.ResetThrottle(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.Nil(t, got.AccountLockedUntil)
}

func TestUserRepository_ClearExpiredLock(t *testing.T) {
	testDB, repo := setupThrottleTest(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "user@example.com", "SecurePassword123", true)
	require.NoError(t, err)

	// Lock with an already-expired window
	expired := time.Now().Add(-1 * time.Minute)
	for i := 0; i < throttleMaxAttempts; i++ {
		_, _, err := repo.RecordFailedAttempt(ctx, user.ID, throttleMaxAttempts, expired)
		require.NoError(t, err)
	}

	require.NoError(t, repo.ClearExpiredLock(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts, "expired lock clears the counter")
	assert.Nil(t, got.AccountLockedUntil)
}

func TestUserRepository_ClearExpiredLock_LeavesActiveLock(t *testing.T) {
	testDB, repo := setupThrottleTest(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "user@example.com", "SecurePassword123", true)
	require.NoError(t, err)

	active := time.Now().Add(30 * time.Minute)
	for i := 0; i < throttleMaxAttempts; i++ {
		_, _, err := repo.RecordFailedAttempt(ctx, user.ID, throttleMaxAttempts, active)
		require.NoError(t, err)
	}

	// Guarded update must not touch a lock that is still in force
	require.NoError(t, repo.ClearExpiredLock(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, throttleMaxAttempts, got.FailedLoginAttempts)
	assert.NotNil(t, got.AccountLockedUntil)
}

func TestProductRepository_ListExcludesUnavailable(t *testing.T) {
	testDB, _ := setupThrottleTest(t)
	ctx := context.Background()

	_, err := SeedProduct(ctx, testDB.Pool, "Atlantic Salmon", 1899, true)
	require.NoError(t, err)
	_, err = SeedProduct(ctx, testDB.Pool, "Out of Season Crab", 4999, false)
	require.NoError(t, err)

	repo := repositories.NewProductRepository(testDB.DB)
	products, err := repo.List(ctx, 50, 0)
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "Atlantic Salmon", products[0].Name)
}
