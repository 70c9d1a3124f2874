package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingKey(key string, user uuid.UUID, hash string, expiresIn time.Duration) *entity.IdempotencyKey {
	return &entity.IdempotencyKey{
		Key:         key,
		UserID:      user,
		Endpoint:    "POST /api/v1/invoices",
		RequestHash: hash,
		ExpiresAt:   time.Now().Add(expiresIn),
	}
}

func TestIdempotencyReserveHoldsKeyUntilReleased(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	first := pendingKey("k1", user, "h", time.Minute)
	existing, err := repo.Reserve(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, existing)

	existing, err = repo.Reserve(ctx, pendingKey("k1", user, "h", time.Minute))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, first.ID, existing.ID)
	assert.True(t, existing.IsPending())

	require.NoError(t, repo.Release(ctx, first.ID))
	got, err := repo.GetByKey(ctx, "k1", user)
	require.NoError(t, err)
	assert.Nil(t, got)

	existing, err = repo.Reserve(ctx, pendingKey("k1", user, "h", time.Minute))
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestIdempotencyCompleteStoresResponse(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	ikey := pendingKey("k1", user, "h", time.Minute)
	_, err := repo.Reserve(ctx, ikey)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, ikey.ID, 201, `{"success":true}`, time.Now().Add(time.Hour)))

	got, err := repo.GetByKey(ctx, "k1", user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsPending())
	assert.Equal(t, 201, got.ResponseCode)
	assert.Equal(t, `{"success":true}`, got.ResponseBody)

	// A completed entry is never released.
	require.NoError(t, repo.Release(ctx, ikey.ID))
	got, err = repo.GetByKey(ctx, "k1", user)
	require.NoError(t, err)
	assert.NotNil(t, got)

	assert.Error(t, repo.Complete(ctx, uuid.New(), 201, "", time.Now()))
}

func TestIdempotencyKeyIsScopedToUser(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	existing, err := repo.Reserve(ctx, pendingKey("k1", alice, "h", time.Minute))
	require.NoError(t, err)
	assert.Nil(t, existing)

	got, err := repo.GetByKey(ctx, "k1", bob)
	require.NoError(t, err)
	assert.Nil(t, got)

	existing, err = repo.Reserve(ctx, pendingKey("k1", bob, "h", time.Minute))
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestIdempotencyReserveReplacesExpiredKey(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	_, err := repo.Reserve(ctx, pendingKey("k1", user, "old", -time.Minute))
	require.NoError(t, err)

	existing, err := repo.Reserve(ctx, pendingKey("k1", user, "new", time.Minute))
	require.NoError(t, err)
	assert.Nil(t, existing)

	got, err := repo.GetByKey(ctx, "k1", user)
	require.NoError(t, err)
	assert.Equal(t, "new", got.RequestHash)
}

func TestIdempotencyDeleteExpired(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Reserve(ctx, pendingKey("old", uuid.New(), "h", -time.Hour))
	require.NoError(t, err)
	_, err = repo.Reserve(ctx, pendingKey("live", uuid.New(), "h", time.Hour))
	require.NoError(t, err)

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
