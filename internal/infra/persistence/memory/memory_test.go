package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fritime/internal/domain/entity"
	"fritime/internal/domain/repository"
)

func TestUserRepository_Create_ConcurrentDuplicates(t *testing.T) {
	store := NewStore()
	repo := store.UserRepo()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, &entity.User{
				Email:        "alice@example.com",
				PasswordHash: "hash",
				IsActive:     true,
			})
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		if err == nil {
			successes++

			continue
		}
		require.ErrorIs(t, err, repository.ErrDuplicateEmail)
		duplicates++
	}

	// Exactly one registration wins the race.
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)
}

func TestUserRepository_FindByEmailAndID(t *testing.T) {
	store := NewStore()
	repo := store.UserRepo()
	ctx := context.Background()

	user := &entity.User{Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_FindReturnsCopies(t *testing.T) {
	store := NewStore()
	repo := store.UserRepo()
	ctx := context.Background()

	user := &entity.User{Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	found.Email = "mutated@example.com"

	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", again.Email)
}

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	store := NewStore()
	repo := store.RefreshTokenRepo()
	ctx := context.Background()

	userID := uuid.New()
	token := &entity.RefreshToken{UserID: userID, TokenHash: "hash-1"}
	require.NoError(t, repo.Create(ctx, token))

	found, err := repo.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, userID, found.UserID)

	require.NoError(t, repo.DeleteByHash(ctx, "hash-1"))
	_, err = repo.FindByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	assert.ErrorIs(t, repo.DeleteByHash(ctx, "hash-1"), repository.ErrTokenNotFound)
}

func TestUserRepository_SetActive(t *testing.T) {
	store := NewStore()
	repo := store.UserRepo()
	ctx := context.Background()

	user := &entity.User{Email: "alice@example.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.SetActive(ctx, user.ID, false))
	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	assert.ErrorIs(t, repo.SetActive(ctx, uuid.New(), false), repository.ErrUserNotFound)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	store := NewStore()
	repo := store.RefreshTokenRepo()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &entity.RefreshToken{
		UserID: uuid.New(), TokenHash: "live", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &entity.RefreshToken{
		UserID: uuid.New(), TokenHash: "stale", ExpiresAt: now.Add(-time.Hour),
	}))

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByHash(ctx, "live")
	assert.NoError(t, err)
	_, err = repo.FindByHash(ctx, "stale")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestRefreshTokenRepository_DeleteByUser(t *testing.T) {
	store := NewStore()
	repo := store.RefreshTokenRepo()
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	require.NoError(t, repo.Create(ctx, &entity.RefreshToken{UserID: alice, TokenHash: "a-1"}))
	require.NoError(t, repo.Create(ctx, &entity.RefreshToken{UserID: alice, TokenHash: "a-2"}))
	require.NoError(t, repo.Create(ctx, &entity.RefreshToken{UserID: bob, TokenHash: "b-1"}))

	require.NoError(t, repo.DeleteByUser(ctx, alice))

	_, err := repo.FindByHash(ctx, "a-1")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	_, err = repo.FindByHash(ctx, "a-2")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	_, err = repo.FindByHash(ctx, "b-1")
	assert.NoError(t, err)
}
