// Package memory provides in-memory implementations of the persistence
// interfaces. They enforce the same uniqueness semantics as the PostgreSQL
// layer under a mutex, which makes them suitable for tests and local runs
// without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fritime/internal/domain/entity"
	"fritime/internal/domain/repository"
)

// Store is the shared backing state for the in-memory repositories.
type Store struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*entity.User
	emails  map[string]uuid.UUID
	friends map[uuid.UUID][]*entity.Friend
	tokens  map[string]*entity.RefreshToken
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*entity.User),
		emails:  make(map[string]uuid.UUID),
		friends: make(map[uuid.UUID][]*entity.Friend),
		tokens:  make(map[string]*entity.RefreshToken),
	}
}

// UserRepo returns a UserRepository backed by this store.
func (s *Store) UserRepo() repository.UserRepository {
	return &userRepository{store: s}
}

// RefreshTokenRepo returns a RefreshTokenRepository backed by this store.
func (s *Store) RefreshTokenRepo() repository.RefreshTokenRepository {
	return &refreshTokenRepository{store: s}
}

// NewTransactionManager returns a TransactionManager over this store.
// Writes are serialized per operation by the store mutex; rollback of a
// partially applied callback is not supported, which is acceptable for the
// test and local-run scenarios this package exists for.
func NewTransactionManager(s *Store) repository.TransactionManager {
	return &transactionManager{store: s}
}

type transactionManager struct {
	store *Store
}

func (tm *transactionManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tm.store)
}

type userRepository struct {
	store *Store
}

func (repo *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	user, ok := repo.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	cloned := *user

	return &cloned, nil
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	id, ok := repo.store.emails[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	cloned := *repo.store.users[id]

	return &cloned, nil
}

// Create inserts a user. The email uniqueness check and the insert happen
// under one lock acquisition, mirroring the atomicity the unique index
// provides in PostgreSQL.
func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if _, exists := repo.store.emails[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	cloned := *user
	repo.store.users[user.ID] = &cloned
	repo.store.emails[user.Email] = user.ID

	return nil
}

func (repo *userRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	user, ok := repo.store.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsActive = active
	user.UpdatedAt = time.Now()

	return nil
}

func (repo *userRepository) AddFriend(_ context.Context, friend *entity.Friend) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if _, ok := repo.store.users[friend.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	if _, ok := repo.store.users[friend.FriendID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range repo.store.friends[friend.UserID] {
		if existing.FriendID == friend.FriendID {
			return repository.ErrDuplicateFriend
		}
	}

	friend.CreatedAt = time.Now()
	cloned := *friend
	repo.store.friends[friend.UserID] = append(repo.store.friends[friend.UserID], &cloned)

	return nil
}

func (repo *userRepository) ListFriends(_ context.Context, userID uuid.UUID) ([]*entity.Friend, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	links := repo.store.friends[userID]
	friends := make([]*entity.Friend, 0, len(links))
	for _, link := range links {
		cloned := *link
		friends = append(friends, &cloned)
	}

	return friends, nil
}

type refreshTokenRepository struct {
	store *Store
}

func (repo *refreshTokenRepository) Create(_ context.Context, token *entity.RefreshToken) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()

	cloned := *token
	repo.store.tokens[token.TokenHash] = &cloned

	return nil
}

func (repo *refreshTokenRepository) FindByHash(_ context.Context, hash string) (*entity.RefreshToken, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	token, ok := repo.store.tokens[hash]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}

	cloned := *token

	return &cloned, nil
}

func (repo *refreshTokenRepository) DeleteByHash(_ context.Context, hash string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	if _, ok := repo.store.tokens[hash]; !ok {
		return repository.ErrTokenNotFound
	}
	delete(repo.store.tokens, hash)

	return nil
}

func (repo *refreshTokenRepository) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	for hash, token := range repo.store.tokens {
		if token.UserID == userID {
			delete(repo.store.tokens, hash)
		}
	}

	return nil
}

func (repo *refreshTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	now := time.Now()
	var deleted int64
	for hash, token := range repo.store.tokens {
		if now.After(token.ExpiresAt) {
			delete(repo.store.tokens, hash)
			deleted++
		}
	}

	return deleted, nil
}
