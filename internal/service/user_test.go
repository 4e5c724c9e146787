package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/talentsync/talentsync/internal/cache"
	"github.com/talentsync/talentsync/internal/model"
	"github.com/talentsync/talentsync/internal/repository"
)

// memStore is an in-memory UserStore that enforces the clerk_id
// uniqueness constraint the way the database does.
type memStore struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	creates int
	failAll error
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*model.User)}
}

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	for _, u := range s.byID {
		if u.ClerkID == user.ClerkID {
			return repository.ErrClerkIDExists
		}
	}
	clone := *user
	s.byID[user.ID] = &clone
	s.creates++
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memStore) GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, u := range s.byID {
		if u.ClerkID == clerkID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*model.User, 0, len(s.byID))
	for _, u := range s.byID {
		clone := *u
		users = append(users, &clone)
	}
	return users, nil
}

func (s *memStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.byID, id)
	return nil
}

// memCache is an in-memory UserCache.
type memCache struct {
	mu      sync.Mutex
	users   map[string]*model.User
	negKeys map[string]bool
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{
		users:   make(map[string]*model.User),
		negKeys: make(map[string]bool),
	}
}

func (c *memCache) GetUser(ctx context.Context, clerkID string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[clerkID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	clone := *u
	return &clone, nil
}

func (c *memCache) SetUser(ctx context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *user
	c.users[user.ClerkID] = &clone
	delete(c.negKeys, user.ClerkID)
	return nil
}

func (c *memCache) DeleteUser(ctx context.Context, clerkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, clerkID)
	c.deletes = append(c.deletes, clerkID)
	return nil
}

func (c *memCache) IsNegativelyCached(ctx context.Context, clerkID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negKeys[clerkID], nil
}

func (c *memCache) SetNegativeCache(ctx context.Context, clerkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negKeys[clerkID] = true
	return nil
}

func newTestService(store UserStore, userCache UserCache) *UserService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(store, userCache, nil, logger)
}

func TestSyncUserCreates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newMemCache())

	user, created, err := svc.SyncUser(context.Background(), "clerk-1", "a@b.com", "A B", "https://img.example/a.png")
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}
	if !created {
		t.Error("created = false, want true for first sync")
	}
	if user.ID == "" {
		t.Error("user.ID is empty, want generated id")
	}
	if user.Role != model.RoleCandidate {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleCandidate)
	}
	if user.ClerkID != "clerk-1" || user.Email != "a@b.com" || user.Name != "A B" {
		t.Errorf("stored user = %+v", user)
	}
}

func TestSyncUserIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newMemCache())
	ctx := context.Background()

	first, created, err := svc.SyncUser(ctx, "clerk-1", "a@b.com", "A B", "")
	if err != nil || !created {
		t.Fatalf("first SyncUser() = (created=%v, err=%v)", created, err)
	}

	// Replayed delivery with different attributes must not mutate.
	second, created, err := svc.SyncUser(ctx, "clerk-1", "other@b.com", "Other Name", "")
	if err != nil {
		t.Fatalf("second SyncUser() error = %v", err)
	}
	if created {
		t.Error("created = true on replay, want false")
	}
	if second.ID != first.ID {
		t.Errorf("replay returned id %q, want %q", second.ID, first.ID)
	}
	if second.Email != "a@b.com" || second.Name != "A B" {
		t.Errorf("replay mutated record: %+v", second)
	}
	if store.creates != 1 {
		t.Errorf("store.creates = %d, want 1", store.creates)
	}
}

func TestSyncUserMissingFields(t *testing.T) {
	svc := newTestService(newMemStore(), newMemCache())
	ctx := context.Background()

	if _, _, err := svc.SyncUser(ctx, "", "a@b.com", "", ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("SyncUser without clerk id: error = %v, want %v", err, ErrMissingField)
	}
	if _, _, err := svc.SyncUser(ctx, "clerk-1", "", "", ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("SyncUser without email: error = %v, want %v", err, ErrMissingField)
	}
}

// insertRaceStore simulates losing the insert race: the row appears
// between the lookup and the insert.
type insertRaceStore struct {
	*memStore
	winner *model.User
	raced  bool
}

func (s *insertRaceStore) CreateUser(ctx context.Context, user *model.User) error {
	if !s.raced {
		s.raced = true
		s.memStore.byID[s.winner.ID] = s.winner
		return repository.ErrClerkIDExists
	}
	return s.memStore.CreateUser(ctx, user)
}

func TestSyncUserInsertRaceReturnsWinner(t *testing.T) {
	winner := &model.User{ID: "01WINNER", ClerkID: "clerk-1", Email: "a@b.com", Role: model.RoleCandidate}
	store := &insertRaceStore{memStore: newMemStore(), winner: winner}
	svc := newTestService(store, newMemCache())

	user, created, err := svc.SyncUser(context.Background(), "clerk-1", "a@b.com", "A B", "")
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}
	if created {
		t.Error("created = true after lost race, want false")
	}
	if user.ID != "01WINNER" {
		t.Errorf("returned id %q, want the winner's %q", user.ID, "01WINNER")
	}
}

func TestSyncUserStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failAll = errors.New("connection refused")
	svc := newTestService(store, newMemCache())

	if _, _, err := svc.SyncUser(context.Background(), "clerk-1", "a@b.com", "", ""); err == nil {
		t.Error("SyncUser() error = nil, want store failure surfaced")
	}
}

func TestGetUserByClerkID(t *testing.T) {
	store := newMemStore()
	userCache := newMemCache()
	svc := newTestService(store, userCache)
	ctx := context.Background()

	created, _, err := svc.SyncUser(ctx, "clerk-1", "a@b.com", "A B", "")
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}

	got, err := svc.GetUserByClerkID(ctx, "clerk-1")
	if err != nil {
		t.Fatalf("GetUserByClerkID() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got id %q, want %q", got.ID, created.ID)
	}

	if _, err := svc.GetUserByClerkID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: error = %v, want %v", err, ErrUserNotFound)
	}
	if !userCache.negKeys["missing"] {
		t.Error("miss was not negatively cached")
	}
}

func TestGetUserByClerkIDNegativeCacheShortCircuits(t *testing.T) {
	store := newMemStore()
	store.failAll = errors.New("store must not be reached")
	userCache := newMemCache()
	userCache.negKeys["clerk-1"] = true
	svc := newTestService(store, userCache)

	if _, err := svc.GetUserByClerkID(context.Background(), "clerk-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestDeleteUserInvalidatesCache(t *testing.T) {
	store := newMemStore()
	userCache := newMemCache()
	svc := newTestService(store, userCache)
	ctx := context.Background()

	user, _, err := svc.SyncUser(ctx, "clerk-1", "a@b.com", "", "")
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}

	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if len(userCache.deletes) != 1 || userCache.deletes[0] != "clerk-1" {
		t.Errorf("cache invalidations = %v, want [clerk-1]", userCache.deletes)
	}
	if _, err := store.GetUserByClerkID(ctx, "clerk-1"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("user still in store after delete: %v", err)
	}

	if err := svc.DeleteUser(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: error = %v, want %v", err, ErrUserNotFound)
	}
}
