// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/talentsync/talentsync/internal/cache"
	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/model"
	"github.com/talentsync/talentsync/internal/repository"
)

// Service errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrMissingField = errors.New("clerk_id and email are required")
)

// UserStore is the persistence surface the user service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserCache is the cache surface the user service depends on.
type UserCache interface {
	GetUser(ctx context.Context, clerkID string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, clerkID string) error
	IsNegativelyCached(ctx context.Context, clerkID string) (bool, error)
	SetNegativeCache(ctx context.Context, clerkID string) error
}

// UserService handles user sync and admin operations.
type UserService struct {
	store   UserStore
	cache   UserCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, userCache UserCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		cache:   userCache,
		metrics: recorder,
		logger:  logger,
	}
}

// SyncUser ensures exactly one stored record exists for the given clerk id.
// The first successful creation wins; replayed deliveries and duplicate
// concurrent syncs return the existing record without mutation. The
// returned bool is true when this call created the record.
//
// Correctness does not rest on the read-then-write sequence: the
// users.clerk_id unique constraint decides insert races, and the loser
// re-reads the winner's row.
func (s *UserService) SyncUser(ctx context.Context, clerkID, email, name, image string) (*model.User, bool, error) {
	if clerkID == "" || email == "" {
		return nil, false, ErrMissingField
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveSyncDuration(time.Since(start))
	}()

	if existing, err := s.cachedUser(ctx, clerkID); err == nil {
		return existing, false, nil
	}

	existing, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err == nil {
		s.warmCache(ctx, existing)
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		ClerkID:   clerkID,
		Email:     email,
		Name:      name,
		Image:     image,
		Role:      model.RoleCandidate,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrClerkIDExists) {
			// Lost the insert race to a concurrent identical delivery;
			// the winner's record is the record.
			winner, err := s.store.GetUserByClerkID(ctx, clerkID)
			if err != nil {
				return nil, false, fmt.Errorf("lookup user after insert race: %w", err)
			}
			s.warmCache(ctx, winner)
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	s.warmCache(ctx, user)
	return user, true, nil
}

// GetUserByClerkID looks up a user by external identity, read-through
// cached with negative caching for repeated misses.
func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	if neg, err := s.cache.IsNegativelyCached(ctx, clerkID); err == nil && neg {
		return nil, ErrUserNotFound
	}

	if user, err := s.cachedUser(ctx, clerkID); err == nil {
		return user, nil
	}

	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if cerr := s.cache.SetNegativeCache(ctx, clerkID); cerr != nil {
				s.logger.Warn("failed to set negative cache", "clerk_id", clerkID, "error", cerr)
			}
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	s.warmCache(ctx, user)
	return user, nil
}

// ListUsers returns all stored users.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.ListUsers(ctx)
}

// DeleteUser removes a user by internal id and invalidates its cache entry.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if cerr := s.cache.DeleteUser(ctx, user.ClerkID); cerr != nil {
		s.logger.Warn("failed to invalidate user cache", "clerk_id", user.ClerkID, "error", cerr)
	}

	s.metrics.IncUserDeleted()
	return nil
}

// cachedUser returns a cached user or an error on miss. Cache failures
// count as misses; the store remains the source of truth.
func (s *UserService) cachedUser(ctx context.Context, clerkID string) (*model.User, error) {
	user, err := s.cache.GetUser(ctx, clerkID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("user cache read failed", "clerk_id", clerkID, "error", err)
		}
		s.metrics.IncUserCacheMiss()
		return nil, err
	}
	s.metrics.IncUserCacheHit()
	return user, nil
}

func (s *UserService) warmCache(ctx context.Context, user *model.User) {
	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("failed to cache user", "clerk_id", user.ClerkID, "error", err)
	}
}
