package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

const identityCacheSize = 1024

// UserService registers users and resolves usernames to identities.
// Resolved identities are cached; users are never deleted so entries only
// age out.
type UserService struct {
	store      storage.UserStore
	identities *cache.LRUCache[core.User]
	logger     *log.Logger
}

func NewUserService(store storage.UserStore, identityTTL time.Duration, logger *log.Logger) *UserService {
	return &UserService{
		store:      store,
		identities: cache.NewLRUCache[core.User](identityCacheSize, identityTTL),
		logger:     defaultLogger(logger, log.ComponentUser),
	}
}

// IdentityCache exposes the resolver cache for periodic cleanup.
func (s *UserService) IdentityCache() cache.Cleaner {
	return s.identities
}

// Register creates a user. A taken username yields core.ErrConflict.
func (s *UserService) Register(ctx context.Context, username string) (core.User, error) {
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, err
	}
	u, err := s.store.CreateUser(ctx, username)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, u.ID, log.FieldUsername, u.Username, log.FieldOperation, log.OpRegister)
	return u, nil
}

// Login returns the user with username, creating it on first use.
func (s *UserService) Login(ctx context.Context, username string) (core.User, error) {
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, err
	}
	u, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}

	u, err = s.store.CreateUser(ctx, username)
	if errors.Is(err, core.ErrConflict) {
		// Lost a race with a concurrent login for the same name.
		return s.store.GetUserByUsername(ctx, username)
	}
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User created on login",
		log.FieldUserID, u.ID, log.FieldUsername, u.Username, log.FieldOperation, log.OpLogin)
	return u, nil
}

// Resolve maps a username carried by a request to a known user. Missing,
// malformed or unknown names yield core.ErrUnauthorized.
func (s *UserService) Resolve(ctx context.Context, username string) (core.User, error) {
	if username == "" {
		return core.User{}, fmt.Errorf("no identity supplied: %w", core.ErrUnauthorized)
	}
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, fmt.Errorf("%v: %w", err, core.ErrUnauthorized)
	}

	u, err := s.identities.GetOrLoad(username, func() (core.User, error) {
		return s.store.GetUserByUsername(ctx, username)
	})
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("unknown user %q: %w", username, core.ErrUnauthorized)
	}
	return u, err
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []core.User{}
	}
	return users, nil
}
