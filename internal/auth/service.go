// Package auth registers users, checks their passwords and issues the bearer
// tokens that guard the project and task endpoints.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/felixgeelhaar/projectflow/internal/domain"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/store"
)

// Service implements registration and login on top of a Store.
type Service struct {
	store      store.Store
	tokens     *TokenManager
	bcryptCost int

	// dummyHash is compared against when the username is unknown so both
	// failure paths take a bcrypt round.
	dummyHash string
}

func NewService(s store.Store, tokens *TokenManager, bcryptCost int) (*Service, error) {
	dummy, err := HashPassword("projectflow-dummy-password", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: bcrypt cost %d: %w", bcryptCost, err)
	}
	return &Service{store: s, tokens: tokens, bcryptCost: bcryptCost, dummyHash: dummy}, nil
}

// Tokens returns the manager used to verify issued tokens.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	name, err := domain.NewUsername(username)
	if err != nil {
		return nil, wrapError(ErrInvalidInput, err.Error(), err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, wrapError(ErrInvalidInput, err.Error(), err)
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &store.User{Username: name.String(), PasswordHash: hash}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if stderrors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login verifies the credentials and returns a signed token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash := s.dummyHash
	if u != nil {
		hash = u.PasswordHash
	}
	ok, err := CheckPassword(hash, password)
	if err != nil {
		return "", fmt.Errorf("check password: %w", err)
	}
	if u == nil || !ok {
		log.FromContext(ctx).WarnContext(ctx, "login failed", "username", username)
		return "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}
