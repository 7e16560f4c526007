package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
	"github.com/Skotchmaster/ecoshop/internal/revocation"
	"github.com/Skotchmaster/ecoshop/internal/tokens"
	"github.com/Skotchmaster/ecoshop/internal/transport"
	"github.com/Skotchmaster/ecoshop/pkg/hash"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

const minPasswordLen = 5

type UserService struct {
	Repo    repo.UserRepo
	Hasher  *hash.Hasher
	Tokens  *tokens.Service
	Revoked revocation.Store
	Events  events.Publisher
}

type userEvent struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (uuid.UUID, error) {
	l := logging.FromContext(ctx).With("svc", "users.register")

	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)
	switch {
	case username == "":
		return uuid.Nil, fmt.Errorf("%w: username is required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return uuid.Nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	case len(req.Password) < minPasswordLen:
		return uuid.Nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	_, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return uuid.Nil, fmt.Errorf("%w: user already exists", ErrValidation)
	case !errors.Is(err, repo.ErrNotFound):
		l.Error("register_error", "status", 500, "reason", "user lookup failed", "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	pwHash, err := s.Hasher.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return uuid.Nil, fmt.Errorf("%w: user already exists", ErrValidation)
		}
		l.Error("register_error", "status", 500, "reason", "cannot store user", "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), "user.registered", userEvent{
		ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role,
	})
	return user.ID, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (tokens.Token, error) {
	l := logging.FromContext(ctx).With("svc", "users.login")

	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return tokens.Token{}, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "reason", "user lookup failed", "error", err)
		return tokens.Token{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !s.Hasher.CheckPassword(user.PasswordHash, password) {
		return tokens.Token{}, ErrInvalidCredentials
	}

	tok, err := s.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return tokens.Token{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return tok, nil
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return users, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, id *tokens.Identity) error {
	if err := s.Revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		logging.FromContext(ctx).Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes the account
// already registered under email.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: admin email and password are required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role.IsAdmin() {
			return user, nil
		}
		user.Role = models.RoleAdmin
		if err := s.Repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return user, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	pwHash, err := s.Hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if strings.TrimSpace(username) == "" {
		username = "admin"
	}
	user = &models.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return user, nil
}
