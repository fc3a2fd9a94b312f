package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anuragm04/storefront/internal/identity/auth"
	"github.com/anuragm04/storefront/internal/identity/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// ErrUserNotFound is returned by UserRepository lookups that match nothing.
var ErrUserNotFound = errors.New("user not found")

type Service struct {
	log  *slog.Logger
	repo UserRepository
	jwt  *auth.Manager
}

func NewService(log *slog.Logger, repo UserRepository, jwt *auth.Manager) *Service {
	return &Service{log: log, repo: repo, jwt: jwt}
}

// Register creates a user with a bcrypt-hashed password. Username and email
// must both be unused.
func (s *Service) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	if username == "" || email == "" || password == "" {
		return domain.User{}, apperr.InvalidInput("username, email and password are required")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return domain.User{}, apperr.AlreadyExists("username", username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return domain.User{}, apperr.AlreadyExists("email", email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies the password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", apperr.Unauthorized("incorrect username or password")
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthorized("incorrect username or password")
	}
	token, err := s.jwt.Generate(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Validate checks an access token and returns its claims.
func (s *Service) Validate(tokenString string) (*auth.Claims, error) {
	return s.jwt.Validate(tokenString)
}

// SeedAdmin ensures a default admin account exists, for fresh instances.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) error {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("seed admin: lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("seed admin: create: %w", err)
	}
	s.log.Info("admin user seeded", "username", username)
	return nil
}
