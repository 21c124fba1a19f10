// internal/auth/service.go
package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

// UserLookup is the slice of the user store the auth service needs.
type UserLookup interface {
	Create(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionManager issues and resolves opaque session tokens.
type SessionManager interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Service handles registration, login and session validation.
type Service struct {
	users      UserLookup
	sessions   SessionManager
	bcryptCost int
	logger     logger.Logger
}

func NewService(users UserLookup, sessions SessionManager, bcryptCost int, log logger.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, sessions: sessions, bcryptCost: bcryptCost, logger: log}
}

// Register creates a new account. The email must be unique; a duplicate
// surfaces as a USER_EXISTS error from the store.
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.NewValidationFailedError("a valid email is required")
	}
	if len(password) < 8 {
		return nil, errors.NewValidationFailedError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	user, err := s.users.Create(ctx, email, strings.TrimSpace(name), string(hash))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Login verifies the password and opens a session. Wrong email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", errors.NewAuthenticationError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", errors.NewAuthenticationError("invalid email or password")
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", map[string]interface{}{"user_id": user.ID})
	return user, token, nil
}

// Logout invalidates a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errors.NewSessionInvalidError()
	}

	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.NewSessionInvalidError()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewSessionInvalidError()
	}
	return user, nil
}
