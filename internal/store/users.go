// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

const pqUniqueViolation = "23505"

// UserStore persists CRM user accounts.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{db: db, logger: log}
}

// Create inserts a new user. The email must be unique.
func (s *UserStore) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := `INSERT INTO users (id, email, name, password_hash, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return nil, errors.NewUserExistsError(email)
		}
		return nil, errors.NewDatabaseError(err)
	}

	s.logger.Info("user created", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// GetByEmail returns the user for an email, or (nil, nil) when absent.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetByID returns the user for an id, or (nil, nil) when absent.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *UserStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return &user, nil
}
