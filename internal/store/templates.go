// internal/store/templates.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

// TemplateStore persists reusable message templates, scoped to their owner.
type TemplateStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTemplateStore(db *sql.DB, log logger.Logger) *TemplateStore {
	return &TemplateStore{db: db, logger: log}
}

func (s *TemplateStore) Create(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	tpl.ID = uuid.New().String()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := `INSERT INTO templates (id, user_id, name, description, type, payload, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		tpl.ID, tpl.UserID, tpl.Name, tpl.Description, tpl.Type, []byte(tpl.Payload), tpl.CreatedAt, tpl.UpdatedAt)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return tpl, nil
}

// GetByID returns a template owned by userID, or (nil, nil) when absent.
func (s *TemplateStore) GetByID(ctx context.Context, userID, id string) (*models.Template, error) {
	query := `SELECT id, user_id, name, description, type, payload, created_at, updated_at
	          FROM templates WHERE id = $1 AND user_id = $2`

	var tpl models.Template
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Description, &tpl.Type, &payload, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	tpl.Payload = json.RawMessage(payload)
	return &tpl, nil
}

// List returns the user's templates, newest first.
func (s *TemplateStore) List(ctx context.Context, userID string) ([]models.Template, error) {
	query := `SELECT id, user_id, name, description, type, payload, created_at, updated_at
	          FROM templates WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	defer rows.Close()

	templates := make([]models.Template, 0)
	for rows.Next() {
		var tpl models.Template
		var payload []byte
		if err := rows.Scan(&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Description, &tpl.Type, &payload,
			&tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, errors.NewDatabaseError(err)
		}
		tpl.Payload = json.RawMessage(payload)
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return templates, nil
}

// Update replaces a template's mutable fields. Returns (nil, nil) when the
// template does not exist or belongs to another user.
func (s *TemplateStore) Update(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	tpl.UpdatedAt = time.Now().UTC()

	query := `UPDATE templates
	          SET name = $3, description = $4, type = $5, payload = $6, updated_at = $7
	          WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query,
		tpl.ID, tpl.UserID, tpl.Name, tpl.Description, tpl.Type, []byte(tpl.Payload), tpl.UpdatedAt)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	if affected == 0 {
		return nil, nil
	}
	return tpl, nil
}

// Delete removes a template owned by userID. Returns false when nothing was
// deleted.
func (s *TemplateStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, errors.NewDatabaseError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewDatabaseError(err)
	}
	return affected > 0, nil
}
