// internal/store/credentials.go
package store

import (
	"context"
	"database/sql"
	"time"

	"evocrm/internal/common/crypto"
	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

// CredentialStore persists per-user gateway credentials. Instance names and
// API keys are encrypted before they reach the database; reads decrypt
// transparently and pass legacy plaintext rows through unchanged.
type CredentialStore struct {
	db     *sql.DB
	enc    *crypto.Encryptor
	logger logger.Logger
}

func NewCredentialStore(db *sql.DB, enc *crypto.Encryptor, log logger.Logger) *CredentialStore {
	return &CredentialStore{db: db, enc: enc, logger: log}
}

// Get returns the credential for a user, or (nil, nil) when none is stored.
func (s *CredentialStore) Get(ctx context.Context, userID string) (*models.Credential, error) {
	query := `SELECT user_id, instance_name, api_key, updated_at
	          FROM credentials WHERE user_id = $1`

	var cred models.Credential
	var instance, apiKey sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).
		Scan(&cred.UserID, &instance, &apiKey, &cred.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	cred.InstanceName = s.decryptField(cred.UserID, instance)
	cred.APIKey = s.decryptField(cred.UserID, apiKey)
	return &cred, nil
}

// GetByInstance finds the credential whose decrypted instance name matches.
// Ciphertexts are not comparable, so this scans and decrypts; credential
// counts are small (one per user).
func (s *CredentialStore) GetByInstance(ctx context.Context, instanceName string) (*models.Credential, error) {
	query := `SELECT user_id, instance_name, api_key, updated_at FROM credentials`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var cred models.Credential
		var instance, apiKey sql.NullString
		if err := rows.Scan(&cred.UserID, &instance, &apiKey, &cred.UpdatedAt); err != nil {
			return nil, errors.NewDatabaseError(err)
		}
		cred.InstanceName = s.decryptField(cred.UserID, instance)
		if cred.InstanceName != instanceName {
			continue
		}
		cred.APIKey = s.decryptField(cred.UserID, apiKey)
		return &cred, nil
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return nil, nil
}

// Upsert stores or replaces the user's credential. Empty fields are stored as
// NULL rather than as the encryption of an empty string.
func (s *CredentialStore) Upsert(ctx context.Context, cred *models.Credential) error {
	instance, err := s.encryptField(cred.InstanceName)
	if err != nil {
		return errors.NewInternalError(err)
	}
	apiKey, err := s.encryptField(cred.APIKey)
	if err != nil {
		return errors.NewInternalError(err)
	}

	query := `INSERT INTO credentials (user_id, instance_name, api_key, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id)
	          DO UPDATE SET instance_name = $2, api_key = $3, updated_at = $4`
	_, err = s.db.ExecContext(ctx, query, cred.UserID, instance, apiKey, time.Now().UTC())
	if err != nil {
		return errors.NewDatabaseError(err)
	}

	s.logger.Info("credential stored", map[string]interface{}{"user_id": cred.UserID})
	return nil
}

// Delete removes the user's credential. Deleting a missing credential is not
// an error.
func (s *CredentialStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
	if err != nil {
		return errors.NewDatabaseError(err)
	}
	return nil
}

func (s *CredentialStore) encryptField(plain string) (interface{}, error) {
	if plain == "" {
		return nil, nil
	}
	encrypted, err := s.enc.Encrypt(plain)
	if err != nil {
		return nil, err
	}
	return encrypted, nil
}

func (s *CredentialStore) decryptField(userID string, stored sql.NullString) string {
	if !stored.Valid || stored.String == "" {
		return ""
	}
	plain := s.enc.Decrypt(stored.String)
	if plain == stored.String {
		// Row predates field encryption and is passed through as-is.
		s.logger.Warn("credential field stored in plaintext", map[string]interface{}{
			"user_id": userID,
		})
	}
	return plain
}
