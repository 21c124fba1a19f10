package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evocrm/internal/common/crypto"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

func newTestEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	enc, err := crypto.NewEncryptor("test-encryption-secret")
	require.NoError(t, err)
	return enc
}

func TestCredentialStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	enc := newTestEncryptor(t)
	store := NewCredentialStore(db, enc, logger.NewNoOpLogger())

	encInstance, err := enc.Encrypt("sales")
	require.NoError(t, err)
	encKey, err := enc.Encrypt("api-key-123")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"user_id", "instance_name", "api_key", "updated_at"}).
		AddRow("u1", encInstance, encKey, time.Now())
	mock.ExpectQuery("SELECT user_id, instance_name, api_key").
		WithArgs("u1").
		WillReturnRows(rows)

	cred, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "sales", cred.InstanceName)
	assert.Equal(t, "api-key-123", cred.APIKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStoreGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	mock.ExpectQuery("SELECT user_id, instance_name, api_key").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "instance_name", "api_key", "updated_at"}))

	cred, err := store.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialStoreGetLegacyPlaintext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	rows := sqlmock.NewRows([]string{"user_id", "instance_name", "api_key", "updated_at"}).
		AddRow("u1", "plain-instance", "plain-key", time.Now())
	mock.ExpectQuery("SELECT user_id, instance_name, api_key").
		WithArgs("u1").
		WillReturnRows(rows)

	cred, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "plain-instance", cred.InstanceName)
	assert.Equal(t, "plain-key", cred.APIKey)
}

func TestCredentialStoreGetNullFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	rows := sqlmock.NewRows([]string{"user_id", "instance_name", "api_key", "updated_at"}).
		AddRow("u1", nil, nil, time.Now())
	mock.ExpectQuery("SELECT user_id, instance_name, api_key").
		WithArgs("u1").
		WillReturnRows(rows)

	cred, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Empty(t, cred.InstanceName)
	assert.Empty(t, cred.APIKey)
}

func TestCredentialStoreUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	mock.ExpectExec("INSERT INTO credentials").
		WithArgs("u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Upsert(context.Background(), &models.Credential{
		UserID:       "u1",
		InstanceName: "sales",
		APIKey:       "api-key-123",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStoreUpsertEmptyFieldsAsNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	mock.ExpectExec("INSERT INTO credentials").
		WithArgs("u1", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Upsert(context.Background(), &models.Credential{UserID: "u1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStoreGetByInstance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	enc := newTestEncryptor(t)
	store := NewCredentialStore(db, enc, logger.NewNoOpLogger())

	encSales, err := enc.Encrypt("sales")
	require.NoError(t, err)
	encSupport, err := enc.Encrypt("support")
	require.NoError(t, err)
	encKey, err := enc.Encrypt("key-2")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"user_id", "instance_name", "api_key", "updated_at"}).
		AddRow("u1", encSales, encSales, time.Now()).
		AddRow("u2", encSupport, encKey, time.Now())
	mock.ExpectQuery("SELECT user_id, instance_name, api_key").WillReturnRows(rows)

	cred, err := store.GetByInstance(context.Background(), "support")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "u2", cred.UserID)
	assert.Equal(t, "key-2", cred.APIKey)
}

func TestCredentialStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCredentialStore(db, newTestEncryptor(t), logger.NewNoOpLogger())

	mock.ExpectExec("DELETE FROM credentials").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
