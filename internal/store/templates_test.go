package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

func TestTemplateStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewTemplateStore(db, logger.NewNoOpLogger())

	mock.ExpectExec("INSERT INTO templates").
		WithArgs(sqlmock.AnyArg(), "u1", "welcome", "greeting for new leads", models.TemplateTypeText,
			[]byte(`{"text":"hi {{name}}"}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tpl, err := store.Create(context.Background(), &models.Template{
		UserID:      "u1",
		Name:        "welcome",
		Description: "greeting for new leads",
		Type:        models.TemplateTypeText,
		Payload:     json.RawMessage(`{"text":"hi {{name}}"}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewTemplateStore(db, logger.NewNoOpLogger())

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "description", "type", "payload", "created_at", "updated_at"}).
		AddRow("t1", "u1", "welcome", "", models.TemplateTypeText, []byte(`{"text":"hi"}`), now, now).
		AddRow("t2", "u1", "promo", "", models.TemplateTypeMedia, []byte(`{"mediatype":"image"}`), now, now)
	mock.ExpectQuery("SELECT id, user_id, name, description").
		WithArgs("u1").
		WillReturnRows(rows)

	templates, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "welcome", templates[0].Name)
	assert.JSONEq(t, `{"mediatype":"image"}`, string(templates[1].Payload))
}

func TestTemplateStoreGetByIDScopesToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewTemplateStore(db, logger.NewNoOpLogger())

	mock.ExpectQuery("SELECT id, user_id, name, description").
		WithArgs("t1", "intruder").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "type", "payload", "created_at", "updated_at"}))

	tpl, err := store.GetByID(context.Background(), "intruder", "t1")
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestTemplateStoreUpdateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewTemplateStore(db, logger.NewNoOpLogger())

	mock.ExpectExec("UPDATE templates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tpl, err := store.Update(context.Background(), &models.Template{
		ID:      "ghost",
		UserID:  "u1",
		Name:    "x",
		Type:    models.TemplateTypeText,
		Payload: json.RawMessage(`{"text":"x"}`),
	})
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestTemplateStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewTemplateStore(db, logger.NewNoOpLogger())

	mock.ExpectExec("DELETE FROM templates").
		WithArgs("t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := store.Delete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.True(t, deleted)
}
