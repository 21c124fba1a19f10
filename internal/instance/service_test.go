package instance

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/gateway/evolution"
	"evocrm/internal/models"
)

type stubCredentials struct {
	byUser     map[string]*models.Credential
	byInstance map[string]*models.Credential
}

func (s *stubCredentials) Get(ctx context.Context, userID string) (*models.Credential, error) {
	return s.byUser[userID], nil
}

func (s *stubCredentials) GetByInstance(ctx context.Context, name string) (*models.Credential, error) {
	return s.byInstance[name], nil
}

type stubGateway struct {
	stateResult    *evolution.QueryResult
	stateErr       error
	connectResult  *evolution.QueryResult
	connectErr     error
	contactsResult *evolution.QueryResult
	contactsErr    error
	contactsCalls  int
	lastInstance   string
}

func (s *stubGateway) ConnectionState(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error) {
	s.lastInstance = instance
	return s.stateResult, s.stateErr
}

func (s *stubGateway) Connect(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error) {
	s.lastInstance = instance
	return s.connectResult, s.connectErr
}

func (s *stubGateway) FindContacts(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error) {
	s.contactsCalls++
	s.lastInstance = instance
	return s.contactsResult, s.contactsErr
}

type memCache struct {
	values map[string]interface{}
}

func newMemCache() *memCache {
	return &memCache{values: map[string]interface{}{}}
}

func (m *memCache) Get(ctx context.Context, userID string) (interface{}, bool) {
	v, ok := m.values[userID]
	return v, ok
}

func (m *memCache) Set(ctx context.Context, userID string, payload interface{}) {
	m.values[userID] = payload
}

func salesCredential() *models.Credential {
	return &models.Credential{UserID: "u1", InstanceName: "sales", APIKey: "key"}
}

func newTestService(creds *stubCredentials, gw *stubGateway) *Service {
	return NewService(creds, gw, newMemCache(), logger.NewNoOpLogger())
}

func TestConnectionStateUsesOwnCredential(t *testing.T) {
	gw := &stubGateway{
		stateResult: &evolution.QueryResult{
			HTTPCode: http.StatusOK,
			Payload: map[string]interface{}{
				"instance": map[string]interface{}{"instanceName": "sales", "state": "open"},
			},
		},
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	state, err := svc.ConnectionState(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.True(t, state.OK)
	assert.Equal(t, http.StatusOK, state.HTTPCode)
	assert.Equal(t, "sales", state.Instance)
	require.NotNil(t, state.State)
	assert.Equal(t, "OPEN", *state.State)
	assert.Equal(t, "sales", gw.lastInstance)
}

func TestConnectionStateSentinelMeansOwnCredential(t *testing.T) {
	gw := &stubGateway{
		stateResult: &evolution.QueryResult{HTTPCode: http.StatusOK, Payload: map[string]interface{}{"state": "open"}},
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	state, err := svc.ConnectionState(context.Background(), "u1", DefaultInstance)
	require.NoError(t, err)
	assert.True(t, state.OK)
	assert.Equal(t, "sales", gw.lastInstance)
}

func TestConnectionStateExplicitInstanceWinsOverOwn(t *testing.T) {
	gw := &stubGateway{
		stateResult: &evolution.QueryResult{HTTPCode: http.StatusOK, Payload: map[string]interface{}{"state": "close"}},
	}
	creds := &stubCredentials{
		byUser: map[string]*models.Credential{"u1": salesCredential()},
		byInstance: map[string]*models.Credential{
			"support": {UserID: "u2", InstanceName: "support", APIKey: "key-2"},
		},
	}
	svc := newTestService(creds, gw)

	state, err := svc.ConnectionState(context.Background(), "u1", "support")
	require.NoError(t, err)
	assert.Equal(t, "support", state.Instance)
	assert.Equal(t, "support", gw.lastInstance)
}

func TestConnectionStateNoCredentialIsNotFoundShaped(t *testing.T) {
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{}}, &stubGateway{})

	state, err := svc.ConnectionState(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.False(t, state.OK)
	assert.Equal(t, http.StatusNotFound, state.HTTPCode)
	assert.Nil(t, state.State)
	assert.NotEmpty(t, state.ErrorMessage)
}

func TestConnectionStateUnknownExplicitInstance(t *testing.T) {
	svc := newTestService(&stubCredentials{
		byUser: map[string]*models.Credential{"u1": salesCredential()},
	}, &stubGateway{})

	state, err := svc.ConnectionState(context.Background(), "u1", "ghost")
	require.NoError(t, err)
	assert.False(t, state.OK)
	assert.Equal(t, http.StatusNotFound, state.HTTPCode)
	assert.Equal(t, "ghost", state.Instance)
}

func TestConnectionStateUpstreamErrorKeepsStatus(t *testing.T) {
	gw := &stubGateway{
		stateResult: &evolution.QueryResult{HTTPCode: http.StatusNotFound, Payload: map[string]interface{}{"message": "gone"}},
		stateErr:    fmt.Errorf("gateway returned status 404: gone"),
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	state, err := svc.ConnectionState(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.False(t, state.OK)
	assert.Equal(t, http.StatusNotFound, state.HTTPCode)
	assert.Contains(t, state.ErrorMessage, "gone")
}

func TestConnectionStateTransportError(t *testing.T) {
	gw := &stubGateway{stateErr: fmt.Errorf("gateway request failed: connection refused")}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	state, err := svc.ConnectionState(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.False(t, state.OK)
	assert.Equal(t, http.StatusInternalServerError, state.HTTPCode)
}

func TestConnectReturnsQR(t *testing.T) {
	gw := &stubGateway{
		connectResult: &evolution.QueryResult{
			HTTPCode: http.StatusOK,
			Payload:  map[string]interface{}{"base64": "data:image/png;base64,QQQQ"},
		},
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	result, err := svc.Connect(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "sales", result.Instance)
	require.NotNil(t, result.QR)
	assert.Equal(t, "data:image/png;base64,QQQQ", *result.QR)
}

func TestConnectWithoutCredential(t *testing.T) {
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{}}, &stubGateway{})

	_, err := svc.Connect(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCredentialsNotFound, errors.FromError(err).Code)
}

func TestContactsCachesSecondRead(t *testing.T) {
	payload := []interface{}{map[string]interface{}{"id": "111", "pushName": "Alice"}}
	gw := &stubGateway{
		contactsResult: &evolution.QueryResult{HTTPCode: http.StatusOK, Payload: payload},
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	first, err := svc.Contacts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, payload, first)

	second, err := svc.Contacts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, payload, second)
	assert.Equal(t, 1, gw.contactsCalls)
}

func TestContactsGatewayFailure(t *testing.T) {
	gw := &stubGateway{
		contactsResult: &evolution.QueryResult{HTTPCode: http.StatusUnauthorized, Payload: "unauthorized"},
		contactsErr:    fmt.Errorf("gateway returned status 401: unauthorized"),
	}
	svc := newTestService(&stubCredentials{byUser: map[string]*models.Credential{"u1": salesCredential()}}, gw)

	_, err := svc.Contacts(context.Background(), "u1")
	require.Error(t, err)
	stdErr := errors.FromError(err)
	assert.Equal(t, errors.ErrCodeGatewayError, stdErr.Code)
	assert.Equal(t, http.StatusUnauthorized, stdErr.UpstreamHTTPStatus())
}
