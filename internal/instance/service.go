// internal/instance/service.go
package instance

import (
	"context"
	"net/http"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/gateway/evolution"
	"evocrm/internal/models"
)

// DefaultInstance is the sentinel callers pass to mean "whatever instance my
// credential points at".
const DefaultInstance = "default"

// CredentialSource resolves credentials by owner or by instance name.
type CredentialSource interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	GetByInstance(ctx context.Context, instanceName string) (*models.Credential, error)
}

// Querier is the slice of the gateway client used for instance queries.
type Querier interface {
	ConnectionState(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error)
	Connect(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error)
	FindContacts(ctx context.Context, instance, apiKey string) (*evolution.QueryResult, error)
}

// ContactCacher caches contact payloads per user.
type ContactCacher interface {
	Get(ctx context.Context, userID string) (interface{}, bool)
	Set(ctx context.Context, userID string, payload interface{})
}

// ConnectResult is the pairing payload for linking a device to an instance.
type ConnectResult struct {
	Instance string      `json:"instance"`
	QR       *string     `json:"qr,omitempty"`
	Raw      interface{} `json:"raw,omitempty"`
}

// Service answers instance-level questions (connection state, pairing,
// contacts) against the gateway using the caller's stored credential.
type Service struct {
	credentials CredentialSource
	gateway     Querier
	contacts    ContactCacher
	logger      logger.Logger
}

func NewService(credentials CredentialSource, gateway Querier, contacts ContactCacher, log logger.Logger) *Service {
	return &Service{credentials: credentials, gateway: gateway, contacts: contacts, logger: log}
}

// ConnectionState reports the connection state of the instance the caller is
// asking about. An explicit non-sentinel instanceArg is resolved by instance
// name; otherwise the user's own credential decides. A missing credential is
// reported inside the result, not as an error.
func (s *Service) ConnectionState(ctx context.Context, userID, instanceArg string) (*models.ConnectionState, error) {
	cred, label, err := s.resolveCredential(ctx, userID, instanceArg)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &models.ConnectionState{
			OK:           false,
			HTTPCode:     http.StatusNotFound,
			Instance:     label,
			ErrorMessage: "no credential found for the requested instance",
		}, nil
	}

	result, qerr := s.gateway.ConnectionState(ctx, cred.InstanceName, cred.APIKey)
	if qerr != nil && result == nil {
		return &models.ConnectionState{
			OK:           false,
			HTTPCode:     http.StatusInternalServerError,
			Instance:     cred.InstanceName,
			ErrorMessage: qerr.Error(),
		}, nil
	}
	if qerr != nil {
		code := http.StatusBadGateway
		if result.HTTPCode >= http.StatusBadRequest {
			code = result.HTTPCode
		}
		return &models.ConnectionState{
			OK:           false,
			HTTPCode:     code,
			Instance:     cred.InstanceName,
			Raw:          result.Payload,
			ErrorMessage: qerr.Error(),
		}, nil
	}

	return &models.ConnectionState{
		OK:       true,
		HTTPCode: result.HTTPCode,
		Instance: cred.InstanceName,
		State:    evolution.ExtractState(result.Payload),
		Raw:      result.Payload,
	}, nil
}

// Connect fetches the pairing payload for the caller's instance so a device
// can be linked.
func (s *Service) Connect(ctx context.Context, userID string) (*ConnectResult, error) {
	cred, err := s.userCredential(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Connect(ctx, cred.InstanceName, cred.APIKey)
	if err != nil {
		return nil, s.gatewayError(result, err)
	}

	return &ConnectResult{
		Instance: cred.InstanceName,
		QR:       evolution.ExtractQR(result.Payload),
		Raw:      result.Payload,
	}, nil
}

// Contacts returns the caller's contact list, served from cache when fresh.
func (s *Service) Contacts(ctx context.Context, userID string) (interface{}, error) {
	if cached, ok := s.contacts.Get(ctx, userID); ok {
		return cached, nil
	}

	cred, err := s.userCredential(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.FindContacts(ctx, cred.InstanceName, cred.APIKey)
	if err != nil {
		return nil, s.gatewayError(result, err)
	}

	s.contacts.Set(ctx, userID, result.Payload)
	return result.Payload, nil
}

func (s *Service) resolveCredential(ctx context.Context, userID, instanceArg string) (*models.Credential, string, error) {
	if instanceArg != "" && instanceArg != DefaultInstance {
		cred, err := s.credentials.GetByInstance(ctx, instanceArg)
		if err != nil {
			return nil, instanceArg, errors.NewDatabaseError(err)
		}
		return cred, instanceArg, nil
	}

	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, instanceArg, errors.NewDatabaseError(err)
	}
	label := instanceArg
	if cred != nil {
		label = cred.InstanceName
	}
	return cred, label, nil
}

func (s *Service) userCredential(ctx context.Context, userID string) (*models.Credential, error) {
	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	if cred == nil {
		return nil, errors.NewCredentialsNotFoundError(userID)
	}
	return cred, nil
}

func (s *Service) gatewayError(result *evolution.QueryResult, err error) error {
	if result == nil {
		return errors.NewGatewayUnreachableError(err)
	}
	body := ""
	if text, ok := result.Payload.(string); ok {
		body = text
	}
	gwErr := errors.NewGatewayError(result.HTTPCode, body)
	gwErr.Details = err.Error()
	return gwErr
}
