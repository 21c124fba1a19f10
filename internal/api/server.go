// internal/api/server.go
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evocrm/internal/common/logger"
	"evocrm/internal/instance"
	"evocrm/internal/models"
)

// AuthService handles accounts and sessions.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// CredentialStore manages per-user gateway credentials.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Upsert(ctx context.Context, cred *models.Credential) error
	Delete(ctx context.Context, userID string) error
}

// TemplateService manages message templates.
type TemplateService interface {
	Create(ctx context.Context, tpl *models.Template) (*models.Template, error)
	Get(ctx context.Context, userID, id string) (*models.Template, error)
	List(ctx context.Context, userID string) ([]models.Template, error)
	Update(ctx context.Context, tpl *models.Template) (*models.Template, error)
	Delete(ctx context.Context, userID, id string) error
	BuildDispatch(tpl *models.Template, recipients []string) (*models.DispatchRequest, error)
}

// Dispatcher fans a message out to recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, req *models.DispatchRequest) ([]models.DispatchResult, error)
}

// InstanceService answers gateway instance queries.
type InstanceService interface {
	ConnectionState(ctx context.Context, userID, instanceArg string) (*models.ConnectionState, error)
	Connect(ctx context.Context, userID string) (*instance.ConnectResult, error)
	Contacts(ctx context.Context, userID string) (interface{}, error)
}

// Server wires the HTTP surface of the CRM.
type Server struct {
	router      *gin.Engine
	auth        AuthService
	credentials CredentialStore
	templates   TemplateService
	dispatcher  Dispatcher
	instances   InstanceService
	logger      logger.Logger
}

func NewServer(auth AuthService, credentials CredentialStore, templates TemplateService,
	dispatcher Dispatcher, instances InstanceService, log logger.Logger) *Server {

	s := &Server{
		auth:        auth,
		credentials: credentials,
		templates:   templates,
		dispatcher:  dispatcher,
		instances:   instances,
		logger:      log,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)

		authed := api.Group("", s.sessionAuth())
		{
			authed.POST("/auth/logout", s.handleLogout)
			authed.GET("/auth/me", s.handleMe)

			authed.GET("/credentials", s.handleGetCredential)
			authed.POST("/credentials", s.handlePutCredential)
			authed.PUT("/credentials", s.handlePutCredential)
			authed.DELETE("/credentials", s.handleDeleteCredential)

			authed.POST("/templates", s.handleCreateTemplate)
			authed.GET("/templates", s.handleListTemplates)
			authed.GET("/templates/:id", s.handleGetTemplate)
			authed.PUT("/templates/:id", s.handleUpdateTemplate)
			authed.DELETE("/templates/:id", s.handleDeleteTemplate)

			authed.POST("/messages/send-message", s.handleSendMessage)
			authed.POST("/messages/send-media", s.handleSendMedia)

			authed.POST("/chats/find-contacts", s.handleFindContacts)

			authed.GET("/instance/connection-state", s.handleConnectionState)
			authed.GET("/instance/connect", s.handleConnect)
		}
	}

	s.router = router
	return s
}

// Router exposes the configured gin engine for the HTTP server and for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
