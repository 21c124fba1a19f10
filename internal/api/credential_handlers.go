// internal/api/credential_handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"evocrm/internal/common/errors"
	"evocrm/internal/models"
)

func (s *Server) handleGetCredential(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cred, err := s.credentials.Get(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if cred == nil {
		respondError(c, errors.NewCredentialsNotFoundError(user.ID))
		return
	}

	c.JSON(http.StatusOK, credentialResponse{
		InstanceName: cred.InstanceName,
		APIKeyHint:   maskAPIKey(cred.APIKey),
		UpdatedAt:    cred.UpdatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handlePutCredential(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	err = s.credentials.Upsert(c.Request.Context(), &models.Credential{
		UserID:       user.ID,
		InstanceName: req.InstanceName,
		APIKey:       req.APIKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credentialResponse{
		InstanceName: req.InstanceName,
		APIKeyHint:   maskAPIKey(req.APIKey),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDeleteCredential(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.credentials.Delete(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// maskAPIKey keeps only the last four characters visible.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
