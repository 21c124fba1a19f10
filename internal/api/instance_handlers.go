// internal/api/instance_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleConnectionState(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := s.instances.ConnectionState(c.Request.Context(), user.ID, c.Query("instance"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(state.HTTPCode, state)
}

func (s *Server) handleConnect(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.instances.Connect(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFindContacts(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	contacts, err := s.instances.Contacts(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}
