// internal/api/template_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evocrm/internal/models"
)

func (s *Server) handleCreateTemplate(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	tpl, err := s.templates.Create(c.Request.Context(), &models.Template{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Payload:     req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (s *Server) handleListTemplates(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	templates, err := s.templates.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	tpl, err := s.templates.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) handleUpdateTemplate(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	tpl, err := s.templates.Update(c.Request.Context(), &models.Template{
		ID:          c.Param("id"),
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Payload:     req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.templates.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
