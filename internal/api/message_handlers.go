// internal/api/message_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evocrm/internal/models"
)

func (s *Server) handleSendMessage(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	dispatchReq := &models.DispatchRequest{Recipients: req.Recipients, Text: req.Text}
	if req.TemplateID != "" {
		dispatchReq, err = s.dispatchFromTemplate(c, user.ID, req.TemplateID, req.Recipients)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	results, err := s.dispatcher.Dispatch(c.Request.Context(), user.ID, dispatchReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatchResponse{Results: results})
}

func (s *Server) handleSendMedia(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req sendMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	dispatchReq := &models.DispatchRequest{Recipients: req.Recipients, Media: req.Media}
	if req.TemplateID != "" {
		dispatchReq, err = s.dispatchFromTemplate(c, user.ID, req.TemplateID, req.Recipients)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	results, err := s.dispatcher.Dispatch(c.Request.Context(), user.ID, dispatchReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatchResponse{Results: results})
}

func (s *Server) dispatchFromTemplate(c *gin.Context, userID, templateID string, recipients []string) (*models.DispatchRequest, error) {
	tpl, err := s.templates.Get(c.Request.Context(), userID, templateID)
	if err != nil {
		return nil, err
	}
	return s.templates.BuildDispatch(tpl, recipients)
}
