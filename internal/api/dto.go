// internal/api/dto.go
package api

import (
	"encoding/json"

	"evocrm/internal/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type credentialRequest struct {
	InstanceName string `json:"instanceName" binding:"required"`
	APIKey       string `json:"apiKey" binding:"required"`
}

// credentialResponse never exposes the full API key; only enough to confirm
// which key is stored.
type credentialResponse struct {
	InstanceName string `json:"instanceName"`
	APIKeyHint   string `json:"apiKeyHint"`
	UpdatedAt    string `json:"updatedAt"`
}

type templateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Type        string          `json:"type" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
}

type sendMessageRequest struct {
	Recipients []string `json:"recipients" binding:"required"`
	Text       string   `json:"text"`
	TemplateID string   `json:"templateId"`
}

type sendMediaRequest struct {
	Recipients []string             `json:"recipients" binding:"required"`
	Media      *models.MediaContent `json:"media"`
	TemplateID string               `json:"templateId"`
}

type dispatchResponse struct {
	Results []models.DispatchResult `json:"results"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
