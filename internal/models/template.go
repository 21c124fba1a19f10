package models

import (
	"encoding/json"
	"time"
)

// Template types
const (
	TemplateTypeText  = "text"
	TemplateTypeMedia = "media"
)

// Template is a saved, reusable message or media payload preset.
type Template struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Type        string          `json:"type" db:"type"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
