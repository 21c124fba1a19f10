package models

import "time"

// Credential holds a user's Evolution gateway instance name and API key.
// At most one credential exists per user; fields are encrypted at rest and
// decrypted transparently by the store.
type Credential struct {
	UserID       string    `json:"userId" db:"user_id"`
	InstanceName string    `json:"instanceName" db:"instance_name"`
	APIKey       string    `json:"apiKey" db:"api_key"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
