package entities

import "time"

// DefaultStatus is the status every new account starts with.
const DefaultStatus = "I am new!"

// User represents a user entity in the database
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Don't expose password hash in JSON
	Name         *string   `json:"name,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
