package models

// SignupResponse represents the response after account creation
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginResponse represents the response after successful authentication
type LoginResponse struct {
	Token  string `json:"token"` // JWT token
	UserID string `json:"userId"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse is the body of mutations that only confirm success.
type MessageResponse struct {
	Message string `json:"message"`
}
