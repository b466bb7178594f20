package models

// SignupRequest represents the request body for account creation
type SignupRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=5"`
	Name     string `json:"name" form:"name" binding:"required"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// StatusRequest represents the request body for PATCH /auth/status
type StatusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}
