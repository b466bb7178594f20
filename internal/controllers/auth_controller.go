package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-be/internal/middleware"
	"blog-be/internal/models"
	"blog-be/internal/service"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// Signup handles PUT and POST /auth/signup
func (ac *AuthController) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	response, err := ac.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	response, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetStatus handles GET /auth/status
func (ac *AuthController) GetStatus(c *gin.Context) {
	response, err := ac.authService.GetStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateStatus handles PATCH /auth/status
func (ac *AuthController) UpdateStatus(c *gin.Context) {
	var req models.StatusRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := ac.authService.UpdateStatus(c.Request.Context(), middleware.UserID(c), req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "User updated."})
}
