package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"blog-be/internal/apperrors"
	"blog-be/internal/jwt"
	"blog-be/internal/models"
	"blog-be/internal/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.SignupResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetStatus(ctx context.Context, userID string) (*models.StatusResponse, error)
	UpdateStatus(ctx context.Context, userID, status string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	log        *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService, log *zap.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		log:        log,
	}
}

func emailTaken() *apperrors.Error {
	return apperrors.Validation("E-Mail address already exists!", []apperrors.FieldError{
		{Field: "email", Message: "E-Mail address already exists!"},
	})
}

// Signup creates a new user account with a bcrypt-hashed password
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.SignupResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, emailTaken()
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, string(hashedPassword), &name)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent signup for the same address.
		return nil, emailTaken()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return &models.SignupResponse{
		Message: "User created!",
		UserID:  user.ID,
	}, nil
}

// Login authenticates a user and returns a signed token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Wrong email or password.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthenticated("Wrong email or password.")
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token:  token,
		UserID: user.ID,
	}, nil
}

func (s *authService) GetStatus(ctx context.Context, userID string) (*models.StatusResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &models.StatusResponse{Status: user.Status}, nil
}

func (s *authService) UpdateStatus(ctx context.Context, userID, status string) error {
	err := s.userRepo.UpdateStatus(ctx, userID, strings.TrimSpace(status))
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("User not found.")
	}
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
