package services

import (
	"context"
	"fmt"
	"net/http"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/go-playground/validator/v10"
)

// AuthService drives the cookie-authenticated auth endpoints
type AuthService struct {
	api       *APIClient
	validator *validator.Validate
	logger    logger.Logger
}

func NewAuthService(api *APIClient, log logger.Logger) *AuthService {
	return &AuthService{
		api:       api,
		validator: validator.New(),
		logger:    log,
	}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", models.ErrValidation, err)
}

// Register creates an account; the backend sets the session cookie on success
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}

	res, err := s.api.send(ctx, http.MethodPost, "/v1/auth/register/email", req, "")
	if err != nil {
		return transportError("register", models.ErrRequestFailed, err)
	}
	if !res.OK() {
		return requestError("register", models.ErrRequestFailed, res, "Registration failed")
	}

	s.logger.Infof("Registered account for %s", req.Email)
	return nil
}

// Login signs in with email and password
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}

	res, err := s.api.send(ctx, http.MethodPost, "/v1/auth/login/email", req, "")
	if err != nil {
		return transportError("login", models.ErrRequestFailed, err)
	}
	if !res.OK() {
		return requestError("login", models.ErrRequestFailed, res, "Login failed")
	}

	s.logger.Infof("Logged in as %s", req.Email)
	return nil
}

// Logout invalidates the session credential server side
func (s *AuthService) Logout(ctx context.Context) error {
	res, err := s.api.send(ctx, http.MethodPost, "/v1/auth/logout", nil, "")
	if err != nil {
		return transportError("logout", models.ErrRequestFailed, err)
	}
	if !res.OK() {
		return requestError("logout", models.ErrRequestFailed, res, "Logout failed")
	}
	return nil
}
