package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mcpadmin/middelware"
	"mcpadmin/models"
	"mcpadmin/rbac"
	"mcpadmin/services"
	"mcpadmin/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GatewayController exposes the session core to a local UI over HTTP
type GatewayController struct {
	session     *SessionController
	authService services.AuthServiceInterface
	orgService  services.OrganizationServiceInterface
	logger      logger.Logger
	validator   *validator.Validate
	guard       *middelware.SessionGuard
}

// PermissionCheckRequest is the body of POST /permissions/check
type PermissionCheckRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
	Mode        string   `json:"mode" validate:"omitempty,oneof=all any"`
	OwnerID     string   `json:"owner_id,omitempty"`
}

// PermissionCheckResult is returned by POST /permissions/check
type PermissionCheckResult struct {
	Allowed    bool        `json:"allowed"`
	ActiveRole models.Role `json:"active_role"`
	Mode       rbac.Mode   `json:"mode"`
}

// PermissionsResult is returned by GET /permissions
type PermissionsResult struct {
	ActiveRole  models.Role       `json:"active_role"`
	Permissions []rbac.Permission `json:"permissions"`
}

func NewGatewayController(session *SessionController, auth services.AuthServiceInterface, orgs services.OrganizationServiceInterface, log logger.Logger) *GatewayController {
	return &GatewayController{
		session:     session,
		authService: auth,
		orgService:  orgs,
		logger:      log,
		validator:   validator.New(),
		guard:       middelware.NewSessionGuard(session),
	}
}

// RegisterRoutes mounts the gateway under basePath
func (h *GatewayController) RegisterRoutes(r *gin.Engine, basePath, version string) {
	v1 := r.Group(basePath)

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"service": "mcpadmin gateway",
		})
	})
	v1.GET("/metrics", gin.WrapH(promhttp.Handler()))

	session := v1.Group("/session")
	session.GET("", h.GetSession)
	session.POST("/login", h.Login)
	session.POST("/signup", h.Signup)
	session.POST("/bootstrap", h.Bootstrap)
	session.POST("/logout", h.Logout)
	session.POST("/refresh", h.guard.RequireAuthenticated(), h.Refresh)
	session.POST("/organization", h.guard.RequireAuthenticated(), h.SwitchOrganization)
	session.POST("/role/toggle", h.guard.RequireReady(), h.ToggleRole)

	v1.GET("/permissions", h.guard.RequireReady(), h.GetPermissions)
	v1.POST("/permissions/check", h.guard.RequireReady(), h.CheckPermissions)

	v1.POST("/organizations", h.guard.RequireAuthenticated(), h.CreateOrganization)
}

// errorStatus maps session and backend errors to gateway status codes
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTransitionInProgress), errors.Is(err, models.ErrStaleTransition):
		return http.StatusConflict, "ConflictError"
	case errors.Is(err, models.ErrNoActiveOrganization):
		return http.StatusConflict, "ConflictError"
	case errors.Is(err, models.ErrAuthRequired), errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized, "AuthenticationError"
	case errors.Is(err, models.ErrUnknownOrganization), errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "ValidationError"
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden, "AuthorizationError"
	default:
		return http.StatusBadGateway, "BackendError"
	}
}

func (h *GatewayController) fail(c *gin.Context, message string, err error) {
	status, kind := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("%s: %v", message, err)
	} else {
		h.logger.Debugf("%s: %v", message, err)
	}
	c.JSON(status, models.APIResponse{
		Status:  "error",
		Code:    status,
		Message: message,
		Error: &models.APIError{
			Type:    kind,
			Details: err.Error(),
		},
	})
}

func (h *GatewayController) badRequest(c *gin.Context, message, details string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{
		Status:  "error",
		Code:    http.StatusBadRequest,
		Message: message,
		Error: &models.APIError{
			Type:    "ValidationError",
			Details: details,
		},
	})
}

func (h *GatewayController) ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Status:  "success",
		Code:    status,
		Message: message,
		Data:    data,
	})
}

// formatValidationErrors formats validation errors into readable messages
func (h *GatewayController) formatValidationErrors(err error) string {
	var errorMessages []string

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			switch fieldError.Tag() {
			case "required":
				errorMessages = append(errorMessages, fieldError.Field()+" is required")
			case "min":
				errorMessages = append(errorMessages, fieldError.Field()+" must be at least "+fieldError.Param()+" characters/items")
			case "max":
				errorMessages = append(errorMessages, fieldError.Field()+" must be at most "+fieldError.Param()+" characters/items")
			case "email":
				errorMessages = append(errorMessages, fieldError.Field()+" must be a valid email address")
			case "oneof":
				errorMessages = append(errorMessages, fieldError.Field()+" must be one of: "+strings.ReplaceAll(fieldError.Param(), " ", ", "))
			default:
				errorMessages = append(errorMessages, fieldError.Field()+" is invalid")
			}
		}
	}
	if len(errorMessages) == 0 {
		return err.Error()
	}

	return strings.Join(errorMessages, "; ")
}

// bind decodes and validates the JSON body into req
func (h *GatewayController) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.badRequest(c, "Invalid request", err.Error())
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		h.badRequest(c, "Validation failed", h.formatValidationErrors(err))
		return false
	}
	return true
}

// GetSession handles GET /session
func (h *GatewayController) GetSession(c *gin.Context) {
	h.ok(c, http.StatusOK, "Session state", h.session.GetState())
}

// Login handles POST /session/login and bootstraps the new session
func (h *GatewayController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.authService.Login(ctx, req); err != nil {
		h.fail(c, "Login failed", err)
		return
	}
	h.bootstrap(ctx, c, "Signed in")
}

// Signup handles POST /session/signup
func (h *GatewayController) Signup(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.authService.Register(ctx, req); err != nil {
		h.fail(c, "Registration failed", err)
		return
	}
	h.bootstrap(ctx, c, "Account created")
}

// Bootstrap handles POST /session/bootstrap
func (h *GatewayController) Bootstrap(c *gin.Context) {
	h.bootstrap(c.Request.Context(), c, "Session bootstrapped")
}

func (h *GatewayController) bootstrap(ctx context.Context, c *gin.Context, message string) {
	state, err := h.session.Bootstrap(ctx)
	if err != nil {
		h.fail(c, "Bootstrap failed", err)
		return
	}
	h.ok(c, http.StatusOK, message, state)
}

// Logout handles POST /session/logout
func (h *GatewayController) Logout(c *gin.Context) {
	state, err := h.session.Logout(c.Request.Context())
	if err != nil {
		h.fail(c, "Logout failed", err)
		return
	}
	h.ok(c, http.StatusOK, "Logged out", state)
}

// Refresh handles POST /session/refresh
func (h *GatewayController) Refresh(c *gin.Context) {
	state, err := h.session.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, "Token refresh failed", err)
		return
	}
	h.ok(c, http.StatusOK, "Token refreshed", state)
}

// SwitchOrganization handles POST /session/organization
func (h *GatewayController) SwitchOrganization(c *gin.Context) {
	var req models.SwitchOrganizationRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.session.SwitchOrganization(c.Request.Context(), req.OrganizationID)
	if err != nil {
		h.fail(c, "Failed to switch organization", err)
		return
	}
	h.ok(c, http.StatusOK, "Organization switched", state)
}

// ToggleRole handles POST /session/role/toggle
func (h *GatewayController) ToggleRole(c *gin.Context) {
	role, err := h.session.ToggleActiveRole(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to toggle role", err)
		return
	}
	h.ok(c, http.StatusOK, "Active role updated", gin.H{"active_role": role})
}

// GetPermissions handles GET /permissions
func (h *GatewayController) GetPermissions(c *gin.Context) {
	state := h.session.GetState()
	h.ok(c, http.StatusOK, "Permissions retrieved", PermissionsResult{
		ActiveRole:  state.ActiveRole,
		Permissions: rbac.GetPermissionsForRole(state.ActiveRole),
	})
}

// CheckPermissions handles POST /permissions/check
func (h *GatewayController) CheckPermissions(c *gin.Context) {
	var req PermissionCheckRequest
	if !h.bind(c, &req) {
		return
	}

	perms := make([]rbac.Permission, 0, len(req.Permissions))
	for _, name := range req.Permissions {
		perm, ok := rbac.ParsePermission(name)
		if !ok {
			h.badRequest(c, "Unknown permission", name)
			return
		}
		perms = append(perms, perm)
	}

	mode := rbac.ModeAll
	if req.Mode != "" {
		mode = rbac.Mode(req.Mode)
	}

	var allowed bool
	if req.OwnerID != "" {
		allowed = h.canActOnAll(perms, mode, req.OwnerID)
	} else {
		allowed = h.session.CheckPermission(perms, mode)
	}

	h.ok(c, http.StatusOK, "Permission evaluated", PermissionCheckResult{
		Allowed:    allowed,
		ActiveRole: h.session.GetState().ActiveRole,
		Mode:       mode,
	})
}

func (h *GatewayController) canActOnAll(perms []rbac.Permission, mode rbac.Mode, ownerID string) bool {
	if mode == rbac.ModeAny {
		for _, p := range perms {
			if h.session.CanActOn(p, ownerID) {
				return true
			}
		}
		return false
	}
	for _, p := range perms {
		if !h.session.CanActOn(p, ownerID) {
			return false
		}
	}
	return true
}

// CreateOrganization handles POST /organizations. The profile is reloaded
// so the new membership becomes selectable.
func (h *GatewayController) CreateOrganization(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	org, err := h.orgService.CreateOrganization(ctx, req)
	if err != nil {
		h.fail(c, "Failed to create organization", err)
		return
	}
	if _, err := h.session.Bootstrap(ctx); err != nil {
		h.logger.Warnf("Organization %s created but session reload failed: %v", org.OrganizationID, err)
	}

	h.ok(c, http.StatusCreated, "Organization created successfully", org)
}
