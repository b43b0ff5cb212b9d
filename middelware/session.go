package middelware

import (
	"net/http"

	"mcpadmin/models"
	"mcpadmin/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StateReader exposes the current session snapshot
type StateReader interface {
	GetState() models.SessionState
}

// SessionKey is the gin context key holding the session snapshot
const SessionKey = "session"

// SessionGuard gates gateway routes on the local session state
type SessionGuard struct {
	session StateReader
}

// NewSessionGuard creates a guard reading from session
func NewSessionGuard(session StateReader) *SessionGuard {
	return &SessionGuard{session: session}
}

// RequestID tags every gateway request and echoes the id back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequireAuthenticated rejects requests unless the session is in an
// authenticated state
func (g *SessionGuard) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := g.session.GetState()
		if !state.Status.Authenticated() {
			c.JSON(http.StatusUnauthorized, models.APIResponse{
				Status:  "error",
				Code:    http.StatusUnauthorized,
				Message: "Not signed in",
				Error: &models.APIError{
					Type:    "AuthenticationError",
					Details: "session status is " + string(state.Status),
				},
			})
			c.Abort()
			return
		}

		c.Set(SessionKey, state)
		c.Next()
	}
}

// RequireReady rejects requests unless an organization is active
func (g *SessionGuard) RequireReady() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := g.session.GetState()
		if !state.Status.Authenticated() {
			g.RequireAuthenticated()(c)
			return
		}
		if state.Status != models.SessionReady || state.ActiveOrganization == nil {
			c.JSON(http.StatusConflict, models.APIResponse{
				Status:  "error",
				Code:    http.StatusConflict,
				Message: "No active organization",
				Error: &models.APIError{
					Type:    "ConflictError",
					Details: "session status is " + string(state.Status),
				},
			})
			c.Abort()
			return
		}

		c.Set(SessionKey, state)
		c.Next()
	}
}

// RequirePermission rejects requests whose effective role lacks perm. It must
// run after RequireReady.
func (g *SessionGuard) RequirePermission(perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(SessionKey)
		state, ok := value.(models.SessionState)
		if !exists || !ok {
			c.JSON(http.StatusForbidden, models.APIResponse{
				Status:  "error",
				Code:    http.StatusForbidden,
				Message: "Session context not found",
				Error: &models.APIError{
					Type: "AuthorizationError",
				},
			})
			c.Abort()
			return
		}

		if !rbac.CheckPermission(state.ActiveRole, perm) {
			c.JSON(http.StatusForbidden, models.APIResponse{
				Status:  "error",
				Code:    http.StatusForbidden,
				Message: "Insufficient permissions",
				Error: &models.APIError{
					Type:    "AuthorizationError",
					Details: "role " + string(state.ActiveRole) + " lacks " + perm.String(),
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
