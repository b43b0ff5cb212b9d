package middelware

import (
	"net/http"
	"time"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware provides request logging for the gateway
type LoggingMiddleware struct {
	logger logger.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(log logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: log,
	}
}

// StructuredLogger logs one line per request; health and metrics scrapes are skipped
func (m *LoggingMiddleware) StructuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if c.FullPath() == "" && c.Writer.Status() == http.StatusNotFound {
			m.logger.Debugf("No route for %s %s", c.Request.Method, path)
			return
		}
		if isQuietPath(c.FullPath()) {
			return
		}

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
			"request_id": c.GetString(RequestIDKey),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			m.logger.Errorf("Gateway request failed: %+v", fields)
		case status >= 400:
			m.logger.Warnf("Gateway request rejected: %+v", fields)
		default:
			m.logger.Debugf("Gateway request: %+v", fields)
		}
	}
}

func isQuietPath(fullPath string) bool {
	n := len(fullPath)
	return (n >= 7 && fullPath[n-7:] == "/health") || (n >= 8 && fullPath[n-8:] == "/metrics")
}

// Recovery middleware with logging
func (m *LoggingMiddleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		m.logger.Errorf("Panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.APIResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "An unexpected error occurred",
			Error: &models.APIError{
				Type: "InternalError",
			},
		})
	})
}
