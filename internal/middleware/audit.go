package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit entry after each successful request on the route.
// The :id path parameter, when present, becomes the resource id.
func Audit(writer AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 || writer == nil {
			return
		}

		var userID *int64
		if principal := CurrentPrincipal(c); principal.Authenticated() {
			userID = &principal.ID
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		ua := c.GetHeader("User-Agent")
		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
			"device":  DeviceName(ua),
		})

		if err := writer.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  ua,
		}); err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

// DeviceName renders a user agent as "Browser on OS".
func DeviceName(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	if ua.Bot() {
		return strings.TrimSpace(browser + " (bot)")
	}
	return strings.TrimSpace(browser) + " on " + strings.TrimSpace(os)
}
