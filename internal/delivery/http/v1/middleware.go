package v1

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	userIDCtxKey     = "user_id"
	adminTokenHeader = "X-Admin-Token"
)

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	userID, err := h.auth.ExtractIdentity(c.Request.Header)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("path", c.FullPath()).
			Msg("unauthenticated request")
		abort(c, newUnauthorizedError(errUnauthorized.Error()))
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Next()
}

func (h *handlerImpl) HandleAdminMiddleware(c *gin.Context) {
	token := c.GetHeader(adminTokenHeader)
	if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		h.logger.Warn().
			Str("client_ip", c.ClientIP()).
			Msg("rejected admin request")
		abort(c, newForbiddenError(errForbidden.Error()))
		return
	}
	c.Next()
}

// HandleLoggerMiddleware writes one access log line per request.
func (h *handlerImpl) HandleLoggerMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	event := h.logger.Info()
	switch {
	case status >= 500:
		event = h.logger.Error()
	case status >= 400:
		event = h.logger.Warn()
	}

	event.
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("handled request")
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// mustGetUserID returns the caller id set by the auth middleware or aborts
// with 401 when it is missing.
func (h *handlerImpl) mustGetUserID(c *gin.Context) (string, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newUnauthorizedError(errUnauthorized.Error()))
		return "", false
	}
	return userID, true
}
