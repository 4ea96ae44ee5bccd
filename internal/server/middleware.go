package server

import (
	"net/http"
	"time"

	"paper-trading-go/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionCookie is the only thing the browser holds; it maps to a user id
// through the server-side session store.
const sessionCookie = "session_token"

// userIDKey is the gin context key the auth middleware sets. The
// authenticated identity is always request-scoped, never ambient.
const userIDKey = "user_id"

// NoCache disables response caching everywhere; every page reflects live
// balances and prices.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

// AccessLog logs one structured line per request.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// RequireSession resolves the session cookie to a user id and stores it on
// the context. Without a valid session the request is redirected to the
// login page before any data access happens.
func RequireSession(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		userID, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID reads the identity set by RequireSession.
func currentUserID(c *gin.Context) uint {
	return c.MustGet(userIDKey).(uint)
}
