package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"florist-storefront/internal/service/session"
)

const sessionHeader = "X-Session-ID"

type ctxKey string

const sessionCtxKey ctxKey = "session"

func createSessionHandler(sessions sessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessions.Issue()
		c.Header(sessionHeader, id)
		c.JSON(http.StatusCreated, gin.H{"sessionId": id})
	}
}

// sessionMiddleware resolves the X-Session-ID header into the visitor's
// session and stores it on the request context.
func sessionMiddleware(sessions sessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(sessionHeader))
		if id == "" {
			writeError(c, http.StatusUnauthorized, "missing "+sessionHeader+" header")
			c.Abort()
			return
		}

		s, err := sessions.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				writeError(c, http.StatusUnauthorized, "invalid session")
			} else {
				writeError(c, http.StatusInternalServerError, "failed to load session")
			}
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), sessionCtxKey, s)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	s, _ := c.Request.Context().Value(sessionCtxKey).(*session.Session)
	return s
}
