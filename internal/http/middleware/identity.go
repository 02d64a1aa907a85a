package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller identity. There is no authentication;
	// the header only scopes idempotency keys and rate limits.
	HeaderUserID = "X-User-ID"

	// AnonymousCaller is used when no identity is supplied.
	AnonymousCaller = "anonymous"

	ctxKeyUserID = "userID"
)

// CallerID returns the identity to scope per-caller state by: a value set
// under "userID" by upstream middleware, then the X-User-ID header, then
// AnonymousCaller.
func CallerID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
			return h
		}
	}
	return AnonymousCaller
}

// abortJSON writes the shared error envelope. It mirrors handlers.Fail so
// middleware rejections look the same as handler errors.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
