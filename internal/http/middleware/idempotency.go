// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header on unsafe requests and,
// given a lookup, flags requests that will be answered from a stored
// response. Handlers read the key with GetIdempotencyKey and serve the
// replay themselves; the rate limiter lets flagged requests through.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayState reports what IdempotencyValidator learned about this request's
// key. checked is false when no lookup ran or the lookup failed; handlers
// must then look the key up themselves. Otherwise replay tells whether a
// stored response exists.
func ReplayState(c *gin.Context) (replay, checked bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether an unexpired response is stored for
// (callerID, key). Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, callerID, key string, now time.Time) (bool, error)

// IdempotencyValidator checks the Idempotency-Key header on POST, PUT and
// PATCH requests. A missing header is a no-op and a malformed one is
// rejected with 400 bad_idempotency_key. Safe methods are never inspected.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			hit, err := lookup(c.Request.Context(), CallerID(c), key, time.Now().UTC())
			if err == nil {
				c.Set(ctxKeyIdemReplay, hit)
				c.Set(ctxKeyRateBypass, hit)
			}
		}
		c.Next()
	}
}
