package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set(HeaderUserID, header)
		}
		return c
	}

	if got := CallerID(newCtx("")); got != AnonymousCaller {
		t.Fatalf("no identity: got %q", got)
	}
	if got := CallerID(newCtx("  u1  ")); got != "u1" {
		t.Fatalf("header identity: got %q", got)
	}

	c := newCtx("from-header")
	c.Set(ctxKeyUserID, "from-ctx")
	if got := CallerID(c); got != "from-ctx" {
		t.Fatalf("context identity should win: got %q", got)
	}

	c = newCtx("from-header")
	c.Set(ctxKeyUserID, 42)
	if got := CallerID(c); got != "from-header" {
		t.Fatalf("wrong-typed context value should be ignored: got %q", got)
	}

	bare, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CallerID(bare); got != AnonymousCaller {
		t.Fatalf("nil request: got %q", got)
	}
}
