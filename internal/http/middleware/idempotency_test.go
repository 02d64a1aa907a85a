package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestGetIdempotencyKey_ReplayState_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if replay, checked := ReplayState(c); replay || checked {
		t.Fatalf("expected unchecked state by default, got replay=%v checked=%v", replay, checked)
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if replay, checked := ReplayState(c); replay || checked {
		t.Fatalf("non-bool replay flag must read as unchecked")
	}
}

func TestIdempotencyValidator_NoHeader_NoLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	called := false
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, time.Time) (bool, error) {
		called = true
		return false, nil
	}))
	r.POST("/chat", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Errorf("key should not be present when header missing")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if called {
		t.Fatalf("lookup should not be called when header missing")
	}
}

func TestIdempotencyValidator_SafeMethodsIgnored(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 1}, nil))
	r.GET("/history", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Errorf("GET must not stash a key")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set(HeaderIdempotencyKey, "way-too-long-but-ignored")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), IdempotencyValidator(tc.opts, nil))
			r.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] == "" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_LookupScopesByCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type call struct{ caller, key string }
	cases := []struct {
		name       string
		header     string
		result     bool
		err        error
		wantCaller  string
		wantReplay  bool
		wantChecked bool
	}{
		{"anonymous miss", "", false, nil, AnonymousCaller, false, true},
		{"header hit", "u9", true, nil, "u9", true, true},
		{"lookup error is unchecked", "u9", true, errors.New("db down"), "u9", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got call
			r := gin.New()
			r.Use(IdempotencyValidator(IdempotencyOptions{}, func(_ context.Context, caller, key string, now time.Time) (bool, error) {
				if now.IsZero() {
					t.Errorf("now not populated")
				}
				got = call{caller, key}
				return tc.result, tc.err
			}))
			r.POST("/chat", func(c *gin.Context) {
				replay, checked := ReplayState(c)
				if replay != tc.wantReplay || checked != tc.wantChecked || IsRateBypass(c) != tc.wantReplay {
					t.Errorf("replay=%v checked=%v bypass=%v, want %v/%v", replay, checked, IsRateBypass(c), tc.wantReplay, tc.wantChecked)
				}
				if k, _ := GetIdempotencyKey(c); k != "k-9" {
					t.Errorf("key = %q", k)
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			req.Header.Set(HeaderIdempotencyKey, "k-9")
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if got != (call{tc.wantCaller, "k-9"}) {
				t.Fatalf("lookup args = %+v", got)
			}
		})
	}
}
