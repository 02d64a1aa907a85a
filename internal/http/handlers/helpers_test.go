package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/http/middleware"
	"github.com/tbourn/go-commerce-chat/internal/repo"
	"github.com/tbourn/go-commerce-chat/internal/services"
)

// ---------- fakes ----------

type fakeChat struct {
	mu    sync.Mutex
	calls []services.TurnRequest
	res   *services.TurnResult
	err   error
}

func (f *fakeChat) HandleTurn(_ context.Context, req services.TurnRequest) (*services.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeChat) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeConversations struct {
	convs     []domain.Conversation
	msgs      []domain.Message
	err       error
	gotUser   string
	gotLimit  int
	gotConvID string
}

func (f *fakeConversations) ListConversations(_ context.Context, userID string, limit int) ([]domain.Conversation, error) {
	f.gotUser, f.gotLimit = userID, limit
	return f.convs, f.err
}

func (f *fakeConversations) ListMessages(_ context.Context, id string) ([]domain.Message, error) {
	f.gotConvID = id
	return f.msgs, f.err
}

type fakeStats struct {
	count  int64
	latest *time.Time
	err    error
}

func (f fakeStats) ConversationsStats(context.Context, string) (int64, *time.Time, error) {
	return f.count, f.latest, f.err
}

func (f fakeStats) MessagesStats(context.Context, string) (int64, *time.Time, error) {
	return f.count, f.latest, f.err
}

// memIdempotency is an in-memory IdempotencyStore keyed by caller and key.
type memIdempotency struct {
	mu      sync.Mutex
	rows    map[[2]string]domain.Idempotency
	saveErr error
	saves   int
	gets    int
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{rows: map[[2]string]domain.Idempotency{}}
}

func (m *memIdempotency) Get(_ context.Context, caller, key string, now time.Time) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	rec, ok := m.rows[[2]string{caller, key}]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, repo.ErrNotFound
	}
	return &rec, nil
}

func (m *memIdempotency) Save(_ context.Context, r repo.IdempotencyRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	k := [2]string{r.UserID, r.Key}
	if _, ok := m.rows[k]; ok {
		return repo.ErrDuplicate
	}
	m.rows[k] = domain.Idempotency{
		UserID: r.UserID, Key: r.Key, ConversationID: r.ConversationID,
		MessageID: r.MessageID, RequestHash: r.RequestHash, Status: r.Status, Body: r.Body,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

// ---------- router + request helpers ----------

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/health", h.Health)
	r.POST("/api/chat", h.PostChat)
	r.GET("/api/chat/conversations/:user_id", h.ListConversations)
	r.GET("/api/chat/history/:conversation_id", h.GetHistory)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}
