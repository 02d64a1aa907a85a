// Chat HTTP handlers.
//
// This file exposes the conversational endpoint:
//   - POST /chat   (run one chat turn)
//
// A request carrying an Idempotency-Key is answered from the stored response
// when the same caller already completed a turn with that key, and the
// response carries Idempotency-Replayed: true. Reusing a key with a different
// request body is rejected with 422.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/http/middleware"
	"github.com/tbourn/go-commerce-chat/internal/repo"
	"github.com/tbourn/go-commerce-chat/internal/services"
)

// HeaderIdempotencyReplayed marks a response served from a stored turn.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// Service contracts (context-aware)
//

// ChatService runs a single conversational turn.
type ChatService interface {
	HandleTurn(ctx context.Context, req services.TurnRequest) (*services.TurnResult, error)
}

// ConversationService reads conversation history.
type ConversationService interface {
	ListConversations(ctx context.Context, userID string, limit int) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// StatsSource reports count and latest-change time for the ETag endpoints.
type StatsSource interface {
	ConversationsStats(ctx context.Context, userID string) (int64, *time.Time, error)
	MessagesStats(ctx context.Context, conversationID string) (int64, *time.Time, error)
}

// IdempotencyStore persists completed turn responses. Get returns
// repo.ErrNotFound on a miss and Save returns repo.ErrDuplicate when the key
// was already recorded.
type IdempotencyStore interface {
	Get(ctx context.Context, callerID, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, rec repo.IdempotencyRecord, ttl time.Duration) error
}

//
// Handler wiring
//

// Deps are the collaborators and settings for Handlers. Stats and
// Idempotency are optional; without them ETags and replays are disabled.
type Deps struct {
	Chat          ChatService
	Conversations ConversationService
	Stats         StatsSource
	Idempotency   IdempotencyStore

	// IdempotencyTTL bounds how long a stored response is replayed.
	IdempotencyTTL time.Duration
	// Development exposes server error details in responses.
	Development bool
	// Started is reported by the health endpoint as the uptime origin.
	Started time.Time
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	Deps
	now func() time.Time
}

// New constructs Handlers. A zero Started defaults to now.
func New(d Deps) *Handlers {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	return &Handlers{Deps: d, now: time.Now}
}

//
// DTOs
//

// ChatRequest is the JSON payload for POST /chat.
type ChatRequest struct {
	// Message is the user's text. It must be non-blank.
	Message string `json:"message" example:"Show me Levi's jeans under $60"`
	// ConversationID continues an existing conversation; omit to start one.
	ConversationID string `json:"conversation_id,omitempty" example:"5b0d6c1e-3f1a-4c55-9d0e-2b7f0c9a1e42"`
	// UserID owns new conversations; defaults to "anonymous".
	UserID string `json:"user_id,omitempty" example:"user123"`
}

// ChatResponse documents the POST /chat success body.
type ChatResponse = services.TurnResult

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a chat message
// @Description Runs one turn: stores the message, classifies it, retrieves catalogue or order context, and returns the generated reply.
// @Description Supports idempotent retries via the Idempotency-Key header (same caller and key → same response).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Caller identity scoping idempotency keys"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"           example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Chat message"
//
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored response"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "Idempotency key reused with a different request"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	caller := middleware.CallerID(c)
	key, hasKey := middleware.GetIdempotencyKey(c)
	hash := requestHash(req)
	if hasKey && h.Idempotency != nil {
		if replay, checked := middleware.ReplayState(c); replay || !checked {
			if h.replay(c, caller, key, hash) {
				return
			}
		}
	}

	res, err := h.Chat.HandleTurn(ctx, services.TurnRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
	})
	if err != nil {
		h.failTurn(c, err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeChatFailed, "internal server error", err)
		return
	}

	if hasKey && h.Idempotency != nil {
		rec := repo.IdempotencyRecord{
			UserID:         caller,
			Key:            key,
			ConversationID: res.ConversationID,
			MessageID:      res.MessageID,
			RequestHash:    hash,
			Status:         http.StatusOK,
			Body:           string(body),
		}
		if err := h.Idempotency.Save(ctx, rec, h.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotent response")
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// replay answers the request from the stored response for (caller, key) and
// reports whether it wrote anything. A stored response for a different
// request body is refused with 422. Lookup failures fall through to normal
// processing.
func (h *Handlers) replay(c *gin.Context, caller, key, hash string) bool {
	rec, err := h.Idempotency.Get(c.Request.Context(), caller, key, h.now().UTC())
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup")
		}
		return false
	}
	if rec.RequestHash != "" && rec.RequestHash != hash {
		fail(c, http.StatusUnprocessableEntity, ErrCodeIdempotencyMismatch, "Idempotency-Key was already used for a different request")
		return true
	}
	c.Header(HeaderIdempotencyReplayed, "true")
	c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Body))
	return true
}

func (h *Handlers) failTurn(c *gin.Context, err error) {
	if services.IsClientError(err) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	msg := "internal server error"
	if h.Development {
		msg = err.Error()
	}
	fail(c, http.StatusInternalServerError, ErrCodeChatFailed, msg, err)
}

// requestHash fingerprints the fields that determine a turn.
func requestHash(req ChatRequest) string {
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
