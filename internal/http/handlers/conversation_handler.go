// Conversation HTTP handlers.
//
// This file exposes read endpoints over stored conversations:
//   - GET /chat/conversations/{user_id}        (newest first, at most 50)
//   - GET /chat/history/{conversation_id}      (oldest first)
//
// Both set a weak ETag derived from row count and latest timestamp and answer
// 304 to a matching If-None-Match. The conversation list also folds the
// effective limit into its tag, since the body depends on it.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/services"
	"github.com/tbourn/go-commerce-chat/internal/utils"
)

//
// DTOs
//

// ListConversationsResponse wraps a user's conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

// HistoryMessage is one message as returned by the history endpoint.
type HistoryMessage struct {
	Sender    string                 `json:"sender" example:"ai"`
	Content   string                 `json:"content" example:"Here are some jeans under $60..."`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  domain.MessageMetadata `json:"metadata"`
}

// HistoryResponse wraps a conversation's messages.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

//
// Helpers
//

type statsFunc func(ctx context.Context, id string) (int64, *time.Time, error)

// checkETag sets a weak ETag for (scope, id, variant) and reports whether the
// request was answered with 304. variant distinguishes representations of the
// same rows and may be empty. Stats failures skip conditional handling.
func checkETag(c *gin.Context, scope, id, variant string, stats statsFunc) bool {
	count, latest, err := stats(c.Request.Context(), id)
	if err != nil {
		return false
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	key := id
	if variant != "" {
		key += ":" + variant
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, scope, key, count, ts)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// etagMatches handles the list form of If-None-Match and "*".
func etagMatches(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || part == etag {
			return true
		}
	}
	return false
}

//
// Handlers
//

// ListConversations godoc
// @ID          listConversations
// @Summary     List a user's conversations
// @Description Returns the user's conversations, most recently updated first, capped at 50. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
//
// @Param       user_id        path    string  true  "Owner id ('anonymous' for unnamed callers)"  example(user123)
// @Param       limit          query   int     false "Maximum items"                                minimum(1) maximum(50) default(50)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListConversationsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/conversations/{user_id} [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	limit := utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), services.MaxConversationsList), services.MaxConversationsList)

	if h.Stats != nil && checkETag(c, "conversations", userID, strconv.Itoa(limit), h.Stats.ConversationsStats) {
		return
	}

	items, err := h.Conversations.ListConversations(c.Request.Context(), userID, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error", err)
		return
	}
	if items == nil {
		items = []domain.Conversation{}
	}
	ok(c, http.StatusOK, ListConversationsResponse{Conversations: items})
}

// GetHistory godoc
// @ID          getHistory
// @Summary     Conversation history
// @Description Returns every message of a conversation, oldest first. Unknown ids yield an empty list. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
//
// @Param       conversation_id  path    string  true  "Conversation id"  format(uuid)
// @Param       If-None-Match    header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/history/{conversation_id} [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("conversation_id"))

	if h.Stats != nil && checkETag(c, "messages", id, "", h.Stats.MessagesStats) {
		return
	}

	msgs, err := h.Conversations.ListMessages(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeHistoryFailed, "internal server error", err)
		return
	}
	out := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HistoryMessage{
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
			Metadata:  m.Metadata.Data(),
		})
	}
	ok(c, http.StatusOK, HistoryResponse{Messages: out})
}
