// Package services – ConversationService
//
// ConversationService owns the conversation and message lifecycle: lookup
// or creation of a conversation, append-only message history, and the
// one-time title transition after the first exchange.
//
// Storage goes through the ConversationRepo contract so the service can be
// exercised against a fake; the HTTP layer wires the repo package in.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnonymousUserID owns conversations started without a caller identifier.
const AnonymousUserID = "anonymous"

// Conversation store limits.
const (
	TitleMaxRunes        = 50
	MaxConversationsList = 50
)

// ConversationRepo defines the persistence contract required by
// ConversationService.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, db *gorm.DB, conversationID string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Conversation, error)
	SetTitleOnce(ctx context.Context, db *gorm.DB, conversationID, title string, at time.Time) (bool, error)

	CreateMessage(ctx context.Context, db *gorm.DB, conversationID, sender, content string, md domain.MessageMetadata) (*domain.Message, error)
	ListMessages(ctx context.Context, db *gorm.DB, conversationID string, limit int) ([]domain.Message, error)
	CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error)
}

// ConversationService manages conversations and their messages.
type ConversationService struct {
	DB   *gorm.DB
	Repo ConversationRepo

	// Now is the clock used for title transitions; time.Now when nil.
	Now func() time.Time
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{DB: db, Repo: r}
}

// ResolveOrCreate returns the conversation identified by conversationID, or
// persists a new one for userID when the id is empty or unknown. created
// reports which of the two happened. An unknown id is logged and dropped:
// the caller starts fresh rather than failing the turn.
func (s *ConversationService) ResolveOrCreate(ctx context.Context, userID, conversationID string) (conv *domain.Conversation, created bool, err error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ResolveOrCreate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", conversationID),
		),
	)
	defer span.End()

	userID = normalizeUserID(userID)
	conversationID = strings.TrimSpace(conversationID)

	if conversationID != "" {
		c, err := s.Repo.GetConversation(ctx, s.DB, conversationID)
		switch {
		case err == nil:
			return c, false, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			zerolog.Ctx(ctx).Warn().
				Str("conversation_id", conversationID).
				Str("user_id", userID).
				Msg("unknown conversation id, starting a new conversation")
		default:
			return nil, false, err
		}
	}

	c, err := s.Repo.CreateConversation(ctx, s.DB, userID)
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.String("conversation.created_id", c.ConversationID))
	return c, true, nil
}

// AppendMessage stores a message in a conversation. sender must be
// domain.SenderUser or domain.SenderAI.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID, sender, content string, md *domain.MessageMetadata) (*domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "AppendMessage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("message.sender", sender),
		),
	)
	defer span.End()

	if sender != domain.SenderUser && sender != domain.SenderAI {
		return nil, fmt.Errorf("%w: sender %q", ErrInvalidArgument, sender)
	}
	var meta domain.MessageMetadata
	if md != nil {
		meta = *md
	}
	return s.Repo.CreateMessage(ctx, s.DB, conversationID, sender, content, meta)
}

// CountMessages returns the number of stored messages in a conversation.
func (s *ConversationService) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	return s.Repo.CountMessages(ctx, s.DB, conversationID)
}

// ListMessages returns the full history of a conversation, oldest first.
// An unknown conversation has an empty history.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	return s.Repo.ListMessages(ctx, s.DB, conversationID, 0)
}

// ListConversations returns a user's conversations, most recently updated
// first. limit is clamped to MaxConversationsList; non-positive means the
// maximum.
func (s *ConversationService) ListConversations(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListConversations",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 || limit > MaxConversationsList {
		limit = MaxConversationsList
	}
	return s.Repo.ListConversations(ctx, s.DB, normalizeUserID(userID), limit)
}

// UpdateTitleIfFirstExchange derives the title from the first user message
// and marks the conversation titled. The write is conditional on the stored
// flag, so only the first call for a conversation changes anything; it
// reports whether this call did. conv is updated in place on success.
func (s *ConversationService) UpdateTitleIfFirstExchange(ctx context.Context, conv *domain.Conversation, userMessage string) (bool, error) {
	if conv == nil || conv.Titled {
		return false, nil
	}
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "UpdateTitleIfFirstExchange",
		trace.WithAttributes(attribute.String("conversation.id", conv.ConversationID)),
	)
	defer span.End()

	title := DeriveTitle(userMessage)
	at := s.now().UTC()
	ok, err := s.Repo.SetTitleOnce(ctx, s.DB, conv.ConversationID, title, at)
	if err != nil || !ok {
		return false, err
	}
	conv.Title = title
	conv.Titled = true
	conv.UpdatedAt = at
	return true, nil
}

// DeriveTitle returns the first TitleMaxRunes runes of msg, with "..."
// appended when msg was longer.
func DeriveTitle(msg string) string {
	if utf8.RuneCountInString(msg) <= TitleMaxRunes {
		return msg
	}
	return string([]rune(msg)[:TitleMaxRunes]) + "..."
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeUserID(userID string) string {
	if v := strings.TrimSpace(userID); v != "" {
		return v
	}
	return AnonymousUserID
}
