// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction or on a connection-scoped handle. They hold no
// business rules: the conversation service decides when a conversation is
// created or titled.
//
// Conversations are addressed by their public ConversationID. The storage
// key (ID) is generated here and never accepted from callers.
//
// Error semantics:
//   - A missing conversation yields gorm.ErrRecordNotFound (ErrNotFound).
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new conversation owned by userID with the
// default title. Both the storage key and the public id are fresh UUIDs.
func CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:             uuid.NewString(),
		ConversationID: uuid.NewString(),
		UserID:         userID,
		Title:          domain.DefaultConversationTitle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation by its public id, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, conversationID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns a user's conversations, most recently updated
// first. A non-positive limit returns every row.
func ListConversations(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// SetTitleOnce writes the derived title if, and only if, the conversation
// has not been titled yet. It reports whether this call performed the
// transition; a second call, or a concurrent loser, gets false.
func SetTitleOnce(ctx context.Context, db *gorm.DB, conversationID, title string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("conversation_id = ? AND titled = ?", conversationID, false).
		Updates(map[string]any{
			"title":      title,
			"titled":     true,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
