// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for ETag
// generation in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// ConversationsStats returns the number of conversations a user owns and the
// greatest UpdatedAt among them. maxUpdatedAt is nil when there are none.
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Conversation{}).Where("user_id = ?", userID)
	return countAndLatest(q, "updated_at")
}

// MessagesStats returns the number of messages in a conversation and the
// newest CreatedAt. Messages are append-only, so the pair changes whenever
// the history does.
func MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID)
	return countAndLatest(q, "created_at")
}

func countAndLatest(q *gorm.DB, col string) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX(): SQLite hands the aggregate back as TEXT.
	var row struct {
		At time.Time
	}
	if err := q.Session(&gorm.Session{}).Select(col + " AS at").Order(col + " DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.At, nil
}
