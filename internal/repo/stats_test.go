package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

func TestConversationsStats_CountError_NoTable(t *testing.T) {
	if _, _, err := ConversationsStats(context.Background(), newRepoDB(t), "u1"); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestConversationsStats_ZeroAndMax(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	ctx := context.Background()

	n, at, err := ConversationsStats(ctx, db, "u1")
	if err != nil || n != 0 || at != nil {
		t.Fatalf("zero rows: n=%d at=%v err=%v", n, at, err)
	}

	t1 := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	t2 := t1.Add(30 * time.Minute)
	_ = db.Create(&domain.Conversation{ID: "a", ConversationID: "pa", UserID: "u1", Title: "a", CreatedAt: t1, UpdatedAt: t1}).Error
	_ = db.Create(&domain.Conversation{ID: "b", ConversationID: "pb", UserID: "u1", Title: "b", CreatedAt: t1, UpdatedAt: t2}).Error
	_ = db.Create(&domain.Conversation{ID: "c", ConversationID: "pc", UserID: "u2", Title: "c", CreatedAt: t1, UpdatedAt: t2.Add(time.Hour)}).Error

	n, at, err = ConversationsStats(ctx, db, "u1")
	if err != nil || n != 2 {
		t.Fatalf("ConversationsStats: n=%d err=%v", n, err)
	}
	if at == nil || !at.Equal(t2) {
		t.Fatalf("expected max %v, got %v", t2, at)
	}
}

func TestMessagesStats_ChangesOnAppend(t *testing.T) {
	db := newRepoDB(t, &domain.Message{})
	ctx := context.Background()

	n, at, err := MessagesStats(ctx, db, "c1")
	if err != nil || n != 0 || at != nil {
		t.Fatalf("zero rows: n=%d at=%v err=%v", n, at, err)
	}

	m1, _ := CreateMessage(ctx, db, "c1", domain.SenderUser, "a", domain.MessageMetadata{})
	n, at, _ = MessagesStats(ctx, db, "c1")
	if n != 1 || at == nil || !at.Equal(m1.CreatedAt) {
		t.Fatalf("after first append: n=%d at=%v", n, at)
	}
}

func TestMessagesStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newRepoDB(t, &domain.Message{})
	ctx := context.Background()
	if _, err := CreateMessage(ctx, db, "c1", domain.SenderUser, "a", domain.MessageMetadata{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Exec(`ALTER TABLE messages RENAME COLUMN created_at TO created_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}
	if _, _, err := MessagesStats(ctx, db, "c1"); err == nil {
		t.Fatalf("expected error from latest select after column rename")
	}
}
