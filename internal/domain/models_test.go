package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_models_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Conversation{}).TableName(): "conversations",
		(Message{}).TableName():      "messages",
		(Product{}).TableName():      "products",
		(Order{}).TableName():        "orders",
		(Idempotency{}).TableName():  "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Conversation{}, &Message{}, &Product{}, &Order{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	checks := []struct {
		model any
		index string
	}{
		{&Conversation{}, "ux_conversation_public_id"},
		{&Conversation{}, "idx_user_conversations"},
		{&Message{}, "idx_conversation_msgs"},
		{&Order{}, "idx_orders_created"},
		{&Idempotency{}, "ux_user_key"},
	}
	for _, c := range checks {
		if !m.HasIndex(c.model, c.index) {
			t.Fatalf("expected index %s on %T", c.index, c.model)
		}
	}
}

func TestMessage_SenderConstraint_AndMetadataRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()

	bad := &Message{ID: "m0", ConversationID: "c1", Sender: "assistant", Content: "x", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint to reject sender %q", bad.Sender)
	}

	ok := &Message{
		ID:             "m1",
		ConversationID: "c1",
		Sender:         SenderAI,
		Content:        "hello",
		CreatedAt:      now,
		Metadata: datatypes.NewJSONType(MessageMetadata{
			QueryType:         IntentProductSearch,
			EntitiesExtracted: []string{"category"},
			ResponseTime:      42,
		}),
	}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Message
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	md := got.Metadata.Data()
	if md.QueryType != IntentProductSearch || md.ResponseTime != 42 || len(md.EntitiesExtracted) != 1 {
		t.Fatalf("metadata mismatch: %+v", md)
	}
}
