package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/llm"
	"github.com/tbourn/go-commerce-chat/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// dbRepo forwards ConversationRepo calls to the repo package.
type dbRepo struct{}

func (dbRepo) CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID)
}
func (dbRepo) GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id)
}
func (dbRepo) ListConversations(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID, limit)
}
func (dbRepo) SetTitleOnce(ctx context.Context, db *gorm.DB, id, title string, at time.Time) (bool, error) {
	return repo.SetTitleOnce(ctx, db, id, title, at)
}
func (dbRepo) CreateMessage(ctx context.Context, db *gorm.DB, id, sender, content string, md domain.MessageMetadata) (*domain.Message, error) {
	return repo.CreateMessage(ctx, db, id, sender, content, md)
}
func (dbRepo) ListMessages(ctx context.Context, db *gorm.DB, id string, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, db, id, limit)
}
func (dbRepo) CountMessages(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	return repo.CountMessages(ctx, db, id)
}

// fakeCompleter answers intent calls (system + user message) and reply
// calls (single system prompt) from separate scripts.
type fakeCompleter struct {
	mu    sync.Mutex
	calls []llm.Request

	intent    string
	intentErr error
	reply     string
	replyErr  error
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if len(req.Messages) == 2 {
		return f.intent, f.intentErr
	}
	return f.reply, f.replyErr
}

func (f *fakeCompleter) requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

// countQueries registers a callback counting SELECTs issued through db.
func countQueries(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	n := new(int)
	if err := db.Callback().Query().Before("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		*n++
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}
	return n
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	products := []domain.Product{
		{ID: 1, Category: "Jeans", Name: "Slim Jean", Brand: "Levi's", RetailPrice: 59.5, Department: "Men"},
		{ID: 2, Category: "Jeans", Name: "Cheap Jean", Brand: "Gap", RetailPrice: 15, Department: "Women"},
		{ID: 3, Category: "Skinny Jeans", Name: "Skinny", Brand: "Gap", RetailPrice: 20, Department: "Women"},
		{ID: 4, Category: "Jeans", Name: "Premium Jean", Brand: "Diesel", RetailPrice: 100, Department: "Men"},
		{ID: 5, Category: "Jeans", Name: "Luxury Jean", Brand: "Diesel", RetailPrice: 250, Department: "Men"},
		{ID: 6, Category: "Tops", Name: "Tee", Brand: "Hanes", RetailPrice: 9, Department: "Men"},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("seed products: %v", err)
	}
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{OrderID: 100, UserID: 42, Status: "Shipped", NumOfItem: 2, CreatedAt: base},
		{OrderID: 101, UserID: 42, Status: "Complete", NumOfItem: 1, CreatedAt: base.Add(48 * time.Hour)},
		{OrderID: 200, UserID: 7, Status: "Processing", NumOfItem: 3, CreatedAt: base},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("seed orders: %v", err)
	}
}
