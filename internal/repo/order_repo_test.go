package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

func newOrderDB(t *testing.T) (*gorm.DB, time.Time) {
	t.Helper()
	db := newRepoDB(t, &domain.Order{})
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []domain.Order{
		{OrderID: 10, UserID: 42, Status: "Shipped", Gender: "F", NumOfItem: 1, CreatedAt: base},
		{OrderID: 11, UserID: 42, Status: "Complete", Gender: "F", NumOfItem: 2, CreatedAt: base.Add(24 * time.Hour)},
		{OrderID: 12, UserID: 42, Status: "Cancelled", Gender: "F", NumOfItem: 3, CreatedAt: base.Add(48 * time.Hour)},
		{OrderID: 13, UserID: 7, Status: "Shipped", Gender: "M", NumOfItem: 1, CreatedAt: base},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed orders: %v", err)
	}
	return db, base
}

func orderIDs(os []domain.Order) []int64 {
	out := make([]int64, len(os))
	for i, o := range os {
		out[i] = o.OrderID
	}
	return out
}

func TestFindOrders_UserScopedNewestFirst(t *testing.T) {
	db, _ := newOrderDB(t)
	got, err := FindOrders(context.Background(), db, 42, OrderFilter{})
	if err != nil {
		t.Fatalf("FindOrders: %v", err)
	}
	if want := []int64{12, 11, 10}; !equalIDs(orderIDs(got), want) {
		t.Fatalf("got %v; want %v", orderIDs(got), want)
	}
}

func TestFindOrders_StatusAndDateRange(t *testing.T) {
	db, base := newOrderDB(t)
	ctx := context.Background()

	got, _ := FindOrders(ctx, db, 42, OrderFilter{Status: "SHIP"})
	if want := []int64{10}; !equalIDs(orderIDs(got), want) {
		t.Fatalf("status filter: got %v; want %v", orderIDs(got), want)
	}

	from, to := base, base.Add(24*time.Hour)
	got, _ = FindOrders(ctx, db, 42, OrderFilter{From: &from, To: &to})
	if want := []int64{11, 10}; !equalIDs(orderIDs(got), want) {
		t.Fatalf("date range: got %v; want %v", orderIDs(got), want)
	}
}

func TestFindOrders_LimitAndUnknownUser(t *testing.T) {
	db, _ := newOrderDB(t)
	ctx := context.Background()
	if got, _ := FindOrders(ctx, db, 42, OrderFilter{Limit: 1}); len(got) != 1 || got[0].OrderID != 12 {
		t.Fatalf("limit: got %v", orderIDs(got))
	}
	got, err := FindOrders(ctx, db, 999, OrderFilter{})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v err=%v", got, err)
	}
}
