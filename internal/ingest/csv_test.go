package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/repo"
)

const productsCSV = "\ufeffid,cost,category,name,brand,retail_price,department,sku,distribution_center_id\n" +
	"1,20.5,Jeans,Levi's 501,Levi's,59.5,Men,L501,3\n" +
	"2,10,Tops,\"Tee, Crew Neck\",Hanes,12.99,Women,H1,1\n" +
	"x,1,Bad,Row,Brand,1,Men,S,1\n"

const ordersCSV = "order_id,user_id,status,gender,created_at,returned_at,shipped_at,delivered_at,num_of_item\n" +
	"100,7,Shipped,F,2023-01-06 15:02:00+00:00,,2023-01-07 10:00:00+00:00,,2\n" +
	"101,7,Complete,F,2022-12-01T08:00:00Z,,,2022-12-05 09:00:00 UTC,1\n" +
	"102,8,Processing,M,not-a-date,,,,1\n"

func newIngestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ingest_%s?mode=memory&cache=shared", uuid.NewString())
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

func TestReadProducts(t *testing.T) {
	rows, skipped, err := ReadProducts(strings.NewReader(productsCSV))
	if err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if len(rows) != 2 || skipped != 1 {
		t.Fatalf("rows=%d skipped=%d", len(rows), skipped)
	}
	want := domain.Product{ID: 1, Cost: 20.5, Category: "Jeans", Name: "Levi's 501", Brand: "Levi's", RetailPrice: 59.5, Department: "Men", SKU: "L501", DistributionCenterID: 3}
	if rows[0] != want {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Name != "Tee, Crew Neck" {
		t.Fatalf("quoted field = %q", rows[1].Name)
	}
}

func TestReadOrders(t *testing.T) {
	rows, skipped, err := ReadOrders(strings.NewReader(ordersCSV))
	if err != nil {
		t.Fatalf("ReadOrders: %v", err)
	}
	if len(rows) != 2 || skipped != 1 {
		t.Fatalf("rows=%d skipped=%d", len(rows), skipped)
	}
	o := rows[0]
	if o.OrderID != 100 || o.UserID != 7 || o.Status != "Shipped" || o.NumOfItem != 2 {
		t.Fatalf("order = %+v", o)
	}
	if !o.CreatedAt.Equal(time.Date(2023, 1, 6, 15, 2, 0, 0, time.UTC)) {
		t.Fatalf("created_at = %v", o.CreatedAt)
	}
	if o.ShippedAt == nil || o.DeliveredAt != nil || o.ReturnedAt != nil {
		t.Fatalf("lifecycle = %v %v %v", o.ShippedAt, o.DeliveredAt, o.ReturnedAt)
	}
	if rows[1].DeliveredAt == nil || rows[1].DeliveredAt.Day() != 5 {
		t.Fatalf("delivered_at = %v", rows[1].DeliveredAt)
	}
}

func TestRead_MissingColumn(t *testing.T) {
	_, _, err := ReadOrders(strings.NewReader("order_id,user_id\n1,2\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
	_, _, err = ReadProducts(strings.NewReader(""))
	if err == nil {
		t.Fatal("empty input should fail on header")
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2023-01-06 15:02:00+00:00", "2023-01-06T15:02:00Z"},
		{"2023-01-06 17:02:00+02:00", "2023-01-06T15:02:00Z"},
		{"2023-01-06 15:02:00.123456+00:00", "2023-01-06T15:02:00.123456Z"},
		{"2023-01-06T15:02:00Z", "2023-01-06T15:02:00Z"},
		{"2023-01-06 15:02:00", "2023-01-06T15:02:00Z"},
		{"2023-01-06", "2023-01-06T00:00:00Z"},
	}
	for _, tc := range cases {
		got := ParseTime(tc.in)
		if got == nil || got.Format(time.RFC3339Nano) != tc.want {
			t.Fatalf("ParseTime(%q) = %v, want %s", tc.in, got, tc.want)
		}
	}
	for _, in := range []string{"", "   ", "yesterday"} {
		if got := ParseTime(in); got != nil {
			t.Fatalf("ParseTime(%q) = %v, want nil", in, got)
		}
	}
}

func TestLoadDir_ReplacesCatalogue(t *testing.T) {
	db := newIngestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProductsFile), []byte(productsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, OrdersFile), []byte(ordersCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := db.Create(&domain.Product{ID: 99, Name: "stale", RetailPrice: 1}).Error; err != nil {
		t.Fatal(err)
	}

	sum, err := LoadDir(ctx, db, dir, 1)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if sum != (Summary{Products: 2, Orders: 2, SkippedProducts: 1, SkippedOrders: 1}) {
		t.Fatalf("summary = %+v", sum)
	}

	stats, err := repo.LoadCatalogStats(ctx, db)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Products != 2 || stats.Orders != 2 || stats.DistinctUsers != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	var stale int64
	db.Model(&domain.Product{}).Where("id = ?", 99).Count(&stale)
	if stale != 0 {
		t.Fatal("existing products were not cleared")
	}
}

func TestLoadDir_MissingFile_WritesNothing(t *testing.T) {
	db := newIngestDB(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, OrdersFile), []byte(ordersCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDir(context.Background(), db, dir, 0); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want not-exist error, got %v", err)
	}
	var n int64
	db.Model(&domain.Order{}).Count(&n)
	if n != 0 {
		t.Fatalf("orders written despite failure: %d", n)
	}
}
