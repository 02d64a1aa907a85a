// Package ingest parses the catalogue CSV exports (products.csv and
// orders.csv) and reloads them into storage.
//
// Columns are matched by header name, so extra or reordered columns are
// fine. Rows whose required fields do not parse are skipped and counted
// rather than failing the whole file.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/repo"
)

// File names expected in the data directory.
const (
	ProductsFile = "products.csv"
	OrdersFile   = "orders.csv"
)

// DefaultBatchSize is the insert batch used by LoadDir when none is given.
const DefaultBatchSize = 500

var (
	productColumns = []string{"id", "cost", "category", "name", "brand", "retail_price", "department", "sku", "distribution_center_id"}
	orderColumns   = []string{"order_id", "user_id", "status", "gender", "created_at", "returned_at", "shipped_at", "delivered_at", "num_of_item"}
)

// timeLayouts are tried in order for timestamp columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ErrMissingColumn reports a header without a required column.
var ErrMissingColumn = errors.New("ingest: missing column")

// header maps column names to their index.
type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	h := make(header, len(names))
	for i, n := range names {
		n = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(n, "\ufeff")))
		h[n] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return h, nil
}

func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ReadProducts parses products from r and reports how many rows were
// skipped.
func ReadProducts(r io.Reader) ([]domain.Product, int, error) {
	cr := newReader(r)
	h, err := readHeader(cr, productColumns)
	if err != nil {
		return nil, 0, err
	}

	var out []domain.Product
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("ingest: products: %w", err)
		}
		p, ok := parseProduct(h, rec)
		if !ok {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped, nil
}

func parseProduct(h header, rec []string) (domain.Product, bool) {
	id, err := strconv.ParseInt(h.get(rec, "id"), 10, 64)
	if err != nil {
		return domain.Product{}, false
	}
	price, err := strconv.ParseFloat(h.get(rec, "retail_price"), 64)
	if err != nil {
		return domain.Product{}, false
	}
	cost, _ := strconv.ParseFloat(h.get(rec, "cost"), 64)
	dc, _ := strconv.ParseInt(h.get(rec, "distribution_center_id"), 10, 64)
	return domain.Product{
		ID:                   id,
		Cost:                 cost,
		Category:             h.get(rec, "category"),
		Name:                 h.get(rec, "name"),
		Brand:                h.get(rec, "brand"),
		RetailPrice:          price,
		Department:           h.get(rec, "department"),
		SKU:                  h.get(rec, "sku"),
		DistributionCenterID: dc,
	}, true
}

// ReadOrders parses orders from r and reports how many rows were skipped.
// created_at is required; the other timestamps may be blank.
func ReadOrders(r io.Reader) ([]domain.Order, int, error) {
	cr := newReader(r)
	h, err := readHeader(cr, orderColumns)
	if err != nil {
		return nil, 0, err
	}

	var out []domain.Order
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("ingest: orders: %w", err)
		}
		o, ok := parseOrder(h, rec)
		if !ok {
			skipped++
			continue
		}
		out = append(out, o)
	}
	return out, skipped, nil
}

func parseOrder(h header, rec []string) (domain.Order, bool) {
	id, err := strconv.ParseInt(h.get(rec, "order_id"), 10, 64)
	if err != nil {
		return domain.Order{}, false
	}
	userID, err := strconv.ParseInt(h.get(rec, "user_id"), 10, 64)
	if err != nil {
		return domain.Order{}, false
	}
	created := ParseTime(h.get(rec, "created_at"))
	if created == nil {
		return domain.Order{}, false
	}
	items, _ := strconv.Atoi(h.get(rec, "num_of_item"))
	return domain.Order{
		OrderID:     id,
		UserID:      userID,
		Status:      h.get(rec, "status"),
		Gender:      h.get(rec, "gender"),
		NumOfItem:   items,
		CreatedAt:   *created,
		ShippedAt:   ParseTime(h.get(rec, "shipped_at")),
		DeliveredAt: ParseTime(h.get(rec, "delivered_at")),
		ReturnedAt:  ParseTime(h.get(rec, "returned_at")),
	}, true
}

// ParseTime parses an export timestamp into UTC. Blank or unrecognised
// values return nil.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Summary reports what LoadDir inserted and skipped.
type Summary struct {
	Products        int
	Orders          int
	SkippedProducts int
	SkippedOrders   int
}

// LoadDir reads both CSV files from dir and replaces the stored products and
// orders. Nothing is written unless both files parse.
func LoadDir(ctx context.Context, db *gorm.DB, dir string, batchSize int) (Summary, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	lg := zerolog.Ctx(ctx)
	var sum Summary

	orders, skipped, err := readFile(filepath.Join(dir, OrdersFile), ReadOrders)
	if err != nil {
		return sum, err
	}
	sum.Orders, sum.SkippedOrders = len(orders), skipped
	lg.Info().Int("rows", sum.Orders).Int("skipped", skipped).Msg("parsed orders")

	products, skipped, err := readFile(filepath.Join(dir, ProductsFile), ReadProducts)
	if err != nil {
		return sum, err
	}
	sum.Products, sum.SkippedProducts = len(products), skipped
	lg.Info().Int("rows", sum.Products).Int("skipped", skipped).Msg("parsed products")

	if err := repo.ReplaceOrders(ctx, db, orders, batchSize); err != nil {
		return sum, fmt.Errorf("ingest: replace orders: %w", err)
	}
	if err := repo.ReplaceProducts(ctx, db, products, batchSize); err != nil {
		return sum, fmt.Errorf("ingest: replace products: %w", err)
	}
	return sum, nil
}

func readFile[T any](path string, parse func(io.Reader) ([]T, int, error)) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()
	return parse(f)
}
