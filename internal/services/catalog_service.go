// Package services – CatalogService
//
// CatalogService is the typed query layer over the read-only product and
// order tables. It applies the lookup defaults (price floor, result caps)
// and validates the order owner before any query reaches storage.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Default result caps.
const (
	DefaultProductLimit = 10
	DefaultOrderLimit   = 20
)

// ProductCriteria describes a product search. Text filters are optional
// case-insensitive substrings. A nil Min means 0; a nil or non-positive Max
// leaves the range open at the top.
type ProductCriteria struct {
	Category   string
	Brand      string
	Department string
	Name       string
	PriceRange *domain.PriceRange
	Limit      int
}

// OrderCriteria narrows an order lookup. From and To bound the creation
// time inclusively.
type OrderCriteria struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// CatalogService answers product and order queries.
type CatalogService struct {
	DB *gorm.DB
}

// FindProducts returns products matching c, cheapest first. Zero matches is
// an empty slice, not an error.
func (s *CatalogService) FindProducts(ctx context.Context, c ProductCriteria) ([]domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "FindProducts",
		trace.WithAttributes(
			attribute.String("product.category", c.Category),
			attribute.String("product.brand", c.Brand),
		),
	)
	defer span.End()

	limit := c.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	lo := 0.0
	var hi *float64
	if c.PriceRange != nil {
		if c.PriceRange.Min != nil {
			lo = *c.PriceRange.Min
		}
		if c.PriceRange.Max != nil && *c.PriceRange.Max > 0 {
			v := *c.PriceRange.Max
			hi = &v
		}
	}

	return repo.FindProducts(ctx, s.DB, repo.ProductFilter{
		Category:   c.Category,
		Brand:      c.Brand,
		Department: c.Department,
		Name:       c.Name,
		MinPrice:   &lo,
		MaxPrice:   hi,
		Limit:      limit,
	})
}

// FindOrders returns a user's orders, newest first. userID must be a
// non-negative base-10 integer; anything else fails with ErrInvalidArgument
// without touching storage.
func (s *CatalogService) FindOrders(ctx context.Context, userID string, c OrderCriteria) ([]domain.Order, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "FindOrders",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	uid, err := ParseOrderUserID(userID)
	if err != nil {
		return nil, err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	return repo.FindOrders(ctx, s.DB, uid, repo.OrderFilter{
		Status: c.Status,
		From:   c.From,
		To:     c.To,
		Limit:  limit,
	})
}

// ParseOrderUserID converts an order owner identifier to its numeric form.
// Only plain decimal digits are accepted; a sign prefix is rejected.
func ParseOrderUserID(userID string) (int64, error) {
	v := strings.TrimSpace(userID)
	if v == "" || strings.TrimLeft(v, "0123456789") != "" {
		return 0, fmt.Errorf("%w: user_id %q is not a non-negative integer", ErrInvalidArgument, userID)
	}
	uid, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user_id %q is out of range", ErrInvalidArgument, userID)
	}
	return uid, nil
}
