// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read queries over the product catalogue.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// ProductFilter narrows a catalogue lookup. Empty strings and nil bounds are
// ignored; text fields match case-insensitively as substrings.
type ProductFilter struct {
	Category   string
	Brand      string
	Department string
	Name       string
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
}

// FindProducts returns matching products sorted by retail price ascending,
// ties broken by id. It returns an empty slice when nothing matches.
func FindProducts(ctx context.Context, db *gorm.DB, f ProductFilter) ([]domain.Product, error) {
	q := db.WithContext(ctx).Model(&domain.Product{})
	q = whereContains(q, "category", f.Category)
	q = whereContains(q, "brand", f.Brand)
	q = whereContains(q, "department", f.Department)
	q = whereContains(q, "name", f.Name)
	if f.MinPrice != nil {
		q = q.Where("retail_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("retail_price <= ?", *f.MaxPrice)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	out := []domain.Product{}
	err := q.Order("retail_price ASC, id ASC").Find(&out).Error
	return out, err
}

// whereContains adds a case-insensitive substring predicate on col. LIKE
// wildcards in the value are escaped so user text matches literally.
func whereContains(q *gorm.DB, col, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return q
	}
	return q.Where("LOWER("+col+`) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(value))+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
