// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read queries over order history.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// OrderFilter narrows an order lookup for one user. Status matches
// case-insensitively as a substring; From and To are inclusive.
type OrderFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// FindOrders returns a user's orders, newest first.
func FindOrders(ctx context.Context, db *gorm.DB, userID int64, f OrderFilter) ([]domain.Order, error) {
	q := db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	q = whereContains(q, "status", f.Status)
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	out := []domain.Order{}
	err := q.Order("created_at DESC, order_id DESC").Find(&out).Error
	return out, err
}
