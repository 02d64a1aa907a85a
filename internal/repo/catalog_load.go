// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the bulk-write helpers used by the
// catalogue loader. The chat service never writes products or orders.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// ReplaceProducts deletes every product and inserts rows in batches of
// batchSize, all inside one transaction.
func ReplaceProducts(ctx context.Context, db *gorm.DB, rows []domain.Product, batchSize int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
}

// ReplaceOrders deletes every order and inserts rows in batches of
// batchSize, all inside one transaction.
func ReplaceOrders(ctx context.Context, db *gorm.DB, rows []domain.Order, batchSize int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
}

// StatusCount is one bucket of the order status distribution.
type StatusCount struct {
	Status string
	Count  int64
}

// CatalogStats summarises what a load produced.
type CatalogStats struct {
	Products      int64
	Orders        int64
	DistinctUsers int64
	ByStatus      []StatusCount
}

// LoadCatalogStats computes row counts, distinct order owners and the order
// status distribution (largest bucket first).
func LoadCatalogStats(ctx context.Context, db *gorm.DB) (CatalogStats, error) {
	var st CatalogStats
	db = db.WithContext(ctx)
	if err := db.Model(&domain.Product{}).Count(&st.Products).Error; err != nil {
		return st, err
	}
	if err := db.Model(&domain.Order{}).Count(&st.Orders).Error; err != nil {
		return st, err
	}
	if err := db.Model(&domain.Order{}).Distinct("user_id").Count(&st.DistinctUsers).Error; err != nil {
		return st, err
	}
	st.ByStatus = []StatusCount{}
	err := db.Model(&domain.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC, status ASC").
		Scan(&st.ByStatus).Error
	return st, err
}
