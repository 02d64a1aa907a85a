// Package services – ContextRetriever
//
// ContextRetriever maps an IntentResult to at most one catalogue query. The
// bundle it returns is built from the current turn only.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-commerce-chat/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ContextProductLimit caps the products injected into a reply prompt.
const ContextProductLimit = 5

// Catalog is the lookup surface the retriever needs.
type Catalog interface {
	FindProducts(ctx context.Context, c ProductCriteria) ([]domain.Product, error)
	FindOrders(ctx context.Context, userID string, c OrderCriteria) ([]domain.Order, error)
}

// ContextRetriever selects reference data for a turn.
type ContextRetriever struct {
	Catalog Catalog
}

// Retrieve returns the products or orders relevant to ir, or nil when the
// intent needs no data. A user id the model extracted that is not numeric
// is treated as absent. Storage failures are returned.
func (r *ContextRetriever) Retrieve(ctx context.Context, ir domain.IntentResult) (*domain.ContextBundle, error) {
	tr := otel.Tracer("services/ContextRetriever")
	ctx, span := tr.Start(ctx, "Retrieve")
	span.SetAttributes(attribute.String("intent", ir.Intent))
	defer span.End()

	e := ir.Entities
	switch {
	case ir.Intent == domain.IntentProductSearch:
		products, err := r.Catalog.FindProducts(ctx, ProductCriteria{
			Category:   e.Category,
			Brand:      e.Brand,
			Department: e.Department,
			Name:       e.Name,
			PriceRange: e.PriceRange,
			Limit:      ContextProductLimit,
		})
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("context.products", len(products)))
		return &domain.ContextBundle{Products: products}, nil

	case ir.Intent == domain.IntentOrderInquiry && e.UserID != "":
		orders, err := r.Catalog.FindOrders(ctx, string(e.UserID), OrderCriteria{})
		if errors.Is(err, ErrInvalidArgument) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("ignoring unusable user id from intent")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("context.orders", len(orders)))
		return &domain.ContextBundle{Orders: orders}, nil
	}
	return nil, nil
}
