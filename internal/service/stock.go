package service

import (
	"context"
	"fmt"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"

	"github.com/google/uuid"
)

// stockChange is one signed delta against a product's stock.
type stockChange struct {
	ProductID    uuid.UUID
	Delta        int
	MovementType string
	Reference    string
	Notes        string
	SaleID       *uuid.UUID
	UserID       string
}

// stockAdjuster is the single write path for Product.QuantityAvailable. Both
// manual adjustments and sale completion go through apply, which must be
// called with a transaction context.
type stockAdjuster struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

// apply locks the product row, applies the delta without clamping and records
// the movement. Stock may go negative.
func (a stockAdjuster) apply(txCtx context.Context, ch stockChange) (*model.Product, error) {
	product, err := a.products.FindByIDForUpdate(txCtx, ch.ProductID)
	if err != nil {
		return nil, apperr.FromDB(err, "product")
	}

	product.QuantityAvailable += ch.Delta
	if err := a.products.UpdateStock(txCtx, product.ID, product.QuantityAvailable); err != nil {
		return nil, fmt.Errorf("failed to update stock for %s: %w", product.SKU, err)
	}

	movement := &model.StockMovement{
		ProductID:       product.ID,
		SaleID:          ch.SaleID,
		MovementType:    ch.MovementType,
		QuantityChanged: ch.Delta,
		StockAfter:      product.QuantityAvailable,
		Reference:       ch.Reference,
		Notes:           ch.Notes,
		CreatedByID:     actorID(ch.UserID),
	}
	if err := a.movements.Create(txCtx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	return product, nil
}

// stockEvent is the websocket payload for a product stock change.
func stockEvent(p *model.Product) map[string]any {
	return map[string]any{
		"product_id":         p.ID.String(),
		"sku":                p.SKU,
		"name":               p.Name,
		"quantity_available": p.QuantityAvailable,
		"stock_status":       p.StockStatus(),
	}
}
