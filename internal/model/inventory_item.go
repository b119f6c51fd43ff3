package model

import "github.com/google/uuid"

// InventoryLowWaterMark is the fixed LOW threshold for simple inventory items.
const InventoryLowWaterMark = 10

// InventoryItem is a simple stock record: a name and a signed quantity.
type InventoryItem struct {
	Base
	Name        string `gorm:"type:varchar(200);not null;index" json:"name"`
	SKU         string `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Description string `gorm:"type:text" json:"description"`
	Quantity    int    `gorm:"type:int;not null;default:0" json:"quantity"`
}

func (i InventoryItem) StockStatus() string {
	return StockStatusFor(i.Quantity, InventoryLowWaterMark)
}

// InventoryMovement records one adjust_stock call on an InventoryItem.
type InventoryMovement struct {
	Base
	ItemID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	Item          *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	MovementType  string         `gorm:"type:varchar(20);not null" json:"movement_type"` // ENTRY, EXIT
	QuantityDelta int            `gorm:"type:int;not null" json:"quantity_delta"`
	QuantityAfter int            `gorm:"type:int;not null" json:"quantity_after"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedByID   *uuid.UUID     `gorm:"type:uuid;index" json:"created_by"`
}
