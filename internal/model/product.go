package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Units of measure
const (
	UnitRoll        = "ROLL"
	UnitSheet       = "SHEET"
	UnitUnit        = "UNIT"
	UnitMeter       = "METER"
	UnitSquareMeter = "SQM"
	UnitSquareInch  = "SQIN"
)

// Derived stock status
const (
	StockAvailable = "AVAILABLE"
	StockLow       = "LOW"
	StockOut       = "OUT"
)

// StockStatusFor derives the status from a quantity and a low-water mark.
// Quantity may be negative; that is reported as OUT, never rejected.
func StockStatusFor(quantity, minimum int) string {
	switch {
	case quantity <= 0:
		return StockOut
	case quantity < minimum:
		return StockLow
	default:
		return StockAvailable
	}
}

// ProductCategory groups products (vinyl, paper, ink...).
type ProductCategory struct {
	Base
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Product is a sellable material or item tracked in stock.
type Product struct {
	Base
	Name               string           `gorm:"type:varchar(200);not null;index" json:"name"`
	SKU                string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Description        string           `gorm:"type:text" json:"description"`
	CategoryID         *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Category           *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	InventoryItemID    *uuid.UUID       `gorm:"type:uuid;index" json:"inventory_item_id"`
	InventoryItem      *InventoryItem   `gorm:"foreignKey:InventoryItemID" json:"inventory_item,omitempty"`
	UnitOfMeasure      string           `gorm:"type:varchar(10);not null;default:'UNIT'" json:"unit_of_measure"`
	QuantityAvailable  int              `gorm:"type:int;not null;default:0" json:"quantity_available"`
	UnitCost           decimal.Decimal  `gorm:"type:numeric(18,6);not null;default:0" json:"unit_cost"`
	UnitPrice          decimal.Decimal  `gorm:"type:numeric(18,6);not null;default:0" json:"unit_price"`
	PricePerSquareInch decimal.Decimal  `gorm:"type:numeric(18,6);not null;default:0" json:"price_per_square_inch"`
	MinimumStock       int              `gorm:"type:int;not null;default:0" json:"minimum_stock"`
	Supplier           string           `gorm:"type:varchar(200)" json:"supplier"`
	IsActive           bool             `gorm:"not null;default:true;index" json:"is_active"`
}

func (p Product) StockStatus() string {
	return StockStatusFor(p.QuantityAvailable, p.MinimumStock)
}

// Movement types
const (
	MovementEntry      = "ENTRY"
	MovementExit       = "EXIT"
	MovementAdjustment = "ADJUSTMENT"
)

// StockMovement is the product stock ledger. Every change of
// Product.QuantityAvailable writes exactly one row.
type StockMovement struct {
	Base
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SaleID          *uuid.UUID `gorm:"type:uuid;index" json:"sale_id"` // nil for manual adjustments
	MovementType    string     `gorm:"type:varchar(20);not null" json:"movement_type"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Reference       string     `gorm:"type:varchar(100)" json:"reference"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedByID     *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
}
