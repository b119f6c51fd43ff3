package model

import (
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale statuses
const (
	SalePending   = "PENDING"
	SaleCompleted = "COMPLETED"
	SaleCancelled = "CANCELLED"
)

// Payment methods
const (
	PaymentCash     = "CASH"
	PaymentTransfer = "TRANSFER"
)

// Sale is a binding invoice. Completing it deducts stock once.
type Sale struct {
	Base
	InvoiceNumber      string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"`
	ClientID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client             *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	QuotationID        *uuid.UUID      `gorm:"type:uuid;index" json:"quotation_id"`
	Quotation          *Quotation      `gorm:"foreignKey:QuotationID" json:"-"`
	CreatedByID        *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	CreatedBy          *User           `gorm:"foreignKey:CreatedByID" json:"-"`
	PaymentMethod      string          `gorm:"type:varchar(20);not null;default:'CASH'" json:"payment_method"`
	Items              []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"subtotal"`
	ApplyTax           bool            `gorm:"not null" json:"apply_tax"`
	TaxAmount          decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"tax_amount"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(9,6);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"discount_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"total_amount"`
	Status             string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CompletedAt        *time.Time      `gorm:"index" json:"completed_at"`
	Notes              string          `gorm:"type:text" json:"notes"`
}

// SaleItem is a quantity-priced line. Quantity is what completion deducts.
type SaleItem struct {
	Base
	SaleID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product      *Product            `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Position     int                 `gorm:"type:int;not null;default:0" json:"position"`
	Description  string              `gorm:"type:text" json:"description"`
	WidthInches  decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"width_inches"`
	HeightInches decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"height_inches"`
	UnitPrice    decimal.Decimal     `gorm:"type:numeric(18,6);not null" json:"unit_price"`
	Quantity     int                 `gorm:"type:int;not null" json:"quantity"`
	QuantityUsed decimal.Decimal     `gorm:"type:numeric(18,6);not null;default:0" json:"quantity_used"` // square inches consumed
	Total        decimal.Decimal     `gorm:"type:numeric(18,6);not null;default:0" json:"total"`
}

func (i SaleItem) Line() pricing.SaleLine {
	return pricing.SaleLine{UnitPrice: i.UnitPrice, Quantity: i.Quantity}
}

func (s *Sale) Recalculate() {
	lines := make([]pricing.SaleLine, 0, len(s.Items))
	for idx := range s.Items {
		line := s.Items[idx].Line()
		s.Items[idx].Total = line.Total()
		lines = append(lines, line)
	}

	totals := pricing.SaleTotals(lines, pricing.Adjustments{
		DiscountPercentage: s.DiscountPercentage,
		ApplyTax:           s.ApplyTax,
	})
	s.Subtotal = totals.Subtotal
	s.DiscountAmount = totals.DiscountAmount
	s.TaxAmount = totals.TaxAmount
	s.TotalAmount = totals.Total
}

// Complete moves a pending sale to COMPLETED. The caller owns the stock
// deduction and must run both in one transaction.
func (s *Sale) Complete(at time.Time) error {
	if s.Status != SalePending {
		return apperr.Transition("sale", s.Status, "complete")
	}
	s.Status = SaleCompleted
	s.CompletedAt = &at
	return nil
}

func (s *Sale) Cancel() error {
	if s.Status != SalePending {
		return apperr.Transition("sale", s.Status, "cancel")
	}
	s.Status = SaleCancelled
	return nil
}

func (s *Sale) Editable() bool {
	return s.Status == SalePending
}
