package model

import (
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation statuses
const (
	QuotationPending   = "PENDING"
	QuotationApproved  = "APPROVED"
	QuotationRejected  = "REJECTED"
	QuotationConverted = "CONVERTED"
)

// Quotation is a priced, non-binding offer to a client.
type Quotation struct {
	Base
	QuotationNumber    string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"quotation_number"`
	ClientID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client             *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	CreatedByID        *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	CreatedBy          *User           `gorm:"foreignKey:CreatedByID" json:"-"`
	Items              []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"subtotal"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(9,6);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"discount_amount"`
	ApplyTax           bool            `gorm:"not null;default:false" json:"apply_tax"`
	TaxAmount          decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"tax_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"total_amount"`
	Status             string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	// Client contact snapshot printed on the document
	IncludeClientDetails bool   `gorm:"not null;default:false" json:"include_client_details"`
	ClientRTN            string `gorm:"column:client_rtn;type:varchar(20)" json:"client_rtn"`
	ClientPhone          string `gorm:"type:varchar(20)" json:"client_phone"`
	ClientAddress        string `gorm:"type:text" json:"client_address"`

	ValidUntil *time.Time `json:"valid_until"`
	Notes      string     `gorm:"type:text" json:"notes"`
}

// QuotationItem is an area-priced line. Dimensions, price and quantity are
// nullable; an incomplete line is stored and totals to zero.
type QuotationItem struct {
	Base
	QuotationID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"quotation_id"`
	ProductID          *uuid.UUID          `gorm:"type:uuid;index" json:"product_id"`
	Product            *Product            `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Position           int                 `gorm:"type:int;not null;default:0" json:"position"`
	Description        string              `gorm:"type:text" json:"description"`
	WidthInches        decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"width_inches"`
	HeightInches       decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"height_inches"`
	PricePerSquareInch decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"price_per_square_inch"`
	Quantity           decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"quantity"`
	SquareInches       decimal.Decimal     `gorm:"type:numeric(18,6);not null;default:0" json:"square_inches"`
	Total              decimal.Decimal     `gorm:"type:numeric(18,6);not null;default:0" json:"total"`
}

func (i QuotationItem) Line() pricing.QuotationLine {
	return pricing.QuotationLine{
		Width:              i.WidthInches,
		Height:             i.HeightInches,
		PricePerSquareInch: i.PricePerSquareInch,
		Quantity:           i.Quantity,
	}
}

// Recalculate refreshes every derived amount from the items and adjustments.
func (q *Quotation) Recalculate() {
	lines := make([]pricing.QuotationLine, 0, len(q.Items))
	for idx := range q.Items {
		line := q.Items[idx].Line()
		q.Items[idx].SquareInches = line.SquareInches()
		q.Items[idx].Total = line.Total()
		lines = append(lines, line)
	}

	totals := pricing.QuotationTotals(lines, pricing.Adjustments{
		DiscountPercentage: q.DiscountPercentage,
		ApplyTax:           q.ApplyTax,
	})
	q.Subtotal = totals.Subtotal
	q.DiscountAmount = totals.DiscountAmount
	q.TaxAmount = totals.TaxAmount
	q.TotalAmount = totals.Total
}

func (q *Quotation) Approve() error {
	if q.Status != QuotationPending {
		return apperr.Transition("quotation", q.Status, "approve")
	}
	q.Status = QuotationApproved
	return nil
}

func (q *Quotation) Reject() error {
	if q.Status != QuotationPending {
		return apperr.Transition("quotation", q.Status, "reject")
	}
	q.Status = QuotationRejected
	return nil
}

// Convert marks an approved quotation as turned into a sale.
func (q *Quotation) Convert() error {
	if q.Status != QuotationApproved {
		return apperr.Transition("quotation", q.Status, "convert")
	}
	q.Status = QuotationConverted
	return nil
}

// Editable reports whether items and pricing inputs may still change.
func (q *Quotation) Editable() bool {
	return q.Status == QuotationPending
}
