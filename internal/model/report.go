package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountCount is a summed amount with its row count.
type AmountCount struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// PeriodTotal is one bucket of the sales-by-period series.
type PeriodTotal struct {
	Period string          `json:"period"` // YYYY-MM
	Total  decimal.Decimal `json:"total"`
	Count  int64           `json:"count"`
}

// ProductRanking is a product's share of completed sales.
type ProductRanking struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// GroupTotal is an aggregate keyed by a label such as a status or payment method.
type GroupTotal struct {
	Key   string          `gorm:"column:group_key" json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// ClientRanking is a client's completed-sales volume.
type ClientRanking struct {
	ClientID   uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Company    string          `json:"company"`
	TotalSales decimal.Decimal `json:"total_sales"`
	SalesCount int64           `json:"sales_count"`
}

// CategoryValue is stock value per product category.
type CategoryValue struct {
	Category      string          `json:"category"`
	TotalProducts int64           `json:"total_products"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// DateRange bounds a report query. Zero values are open ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}
