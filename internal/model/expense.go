package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is an operating cost entry.
type Expense struct {
	Base
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"amount"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	CreatedBy   *User           `gorm:"foreignKey:CreatedByID" json:"-"`
}
