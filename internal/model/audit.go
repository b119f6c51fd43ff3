package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateClient     = "CREATE_CLIENT"
	ActionUpdateClient     = "UPDATE_CLIENT"
	ActionDeactivateClient = "DEACTIVATE_CLIENT"

	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionAdjustStock    = "ADJUST_STOCK"
	ActionCreateCategory = "CREATE_CATEGORY"

	ActionCreateInventoryItem = "CREATE_INVENTORY_ITEM"
	ActionUpdateInventoryItem = "UPDATE_INVENTORY_ITEM"
	ActionDeleteInventoryItem = "DELETE_INVENTORY_ITEM"
	ActionAdjustInventoryItem = "ADJUST_INVENTORY_ITEM"

	ActionCreateQuotation  = "CREATE_QUOTATION"
	ActionUpdateQuotation  = "UPDATE_QUOTATION"
	ActionDeleteQuotation  = "DELETE_QUOTATION"
	ActionApproveQuotation = "APPROVE_QUOTATION"
	ActionRejectQuotation  = "REJECT_QUOTATION"

	ActionCreateSale       = "CREATE_SALE"
	ActionUpdateSale       = "UPDATE_SALE"
	ActionCompleteSale     = "COMPLETE_SALE"
	ActionCancelSale       = "CANCEL_SALE"
	ActionDeleteSale       = "DELETE_SALE"
	ActionConvertQuotation = "CONVERT_QUOTATION"

	ActionCreateExpense = "CREATE_EXPENSE"
	ActionUpdateExpense = "UPDATE_EXPENSE"
	ActionDeleteExpense = "DELETE_EXPENSE"

	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
	ActionChangePassword = "CHANGE_PASSWORD"
)

// AuditLog tracks who changed what and when. Rows are written in the same
// transaction as the change they describe.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
