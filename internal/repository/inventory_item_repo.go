package repository

import (
	"context"

	"rotuprinters/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryItemRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	Update(ctx context.Context, item *model.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	List(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error

	CreateMovement(ctx context.Context, movement *model.InventoryMovement) error
	ListMovements(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error)
}

type inventoryItemRepository struct {
	db *gorm.DB
}

func NewInventoryItemRepository(db *gorm.DB) InventoryItemRepository {
	return &inventoryItemRepository{db: db}
}

func (r *inventoryItemRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *inventoryItemRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

// Delete removes the item, its movements and any product links to it.
func (r *inventoryItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("item_id = ?", id).Delete(&model.InventoryMovement{}).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Product{}).Where("inventory_item_id = ?", id).Update("inventory_item_id", nil).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.InventoryItem{}).Error
}

func (r *inventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryItemRepository) List(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryItem{})
	if search != "" {
		p := likePattern(search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("name asc").Offset(offset(page, limit)).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *inventoryItemRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *inventoryItemRepository) CreateMovement(ctx context.Context, movement *model.InventoryMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *inventoryItemRepository) ListMovements(ctx context.Context, itemID *uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error) {
	var movements []model.InventoryMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryMovement{})
	if itemID != nil {
		db = db.Where("item_id = ?", *itemID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Item").Order("created_at desc").Offset(offset(page, limit)).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
