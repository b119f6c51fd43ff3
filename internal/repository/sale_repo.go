package repository

import (
	"context"
	"time"

	"rotuprinters/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleFilter narrows sale listings.
type SaleFilter struct {
	Status        string
	PaymentMethod string
	ClientID      *uuid.UUID
	Search        string
	From          time.Time
	To            time.Time
	Page          int
	Limit         int
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	Update(ctx context.Context, sale *model.Sale) error
	ReplaceItems(ctx context.Context, saleID uuid.UUID, items []model.SaleItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)
	Delete(ctx context.Context, ids ...uuid.UUID) error
	LastNumber(ctx context.Context, prefix string) (string, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Omit("Client", "Quotation", "CreatedBy").Create(sale).Error
}

func (r *saleRepository) Update(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(sale).Error
}

func (r *saleRepository) ReplaceItems(ctx context.Context, saleID uuid.UUID, items []model.SaleItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SaleID = saleID
	}
	return db.Omit("Product").Create(&items).Error
}

func (r *saleRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Preload("Items.Product")
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.preload(GetDB(ctx, r.db)).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByIDForUpdate locks the sale row so concurrent completions serialize.
func (r *saleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&sale).Error; err != nil {
		return nil, err
	}
	var items []model.SaleItem
	if err := GetDB(ctx, r.db).Where("sale_id = ?", id).Order("position asc").Find(&items).Error; err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (r *saleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&sales).Error
	return sales, err
}

func (r *saleRepository) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{})
	if filter.Status != "" {
		db = db.Where("sales.status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		db = db.Where("sales.payment_method = ?", filter.PaymentMethod)
	}
	if filter.ClientID != nil {
		db = db.Where("sales.client_id = ?", *filter.ClientID)
	}
	if !filter.From.IsZero() {
		db = db.Where("sales.created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		db = db.Where("sales.created_at < ?", filter.To)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Joins("LEFT JOIN clients ON clients.id = sales.client_id").
			Where("LOWER(sales.invoice_number) LIKE ? OR LOWER(clients.name) LIKE ?", p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.preload(db).Order("sales.created_at desc").
		Offset(offset(filter.Page, filter.Limit)).Limit(filter.Limit).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *saleRepository) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := GetDB(ctx, r.db)
	if err := db.Where("sale_id IN ?", ids).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&model.Sale{}).Error
}

// LastNumber mirrors quotationRepository.LastNumber for invoice numbers.
func (r *saleRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	db := GetDB(ctx, r.db)
	if err := lockSequence(db, prefix); err != nil {
		return "", err
	}
	var numbers []string
	err := db.Model(&model.Sale{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number desc").Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}
