package repository

import (
	"context"

	"rotuprinters/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationFilter narrows quotation listings.
type QuotationFilter struct {
	Status   string
	ClientID *uuid.UUID
	Search   string
	Page     int
	Limit    int
}

type QuotationRepository interface {
	Create(ctx context.Context, quotation *model.Quotation) error
	Update(ctx context.Context, quotation *model.Quotation) error
	ReplaceItems(ctx context.Context, quotationID uuid.UUID, items []model.QuotationItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Quotation, error)
	List(ctx context.Context, filter QuotationFilter) ([]model.Quotation, int64, error)
	Delete(ctx context.Context, ids ...uuid.UUID) error
	LastNumber(ctx context.Context, prefix string) (string, error)
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

// Create inserts the quotation together with its items.
func (r *quotationRepository) Create(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Omit("Client", "CreatedBy").Create(quotation).Error
}

// Update saves header fields only. Items are replaced through ReplaceItems.
func (r *quotationRepository) Update(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(quotation).Error
}

func (r *quotationRepository) ReplaceItems(ctx context.Context, quotationID uuid.UUID, items []model.QuotationItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("quotation_id = ?", quotationID).Delete(&model.QuotationItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].QuotationID = quotationID
	}
	return db.Omit("Product").Create(&items).Error
}

func (r *quotationRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Preload("Items.Product")
}

func (r *quotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := r.preload(GetDB(ctx, r.db)).First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&quotation).Error; err != nil {
		return nil, err
	}
	var items []model.QuotationItem
	if err := GetDB(ctx, r.db).Where("quotation_id = ?", id).Order("position asc").Find(&items).Error; err != nil {
		return nil, err
	}
	quotation.Items = items
	return &quotation, nil
}

func (r *quotationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Quotation, error) {
	var quotations []model.Quotation
	err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&quotations).Error
	return quotations, err
}

func (r *quotationRepository) List(ctx context.Context, filter QuotationFilter) ([]model.Quotation, int64, error) {
	var quotations []model.Quotation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Quotation{})
	if filter.Status != "" {
		db = db.Where("quotations.status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		db = db.Where("quotations.client_id = ?", *filter.ClientID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Joins("LEFT JOIN clients ON clients.id = quotations.client_id").
			Where("LOWER(quotations.quotation_number) LIKE ? OR LOWER(clients.name) LIKE ?", p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.preload(db).Order("quotations.created_at desc").
		Offset(offset(filter.Page, filter.Limit)).Limit(filter.Limit).
		Find(&quotations).Error
	if err != nil {
		return nil, 0, err
	}
	return quotations, total, nil
}

func (r *quotationRepository) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := GetDB(ctx, r.db)
	if err := db.Where("quotation_id IN ?", ids).Delete(&model.QuotationItem{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&model.Quotation{}).Error
}

// LastNumber returns the highest number with the given prefix, or "". Inside
// a transaction it also takes the numbering lock, so call it from the same
// transaction that inserts the next number. Numbers are zero-padded so lexical
// order matches numeric order.
func (r *quotationRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	db := GetDB(ctx, r.db)
	if err := lockSequence(db, prefix); err != nil {
		return "", err
	}
	var numbers []string
	err := db.Model(&model.Quotation{}).
		Where("quotation_number LIKE ?", prefix+"%").
		Order("quotation_number desc").Limit(1).
		Pluck("quotation_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}
