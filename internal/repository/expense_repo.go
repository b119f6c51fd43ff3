package repository

import (
	"context"
	"time"

	"rotuprinters/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseFilter bounds expenses by date (inclusive). Zero values are open.
type ExpenseFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Search    string
	Page      int
	Limit     int
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]model.Expense, int64, decimal.Decimal, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Omit("CreatedBy").Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Expense{}).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	if err := GetDB(ctx, r.db).First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns one page of expenses plus the count and amount sum of the whole filtered set.
func (r *expenseRepository) List(ctx context.Context, filter ExpenseFilter) ([]model.Expense, int64, decimal.Decimal, error) {
	var expenses []model.Expense
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.Expense{})
		if !filter.StartDate.IsZero() {
			db = db.Where("date >= ?", filter.StartDate)
		}
		if !filter.EndDate.IsZero() {
			db = db.Where("date <= ?", filter.EndDate)
		}
		if filter.Search != "" {
			db = db.Where("LOWER(description) LIKE ?", likePattern(filter.Search))
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := scope(db).Count(&total).Error; err != nil {
		return nil, 0, decimal.Zero, err
	}

	var sum struct{ Amount decimal.NullDecimal }
	if err := scope(db).Select("SUM(amount) AS amount").Scan(&sum).Error; err != nil {
		return nil, 0, decimal.Zero, err
	}

	if err := scope(db).Order("date desc, created_at desc").Offset(offset(filter.Page, filter.Limit)).Limit(filter.Limit).Find(&expenses).Error; err != nil {
		return nil, 0, decimal.Zero, err
	}

	return expenses, total, sum.Amount.Decimal, nil
}
