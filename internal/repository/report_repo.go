package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rotuprinters/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockCounts summarises active products by stock status.
type StockCounts struct {
	Total int64
	Low   int64
	Out   int64
	Value decimal.Decimal
}

// ReportRepository runs the read-only aggregates behind /api/reports. The SQL
// sticks to constructs that behave the same on postgres and sqlite; month
// bucketing is done in Go.
type ReportRepository interface {
	SalesTotals(ctx context.Context, status string, rng model.DateRange) (model.AmountCount, error)
	SalesByPeriod(ctx context.Context, rng model.DateRange) ([]model.PeriodTotal, error)
	SalesByPaymentMethod(ctx context.Context, rng model.DateRange) ([]model.GroupTotal, error)
	TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductRanking, error)
	TopClients(ctx context.Context, rng model.DateRange, limit int) ([]model.ClientRanking, error)
	QuotationsByStatus(ctx context.Context, rng model.DateRange) ([]model.GroupTotal, error)
	TopQuotationClients(ctx context.Context, rng model.DateRange, limit int) ([]model.ClientRanking, error)
	StockCounts(ctx context.Context) (StockCounts, error)
	InventoryByCategory(ctx context.Context) ([]model.CategoryValue, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func between(db *gorm.DB, column string, rng model.DateRange) *gorm.DB {
	if !rng.Start.IsZero() {
		db = db.Where(column+" >= ?", rng.Start)
	}
	if !rng.End.IsZero() {
		db = db.Where(column+" <= ?", rng.End)
	}
	return db
}

func (r *reportRepository) SalesTotals(ctx context.Context, status string, rng model.DateRange) (model.AmountCount, error) {
	var result model.AmountCount
	db := GetDB(ctx, r.db).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := between(db, "created_at", rng).Scan(&result).Error; err != nil {
		return result, fmt.Errorf("failed to sum sales: %w", err)
	}
	return result, nil
}

func (r *reportRepository) SalesByPeriod(ctx context.Context, rng model.DateRange) ([]model.PeriodTotal, error) {
	var rows []struct {
		CreatedAt   time.Time
		TotalAmount decimal.Decimal
	}
	db := GetDB(ctx, r.db).Model(&model.Sale{}).
		Select("created_at, total_amount").
		Where("status = ?", model.SaleCompleted)
	if err := between(db, "created_at", rng).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sales by period: %w", err)
	}

	buckets := make(map[string]*model.PeriodTotal)
	for _, row := range rows {
		key := row.CreatedAt.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &model.PeriodTotal{Period: key, Total: decimal.Zero}
			buckets[key] = b
		}
		b.Total = b.Total.Add(row.TotalAmount)
		b.Count++
	}

	periods := make([]model.PeriodTotal, 0, len(buckets))
	for _, b := range buckets {
		periods = append(periods, *b)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Period < periods[j].Period })
	return periods, nil
}

func (r *reportRepository) SalesByPaymentMethod(ctx context.Context, rng model.DateRange) ([]model.GroupTotal, error) {
	var groups []model.GroupTotal
	db := GetDB(ctx, r.db).Model(&model.Sale{}).
		Select("payment_method AS group_key, COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("status = ?", model.SaleCompleted)
	if err := between(db, "created_at", rng).Group("payment_method").Order("payment_method").Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to group sales by payment method: %w", err)
	}
	return groups, nil
}

func (r *reportRepository) TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	db := GetDB(ctx, r.db).Table("sale_items").
		Select("products.id AS product_id, products.name AS product_name, SUM(sale_items.quantity) AS quantity, COALESCE(SUM(sale_items.total), 0) AS amount").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.status = ?", model.SaleCompleted)
	if err := between(db, "sales.created_at", rng).
		Group("products.id, products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}

func (r *reportRepository) TopClients(ctx context.Context, rng model.DateRange, limit int) ([]model.ClientRanking, error) {
	var rankings []model.ClientRanking
	db := GetDB(ctx, r.db).Table("sales").
		Select("clients.id AS client_id, clients.name AS name, clients.company AS company, COALESCE(SUM(sales.total_amount), 0) AS total_sales, COUNT(sales.id) AS sales_count").
		Joins("JOIN clients ON clients.id = sales.client_id").
		Where("sales.status = ?", model.SaleCompleted)
	if err := between(db, "sales.created_at", rng).
		Group("clients.id, clients.name, clients.company").
		Order("total_sales DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top clients: %w", err)
	}
	return rankings, nil
}

func (r *reportRepository) QuotationsByStatus(ctx context.Context, rng model.DateRange) ([]model.GroupTotal, error) {
	var groups []model.GroupTotal
	db := GetDB(ctx, r.db).Model(&model.Quotation{}).
		Select("status AS group_key, COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count")
	if err := between(db, "created_at", rng).Group("status").Order("status").Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to group quotations by status: %w", err)
	}
	return groups, nil
}

func (r *reportRepository) TopQuotationClients(ctx context.Context, rng model.DateRange, limit int) ([]model.ClientRanking, error) {
	var rankings []model.ClientRanking
	db := GetDB(ctx, r.db).Table("quotations").
		Select("clients.id AS client_id, clients.name AS name, clients.company AS company, COALESCE(SUM(quotations.total_amount), 0) AS total_sales, COUNT(quotations.id) AS sales_count").
		Joins("JOIN clients ON clients.id = quotations.client_id")
	if err := between(db, "quotations.created_at", rng).
		Group("clients.id, clients.name, clients.company").
		Order("sales_count DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query quotation clients: %w", err)
	}
	return rankings, nil
}

func (r *reportRepository) StockCounts(ctx context.Context) (StockCounts, error) {
	var counts StockCounts
	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("is_active = ?", true)

	if err := db.Session(&gorm.Session{}).Count(&counts.Total).Error; err != nil {
		return counts, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("quantity_available <= 0").Count(&counts.Out).Error; err != nil {
		return counts, fmt.Errorf("failed to count out of stock products: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("quantity_available > 0 AND quantity_available < minimum_stock").Count(&counts.Low).Error; err != nil {
		return counts, fmt.Errorf("failed to count low stock products: %w", err)
	}

	var value struct{ Value decimal.Decimal }
	if err := db.Session(&gorm.Session{}).Select("COALESCE(SUM(quantity_available * unit_cost), 0) AS value").Scan(&value).Error; err != nil {
		return counts, fmt.Errorf("failed to sum inventory value: %w", err)
	}
	counts.Value = value.Value
	return counts, nil
}

func (r *reportRepository) InventoryByCategory(ctx context.Context) ([]model.CategoryValue, error) {
	var values []model.CategoryValue
	if err := GetDB(ctx, r.db).Table("products").
		Select("COALESCE(product_categories.name, 'Uncategorized') AS category, COUNT(products.id) AS total_products, COALESCE(SUM(products.quantity_available * products.unit_cost), 0) AS total_value").
		Joins("LEFT JOIN product_categories ON product_categories.id = products.category_id").
		Where("products.is_active = ?", true).
		Group("product_categories.name").
		Order("total_value DESC").
		Scan(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to group inventory by category: %w", err)
	}
	return values, nil
}
