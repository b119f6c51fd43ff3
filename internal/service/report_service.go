package service

import (
	"context"
	"fmt"
	"time"

	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"
	"rotuprinters/internal/repository"

	"github.com/shopspring/decimal"
)

const topN = 10

// ReportQuery bounds a report by creation date, both ends inclusive.
type ReportQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type DashboardResponse struct {
	Sales struct {
		TotalAmount          string `json:"total_amount"`
		TotalCount           int64  `json:"total_count"`
		PendingCount         int64  `json:"pending_count"`
		Recent30Days         string `json:"recent_30_days"`
		TodayAmount          string `json:"today_amount"`
		TodayCount           int64  `json:"today_count"`
		TodayCompletedAmount string `json:"today_completed_amount"`
		TodayCompletedCount  int64  `json:"today_completed_count"`
	} `json:"sales"`
	Quotations struct {
		Active int64 `json:"active"`
		Total  int64 `json:"total"`
	} `json:"quotations"`
	Inventory struct {
		LowStock      int64 `json:"low_stock"`
		OutOfStock    int64 `json:"out_of_stock"`
		TotalProducts int64 `json:"total_products"`
	} `json:"inventory"`
	Clients struct {
		Total int64 `json:"total"`
	} `json:"clients"`
}

type PeriodRow struct {
	Period string `json:"period"`
	Total  string `json:"total"`
	Count  int64  `json:"count"`
}

type ProductRow struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Quantity  int64  `json:"quantity"`
	Amount    string `json:"amount"`
}

type GroupRow struct {
	Key   string `json:"key"`
	Total string `json:"total"`
	Count int64  `json:"count"`
}

type ClientRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	TotalSales string `json:"total_sales"`
	SalesCount int64  `json:"sales_count"`
}

type SalesReportResponse struct {
	Summary struct {
		TotalSales  string `json:"total_sales"`
		TotalCount  int64  `json:"total_count"`
		AverageSale string `json:"average_sale"`
	} `json:"summary"`
	SalesByPeriod        []PeriodRow  `json:"sales_by_period"`
	TopProducts          []ProductRow `json:"top_products"`
	SalesByPaymentMethod []GroupRow   `json:"sales_by_payment_method"`
}

type LowStockRow struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	QuantityAvailable int    `json:"quantity_available"`
	MinimumStock      int    `json:"minimum_stock"`
	Status            string `json:"status"`
}

type CategoryRow struct {
	Category      string `json:"category"`
	TotalProducts int64  `json:"total_products"`
	TotalValue    string `json:"total_value"`
}

type InventoryReportResponse struct {
	LowStockProducts    []LowStockRow `json:"low_stock_products"`
	OutOfStockCount     int64         `json:"out_of_stock_count"`
	Categories          []CategoryRow `json:"categories"`
	TotalInventoryValue string        `json:"total_inventory_value"`
	TotalProducts       int64         `json:"total_products"`
}

type QuotationsReportResponse struct {
	ByStatus            []GroupRow  `json:"by_status"`
	ConversionRate      string      `json:"conversion_rate"`
	TotalQuotations     int64       `json:"total_quotations"`
	ConvertedQuotations int64       `json:"converted_quotations"`
	TopClients          []ClientRow `json:"top_clients"`
}

type ClientsReportResponse struct {
	TotalClients int64       `json:"total_clients"`
	TopClients   []ClientRow `json:"top_clients"`
}

// ReportService computes the dashboard and report aggregates.
type ReportService interface {
	Dashboard(ctx context.Context) (DashboardResponse, error)
	Sales(ctx context.Context, q ReportQuery) (SalesReportResponse, error)
	Inventory(ctx context.Context) (InventoryReportResponse, error)
	Quotations(ctx context.Context, q ReportQuery) (QuotationsReportResponse, error)
	Clients(ctx context.Context, q ReportQuery) (ClientsReportResponse, error)
}

type reportService struct {
	repo        repository.ReportRepository
	clientRepo  repository.ClientRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

func NewReportService(
	repo repository.ReportRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
) ReportService {
	return &reportService{
		repo:        repo,
		clientRepo:  clientRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

func (q ReportQuery) dateRange() (model.DateRange, error) {
	var rng model.DateRange
	from, err := parseDate("start_date", q.StartDate)
	if err != nil {
		return rng, err
	}
	to, err := parseDate("end_date", q.EndDate)
	if err != nil {
		return rng, err
	}
	if from != nil {
		rng.Start = *from
	}
	if to != nil {
		rng.End = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return rng, nil
}

func toGroupRows(groups []model.GroupTotal) []GroupRow {
	rows := make([]GroupRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, GroupRow{Key: g.Key, Total: pricing.Format(g.Total), Count: g.Count})
	}
	return rows
}

func toClientRows(rankings []model.ClientRanking) []ClientRow {
	rows := make([]ClientRow, 0, len(rankings))
	for _, r := range rankings {
		rows = append(rows, ClientRow{
			ID:         r.ClientID.String(),
			Name:       r.Name,
			Company:    r.Company,
			TotalSales: pricing.Format(r.TotalSales),
			SalesCount: r.SalesCount,
		})
	}
	return rows
}

func (s *reportService) Dashboard(ctx context.Context) (DashboardResponse, error) {
	var res DashboardResponse
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	completed, err := s.repo.SalesTotals(ctx, model.SaleCompleted, model.DateRange{})
	if err != nil {
		return res, err
	}
	pending, err := s.repo.SalesTotals(ctx, model.SalePending, model.DateRange{})
	if err != nil {
		return res, err
	}
	recent, err := s.repo.SalesTotals(ctx, model.SaleCompleted, model.DateRange{Start: now.AddDate(0, 0, -30)})
	if err != nil {
		return res, err
	}
	todayAll, err := s.repo.SalesTotals(ctx, "", model.DateRange{Start: today})
	if err != nil {
		return res, err
	}
	todayCompleted, err := s.repo.SalesTotals(ctx, model.SaleCompleted, model.DateRange{Start: today})
	if err != nil {
		return res, err
	}

	res.Sales.TotalAmount = pricing.Format(completed.Total)
	res.Sales.TotalCount = completed.Count
	res.Sales.PendingCount = pending.Count
	res.Sales.Recent30Days = pricing.Format(recent.Total)
	res.Sales.TodayAmount = pricing.Format(todayAll.Total)
	res.Sales.TodayCount = todayAll.Count
	res.Sales.TodayCompletedAmount = pricing.Format(todayCompleted.Total)
	res.Sales.TodayCompletedCount = todayCompleted.Count

	byStatus, err := s.repo.QuotationsByStatus(ctx, model.DateRange{})
	if err != nil {
		return res, err
	}
	for _, g := range byStatus {
		res.Quotations.Total += g.Count
		if g.Key == model.QuotationPending || g.Key == model.QuotationApproved {
			res.Quotations.Active += g.Count
		}
	}

	stock, err := s.repo.StockCounts(ctx)
	if err != nil {
		return res, err
	}
	res.Inventory.LowStock = stock.Low
	res.Inventory.OutOfStock = stock.Out
	res.Inventory.TotalProducts = stock.Total

	clients, err := s.clientRepo.CountActive(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to count clients: %w", err)
	}
	res.Clients.Total = clients
	return res, nil
}

func (s *reportService) Sales(ctx context.Context, q ReportQuery) (SalesReportResponse, error) {
	var res SalesReportResponse
	rng, err := q.dateRange()
	if err != nil {
		return res, err
	}

	summary, err := s.repo.SalesTotals(ctx, model.SaleCompleted, rng)
	if err != nil {
		return res, err
	}
	res.Summary.TotalSales = pricing.Format(summary.Total)
	res.Summary.TotalCount = summary.Count
	average := decimal.Zero
	if summary.Count > 0 {
		average = summary.Total.Div(decimal.NewFromInt(summary.Count))
	}
	res.Summary.AverageSale = pricing.Format(average)

	periods, err := s.repo.SalesByPeriod(ctx, rng)
	if err != nil {
		return res, err
	}
	res.SalesByPeriod = make([]PeriodRow, 0, len(periods))
	for _, p := range periods {
		res.SalesByPeriod = append(res.SalesByPeriod, PeriodRow{Period: p.Period, Total: pricing.Format(p.Total), Count: p.Count})
	}

	products, err := s.repo.TopProducts(ctx, rng, topN)
	if err != nil {
		return res, err
	}
	res.TopProducts = make([]ProductRow, 0, len(products))
	for _, p := range products {
		res.TopProducts = append(res.TopProducts, ProductRow{
			ProductID: p.ProductID.String(),
			Product:   p.ProductName,
			Quantity:  p.Quantity,
			Amount:    pricing.Format(p.Amount),
		})
	}

	methods, err := s.repo.SalesByPaymentMethod(ctx, rng)
	if err != nil {
		return res, err
	}
	res.SalesByPaymentMethod = toGroupRows(methods)
	return res, nil
}

func (s *reportService) Inventory(ctx context.Context) (InventoryReportResponse, error) {
	var res InventoryReportResponse

	low, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list low stock products: %w", err)
	}
	res.LowStockProducts = make([]LowStockRow, 0, len(low))
	for _, p := range low {
		res.LowStockProducts = append(res.LowStockProducts, LowStockRow{
			ID:                p.ID.String(),
			Name:              p.Name,
			SKU:               p.SKU,
			QuantityAvailable: p.QuantityAvailable,
			MinimumStock:      p.MinimumStock,
			Status:            p.StockStatus(),
		})
	}

	categories, err := s.repo.InventoryByCategory(ctx)
	if err != nil {
		return res, err
	}
	res.Categories = make([]CategoryRow, 0, len(categories))
	for _, c := range categories {
		res.Categories = append(res.Categories, CategoryRow{
			Category:      c.Category,
			TotalProducts: c.TotalProducts,
			TotalValue:    pricing.Format(c.TotalValue),
		})
	}

	stock, err := s.repo.StockCounts(ctx)
	if err != nil {
		return res, err
	}
	res.OutOfStockCount = stock.Out
	res.TotalInventoryValue = pricing.Format(stock.Value)
	res.TotalProducts = stock.Total
	return res, nil
}

func (s *reportService) Quotations(ctx context.Context, q ReportQuery) (QuotationsReportResponse, error) {
	var res QuotationsReportResponse
	rng, err := q.dateRange()
	if err != nil {
		return res, err
	}

	byStatus, err := s.repo.QuotationsByStatus(ctx, rng)
	if err != nil {
		return res, err
	}
	res.ByStatus = toGroupRows(byStatus)
	for _, g := range byStatus {
		res.TotalQuotations += g.Count
		if g.Key == model.QuotationConverted {
			res.ConvertedQuotations = g.Count
		}
	}

	rate := decimal.Zero
	if res.TotalQuotations > 0 {
		rate = decimal.NewFromInt(res.ConvertedQuotations).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(res.TotalQuotations))
	}
	res.ConversionRate = pricing.Format(rate)

	clients, err := s.repo.TopQuotationClients(ctx, rng, topN)
	if err != nil {
		return res, err
	}
	res.TopClients = toClientRows(clients)
	return res, nil
}

func (s *reportService) Clients(ctx context.Context, q ReportQuery) (ClientsReportResponse, error) {
	var res ClientsReportResponse
	rng, err := q.dateRange()
	if err != nil {
		return res, err
	}

	total, err := s.clientRepo.CountActive(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to count clients: %w", err)
	}
	res.TotalClients = total

	top, err := s.repo.TopClients(ctx, rng, topN)
	if err != nil {
		return res, err
	}
	res.TopClients = toClientRows(top)
	return res, nil
}
