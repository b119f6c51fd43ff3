package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"
	"rotuprinters/internal/repository"
	ws "rotuprinters/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	Name               string          `json:"name" binding:"required,max=200"`
	SKU                string          `json:"sku" binding:"max=50"`
	Description        string          `json:"description"`
	CategoryID         string          `json:"category_id"`
	InventoryItemID    string          `json:"inventory_item_id"`
	UnitOfMeasure      string          `json:"unit_of_measure" binding:"omitempty,oneof=ROLL SHEET UNIT METER SQM SQIN"`
	QuantityAvailable  int             `json:"quantity_available"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	PricePerSquareInch decimal.Decimal `json:"price_per_square_inch"`
	MinimumStock       int             `json:"minimum_stock" binding:"gte=0"`
	Supplier           string          `json:"supplier" binding:"max=200"`
}

type UpdateProductRequest struct {
	Name               string          `json:"name" binding:"required,max=200"`
	SKU                string          `json:"sku" binding:"required,max=50"`
	Description        string          `json:"description"`
	CategoryID         string          `json:"category_id"`
	InventoryItemID    string          `json:"inventory_item_id"`
	UnitOfMeasure      string          `json:"unit_of_measure" binding:"required,oneof=ROLL SHEET UNIT METER SQM SQIN"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	PricePerSquareInch decimal.Decimal `json:"price_per_square_inch"`
	MinimumStock       int             `json:"minimum_stock" binding:"gte=0"`
	Supplier           string          `json:"supplier" binding:"max=200"`
	IsActive           *bool           `json:"is_active"`
}

// AdjustStockRequest is shared by product and simple inventory adjustments
type AdjustStockRequest struct {
	QuantityDelta int    `json:"quantity_delta"`
	Notes         string `json:"notes"`
}

type ProductQuery struct {
	Search     string
	CategoryID string
	Active     *bool
	Page       int
	Limit      int
}

type ProductResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	SKU                string `json:"sku"`
	Description        string `json:"description"`
	CategoryID         string `json:"category_id"`
	CategoryName       string `json:"category_name"`
	InventoryItemID    string `json:"inventory_item_id"`
	UnitOfMeasure      string `json:"unit_of_measure"`
	QuantityAvailable  int    `json:"quantity_available"`
	UnitCost           string `json:"unit_cost"`
	UnitPrice          string `json:"unit_price"`
	PricePerSquareInch string `json:"price_per_square_inch"`
	MinimumStock       int    `json:"minimum_stock"`
	Supplier           string `json:"supplier"`
	IsActive           bool   `json:"is_active"`
	StockStatus        string `json:"stock_status"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

type StockMovementResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	SaleID          string `json:"sale_id"`
	MovementType    string `json:"movement_type"`
	QuantityChanged int    `json:"quantity_changed"`
	StockAfter      int    `json:"stock_after"`
	Reference       string `json:"reference"`
	Notes           string `json:"notes"`
	CreatedBy       string `json:"created_by"`
	CreatedAt       string `json:"created_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InventoryService interface {
	ListProducts(ctx context.Context, q ProductQuery) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, userID string, id string) error
	ListLowStock(ctx context.Context) ([]ProductResponse, error)
	ListOutOfStock(ctx context.Context) ([]ProductResponse, error)
	AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (ProductResponse, error)
	ListMovements(ctx context.Context, productID string, page, limit int) ([]StockMovementResponse, int64, error)

	ListCategories(ctx context.Context) ([]CategoryResponse, error)
	CreateCategory(ctx context.Context, userID string, req CategoryRequest) (CategoryResponse, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	itemRepo     repository.InventoryItemRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	stock        stockAdjuster
	events       EventPublisher
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	itemRepo repository.InventoryItemRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		stock:        stockAdjuster{products: productRepo, movements: movementRepo},
		events:       events,
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	res := ProductResponse{
		ID:                 p.ID.String(),
		Name:               p.Name,
		SKU:                p.SKU,
		Description:        p.Description,
		CategoryID:         optionalIDString(p.CategoryID),
		InventoryItemID:    optionalIDString(p.InventoryItemID),
		UnitOfMeasure:      p.UnitOfMeasure,
		QuantityAvailable:  p.QuantityAvailable,
		UnitCost:           pricing.Format(p.UnitCost),
		UnitPrice:          pricing.Format(p.UnitPrice),
		PricePerSquareInch: p.PricePerSquareInch.StringFixed(4),
		MinimumStock:       p.MinimumStock,
		Supplier:           p.Supplier,
		IsActive:           p.IsActive,
		StockStatus:        p.StockStatus(),
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	return res
}

func toProductResponses(products []model.Product) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res
}

func toStockMovementResponse(m *model.StockMovement) StockMovementResponse {
	res := StockMovementResponse{
		ID:              m.ID.String(),
		ProductID:       m.ProductID.String(),
		SaleID:          optionalIDString(m.SaleID),
		MovementType:    m.MovementType,
		QuantityChanged: m.QuantityChanged,
		StockAfter:      m.StockAfter,
		Reference:       m.Reference,
		Notes:           m.Notes,
		CreatedBy:       optionalIDString(m.CreatedByID),
		CreatedAt:       formatTime(m.CreatedAt),
	}
	if m.Product != nil {
		res.ProductName = m.Product.Name
	}
	return res
}

func generateSKU(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validatePrices(unitCost, unitPrice, ppsi decimal.Decimal) error {
	switch {
	case unitCost.IsNegative():
		return apperr.Validation("unit_cost", "must not be negative")
	case unitPrice.IsNegative():
		return apperr.Validation("unit_price", "must not be negative")
	case ppsi.IsNegative():
		return apperr.Validation("price_per_square_inch", "must not be negative")
	}
	return nil
}

// resolveLinks checks the optional category and inventory item references.
func (s *inventoryService) resolveLinks(ctx context.Context, categoryRaw, itemRaw string) (*uuid.UUID, *uuid.UUID, error) {
	categoryID, err := parseOptionalID("category_id", categoryRaw)
	if err != nil {
		return nil, nil, err
	}
	if categoryID != nil {
		if _, err := s.productRepo.FindCategoryByID(ctx, *categoryID); err != nil {
			return nil, nil, apperr.FromDB(err, "category")
		}
	}

	itemID, err := parseOptionalID("inventory_item_id", itemRaw)
	if err != nil {
		return nil, nil, err
	}
	if itemID != nil {
		if _, err := s.itemRepo.FindByID(ctx, *itemID); err != nil {
			return nil, nil, apperr.FromDB(err, "inventory item")
		}
	}
	return categoryID, itemID, nil
}

func (s *inventoryService) ensureUniqueSKU(ctx context.Context, sku string, self uuid.UUID) error {
	existing, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}
	if existing.ID != self {
		return apperr.Conflict("sku " + sku + " already exists")
	}
	return nil
}

func (s *inventoryService) ListProducts(ctx context.Context, q ProductQuery) ([]ProductResponse, int64, error) {
	categoryID, err := parseOptionalID("category_id", q.CategoryID)
	if err != nil {
		return nil, 0, err
	}

	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Search:     q.Search,
		CategoryID: categoryID,
		Active:     q.Active,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return toProductResponses(products), total, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := parseID("id", id)
	if err != nil {
		return ProductResponse{}, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, apperr.FromDB(err, "product")
	}
	return toProductResponse(product), nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error) {
	if err := validatePrices(req.UnitCost, req.UnitPrice, req.PricePerSquareInch); err != nil {
		return ProductResponse{}, err
	}
	categoryID, itemID, err := s.resolveLinks(ctx, req.CategoryID, req.InventoryItemID)
	if err != nil {
		return ProductResponse{}, err
	}

	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		sku = generateSKU("PRD-")
	}
	if err := s.ensureUniqueSKU(ctx, sku, uuid.Nil); err != nil {
		return ProductResponse{}, err
	}

	unit := req.UnitOfMeasure
	if unit == "" {
		unit = model.UnitUnit
	}

	product := model.Product{
		Name:               strings.TrimSpace(req.Name),
		SKU:                sku,
		Description:        req.Description,
		CategoryID:         categoryID,
		InventoryItemID:    itemID,
		UnitOfMeasure:      unit,
		QuantityAvailable:  req.QuantityAvailable,
		UnitCost:           req.UnitCost,
		UnitPrice:          req.UnitPrice,
		PricePerSquareInch: req.PricePerSquareInch,
		MinimumStock:       req.MinimumStock,
		Supplier:           req.Supplier,
		IsActive:           true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return s.GetProduct(ctx, product.ID.String())
}

func (s *inventoryService) UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := parseID("id", id)
	if err != nil {
		return ProductResponse{}, err
	}
	if err := validatePrices(req.UnitCost, req.UnitPrice, req.PricePerSquareInch); err != nil {
		return ProductResponse{}, err
	}
	categoryID, itemID, err := s.resolveLinks(ctx, req.CategoryID, req.InventoryItemID)
	if err != nil {
		return ProductResponse{}, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, apperr.FromDB(err, "product")
	}

	sku := strings.TrimSpace(req.SKU)
	if err := s.ensureUniqueSKU(ctx, sku, product.ID); err != nil {
		return ProductResponse{}, err
	}

	// Stock only changes through adjust_stock and sale completion.
	product.Name = strings.TrimSpace(req.Name)
	product.SKU = sku
	product.Description = req.Description
	product.CategoryID = categoryID
	product.Category = nil
	product.InventoryItemID = itemID
	product.UnitOfMeasure = req.UnitOfMeasure
	product.UnitCost = req.UnitCost
	product.UnitPrice = req.UnitPrice
	product.PricePerSquareInch = req.PricePerSquareInch
	product.MinimumStock = req.MinimumStock
	product.Supplier = req.Supplier
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return s.GetProduct(ctx, product.ID.String())
}

// DeleteProduct deactivates the product. Rows stay for sales history.
func (s *inventoryService) DeleteProduct(ctx context.Context, userID string, id string) error {
	productID, err := parseID("id", id)
	if err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return apperr.FromDB(err, "product")
	}
	product.IsActive = false
	product.Category = nil

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to deactivate product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteProduct, product.ID.String(), product.Name,
			map[string]any{"is_active": false})
	})
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *inventoryService) ListOutOfStock(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.ListOutOfStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list out of stock products: %w", err)
	}
	return toProductResponses(products), nil
}

// AdjustStock applies a signed manual correction and records an ADJUSTMENT movement.
func (s *inventoryService) AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (ProductResponse, error) {
	productID, err := parseID("id", id)
	if err != nil {
		return ProductResponse{}, err
	}
	if req.QuantityDelta == 0 {
		return ProductResponse{}, apperr.Validation("quantity_delta", "must not be zero")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.stock.apply(txCtx, stockChange{
			ProductID:    productID,
			Delta:        req.QuantityDelta,
			MovementType: model.MovementAdjustment,
			Reference:    "MANUAL",
			Notes:        req.Notes,
			UserID:       userID,
		})
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionAdjustStock, product.ID.String(), product.Name, map[string]any{
			"quantity_delta": req.QuantityDelta,
			"stock_after":    product.QuantityAvailable,
			"notes":          req.Notes,
		})
	})
	if err != nil {
		return ProductResponse{}, err
	}

	publish(s.events, ws.EventStockUpdated, stockEvent(product))
	return toProductResponse(product), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID string, page, limit int) ([]StockMovementResponse, int64, error) {
	pid, err := parseOptionalID("product_id", productID)
	if err != nil {
		return nil, 0, err
	}
	movements, total, err := s.movementRepo.List(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	res := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toStockMovementResponse(&movements[i]))
	}
	return res, total, nil
}

func (s *inventoryService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, CategoryResponse{ID: c.ID.String(), Name: c.Name, Description: c.Description})
	}
	return res, nil
}

func (s *inventoryService) CreateCategory(ctx context.Context, userID string, req CategoryRequest) (CategoryResponse, error) {
	category := model.ProductCategory{Name: strings.TrimSpace(req.Name), Description: req.Description}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.CreateCategory(txCtx, &category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return CategoryResponse{}, err
	}
	return CategoryResponse{ID: category.ID.String(), Name: category.Name, Description: category.Description}, nil
}
