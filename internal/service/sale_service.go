package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"
	"rotuprinters/internal/repository"
	ws "rotuprinters/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type SaleItemInput struct {
	ProductID    string          `json:"product_id" binding:"required,uuid"`
	Description  string          `json:"description"`
	WidthInches  pricing.Input   `json:"width_inches"`
	HeightInches pricing.Input   `json:"height_inches"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity" binding:"gte=1"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
}

// SaleRequest is used for create and full update. ApplyTax defaults to true.
type SaleRequest struct {
	ClientID           string          `json:"client_id" binding:"required"`
	PaymentMethod      string          `json:"payment_method" binding:"omitempty,oneof=CASH TRANSFER"`
	Items              []SaleItemInput `json:"items" binding:"required,min=1,dive"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ApplyTax           *bool           `json:"apply_tax"`
	Notes              string          `json:"notes"`
}

type FromQuotationRequest struct {
	QuotationID   string `json:"quotation_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=CASH TRANSFER"`
	Notes         string `json:"notes"`
}

type SaleItemResponse struct {
	ID           string        `json:"id"`
	ProductID    string        `json:"product_id"`
	ProductName  string        `json:"product_name"`
	Position     int           `json:"position"`
	Description  string        `json:"description"`
	WidthInches  pricing.Input `json:"width_inches"`
	HeightInches pricing.Input `json:"height_inches"`
	UnitPrice    string        `json:"unit_price"`
	Quantity     int           `json:"quantity"`
	QuantityUsed string        `json:"quantity_used"`
	Total        string        `json:"total"`
}

type SaleResponse struct {
	ID                 string             `json:"id"`
	InvoiceNumber      string             `json:"invoice_number"`
	ClientID           string             `json:"client_id"`
	ClientName         string             `json:"client_name"`
	QuotationID        string             `json:"quotation_id"`
	CreatedBy          string             `json:"created_by"`
	PaymentMethod      string             `json:"payment_method"`
	Items              []SaleItemResponse `json:"items"`
	Subtotal           string             `json:"subtotal"`
	ApplyTax           bool               `json:"apply_tax"`
	TaxAmount          string             `json:"tax_amount"`
	DiscountPercentage string             `json:"discount_percentage"`
	DiscountAmount     string             `json:"discount_amount"`
	TotalAmount        string             `json:"total_amount"`
	Status             string             `json:"status"`
	CompletedAt        string             `json:"completed_at"`
	Notes              string             `json:"notes"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

type SaleQuery struct {
	Status        string
	PaymentMethod string
	ClientID      string
	Search        string
	StartDate     string
	EndDate       string
	Page          int
	Limit         int
}

// --- Interface ---

type SaleService interface {
	ListSales(ctx context.Context, q SaleQuery) ([]SaleResponse, int64, error)
	GetSale(ctx context.Context, id string) (SaleResponse, error)
	CreateSale(ctx context.Context, userID string, req SaleRequest) (SaleResponse, error)
	UpdateSale(ctx context.Context, userID string, id string, req SaleRequest) (SaleResponse, error)
	CompleteSale(ctx context.Context, userID string, id string) (SaleResponse, error)
	CancelSale(ctx context.Context, userID string, id string) (SaleResponse, error)
	CreateFromQuotation(ctx context.Context, userID string, req FromQuotationRequest) (SaleResponse, error)
	DeleteBulk(ctx context.Context, userID string, ids []string) (BulkDeleteResult, error)
}

// --- Implementation ---

type saleService struct {
	saleRepo      repository.SaleRepository
	quotationRepo repository.QuotationRepository
	clientRepo    repository.ClientRepository
	productRepo   repository.ProductRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	stock         stockAdjuster
	events        EventPublisher
	now           func() time.Time
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	quotationRepo repository.QuotationRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) SaleService {
	return &saleService{
		saleRepo:      saleRepo,
		quotationRepo: quotationRepo,
		clientRepo:    clientRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		stock:         stockAdjuster{products: productRepo, movements: movementRepo},
		events:        events,
		now:           time.Now,
	}
}

func toSaleResponse(s *model.Sale) SaleResponse {
	res := SaleResponse{
		ID:                 s.ID.String(),
		InvoiceNumber:      s.InvoiceNumber,
		ClientID:           s.ClientID.String(),
		QuotationID:        optionalIDString(s.QuotationID),
		CreatedBy:          optionalIDString(s.CreatedByID),
		PaymentMethod:      s.PaymentMethod,
		Items:              make([]SaleItemResponse, 0, len(s.Items)),
		Subtotal:           pricing.Format(s.Subtotal),
		ApplyTax:           s.ApplyTax,
		TaxAmount:          pricing.Format(s.TaxAmount),
		DiscountPercentage: pricing.Format(s.DiscountPercentage),
		DiscountAmount:     pricing.Format(s.DiscountAmount),
		TotalAmount:        pricing.Format(s.TotalAmount),
		Status:             s.Status,
		CompletedAt:        formatOptionalTime(s.CompletedAt),
		Notes:              s.Notes,
		CreatedAt:          formatTime(s.CreatedAt),
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
	if s.Client != nil {
		res.ClientName = s.Client.Name
	}
	for _, item := range s.Items {
		ir := SaleItemResponse{
			ID:           item.ID.String(),
			ProductID:    item.ProductID.String(),
			Position:     item.Position,
			Description:  item.Description,
			WidthInches:  pricing.Input{NullDecimal: item.WidthInches},
			HeightInches: pricing.Input{NullDecimal: item.HeightInches},
			UnitPrice:    pricing.Format(item.UnitPrice),
			Quantity:     item.Quantity,
			QuantityUsed: pricing.Format(item.QuantityUsed),
			Total:        pricing.Format(item.Total),
		}
		if item.Product != nil {
			ir.ProductName = item.Product.Name
		}
		res.Items = append(res.Items, ir)
	}
	return res
}

func (s *saleService) buildItems(ctx context.Context, inputs []SaleItemInput) ([]model.SaleItem, error) {
	items := make([]model.SaleItem, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		productID, err := parseID(field+".product_id", in.ProductID)
		if err != nil {
			return nil, err
		}
		if in.Quantity < 1 {
			return nil, apperr.Validation(field+".quantity", "must be at least 1")
		}
		if in.UnitPrice.IsNegative() {
			return nil, apperr.Validation(field+".unit_price", "must not be negative")
		}
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, apperr.FromDB(err, "product")
		}
		description := strings.TrimSpace(in.Description)
		if description == "" {
			description = product.Name
		}
		items = append(items, model.SaleItem{
			ProductID:    product.ID,
			Position:     i,
			Description:  description,
			WidthInches:  in.WidthInches.NullDecimal,
			HeightInches: in.HeightInches.NullDecimal,
			UnitPrice:    in.UnitPrice,
			Quantity:     in.Quantity,
			QuantityUsed: in.QuantityUsed,
		})
	}
	return items, nil
}

func (s *saleService) applyRequest(ctx context.Context, sale *model.Sale, req SaleRequest) error {
	if err := validateDiscount(req.DiscountPercentage); err != nil {
		return err
	}
	clientID, err := parseID("client_id", req.ClientID)
	if err != nil {
		return err
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return apperr.FromDB(err, "client")
	}
	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return err
	}

	sale.ClientID = client.ID
	sale.Client = client
	sale.Items = items
	sale.PaymentMethod = req.PaymentMethod
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = model.PaymentCash
	}
	sale.DiscountPercentage = req.DiscountPercentage
	sale.ApplyTax = true
	if req.ApplyTax != nil {
		sale.ApplyTax = *req.ApplyTax
	}
	sale.Notes = req.Notes
	sale.Recalculate()
	return nil
}

func (s *saleService) ListSales(ctx context.Context, q SaleQuery) ([]SaleResponse, int64, error) {
	clientID, err := parseOptionalID("client_id", q.ClientID)
	if err != nil {
		return nil, 0, err
	}
	from, err := parseDate("start_date", q.StartDate)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseDate("end_date", q.EndDate)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.SaleFilter{
		Status:        strings.ToUpper(q.Status),
		PaymentMethod: strings.ToUpper(q.PaymentMethod),
		ClientID:      clientID,
		Search:        q.Search,
		Page:          q.Page,
		Limit:         q.Limit,
	}
	if from != nil {
		filter.From = *from
	}
	if to != nil {
		// end_date is inclusive
		filter.To = to.AddDate(0, 0, 1)
	}

	sales, total, err := s.saleRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}
	return res, total, nil
}

func (s *saleService) GetSale(ctx context.Context, id string) (SaleResponse, error) {
	saleID, err := parseID("id", id)
	if err != nil {
		return SaleResponse{}, err
	}
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return SaleResponse{}, apperr.FromDB(err, "sale")
	}
	return toSaleResponse(sale), nil
}

// insert numbers and stores a new sale. It must run inside a transaction.
func (s *saleService) insert(txCtx context.Context, userID string, sale *model.Sale) error {
	last, err := s.saleRepo.LastNumber(txCtx, InvoicePrefix)
	if err != nil {
		return fmt.Errorf("failed to read last invoice number: %w", err)
	}
	sale.InvoiceNumber = nextDocumentNumber(InvoicePrefix, last)

	if err := s.saleRepo.Create(txCtx, sale); err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateSale, sale.ID.String(), sale.InvoiceNumber, map[string]any{
		"client_id":      sale.ClientID.String(),
		"quotation_id":   optionalIDString(sale.QuotationID),
		"payment_method": sale.PaymentMethod,
		"items":          len(sale.Items),
		"total":          pricing.Format(sale.TotalAmount),
	})
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req SaleRequest) (SaleResponse, error) {
	sale := model.Sale{
		Status:      model.SalePending,
		CreatedByID: actorID(userID),
	}
	if err := s.applyRequest(ctx, &sale, req); err != nil {
		return SaleResponse{}, err
	}

	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.insert(txCtx, userID, &sale)
	}); err != nil {
		return SaleResponse{}, err
	}
	return s.GetSale(ctx, sale.ID.String())
}

// UpdateSale replaces items and inputs of a PENDING sale.
func (s *saleService) UpdateSale(ctx context.Context, userID string, id string, req SaleRequest) (SaleResponse, error) {
	saleID, err := parseID("id", id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(txCtx, saleID)
		if err != nil {
			return apperr.FromDB(err, "sale")
		}
		if !sale.Editable() {
			return apperr.Transition("sale", sale.Status, "edit")
		}
		if err := s.applyRequest(txCtx, sale, req); err != nil {
			return err
		}
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}
		if err := s.saleRepo.ReplaceItems(txCtx, sale.ID, sale.Items); err != nil {
			return fmt.Errorf("failed to replace sale items: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateSale, sale.ID.String(), sale.InvoiceNumber, map[string]any{
			"items": len(sale.Items),
			"total": pricing.Format(sale.TotalAmount),
		})
	})
	if err != nil {
		return SaleResponse{}, err
	}
	return s.GetSale(ctx, saleID.String())
}

// CompleteSale moves a PENDING sale to COMPLETED and deducts each line's
// quantity from its product in the same transaction. The status check runs
// under the sale's row lock, so a second call fails with InvalidTransition
// instead of deducting again. Any error rolls the whole thing back.
func (s *saleService) CompleteSale(ctx context.Context, userID string, id string) (SaleResponse, error) {
	saleID, err := parseID("id", id)
	if err != nil {
		return SaleResponse{}, err
	}

	var touched []*model.Product
	var invoice string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(txCtx, saleID)
		if err != nil {
			return apperr.FromDB(err, "sale")
		}
		if err := sale.Complete(s.now()); err != nil {
			return err
		}
		invoice = sale.InvoiceNumber

		// Lock products in a stable order so concurrent completions cannot deadlock.
		items := append([]model.SaleItem(nil), sale.Items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ProductID.String() < items[j].ProductID.String()
		})

		deducted := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if item.Quantity <= 0 {
				continue
			}
			product, err := s.stock.apply(txCtx, stockChange{
				ProductID:    item.ProductID,
				Delta:        -item.Quantity,
				MovementType: model.MovementExit,
				Reference:    sale.InvoiceNumber,
				Notes:        item.Description,
				SaleID:       &sale.ID,
				UserID:       userID,
			})
			if err != nil {
				return err
			}
			touched = append(touched, product)
			deducted = append(deducted, map[string]any{
				"product_id":  product.ID.String(),
				"quantity":    item.Quantity,
				"stock_after": product.QuantityAvailable,
			})
		}

		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCompleteSale, sale.ID.String(), sale.InvoiceNumber, map[string]any{
			"deducted": deducted,
		})
	})
	if err != nil {
		return SaleResponse{}, err
	}

	for _, p := range touched {
		publish(s.events, ws.EventStockUpdated, stockEvent(p))
	}
	publish(s.events, ws.EventSaleCompleted, map[string]any{"sale_id": saleID.String(), "invoice_number": invoice})
	return s.GetSale(ctx, saleID.String())
}

// CancelSale moves a PENDING sale to CANCELLED. Stock is never touched.
func (s *saleService) CancelSale(ctx context.Context, userID string, id string) (SaleResponse, error) {
	saleID, err := parseID("id", id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(txCtx, saleID)
		if err != nil {
			return apperr.FromDB(err, "sale")
		}
		if err := sale.Cancel(); err != nil {
			return err
		}
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCancelSale, sale.ID.String(), sale.InvoiceNumber, nil)
	})
	if err != nil {
		return SaleResponse{}, err
	}
	return s.GetSale(ctx, saleID.String())
}

// CreateFromQuotation turns an APPROVED quotation into a PENDING sale and
// marks the quotation CONVERTED, both in one transaction. Each line keeps
// its total: unit price is the per-piece area price and quantity_used the
// square inches consumed.
func (s *saleService) CreateFromQuotation(ctx context.Context, userID string, req FromQuotationRequest) (SaleResponse, error) {
	quotationID, err := parseID("quotation_id", req.QuotationID)
	if err != nil {
		return SaleResponse{}, err
	}

	var sale model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByIDForUpdate(txCtx, quotationID)
		if err != nil {
			return apperr.FromDB(err, "quotation")
		}
		if err := quotation.Convert(); err != nil {
			return err
		}

		items := make([]model.SaleItem, 0, len(quotation.Items))
		for i, qi := range quotation.Items {
			if qi.ProductID == nil {
				return apperr.Validation(fmt.Sprintf("items[%d].product_id", i), "is required to convert the quotation into a sale")
			}
			line := qi.Line()
			if !line.Complete() {
				return apperr.Validation(fmt.Sprintf("items[%d]", i), "needs width, height, price per square inch and quantity to be sold")
			}
			if !line.Quantity.Decimal.Equal(line.Quantity.Decimal.Truncate(0)) {
				return apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "must be a whole number")
			}
			squareInches := line.SquareInches()
			quantity := int(line.Quantity.Decimal.IntPart())
			items = append(items, model.SaleItem{
				ProductID:    *qi.ProductID,
				Position:     i,
				Description:  qi.Description,
				WidthInches:  qi.WidthInches,
				HeightInches: qi.HeightInches,
				UnitPrice:    line.PricePerSquareInch.Decimal.Mul(squareInches),
				Quantity:     quantity,
				QuantityUsed: squareInches.Mul(decimal.NewFromInt(int64(quantity))),
			})
		}

		paymentMethod := req.PaymentMethod
		if paymentMethod == "" {
			paymentMethod = model.PaymentCash
		}
		notes := req.Notes
		if notes == "" {
			notes = quotation.Notes
		}
		sale = model.Sale{
			ClientID:           quotation.ClientID,
			QuotationID:        &quotation.ID,
			CreatedByID:        actorID(userID),
			PaymentMethod:      paymentMethod,
			Items:              items,
			DiscountPercentage: quotation.DiscountPercentage,
			ApplyTax:           quotation.ApplyTax,
			Status:             model.SalePending,
			Notes:              notes,
		}
		sale.Recalculate()

		if err := s.insert(txCtx, userID, &sale); err != nil {
			return err
		}
		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to mark quotation converted: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionConvertQuotation, quotation.ID.String(), quotation.QuotationNumber, map[string]any{
			"sale_id":        sale.ID.String(),
			"invoice_number": sale.InvoiceNumber,
		})
	})
	if err != nil {
		return SaleResponse{}, err
	}
	return s.GetSale(ctx, sale.ID.String())
}

// DeleteBulk removes sales and their items. Stock movements written by
// completed sales stay in the ledger.
func (s *saleService) DeleteBulk(ctx context.Context, userID string, ids []string) (BulkDeleteResult, error) {
	result := BulkDeleteResult{Skipped: map[string]string{}}
	parsed, err := parseIDs("ids", ids)
	if err != nil {
		return result, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sales, err := s.saleRepo.FindByIDs(txCtx, parsed)
		if err != nil {
			return fmt.Errorf("failed to load sales: %w", err)
		}
		found := make(map[uuid.UUID]string, len(sales))
		for _, sale := range sales {
			found[sale.ID] = sale.InvoiceNumber
		}

		deletable := make([]uuid.UUID, 0, len(parsed))
		numbers := make([]string, 0, len(parsed))
		for _, id := range parsed {
			number, ok := found[id]
			if !ok {
				result.Skipped[id.String()] = "not found"
				continue
			}
			deletable = append(deletable, id)
			numbers = append(numbers, number)
		}

		if err := s.saleRepo.Delete(txCtx, deletable...); err != nil {
			return fmt.Errorf("failed to delete sales: %w", err)
		}
		result.Deleted = len(deletable)
		if len(deletable) == 0 {
			return nil
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteSale, "", strings.Join(numbers, ", "), map[string]any{
			"deleted": numbers,
		})
	})
	if err != nil {
		return BulkDeleteResult{}, err
	}
	return result, nil
}
