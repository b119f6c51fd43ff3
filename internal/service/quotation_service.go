package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"
	"rotuprinters/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// QuotationItemInput is one area-priced line. Numeric fields are optional and
// accept numbers or numeric strings; a line missing any of them totals zero.
// Quantity counts pieces and must be whole.
type QuotationItemInput struct {
	ProductID          string        `json:"product_id"`
	Description        string        `json:"description"`
	WidthInches        pricing.Input `json:"width_inches"`
	HeightInches       pricing.Input `json:"height_inches"`
	PricePerSquareInch pricing.Input `json:"price_per_square_inch"`
	Quantity           pricing.Input `json:"quantity"`
}

// QuotationRequest is used for create and full update. Totals sent by the
// client are never read; they are recomputed from the items.
type QuotationRequest struct {
	ClientID             string               `json:"client_id" binding:"required"`
	Items                []QuotationItemInput `json:"items" binding:"required,min=1,dive"`
	DiscountPercentage   decimal.Decimal      `json:"discount_percentage"`
	ApplyTax             bool                 `json:"apply_tax"`
	IncludeClientDetails bool                 `json:"include_client_details"`
	ClientRTN            string               `json:"client_rtn" binding:"max=20"`
	ClientPhone          string               `json:"client_phone" binding:"max=20"`
	ClientAddress        string               `json:"client_address"`
	ValidUntil           string               `json:"valid_until" binding:"omitempty,datetime=2006-01-02"`
	Notes                string               `json:"notes"`
}

type QuotationItemResponse struct {
	ID                 string        `json:"id"`
	ProductID          string        `json:"product_id"`
	ProductName        string        `json:"product_name"`
	Position           int           `json:"position"`
	Description        string        `json:"description"`
	WidthInches        pricing.Input `json:"width_inches"`
	HeightInches       pricing.Input `json:"height_inches"`
	PricePerSquareInch pricing.Input `json:"price_per_square_inch"`
	Quantity           pricing.Input `json:"quantity"`
	SquareInches       string        `json:"square_inches"`
	Total              string        `json:"total"`
}

type QuotationResponse struct {
	ID                   string                  `json:"id"`
	QuotationNumber      string                  `json:"quotation_number"`
	ClientID             string                  `json:"client_id"`
	ClientName           string                  `json:"client_name"`
	CreatedBy            string                  `json:"created_by"`
	Items                []QuotationItemResponse `json:"items"`
	Subtotal             string                  `json:"subtotal"`
	DiscountPercentage   string                  `json:"discount_percentage"`
	DiscountAmount       string                  `json:"discount_amount"`
	ApplyTax             bool                    `json:"apply_tax"`
	TaxAmount            string                  `json:"tax_amount"`
	TotalAmount          string                  `json:"total_amount"`
	Status               string                  `json:"status"`
	IncludeClientDetails bool                    `json:"include_client_details"`
	ClientRTN            string                  `json:"client_rtn"`
	ClientPhone          string                  `json:"client_phone"`
	ClientAddress        string                  `json:"client_address"`
	ValidUntil           string                  `json:"valid_until"`
	Notes                string                  `json:"notes"`
	CreatedAt            string                  `json:"created_at"`
	UpdatedAt            string                  `json:"updated_at"`
}

type QuotationQuery struct {
	Status   string
	ClientID string
	Search   string
	Page     int
	Limit    int
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// BulkDeleteResult lists what was removed and what was kept with a reason.
type BulkDeleteResult struct {
	Deleted int               `json:"deleted"`
	Skipped map[string]string `json:"skipped"`
}

// --- Interface ---

type QuotationService interface {
	ListQuotations(ctx context.Context, q QuotationQuery) ([]QuotationResponse, int64, error)
	GetQuotation(ctx context.Context, id string) (QuotationResponse, error)
	CreateQuotation(ctx context.Context, userID string, req QuotationRequest) (QuotationResponse, error)
	UpdateQuotation(ctx context.Context, userID string, id string, req QuotationRequest) (QuotationResponse, error)
	DeleteQuotation(ctx context.Context, userID string, id string) error
	ApproveQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error)
	RejectQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error)
	DeleteBulk(ctx context.Context, userID string, ids []string) (BulkDeleteResult, error)
}

// --- Implementation ---

type quotationService struct {
	quotationRepo repository.QuotationRepository
	clientRepo    repository.ClientRepository
	productRepo   repository.ProductRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) QuotationService {
	return &quotationService{
		quotationRepo: quotationRepo,
		clientRepo:    clientRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

func toQuotationResponse(q *model.Quotation) QuotationResponse {
	res := QuotationResponse{
		ID:                   q.ID.String(),
		QuotationNumber:      q.QuotationNumber,
		ClientID:             q.ClientID.String(),
		CreatedBy:            optionalIDString(q.CreatedByID),
		Items:                make([]QuotationItemResponse, 0, len(q.Items)),
		Subtotal:             pricing.Format(q.Subtotal),
		DiscountPercentage:   pricing.Format(q.DiscountPercentage),
		DiscountAmount:       pricing.Format(q.DiscountAmount),
		ApplyTax:             q.ApplyTax,
		TaxAmount:            pricing.Format(q.TaxAmount),
		TotalAmount:          pricing.Format(q.TotalAmount),
		Status:               q.Status,
		IncludeClientDetails: q.IncludeClientDetails,
		ClientRTN:            q.ClientRTN,
		ClientPhone:          q.ClientPhone,
		ClientAddress:        q.ClientAddress,
		Notes:                q.Notes,
		CreatedAt:            formatTime(q.CreatedAt),
		UpdatedAt:            formatTime(q.UpdatedAt),
	}
	if q.Client != nil {
		res.ClientName = q.Client.Name
	}
	if q.ValidUntil != nil {
		res.ValidUntil = q.ValidUntil.Format("2006-01-02")
	}
	for _, item := range q.Items {
		ir := QuotationItemResponse{
			ID:                 item.ID.String(),
			ProductID:          optionalIDString(item.ProductID),
			Position:           item.Position,
			Description:        item.Description,
			WidthInches:        pricing.Input{NullDecimal: item.WidthInches},
			HeightInches:       pricing.Input{NullDecimal: item.HeightInches},
			PricePerSquareInch: pricing.Input{NullDecimal: item.PricePerSquareInch},
			Quantity:           pricing.Input{NullDecimal: item.Quantity},
			SquareInches:       pricing.Format(item.SquareInches),
			Total:              pricing.Format(item.Total),
		}
		if item.Product != nil {
			ir.ProductName = item.Product.Name
		}
		res.Items = append(res.Items, ir)
	}
	return res
}

func validateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Validation("discount_percentage", "must be between 0 and 100")
	}
	return nil
}

func parseDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(field, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// buildItems converts request lines into model items, checking product references.
func (s *quotationService) buildItems(ctx context.Context, inputs []QuotationItemInput) ([]model.QuotationItem, error) {
	items := make([]model.QuotationItem, 0, len(inputs))
	for i, in := range inputs {
		productID, err := parseOptionalID(fmt.Sprintf("items[%d].product_id", i), in.ProductID)
		if err != nil {
			return nil, err
		}
		if productID != nil {
			if _, err := s.productRepo.FindByID(ctx, *productID); err != nil {
				return nil, apperr.FromDB(err, "product")
			}
		}
		if q := in.Quantity.NullDecimal; q.Valid && !q.Decimal.Equal(q.Decimal.Truncate(0)) {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "must be a whole number")
		}
		items = append(items, model.QuotationItem{
			ProductID:          productID,
			Position:           i,
			Description:        strings.TrimSpace(in.Description),
			WidthInches:        in.WidthInches.NullDecimal,
			HeightInches:       in.HeightInches.NullDecimal,
			PricePerSquareInch: in.PricePerSquareInch.NullDecimal,
			Quantity:           in.Quantity.NullDecimal,
		})
	}
	return items, nil
}

// applyRequest copies the request onto q and recomputes every total.
func (s *quotationService) applyRequest(ctx context.Context, q *model.Quotation, req QuotationRequest) error {
	if err := validateDiscount(req.DiscountPercentage); err != nil {
		return err
	}
	validUntil, err := parseDate("valid_until", req.ValidUntil)
	if err != nil {
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

	q.ClientID = client.ID
	q.Client = client
	q.Items = items
	q.DiscountPercentage = req.DiscountPercentage
	q.ApplyTax = req.ApplyTax
	q.IncludeClientDetails = req.IncludeClientDetails
	q.ClientRTN = req.ClientRTN
	q.ClientPhone = req.ClientPhone
	q.ClientAddress = req.ClientAddress
	if q.IncludeClientDetails {
		// Snapshot defaults to the client record when the form leaves it blank.
		if q.ClientRTN == "" {
			q.ClientRTN = client.RTN
		}
		if q.ClientPhone == "" {
			q.ClientPhone = client.Phone
		}
		if q.ClientAddress == "" {
			q.ClientAddress = client.Address
		}
	}
	q.ValidUntil = validUntil
	q.Notes = req.Notes
	q.Recalculate()
	return nil
}

func (s *quotationService) ListQuotations(ctx context.Context, q QuotationQuery) ([]QuotationResponse, int64, error) {
	clientID, err := parseOptionalID("client_id", q.ClientID)
	if err != nil {
		return nil, 0, err
	}
	quotations, total, err := s.quotationRepo.List(ctx, repository.QuotationFilter{
		Status:   strings.ToUpper(q.Status),
		ClientID: clientID,
		Search:   q.Search,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotations: %w", err)
	}
	res := make([]QuotationResponse, 0, len(quotations))
	for i := range quotations {
		res = append(res, toQuotationResponse(&quotations[i]))
	}
	return res, total, nil
}

func (s *quotationService) GetQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	quotationID, err := parseID("id", id)
	if err != nil {
		return QuotationResponse{}, err
	}
	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, apperr.FromDB(err, "quotation")
	}
	return toQuotationResponse(quotation), nil
}

func (s *quotationService) CreateQuotation(ctx context.Context, userID string, req QuotationRequest) (QuotationResponse, error) {
	quotation := model.Quotation{
		Status:      model.QuotationPending,
		CreatedByID: actorID(userID),
	}
	if err := s.applyRequest(ctx, &quotation, req); err != nil {
		return QuotationResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		last, err := s.quotationRepo.LastNumber(txCtx, QuotationPrefix)
		if err != nil {
			return fmt.Errorf("failed to read last quotation number: %w", err)
		}
		quotation.QuotationNumber = nextDocumentNumber(QuotationPrefix, last)

		if err := s.quotationRepo.Create(txCtx, &quotation); err != nil {
			return fmt.Errorf("failed to create quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateQuotation, quotation.ID.String(), quotation.QuotationNumber, map[string]any{
			"client_id": quotation.ClientID.String(),
			"items":     len(quotation.Items),
			"total":     pricing.Format(quotation.TotalAmount),
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}
	return s.GetQuotation(ctx, quotation.ID.String())
}

// UpdateQuotation replaces items and inputs of a PENDING quotation.
func (s *quotationService) UpdateQuotation(ctx context.Context, userID string, id string, req QuotationRequest) (QuotationResponse, error) {
	quotationID, err := parseID("id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByIDForUpdate(txCtx, quotationID)
		if err != nil {
			return apperr.FromDB(err, "quotation")
		}
		if !quotation.Editable() {
			return apperr.Transition("quotation", quotation.Status, "edit")
		}
		if err := s.applyRequest(txCtx, quotation, req); err != nil {
			return err
		}
		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to update quotation: %w", err)
		}
		if err := s.quotationRepo.ReplaceItems(txCtx, quotation.ID, quotation.Items); err != nil {
			return fmt.Errorf("failed to replace quotation items: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateQuotation, quotation.ID.String(), quotation.QuotationNumber, map[string]any{
			"items": len(quotation.Items),
			"total": pricing.Format(quotation.TotalAmount),
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}
	return s.GetQuotation(ctx, quotationID.String())
}

// DeleteQuotation removes any quotation that has not been turned into a sale.
func (s *quotationService) DeleteQuotation(ctx context.Context, userID string, id string) error {
	quotationID, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByIDForUpdate(txCtx, quotationID)
		if err != nil {
			return apperr.FromDB(err, "quotation")
		}
		if quotation.Status == model.QuotationConverted {
			return apperr.Transition("quotation", quotation.Status, "delete")
		}
		if err := s.quotationRepo.Delete(txCtx, quotation.ID); err != nil {
			return fmt.Errorf("failed to delete quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteQuotation, quotation.ID.String(), quotation.QuotationNumber, nil)
	})
}

// transition loads the quotation under lock, applies fn and persists the new status.
func (s *quotationService) transition(ctx context.Context, userID, id, action string, fn func(*model.Quotation) error) (QuotationResponse, error) {
	quotationID, err := parseID("id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByIDForUpdate(txCtx, quotationID)
		if err != nil {
			return apperr.FromDB(err, "quotation")
		}
		from := quotation.Status
		if err := fn(quotation); err != nil {
			return err
		}
		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to update quotation status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, action, quotation.ID.String(), quotation.QuotationNumber, map[string]any{
			"from": from,
			"to":   quotation.Status,
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}
	return s.GetQuotation(ctx, quotationID.String())
}

func (s *quotationService) ApproveQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	return s.transition(ctx, userID, id, model.ActionApproveQuotation, func(q *model.Quotation) error {
		return q.Approve()
	})
}

func (s *quotationService) RejectQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	return s.transition(ctx, userID, id, model.ActionRejectQuotation, func(q *model.Quotation) error {
		return q.Reject()
	})
}

// DeleteBulk deletes the given quotations in one transaction. Converted and
// unknown ids are reported as skipped.
func (s *quotationService) DeleteBulk(ctx context.Context, userID string, ids []string) (BulkDeleteResult, error) {
	result := BulkDeleteResult{Skipped: map[string]string{}}
	parsed, err := parseIDs("ids", ids)
	if err != nil {
		return result, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotations, err := s.quotationRepo.FindByIDs(txCtx, parsed)
		if err != nil {
			return fmt.Errorf("failed to load quotations: %w", err)
		}
		found := make(map[uuid.UUID]model.Quotation, len(quotations))
		for _, q := range quotations {
			found[q.ID] = q
		}

		deletable := make([]uuid.UUID, 0, len(parsed))
		numbers := make([]string, 0, len(parsed))
		for _, id := range parsed {
			q, ok := found[id]
			switch {
			case !ok:
				result.Skipped[id.String()] = "not found"
			case q.Status == model.QuotationConverted:
				result.Skipped[id.String()] = "converted to a sale"
			default:
				deletable = append(deletable, id)
				numbers = append(numbers, q.QuotationNumber)
			}
		}

		if err := s.quotationRepo.Delete(txCtx, deletable...); err != nil {
			return fmt.Errorf("failed to delete quotations: %w", err)
		}
		result.Deleted = len(deletable)
		if len(deletable) == 0 {
			return nil
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteQuotation, "", strings.Join(numbers, ", "), map[string]any{
			"deleted": numbers,
			"skipped": result.Skipped,
		})
	})
	if err != nil {
		return BulkDeleteResult{}, err
	}
	return result, nil
}
