package service

import (
	"context"
	"fmt"
	"strings"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
	ws "rotuprinters/internal/websocket"
)

type InventoryItemRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	SKU         string `json:"sku" binding:"max=50"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type UpdateInventoryItemRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	SKU         string `json:"sku" binding:"required,max=50"`
	Description string `json:"description"`
}

type InventoryItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	StockStatus string `json:"stock_status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type InventoryMovementResponse struct {
	ID            string `json:"id"`
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	MovementType  string `json:"movement_type"`
	QuantityDelta int    `json:"quantity_delta"`
	QuantityAfter int    `json:"quantity_after"`
	Notes         string `json:"notes"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
}

// SimpleInventoryService manages the name-and-quantity stock list that
// products may link to.
type SimpleInventoryService interface {
	ListItems(ctx context.Context, search string, page, limit int) ([]InventoryItemResponse, int64, error)
	GetItem(ctx context.Context, id string) (InventoryItemResponse, error)
	CreateItem(ctx context.Context, userID string, req InventoryItemRequest) (InventoryItemResponse, error)
	UpdateItem(ctx context.Context, userID string, id string, req UpdateInventoryItemRequest) (InventoryItemResponse, error)
	DeleteItem(ctx context.Context, userID string, id string) error
	AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (InventoryItemResponse, error)
	ListMovements(ctx context.Context, itemID string, page, limit int) ([]InventoryMovementResponse, int64, error)
}

type simpleInventoryService struct {
	itemRepo  repository.InventoryItemRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	events    EventPublisher
}

func NewSimpleInventoryService(
	itemRepo repository.InventoryItemRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) SimpleInventoryService {
	return &simpleInventoryService{
		itemRepo:  itemRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		events:    events,
	}
}

func toInventoryItemResponse(i *model.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:          i.ID.String(),
		Name:        i.Name,
		SKU:         i.SKU,
		Description: i.Description,
		Quantity:    i.Quantity,
		StockStatus: i.StockStatus(),
		CreatedAt:   formatTime(i.CreatedAt),
		UpdatedAt:   formatTime(i.UpdatedAt),
	}
}

func (s *simpleInventoryService) ListItems(ctx context.Context, search string, page, limit int) ([]InventoryItemResponse, int64, error) {
	items, total, err := s.itemRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory items: %w", err)
	}
	res := make([]InventoryItemResponse, 0, len(items))
	for i := range items {
		res = append(res, toInventoryItemResponse(&items[i]))
	}
	return res, total, nil
}

func (s *simpleInventoryService) GetItem(ctx context.Context, id string) (InventoryItemResponse, error) {
	itemID, err := parseID("id", id)
	if err != nil {
		return InventoryItemResponse{}, err
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return InventoryItemResponse{}, apperr.FromDB(err, "inventory item")
	}
	return toInventoryItemResponse(item), nil
}

func (s *simpleInventoryService) CreateItem(ctx context.Context, userID string, req InventoryItemRequest) (InventoryItemResponse, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		sku = generateSKU("INV-")
	}
	item := model.InventoryItem{
		Name:        strings.TrimSpace(req.Name),
		SKU:         sku,
		Description: req.Description,
		Quantity:    req.Quantity,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create inventory item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateInventoryItem, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return InventoryItemResponse{}, err
	}
	return toInventoryItemResponse(&item), nil
}

// UpdateItem edits descriptive fields. Quantity only moves through AdjustStock.
func (s *simpleInventoryService) UpdateItem(ctx context.Context, userID string, id string, req UpdateInventoryItemRequest) (InventoryItemResponse, error) {
	itemID, err := parseID("id", id)
	if err != nil {
		return InventoryItemResponse{}, err
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return InventoryItemResponse{}, apperr.FromDB(err, "inventory item")
	}

	item.Name = strings.TrimSpace(req.Name)
	item.SKU = strings.TrimSpace(req.SKU)
	item.Description = req.Description

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update inventory item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateInventoryItem, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return InventoryItemResponse{}, err
	}
	return toInventoryItemResponse(item), nil
}

func (s *simpleInventoryService) DeleteItem(ctx context.Context, userID string, id string) error {
	itemID, err := parseID("id", id)
	if err != nil {
		return err
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return apperr.FromDB(err, "inventory item")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Delete(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to delete inventory item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteInventoryItem, item.ID.String(), item.Name, nil)
	})
}

// AdjustStock applies quantity = previous + delta with no clamping.
func (s *simpleInventoryService) AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (InventoryItemResponse, error) {
	itemID, err := parseID("id", id)
	if err != nil {
		return InventoryItemResponse{}, err
	}
	if req.QuantityDelta == 0 {
		return InventoryItemResponse{}, apperr.Validation("quantity_delta", "must not be zero")
	}

	var item *model.InventoryItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.itemRepo.FindByIDForUpdate(txCtx, itemID)
		if err != nil {
			return apperr.FromDB(err, "inventory item")
		}

		item.Quantity += req.QuantityDelta
		if err := s.itemRepo.UpdateQuantity(txCtx, item.ID, item.Quantity); err != nil {
			return fmt.Errorf("failed to update inventory quantity: %w", err)
		}

		movementType := model.MovementEntry
		if req.QuantityDelta < 0 {
			movementType = model.MovementExit
		}
		movement := &model.InventoryMovement{
			ItemID:        item.ID,
			MovementType:  movementType,
			QuantityDelta: req.QuantityDelta,
			QuantityAfter: item.Quantity,
			Notes:         req.Notes,
			CreatedByID:   actorID(userID),
		}
		if err := s.itemRepo.CreateMovement(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record inventory movement: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionAdjustInventoryItem, item.ID.String(), item.Name, map[string]any{
			"quantity_delta": req.QuantityDelta,
			"quantity_after": item.Quantity,
			"notes":          req.Notes,
		})
	})
	if err != nil {
		return InventoryItemResponse{}, err
	}

	publish(s.events, ws.EventInventoryUpdated, map[string]any{
		"item_id":      item.ID.String(),
		"sku":          item.SKU,
		"name":         item.Name,
		"quantity":     item.Quantity,
		"stock_status": item.StockStatus(),
	})
	return toInventoryItemResponse(item), nil
}

func (s *simpleInventoryService) ListMovements(ctx context.Context, itemID string, page, limit int) ([]InventoryMovementResponse, int64, error) {
	id, err := parseOptionalID("item_id", itemID)
	if err != nil {
		return nil, 0, err
	}
	movements, total, err := s.itemRepo.ListMovements(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	res := make([]InventoryMovementResponse, 0, len(movements))
	for _, m := range movements {
		r := InventoryMovementResponse{
			ID:            m.ID.String(),
			ItemID:        m.ItemID.String(),
			MovementType:  m.MovementType,
			QuantityDelta: m.QuantityDelta,
			QuantityAfter: m.QuantityAfter,
			Notes:         m.Notes,
			CreatedBy:     optionalIDString(m.CreatedByID),
			CreatedAt:     formatTime(m.CreatedAt),
		}
		if m.Item != nil {
			r.ItemName = m.Item.Name
		}
		res = append(res, r)
	}
	return res, total, nil
}
