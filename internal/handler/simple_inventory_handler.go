package handler

import (
	"net/http"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/pagination"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
)

// SimpleInventoryHandler serves the stand-alone supplies list (paper, ink,
// vinyl) that is tracked apart from the sellable catalog.
type SimpleInventoryHandler struct {
	service     service.SimpleInventoryService
	idempotency gin.HandlerFunc
}

func NewSimpleInventoryHandler(svc service.SimpleInventoryService, idempotency gin.HandlerFunc) *SimpleInventoryHandler {
	if idempotency == nil {
		idempotency = passThrough
	}
	return &SimpleInventoryHandler{service: svc, idempotency: idempotency}
}

func (h *SimpleInventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/simple-inventory")
	{
		group.GET("/products", middleware.RequirePermission("inventory.read"), h.ListItems)
		group.GET("/products/:id", middleware.RequirePermission("inventory.read"), h.GetItem)
		group.POST("/products", middleware.RequirePermission("inventory.write"), h.CreateItem)
		group.PUT("/products/:id", middleware.RequirePermission("inventory.write"), h.UpdateItem)
		group.DELETE("/products/:id", middleware.RequirePermission("inventory.write"), h.DeleteItem)
		group.POST("/products/:id/adjust_stock", middleware.RequirePermission("inventory.write"), h.idempotency, h.AdjustStock)
		group.GET("/movements", middleware.RequirePermission("inventory.read"), h.ListMovements)
	}
}

// ListItems returns paginated supplies
// @Summary      List supplies
// @Tags         simple-inventory
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name or SKU"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=pagination.Page[service.InventoryItemResponse]}
// @Router       /api/simple-inventory/products [get]
func (h *SimpleInventoryHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.service.ListItems(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(items, total, p)))
}

// @Summary      Get supply
// @Tags         simple-inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/simple-inventory/products/{id} [get]
func (h *SimpleInventoryHandler) GetItem(c *gin.Context) {
	item, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// @Summary      Create supply
// @Tags         simple-inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InventoryItemRequest  true  "Item"
// @Success      201  {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/simple-inventory/products [post]
func (h *SimpleInventoryHandler) CreateItem(c *gin.Context) {
	var req service.InventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// @Summary      Update supply
// @Tags         simple-inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Item ID"
// @Param        payload  body      service.UpdateInventoryItemRequest  true  "Item"
// @Success      200  {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/simple-inventory/products/{id} [put]
func (h *SimpleInventoryHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateInventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// @Summary      Delete supply
// @Tags         simple-inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/simple-inventory/products/{id} [delete]
func (h *SimpleInventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item deleted successfully"))
}

// AdjustStock records an ENTRY for positive deltas and an EXIT for negative ones
// @Summary      Adjust supply stock
// @Tags         simple-inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id               path      string                      true   "Item ID"
// @Param        Idempotency-Key  header    string                      false  "Deduplicates retries"
// @Param        payload          body      service.AdjustStockRequest  true   "Delta and notes"
// @Success      200  {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/simple-inventory/products/{id}/adjust_stock [post]
func (h *SimpleInventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.AdjustStock(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// @Summary      Supply movements
// @Tags         simple-inventory
// @Security     BearerAuth
// @Produce      json
// @Param        item_id  query     string  false  "Only movements of this item"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=pagination.Page[service.InventoryMovementResponse]}
// @Router       /api/simple-inventory/movements [get]
func (h *SimpleInventoryHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)

	movements, total, err := h.service.ListMovements(c.Request.Context(), c.Query("item_id"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(movements, total, p)))
}
