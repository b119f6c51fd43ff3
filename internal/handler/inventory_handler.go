package handler

import (
	"net/http"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/pagination"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
	idempotency      gin.HandlerFunc
}

// NewInventoryHandler builds the product catalog handler. idempotency guards
// stock adjustments and may be nil.
func NewInventoryHandler(inventoryService service.InventoryService, idempotency gin.HandlerFunc) *InventoryHandler {
	if idempotency == nil {
		idempotency = passThrough
	}
	return &InventoryHandler{inventoryService: inventoryService, idempotency: idempotency}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("/categories", middleware.RequirePermission("inventory.read"), h.ListCategories)
		inventory.POST("/categories", middleware.RequirePermission("inventory.write"), h.CreateCategory)

		inventory.GET("/products", middleware.RequirePermission("inventory.read"), h.GetProducts)
		inventory.GET("/products/low_stock", middleware.RequirePermission("inventory.read"), h.GetLowStock)
		inventory.GET("/products/out_of_stock", middleware.RequirePermission("inventory.read"), h.GetOutOfStock)
		inventory.GET("/products/:id", middleware.RequirePermission("inventory.read"), h.GetProduct)
		inventory.POST("/products", middleware.RequirePermission("inventory.write"), h.CreateProduct)
		inventory.PUT("/products/:id", middleware.RequirePermission("inventory.write"), h.UpdateProduct)
		inventory.DELETE("/products/:id", middleware.RequirePermission("inventory.write"), h.DeleteProduct)
		inventory.POST("/products/:id/adjust_stock", middleware.RequirePermission("inventory.write"), h.idempotency, h.AdjustStock)

		inventory.GET("/movements", middleware.RequirePermission("inventory.read"), h.ListMovements)
	}
}

// GetProducts handles retrieving paginated products with their stock status
// @Summary      Get products
// @Description  Retrieves a paginated list of products with current stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        search       query     string  false  "Search by name or SKU"
// @Param        category_id  query     string  false  "Category ID"
// @Param        is_active    query     bool    false  "Active filter"
// @Success      200    {object}  response.Response{data=pagination.Page[service.ProductResponse]}
// @Failure      500    {object}  response.Response
// @Router       /api/inventory/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.ProductQuery{
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		Active:     queryBool(c, "is_active"),
		Page:       p.Page,
		Limit:      p.Limit,
	}

	products, total, err := h.inventoryService.ListProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(products, total, p)))
}

// GetProduct returns a single product
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	product, err := h.inventoryService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// GetLowStock lists active products under their minimum stock
// @Summary      Low stock products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ProductResponse}
// @Router       /api/inventory/products/low_stock [get]
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	products, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// GetOutOfStock lists active products with no stock left
// @Summary      Out of stock products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ProductResponse}
// @Router       /api/inventory/products/out_of_stock [get]
func (h *InventoryHandler) GetOutOfStock(c *gin.Context) {
	products, err := h.inventoryService.ListOutOfStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// CreateProduct creates a new inventory product entry
// @Summary      Create product
// @Description  Creates a new product; the SKU is generated when omitted
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inventory/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct modifies product fields. Stock changes go through adjust_stock.
// @Summary      Update product
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct deactivates a product
// @Summary      Delete product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.inventoryService.DeleteProduct(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// AdjustStock applies a signed manual stock correction
// @Summary      Adjust stock
// @Description  Adds quantity_delta (may be negative) to the product stock and records an ADJUSTMENT movement
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id               path      string                      true   "Product ID"
// @Param        Idempotency-Key  header    string                      false  "Deduplicates retries"
// @Param        payload          body      service.AdjustStockRequest  true   "Delta and notes"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inventory/products/{id}/adjust_stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.inventoryService.AdjustStock(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListMovements returns the stock movement history
// @Summary      Stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  false  "Only movements of this product"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=pagination.Page[service.StockMovementResponse]}
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), c.Query("product_id"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(movements, total, p)))
}

// ListCategories returns all product categories
// @Summary      List categories
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.CategoryResponse}
// @Router       /api/inventory/categories [get]
func (h *InventoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.inventoryService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// CreateCategory adds a product category
// @Summary      Create category
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      201  {object}  response.Response{data=service.CategoryResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/categories [post]
func (h *InventoryHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.inventoryService.CreateCategory(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}
