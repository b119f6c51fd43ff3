package handler

import (
	"net/http"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/pagination"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
	idempotency gin.HandlerFunc
}

// NewSaleHandler builds the sales handler. idempotency guards completion and
// may be nil.
func NewSaleHandler(saleService service.SaleService, idempotency gin.HandlerFunc) *SaleHandler {
	if idempotency == nil {
		idempotency = passThrough
	}
	return &SaleHandler{saleService: saleService, idempotency: idempotency}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/sales")
	{
		sales.GET("", middleware.RequirePermission("sales.read"), h.ListSales)
		sales.GET("/:id", middleware.RequirePermission("sales.read"), h.GetSale)
		sales.POST("", middleware.RequirePermission("sales.write"), h.CreateSale)
		sales.PUT("/:id", middleware.RequirePermission("sales.write"), h.UpdateSale)
		sales.POST("/:id/complete", middleware.RequirePermission("sales.complete"), h.idempotency, h.CompleteSale)
		sales.POST("/:id/cancel", middleware.RequirePermission("sales.complete"), h.CancelSale)
		sales.POST("/from_quotation", middleware.RequirePermission("sales.write"), h.idempotency, h.CreateFromQuotation)
		sales.POST("/delete_bulk", middleware.RequirePermission("sales.delete"), h.DeleteBulk)
	}
}

// ListSales returns a paginated list of sales
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status          query     string  false  "PENDING, COMPLETED or CANCELLED"
// @Param        payment_method  query     string  false  "CASH or TRANSFER"
// @Param        client_id       query     string  false  "Client ID"
// @Param        search          query     string  false  "Invoice number or client name"
// @Param        start_date      query     string  false  "From date (YYYY-MM-DD)"
// @Param        end_date        query     string  false  "To date, inclusive (YYYY-MM-DD)"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=pagination.Page[service.SaleResponse]}
// @Failure      400     {object}  response.Response
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.SaleQuery{
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		ClientID:      c.Query("client_id"),
		Search:        c.Query("search"),
		StartDate:     c.Query("start_date"),
		EndDate:       c.Query("end_date"),
		Page:          p.Page,
		Limit:         p.Limit,
	}

	sales, total, err := h.saleService.ListSales(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(sales, total, p)))
}

// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CreateSale creates a PENDING sale with an invoice number
// @Summary      Create sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaleRequest  true  "Sale"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.SaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// @Summary      Update sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Sale ID"
// @Param        payload  body      service.SaleRequest  true  "Sale"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales/{id} [put]
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	var req service.SaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CompleteSale deducts stock for every line and marks the sale COMPLETED, all or nothing
// @Summary      Complete sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id               path      string  true   "Sale ID"
// @Param        Idempotency-Key  header    string  false  "Deduplicates retries"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/complete [post]
func (h *SaleHandler) CompleteSale(c *gin.Context) {
	sale, err := h.saleService.CompleteSale(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CancelSale marks a PENDING sale CANCELLED without touching stock
// @Summary      Cancel sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) CancelSale(c *gin.Context) {
	sale, err := h.saleService.CancelSale(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CreateFromQuotation converts an APPROVED quotation into a PENDING sale
// @Summary      Sale from quotation
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                        false  "Deduplicates retries"
// @Param        payload          body      service.FromQuotationRequest  true   "Quotation and payment method"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales/from_quotation [post]
func (h *SaleHandler) CreateFromQuotation(c *gin.Context) {
	var req service.FromQuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CreateFromQuotation(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// DeleteBulk removes several sales; stock movements already recorded are kept
// @Summary      Bulk delete sales
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkDeleteRequest  true  "IDs"
// @Success      200  {object}  response.Response{data=service.BulkDeleteResult}
// @Failure      400  {object}  response.Response
// @Router       /api/sales/delete_bulk [post]
func (h *SaleHandler) DeleteBulk(c *gin.Context) {
	var req service.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.saleService.DeleteBulk(c.Request.Context(), middleware.CurrentUserID(c), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
