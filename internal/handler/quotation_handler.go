package handler

import (
	"net/http"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/pagination"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuotationHandler struct {
	quotationService service.QuotationService
	idempotency      gin.HandlerFunc
}

// NewQuotationHandler builds the quotations handler. idempotency guards
// approval and may be nil.
func NewQuotationHandler(quotationService service.QuotationService, idempotency gin.HandlerFunc) *QuotationHandler {
	if idempotency == nil {
		idempotency = passThrough
	}
	return &QuotationHandler{quotationService: quotationService, idempotency: idempotency}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotations := router.Group("/quotations")
	{
		quotations.GET("", middleware.RequirePermission("quotations.read"), h.ListQuotations)
		quotations.GET("/:id", middleware.RequirePermission("quotations.read"), h.GetQuotation)
		quotations.POST("", middleware.RequirePermission("quotations.write"), h.CreateQuotation)
		quotations.PUT("/:id", middleware.RequirePermission("quotations.write"), h.UpdateQuotation)
		quotations.DELETE("/:id", middleware.RequirePermission("quotations.delete"), h.DeleteQuotation)
		quotations.POST("/:id/approve", middleware.RequirePermission("quotations.approve"), h.idempotency, h.ApproveQuotation)
		quotations.POST("/:id/reject", middleware.RequirePermission("quotations.approve"), h.RejectQuotation)
		quotations.POST("/delete_bulk", middleware.RequirePermission("quotations.delete"), h.DeleteBulk)
	}
}

// ListQuotations returns quotations, optionally filtered by status, client or search text
// @Summary      List quotations
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "PENDING, APPROVED, REJECTED or CONVERTED"
// @Param        client_id  query     string  false  "Client ID"
// @Param        search     query     string  false  "Quotation number or client name"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=pagination.Page[service.QuotationResponse]}
// @Router       /api/quotations [get]
func (h *QuotationHandler) ListQuotations(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.QuotationQuery{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		Search:   c.Query("search"),
		Page:     p.Page,
		Limit:    p.Limit,
	}

	quotations, total, err := h.quotationService.ListQuotations(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(quotations, total, p)))
}

// @Summary      Get quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/quotations/{id} [get]
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// CreateQuotation stores a PENDING quotation with server-computed totals
// @Summary      Create quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.QuotationRequest  true  "Quotation"
// @Success      201  {object}  response.Response{data=service.QuotationResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/quotations [post]
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	var req service.QuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

// UpdateQuotation replaces a PENDING quotation's fields and items
// @Summary      Update quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Quotation ID"
// @Param        payload  body      service.QuotationRequest  true  "Quotation"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id} [put]
func (h *QuotationHandler) UpdateQuotation(c *gin.Context) {
	var req service.QuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	quotation, err := h.quotationService.UpdateQuotation(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// @Summary      Delete quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id} [delete]
func (h *QuotationHandler) DeleteQuotation(c *gin.Context) {
	if err := h.quotationService.DeleteQuotation(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quotation deleted successfully"))
}

// ApproveQuotation moves a PENDING quotation to APPROVED
// @Summary      Approve quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id               path      string  true   "Quotation ID"
// @Param        Idempotency-Key  header    string  false  "Deduplicates retries"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/approve [post]
func (h *QuotationHandler) ApproveQuotation(c *gin.Context) {
	quotation, err := h.quotationService.ApproveQuotation(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// RejectQuotation moves a PENDING quotation to REJECTED
// @Summary      Reject quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/reject [post]
func (h *QuotationHandler) RejectQuotation(c *gin.Context) {
	quotation, err := h.quotationService.RejectQuotation(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// DeleteBulk removes several quotations; converted or missing ones are reported as skipped
// @Summary      Bulk delete quotations
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkDeleteRequest  true  "IDs"
// @Success      200  {object}  response.Response{data=service.BulkDeleteResult}
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/delete_bulk [post]
func (h *QuotationHandler) DeleteBulk(c *gin.Context) {
	var req service.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.quotationService.DeleteBulk(c.Request.Context(), middleware.CurrentUserID(c), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
