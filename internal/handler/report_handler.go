package handler

import (
	"net/http"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(middleware.RequirePermission("reports.read"))
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/sales", h.Sales)
		reports.GET("/inventory", h.Inventory)
		reports.GET("/quotations", h.Quotations)
		reports.GET("/clients", h.Clients)
	}
}

// @Summary      Dashboard
// @Description  Headline counters for sales, quotations, inventory and clients
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	res, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// @Summary      Sales report
// @Description  Completed sales summary, monthly series, top products and payment methods
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "From date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "To date, inclusive (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=service.SalesReportResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/sales [get]
func (h *ReportHandler) Sales(c *gin.Context) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Sales(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// @Summary      Inventory report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InventoryReportResponse}
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) Inventory(c *gin.Context) {
	res, err := h.reportService.Inventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// @Summary      Quotations report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "From date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "To date, inclusive (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=service.QuotationsReportResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/quotations [get]
func (h *ReportHandler) Quotations(c *gin.Context) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Quotations(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// @Summary      Clients report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "From date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "To date, inclusive (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=service.ClientsReportResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/clients [get]
func (h *ReportHandler) Clients(c *gin.Context) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.reportService.Clients(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
