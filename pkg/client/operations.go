package client

import (
	"context"
	"net/http"

	"rotuprinters/internal/service"

	"github.com/google/uuid"
)

func (c *Client) CreateQuotation(ctx context.Context, s *Session, req service.QuotationRequest) (*service.QuotationResponse, error) {
	var q service.QuotationResponse
	if err := c.do(ctx, s, request{method: http.MethodPost, path: "/api/quotations", body: req}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) GetQuotation(ctx context.Context, s *Session, id string) (*service.QuotationResponse, error) {
	var q service.QuotationResponse
	if err := c.do(ctx, s, request{method: http.MethodGet, path: pathID("/api/quotations/%s", id)}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ApproveQuotation moves a PENDING quotation to APPROVED.
func (c *Client) ApproveQuotation(ctx context.Context, s *Session, id string) (*service.QuotationResponse, error) {
	var q service.QuotationResponse
	if err := c.do(ctx, s, request{method: http.MethodPost, path: pathID("/api/quotations/%s/approve", id)}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// RejectQuotation moves a PENDING quotation to REJECTED.
func (c *Client) RejectQuotation(ctx context.Context, s *Session, id string) (*service.QuotationResponse, error) {
	var q service.QuotationResponse
	if err := c.do(ctx, s, request{method: http.MethodPost, path: pathID("/api/quotations/%s/reject", id)}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) GetSale(ctx context.Context, s *Session, id string) (*service.SaleResponse, error) {
	var sale service.SaleResponse
	if err := c.do(ctx, s, request{method: http.MethodGet, path: pathID("/api/sales/%s", id)}, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

// CompleteSale deducts stock for a PENDING sale. The request carries a fresh
// idempotency key that is reused if the call is retried after a refresh.
func (c *Client) CompleteSale(ctx context.Context, s *Session, id string) (*service.SaleResponse, error) {
	var sale service.SaleResponse
	err := c.do(ctx, s, request{
		method:         http.MethodPost,
		path:           pathID("/api/sales/%s/complete", id),
		idempotencyKey: uuid.NewString(),
	}, &sale)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CancelSale cancels a PENDING sale without touching stock.
func (c *Client) CancelSale(ctx context.Context, s *Session, id string) (*service.SaleResponse, error) {
	var sale service.SaleResponse
	if err := c.do(ctx, s, request{method: http.MethodPost, path: pathID("/api/sales/%s/cancel", id)}, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

// AdjustStock applies a signed quantity delta to a product.
func (c *Client) AdjustStock(ctx context.Context, s *Session, productID string, delta int, notes string) (*service.ProductResponse, error) {
	var product service.ProductResponse
	err := c.do(ctx, s, request{
		method:         http.MethodPost,
		path:           pathID("/api/inventory/products/%s/adjust_stock", productID),
		body:           service.AdjustStockRequest{QuantityDelta: delta, Notes: notes},
		idempotencyKey: uuid.NewString(),
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
