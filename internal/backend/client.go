// Package backend is the JSON REST client for the order-management service
// that owns the source of truth. This module never persists anything itself;
// every mutation is a request to this collaborator, and record splitting for
// partial operations happens entirely on its side.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fulfillment-console/internal/core"

	"github.com/shopspring/decimal"
)

// APIError is a request the backend understood and rejected, as opposed to a
// transport failure. Message carries the backend-provided detail when the
// response body had one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d)", e.StatusCode)
}

// Client talks to the backend over HTTP. All calls honor the context; there
// is no retry logic — failures surface to the operator, who re-issues the
// action.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the given base URL. token, when non-empty,
// is sent as a bearer credential on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do issues one JSON round-trip. A non-2xx response is decoded into an
// *APIError; out, when non-nil, receives the decoded success body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Code = envelope.Code
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode backend response: %w", err)
		}
	}
	return nil
}

// FetchStage returns the orders holding items in one late pipeline stage.
// The backend pre-filters the items; callers must not re-filter by status.
func (c *Client) FetchStage(ctx context.Context, stage core.ItemStatus) ([]core.PurchaseOrder, error) {
	var orders []core.PurchaseOrder
	path := "/api/orders?stage=" + url.QueryEscape(string(stage))
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, fmt.Errorf("fetch stage %s: %w", stage, err)
	}
	return orders, nil
}

// FetchOrder returns one order snapshot, used for targeted reloads after a
// single-item mutation. Callers fall back to a full stage fetch when this
// fails.
func (c *Client) FetchOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	var order core.PurchaseOrder
	path := fmt.Sprintf("/api/orders/%d", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	return &order, nil
}

// FetchOpenOrders returns the full, unfiltered early-pipeline order
// collection. The caller's projection does its own status matching.
func (c *Client) FetchOpenOrders(ctx context.Context) ([]core.PurchaseOrder, error) {
	var orders []core.PurchaseOrder
	if err := c.do(ctx, http.MethodGet, "/api/orders/open", nil, &orders); err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	return orders, nil
}

// FetchStockLevels returns available quantity per product code.
func (c *Client) FetchStockLevels(ctx context.Context) (map[string]decimal.Decimal, error) {
	var levels map[string]decimal.Decimal
	if err := c.do(ctx, http.MethodGet, "/api/stock", nil, &levels); err != nil {
		return nil, fmt.Errorf("fetch stock levels: %w", err)
	}
	return levels, nil
}

// StockDetail is the backend's per-code stock breakdown.
type StockDetail struct {
	Code      string          `json:"code"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Warehouse string          `json:"warehouse,omitempty"`
}

// FetchStockDetail returns the stock breakdown for one product code.
func (c *Client) FetchStockDetail(ctx context.Context, code string) (*StockDetail, error) {
	var detail StockDetail
	if err := c.do(ctx, http.MethodGet, "/api/stock/"+url.PathEscape(code), nil, &detail); err != nil {
		return nil, fmt.Errorf("fetch stock detail for %s: %w", code, err)
	}
	return &detail, nil
}

// FetchContractLimits returns the contract ceiling per product code.
func (c *Client) FetchContractLimits(ctx context.Context) (map[string]decimal.Decimal, error) {
	var limits map[string]decimal.Decimal
	if err := c.do(ctx, http.MethodGet, "/api/contracts/limits", nil, &limits); err != nil {
		return nil, fmt.Errorf("fetch contract limits: %w", err)
	}
	return limits, nil
}

// FetchPlanningTotals returns the total requested quantity per code across
// the whole catalog, the fallback figure when no contract limit exists.
func (c *Client) FetchPlanningTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	var totals map[string]decimal.Decimal
	if err := c.do(ctx, http.MethodGet, "/api/planning/totals", nil, &totals); err != nil {
		return nil, fmt.Errorf("fetch planning totals: %w", err)
	}
	return totals, nil
}

// FetchSuppliers returns the known supplier names for autocomplete.
func (c *Client) FetchSuppliers(ctx context.Context) ([]string, error) {
	var suppliers []string
	if err := c.do(ctx, http.MethodGet, "/api/suppliers", nil, &suppliers); err != nil {
		return nil, fmt.Errorf("fetch suppliers: %w", err)
	}
	return suppliers, nil
}

// ItemPatch is a partial single-item update. Nil fields are left untouched.
type ItemPatch struct {
	Status            *core.ItemStatus `json:"status,omitempty"`
	Note              *string          `json:"note,omitempty"`
	ShippingCost      *decimal.Decimal `json:"shipping_cost,omitempty"`
	PurchasedQuantity *decimal.Decimal `json:"purchased_quantity,omitempty"`
	TrackingCode      *string          `json:"tracking_code,omitempty"`
	Owner             *string          `json:"owner,omitempty"`
	PurchaseDate      *string          `json:"purchase_date,omitempty"`
	ShipDate          *string          `json:"ship_date,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Status == nil && p.Note == nil && p.ShippingCost == nil &&
		p.PurchasedQuantity == nil && p.TrackingCode == nil && p.Owner == nil &&
		p.PurchaseDate == nil && p.ShipDate == nil
}

func itemPath(ref core.ItemRef) string {
	return fmt.Sprintf("/api/orders/%d/items/%d", ref.OrderID, ref.Position)
}

// UpdateItem applies a partial field update to one item.
func (c *Client) UpdateItem(ctx context.Context, ref core.ItemRef, patch ItemPatch) error {
	if err := c.do(ctx, http.MethodPatch, itemPath(ref), patch, nil); err != nil {
		return fmt.Errorf("update item %d of order %d: %w", ref.Position, ref.OrderID, err)
	}
	return nil
}

// UpdateItemStatus is a full-quantity status change for one item.
func (c *Client) UpdateItemStatus(ctx context.Context, ref core.ItemRef, status core.ItemStatus) error {
	return c.UpdateItem(ctx, ref, ItemPatch{Status: &status})
}

// PartialPurchase asks the backend to split an item and purchase part of it.
func (c *Client) PartialPurchase(ctx context.Context, ref core.ItemRef, req core.PartialPurchaseRequest) error {
	if err := c.do(ctx, http.MethodPost, itemPath(ref)+"/partial-purchase", req, nil); err != nil {
		return fmt.Errorf("partial purchase of item %d of order %d: %w", ref.Position, ref.OrderID, err)
	}
	return nil
}

// PartialShipment asks the backend to split an item and ship part of it.
func (c *Client) PartialShipment(ctx context.Context, ref core.ItemRef, req core.PartialShipmentRequest) error {
	if err := c.do(ctx, http.MethodPost, itemPath(ref)+"/partial-shipment", req, nil); err != nil {
		return fmt.Errorf("partial shipment of item %d of order %d: %w", ref.Position, ref.OrderID, err)
	}
	return nil
}

type batchFreightRequest struct {
	Positions      []int           `json:"positions"`
	PerItemFreight decimal.Decimal `json:"per_item_freight"`
}

// BatchFreight applies one per-item freight share to the given positions.
func (c *Client) BatchFreight(ctx context.Context, orderID int, positions []int, perItemShare decimal.Decimal) error {
	path := fmt.Sprintf("/api/orders/%d/batch/freight", orderID)
	body := batchFreightRequest{Positions: positions, PerItemFreight: perItemShare}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("batch freight on order %d: %w", orderID, err)
	}
	return nil
}

type batchTrackingRequest struct {
	Positions      []int           `json:"positions"`
	TrackingCode   string          `json:"tracking_code"`
	PerItemFreight decimal.Decimal `json:"per_item_freight,omitempty"`
}

// BatchTracking assigns one tracking code (and optionally a per-item freight
// share) to the given positions.
func (c *Client) BatchTracking(ctx context.Context, orderID int, positions []int, trackingCode string, perItemFreight decimal.Decimal) error {
	path := fmt.Sprintf("/api/orders/%d/batch/tracking", orderID)
	body := batchTrackingRequest{Positions: positions, TrackingCode: trackingCode, PerItemFreight: perItemFreight}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("batch tracking on order %d: %w", orderID, err)
	}
	return nil
}

type batchStatusRequest struct {
	Positions []int           `json:"positions"`
	Status    core.ItemStatus `json:"status"`
}

// BatchStatus moves the given positions to one target status, full quantity.
func (c *Client) BatchStatus(ctx context.Context, orderID int, positions []int, status core.ItemStatus) error {
	path := fmt.Sprintf("/api/orders/%d/batch/status", orderID)
	body := batchStatusRequest{Positions: positions, Status: status}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("batch status on order %d: %w", orderID, err)
	}
	return nil
}

// BulkStatusResult echoes how many of the order's items the backend moved.
type BulkStatusResult struct {
	Applied int    `json:"applied"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// BulkStatus moves every eligible item of an order to the target status.
func (c *Client) BulkStatus(ctx context.Context, orderID int, status core.ItemStatus) (*BulkStatusResult, error) {
	path := fmt.Sprintf("/api/orders/%d/bulk-status", orderID)
	var result BulkStatusResult
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"status": status}, &result); err != nil {
		return nil, fmt.Errorf("bulk status on order %d: %w", orderID, err)
	}
	return &result, nil
}

// SetDispatchFlag sets the order-level ready-for-dispatch flag.
func (c *Client) SetDispatchFlag(ctx context.Context, orderID int, ready bool) error {
	path := fmt.Sprintf("/api/orders/%d/dispatch-flag", orderID)
	if err := c.do(ctx, http.MethodPost, path, map[string]bool{"ready": ready}, nil); err != nil {
		return fmt.Errorf("set dispatch flag on order %d: %w", orderID, err)
	}
	return nil
}

// AttachSalesInvoice attaches a sales invoice covering the given positions.
func (c *Client) AttachSalesInvoice(ctx context.Context, orderID int, invoice core.SalesInvoice) error {
	path := fmt.Sprintf("/api/orders/%d/sales-invoices", orderID)
	if err := c.do(ctx, http.MethodPost, path, invoice, nil); err != nil {
		return fmt.Errorf("attach sales invoice to order %d: %w", orderID, err)
	}
	return nil
}

// DetachSalesInvoice removes a sales invoice by filename.
func (c *Client) DetachSalesInvoice(ctx context.Context, orderID int, filename string) error {
	path := fmt.Sprintf("/api/orders/%d/sales-invoices/%s", orderID, url.PathEscape(filename))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("detach sales invoice %s from order %d: %w", filename, orderID, err)
	}
	return nil
}

// UpdateAddress replaces the order's delivery address.
func (c *Client) UpdateAddress(ctx context.Context, orderID int, address string) error {
	path := fmt.Sprintf("/api/orders/%d/address", orderID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"delivery_address": address}, nil); err != nil {
		return fmt.Errorf("update address of order %d: %w", orderID, err)
	}
	return nil
}
