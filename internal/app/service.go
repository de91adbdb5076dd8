package app

import (
	"context"

	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/shopspring/decimal"
)

// Backend is the slice of the order-management client the session layer
// depends on. *backend.Client satisfies it; tests substitute a fake.
type Backend interface {
	core.Dispatcher

	FetchStage(ctx context.Context, stage core.ItemStatus) ([]core.PurchaseOrder, error)
	FetchOpenOrders(ctx context.Context) ([]core.PurchaseOrder, error)
	FetchOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)
	FetchStockLevels(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchStockDetail(ctx context.Context, code string) (*backend.StockDetail, error)
	FetchContractLimits(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchPlanningTotals(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchSuppliers(ctx context.Context) ([]string, error)
	UpdateItem(ctx context.Context, ref core.ItemRef, patch backend.ItemPatch) error
	BulkStatus(ctx context.Context, orderID int, status core.ItemStatus) (*backend.BulkStatusResult, error)
	SetDispatchFlag(ctx context.Context, orderID int, ready bool) error
	AttachSalesInvoice(ctx context.Context, orderID int, invoice core.SalesInvoice) error
	DetachSalesInvoice(ctx context.Context, orderID int, filename string) error
	UpdateAddress(ctx context.Context, orderID int, address string) error
}

// ApplicationService is the single interface the web adapter calls. It owns
// one operator session: the viewed stage, the filter state, the four
// selection sets, and the latest catalog snapshot. Implementations contain
// no display logic.
type ApplicationService interface {
	// SetStage switches the viewed pipeline stage, refetching through the
	// matching branch (early stages fetch the full open-order collection,
	// late stages fetch pre-filtered items). All selections are cleared and
	// pages reset.
	SetStage(ctx context.Context, stage core.ItemStatus) error

	// Stage returns the currently viewed stage.
	Stage() core.ItemStatus

	// SetFilter replaces the filter criteria and resets pagination.
	SetFilter(f core.FilterState)

	// Filter returns the active filter criteria.
	Filter() core.FilterState

	// Reload refetches the current stage. Position-index identity is only
	// valid within one snapshot, so every selection is invalidated.
	Reload(ctx context.Context) error

	// ListItems returns one page of the filtered flat item view.
	ListItems(page int) *ItemPageResult

	// ListCodeGroups returns one page of the code-grouped view.
	ListCodeGroups(page int) *CodeGroupPageResult

	// ListOrderGroups returns one page of the order-grouped attention view.
	// Only available for the staging, ready-to-ship, and in-transit stages.
	ListOrderGroups(page int) (*OrderGroupPageResult, error)

	// ToggleSelection flips one item in the given category's selection.
	ToggleSelection(category core.SelectionCategory, orderID, position int) error

	// ToggleAllSelection applies select-all semantics over the order's
	// currently displayed (filtered) items in the given category.
	ToggleAllSelection(category core.SelectionCategory, orderID int) error

	// Selection returns the selected positions for an order in a category.
	Selection(category core.SelectionCategory, orderID int) ([]int, error)

	// DistributeFreight splits a freight total equally across the freight
	// selection of one order and reports the per-item share applied.
	DistributeFreight(ctx context.Context, orderID int, total decimal.Decimal) (*FreightResult, error)

	// AssignTracking propagates a tracking code (plus an optional freight
	// total) to the tracking selection of one order.
	AssignTracking(ctx context.Context, orderID int, trackingCode string, freightTotal decimal.Decimal) error

	// ChangeStatus moves the status selection of one order to the target
	// stage, entire quantities. admin enables the wildcard override.
	ChangeStatus(ctx context.Context, orderID int, target core.ItemStatus, admin bool) error

	// ApplyCombined issues freight, tracking, and status mutations over the
	// tracking selection as one action, strictly in that order.
	ApplyCombined(ctx context.Context, orderID int, req core.CombinedRequest, admin bool) error

	// BulkStatus moves every eligible item of one order to the target stage,
	// echoing the backend's applied/total counts.
	BulkStatus(ctx context.Context, orderID int, target core.ItemStatus) (*backend.BulkStatusResult, error)

	// PartialPurchase sources part of a single item's quantity. Requests at
	// or above the full quantity degrade to an ordinary purchase.
	PartialPurchase(ctx context.Context, ref core.ItemRef, req core.PartialPurchaseRequest) error

	// PartialShipment ships part of a single item's quantity, with the same
	// full-quantity fallback.
	PartialShipment(ctx context.Context, ref core.ItemRef, req core.PartialShipmentRequest) error

	// UpdateItem applies a partial field update to one item, then reloads
	// just its parent order; if that targeted reload fails, the whole
	// catalog is refetched instead.
	UpdateItem(ctx context.Context, ref core.ItemRef, patch backend.ItemPatch) error

	// ToggleReadyForDispatch flips the order-level dispatch flag. The local
	// aggregate updates optimistically before the backend confirms, keeping
	// the attention ranking responsive; on failure the flip is undone.
	ToggleReadyForDispatch(ctx context.Context, orderID int) error

	// AttachSalesInvoice attaches a sales invoice to an order. When the
	// request names no positions, the order's invoice selection is used.
	AttachSalesInvoice(ctx context.Context, req AttachInvoiceRequest) error

	// DetachSalesInvoice removes a sales invoice by filename.
	DetachSalesInvoice(ctx context.Context, orderID int, filename string) error

	// UpdateAddress replaces an order's delivery address.
	UpdateAddress(ctx context.Context, orderID int, address string) error

	// ListSuppliers returns supplier names for autocomplete.
	ListSuppliers(ctx context.Context) ([]string, error)

	// GetStockDetail returns the stock breakdown for one product code.
	GetStockDetail(ctx context.Context, code string) (*backend.StockDetail, error)
}
