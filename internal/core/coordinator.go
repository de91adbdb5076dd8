package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Local precondition failures. These are checked before any network call and
// short-circuit the whole operation; the backend is never contacted.
var (
	ErrEmptySelection     = errors.New("no items selected")
	ErrNonPositiveFreight = errors.New("freight total must be positive")
	ErrMissingTracking    = errors.New("tracking code is required")
	ErrNonPositiveQty     = errors.New("quantity must be positive")
	ErrInvalidTransition  = errors.New("status transition not allowed")
)

// Dispatcher is the mutation surface of the order-management backend, as
// seen by the coordinator. The backend owns the source of truth and performs
// any record splitting; the coordinator only computes derived values and
// issues calls.
type Dispatcher interface {
	BatchFreight(ctx context.Context, orderID int, positions []int, perItemShare decimal.Decimal) error
	BatchTracking(ctx context.Context, orderID int, positions []int, trackingCode string, perItemFreight decimal.Decimal) error
	BatchStatus(ctx context.Context, orderID int, positions []int, status ItemStatus) error
	UpdateItemStatus(ctx context.Context, ref ItemRef, status ItemStatus) error
	PartialPurchase(ctx context.Context, ref ItemRef, req PartialPurchaseRequest) error
	PartialShipment(ctx context.Context, ref ItemRef, req PartialShipmentRequest) error
}

// PartialPurchaseRequest sources part of an item's quantity, leaving the
// remainder in its current stage. Quantity must be strictly below the item's
// total; the coordinator enforces the fallback rule before dispatch.
type PartialPurchaseRequest struct {
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Freight   decimal.Decimal `json:"freight"`
	Supplier  string          `json:"supplier,omitempty"`
	Link      string          `json:"link,omitempty"`
}

// PartialShipmentRequest ships part of an item's quantity.
type PartialShipmentRequest struct {
	Quantity     decimal.Decimal `json:"quantity"`
	TrackingCode string          `json:"tracking_code,omitempty"`
	Freight      decimal.Decimal `json:"freight"`
}

// CombinedRequest bundles up to three batch mutations issued as one user
// action. Absent parts are skipped; present parts dispatch strictly in
// freight, tracking, status order.
type CombinedRequest struct {
	FreightTotal *decimal.Decimal `json:"freight_total,omitempty"`
	TrackingCode string           `json:"tracking_code,omitempty"`
	Status       *ItemStatus      `json:"status,omitempty"`
}

// Empty reports whether the request carries no mutation at all.
func (r CombinedRequest) Empty() bool {
	return r.FreightTotal == nil && r.TrackingCode == "" && r.Status == nil
}

// Coordinator computes derived per-item values for batch mutations and
// dispatches them. It holds no state of its own: selections and the catalog
// snapshot belong to the session layer, which reloads and clears them after
// every successful operation.
type Coordinator struct {
	d Dispatcher
}

// NewCoordinator wires a coordinator to the backend dispatcher.
func NewCoordinator(d Dispatcher) *Coordinator {
	return &Coordinator{d: d}
}

// FreightShare is the per-item freight for a batch: total divided by the
// item count, rounded half-even to cents. The share is computed once and
// applied identically to every item; the cumulative rounding remainder is
// accepted, not redistributed.
func FreightShare(total decimal.Decimal, count int) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(count))).RoundBank(2)
}

// DistributeFreight spreads a freight total equally across the selected
// items and returns the per-item share that was applied.
func (c *Coordinator) DistributeFreight(ctx context.Context, orderID int, positions []int, total decimal.Decimal) (decimal.Decimal, error) {
	if len(positions) == 0 {
		return decimal.Zero, ErrEmptySelection
	}
	if !total.IsPositive() {
		return decimal.Zero, ErrNonPositiveFreight
	}
	share := FreightShare(total, len(positions))
	if err := c.d.BatchFreight(ctx, orderID, positions, share); err != nil {
		return decimal.Zero, fmt.Errorf("distribute freight on order %d: %w", orderID, err)
	}
	return share, nil
}

// AssignTracking propagates one tracking code to every selected item. A
// positive freight total is split into per-item shares and sent on the same
// call; zero freight means tracking only.
func (c *Coordinator) AssignTracking(ctx context.Context, orderID int, positions []int, trackingCode string, freightTotal decimal.Decimal) error {
	if len(positions) == 0 {
		return ErrEmptySelection
	}
	if trackingCode == "" {
		return ErrMissingTracking
	}
	var share decimal.Decimal
	if freightTotal.IsPositive() {
		share = FreightShare(freightTotal, len(positions))
	}
	if err := c.d.BatchTracking(ctx, orderID, positions, trackingCode, share); err != nil {
		return fmt.Errorf("assign tracking on order %d: %w", orderID, err)
	}
	return nil
}

// ChangeStatus applies one target status to every selected item, always for
// the item's entire quantity. Without admin, every item must be able to
// reach the target along the forward pipeline; admin is the unrestricted
// override.
func (c *Coordinator) ChangeStatus(ctx context.Context, orderID int, items []CatalogItem, target ItemStatus, admin bool) error {
	if len(items) == 0 {
		return ErrEmptySelection
	}
	if !ValidStatus(target) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	positions := make([]int, len(items))
	for i, item := range items {
		if !CanTransition(item.Status, target, admin) {
			return fmt.Errorf("%w: item %d of order %d is %s, cannot move to %s",
				ErrInvalidTransition, item.Position, orderID, item.Status, target)
		}
		positions[i] = item.Position
	}
	if err := c.d.BatchStatus(ctx, orderID, positions, target); err != nil {
		return fmt.Errorf("change status on order %d: %w", orderID, err)
	}
	return nil
}

// ApplyCombined issues freight, tracking, and status mutations as one user
// action, strictly in that order. The first failing call aborts the calls
// that follow; already-applied calls are not rolled back — the session layer
// reloads afterwards either way.
func (c *Coordinator) ApplyCombined(ctx context.Context, orderID int, items []CatalogItem, req CombinedRequest, admin bool) error {
	if len(items) == 0 {
		return ErrEmptySelection
	}
	if req.Empty() {
		return errors.New("combined request carries no operation")
	}
	positions := make([]int, len(items))
	for i, item := range items {
		positions[i] = item.Position
	}

	if req.FreightTotal != nil {
		if _, err := c.DistributeFreight(ctx, orderID, positions, *req.FreightTotal); err != nil {
			return err
		}
	}
	if req.TrackingCode != "" {
		if err := c.AssignTracking(ctx, orderID, positions, req.TrackingCode, decimal.Zero); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if err := c.ChangeStatus(ctx, orderID, items, *req.Status, admin); err != nil {
			return err
		}
	}
	return nil
}

// PartialPurchase sources a quantity of a single item. Partial operations
// are never batched. A requested quantity at or above the item's total is
// silently treated as a full purchase: the backend gets an ordinary status
// change and no split is requested.
func (c *Coordinator) PartialPurchase(ctx context.Context, item CatalogItem, req PartialPurchaseRequest) error {
	if !req.Quantity.IsPositive() {
		return ErrNonPositiveQty
	}
	ref := item.Ref()
	if req.Quantity.GreaterThanOrEqual(item.Quantity) {
		if err := c.d.UpdateItemStatus(ctx, ref, StatusPurchased); err != nil {
			return fmt.Errorf("purchase item %d of order %d: %w", ref.Position, ref.OrderID, err)
		}
		return nil
	}
	if err := c.d.PartialPurchase(ctx, ref, req); err != nil {
		return fmt.Errorf("partial purchase of item %d of order %d: %w", ref.Position, ref.OrderID, err)
	}
	return nil
}

// PartialShipment ships a quantity of a single item, with the same
// full-quantity fallback rule as PartialPurchase.
func (c *Coordinator) PartialShipment(ctx context.Context, item CatalogItem, req PartialShipmentRequest) error {
	if !req.Quantity.IsPositive() {
		return ErrNonPositiveQty
	}
	ref := item.Ref()
	if req.Quantity.GreaterThanOrEqual(item.Quantity) {
		if err := c.d.UpdateItemStatus(ctx, ref, StatusInTransit); err != nil {
			return fmt.Errorf("ship item %d of order %d: %w", ref.Position, ref.OrderID, err)
		}
		return nil
	}
	if err := c.d.PartialShipment(ctx, ref, req); err != nil {
		return fmt.Errorf("partial shipment of item %d of order %d: %w", ref.Position, ref.OrderID, err)
	}
	return nil
}
