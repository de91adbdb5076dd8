package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fulfillment-console/internal/app"
	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/shopspring/decimal"
)

// fakeBackend serves canned orders and records every call by name.
type fakeBackend struct {
	orders    []core.PurchaseOrder
	calls     []string
	failOps   map[string]error
	lastFlag  bool
	lastOrder int
	lastPatch backend.ItemPatch
}

func (f *fakeBackend) record(op string) error {
	f.calls = append(f.calls, op)
	if err := f.failOps[op]; err != nil {
		return err
	}
	return nil
}

func (f *fakeBackend) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeBackend) FetchStage(_ context.Context, _ core.ItemStatus) ([]core.PurchaseOrder, error) {
	return f.orders, f.record("fetch-stage")
}

func (f *fakeBackend) FetchOpenOrders(_ context.Context) ([]core.PurchaseOrder, error) {
	return f.orders, f.record("fetch-open")
}

func (f *fakeBackend) FetchOrder(_ context.Context, orderID int) (*core.PurchaseOrder, error) {
	if err := f.record("fetch-order"); err != nil {
		return nil, err
	}
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			return &f.orders[i], nil
		}
	}
	return nil, fmt.Errorf("order %d not found", orderID)
}

func (f *fakeBackend) FetchStockLevels(_ context.Context) (map[string]decimal.Decimal, error) {
	return nil, f.record("fetch-stock")
}

func (f *fakeBackend) FetchStockDetail(_ context.Context, code string) (*backend.StockDetail, error) {
	return &backend.StockDetail{Code: code}, f.record("fetch-stock-detail")
}

func (f *fakeBackend) FetchContractLimits(_ context.Context) (map[string]decimal.Decimal, error) {
	return nil, f.record("fetch-limits")
}

func (f *fakeBackend) FetchPlanningTotals(_ context.Context) (map[string]decimal.Decimal, error) {
	return nil, f.record("fetch-planning")
}

func (f *fakeBackend) FetchSuppliers(_ context.Context) ([]string, error) {
	return []string{"Acme"}, f.record("fetch-suppliers")
}

func (f *fakeBackend) UpdateItem(_ context.Context, _ core.ItemRef, patch backend.ItemPatch) error {
	f.lastPatch = patch
	return f.record("update-item")
}

func (f *fakeBackend) UpdateItemStatus(_ context.Context, _ core.ItemRef, _ core.ItemStatus) error {
	return f.record("update-status")
}

func (f *fakeBackend) PartialPurchase(_ context.Context, _ core.ItemRef, _ core.PartialPurchaseRequest) error {
	return f.record("partial-purchase")
}

func (f *fakeBackend) PartialShipment(_ context.Context, _ core.ItemRef, _ core.PartialShipmentRequest) error {
	return f.record("partial-shipment")
}

func (f *fakeBackend) BatchFreight(_ context.Context, _ int, _ []int, _ decimal.Decimal) error {
	return f.record("batch-freight")
}

func (f *fakeBackend) BatchTracking(_ context.Context, _ int, _ []int, _ string, _ decimal.Decimal) error {
	return f.record("batch-tracking")
}

func (f *fakeBackend) BatchStatus(_ context.Context, _ int, _ []int, _ core.ItemStatus) error {
	return f.record("batch-status")
}

func (f *fakeBackend) BulkStatus(_ context.Context, _ int, _ core.ItemStatus) (*backend.BulkStatusResult, error) {
	return &backend.BulkStatusResult{Applied: 1, Total: 1}, f.record("bulk-status")
}

func (f *fakeBackend) SetDispatchFlag(_ context.Context, orderID int, ready bool) error {
	f.lastOrder, f.lastFlag = orderID, ready
	return f.record("dispatch-flag")
}

func (f *fakeBackend) AttachSalesInvoice(_ context.Context, _ int, _ core.SalesInvoice) error {
	return f.record("attach-invoice")
}

func (f *fakeBackend) DetachSalesInvoice(_ context.Context, _ int, _ string) error {
	return f.record("detach-invoice")
}

func (f *fakeBackend) UpdateAddress(_ context.Context, _ int, _ string) error {
	return f.record("update-address")
}

func stagingOrder(id int, itemCount int) core.PurchaseOrder {
	o := core.PurchaseOrder{ID: id, OrderNumber: fmt.Sprintf("PO-%d", id)}
	for i := 0; i < itemCount; i++ {
		o.Items = append(o.Items, core.LineItem{
			ProductCode: fmt.Sprintf("P%d", i),
			Status:      core.StatusStaging,
			Quantity:    decimal.NewFromInt(10),
			Owner:       "maria",
		})
	}
	return o
}

func newTestService(t *testing.T, fb *fakeBackend) app.ApplicationService {
	t.Helper()
	svc := app.NewService(fb, "maria", 25)
	if err := svc.SetStage(context.Background(), core.StatusStaging); err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	return svc
}

func TestSetStage_PicksFetchBranch(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 2)}}
	svc := app.NewService(fb, "maria", 25)
	ctx := context.Background()

	if err := svc.SetStage(ctx, core.StatusQuoted); err != nil {
		t.Fatalf("SetStage(quoted): %v", err)
	}
	if fb.count("fetch-open") != 1 || fb.count("fetch-stage") != 0 {
		t.Errorf("early stage must fetch open orders: %v", fb.calls)
	}

	if err := svc.SetStage(ctx, core.StatusInTransit); err != nil {
		t.Fatalf("SetStage(in_transit): %v", err)
	}
	if fb.count("fetch-stage") != 1 {
		t.Errorf("late stage must fetch pre-filtered: %v", fb.calls)
	}
}

func TestSetStage_ClearsSelections(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 2)}}
	svc := newTestService(t, fb)

	_ = svc.ToggleSelection(core.SelectFreight, 1, 0)
	if err := svc.SetStage(context.Background(), core.StatusInTransit); err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	sel, _ := svc.Selection(core.SelectFreight, 1)
	if len(sel) != 0 {
		t.Errorf("selection survived stage change: %v", sel)
	}
}

func TestDistributeFreight_UsesFreightSelectionAndReloads(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 3)}}
	svc := newTestService(t, fb)
	ctx := context.Background()

	_ = svc.ToggleSelection(core.SelectFreight, 1, 0)
	_ = svc.ToggleSelection(core.SelectFreight, 1, 1)
	_ = svc.ToggleSelection(core.SelectFreight, 1, 2)

	res, err := svc.DistributeFreight(ctx, 1, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("DistributeFreight: %v", err)
	}
	if res.ItemCount != 3 || !res.PerItemShare.Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("result = %+v", res)
	}
	if fb.count("batch-freight") != 1 {
		t.Errorf("backend calls: %v", fb.calls)
	}
	// Reload after mutation invalidates all selections.
	if fb.count("fetch-stage") != 2 {
		t.Errorf("expected reload after mutation: %v", fb.calls)
	}
	sel, _ := svc.Selection(core.SelectFreight, 1)
	if len(sel) != 0 {
		t.Errorf("selection survived mutation reload: %v", sel)
	}
}

func TestDistributeFreight_EmptySelectionShortCircuits(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 3)}}
	svc := newTestService(t, fb)

	_, err := svc.DistributeFreight(context.Background(), 1, decimal.NewFromInt(50))
	if !errors.Is(err, core.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	if fb.count("batch-freight") != 0 {
		t.Error("precondition failure must not call the backend")
	}
}

func TestChangeStatus_UsesStatusSelection(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 2)}}
	svc := newTestService(t, fb)
	ctx := context.Background()

	_ = svc.ToggleSelection(core.SelectStatus, 1, 0)
	if err := svc.ChangeStatus(ctx, 1, core.StatusReadyToShip, false); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if fb.count("batch-status") != 1 {
		t.Errorf("backend calls: %v", fb.calls)
	}
}

func TestChangeStatus_StaleSelectionFails(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 2)}}
	svc := newTestService(t, fb)

	_ = svc.ToggleSelection(core.SelectStatus, 1, 9) // position not in snapshot
	err := svc.ChangeStatus(context.Background(), 1, core.StatusReadyToShip, false)
	if !errors.Is(err, app.ErrStaleItem) {
		t.Fatalf("err = %v, want ErrStaleItem", err)
	}
	if fb.count("batch-status") != 0 {
		t.Error("stale selection must not reach the backend")
	}
}

func TestToggleAllSelection_CandidatesAreFilteredSubset(t *testing.T) {
	order := stagingOrder(1, 3)
	order.Items[2].Owner = "joao" // filtered out by only-mine
	fb := &fakeBackend{orders: []core.PurchaseOrder{order}}
	svc := newTestService(t, fb)

	svc.SetFilter(core.FilterState{OnlyMine: true})
	_ = svc.ToggleAllSelection(core.SelectInvoice, 1)
	sel, _ := svc.Selection(core.SelectInvoice, 1)
	if len(sel) != 2 {
		t.Errorf("selected %v, want the 2 displayed items only", sel)
	}
}

func TestToggleReadyForDispatch_OptimisticAndRevert(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 1)}}
	svc := newTestService(t, fb)
	ctx := context.Background()

	if err := svc.ToggleReadyForDispatch(ctx, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !fb.lastFlag || fb.lastOrder != 1 {
		t.Errorf("backend got (%d, %v), want (1, true)", fb.lastOrder, fb.lastFlag)
	}
	groups, err := svc.ListOrderGroups(1)
	if err != nil {
		t.Fatalf("ListOrderGroups: %v", err)
	}
	if !groups.Groups[0].ReadyForDispatch {
		t.Error("local aggregate not updated optimistically")
	}
	// No reload is triggered for the optimistic toggle.
	if fb.count("fetch-stage") != 1 {
		t.Errorf("unexpected reload: %v", fb.calls)
	}

	// Failure path: flag flips back.
	fb.failOps = map[string]error{"dispatch-flag": errors.New("boom")}
	if err := svc.ToggleReadyForDispatch(ctx, 1); err == nil {
		t.Fatal("expected failure to surface")
	}
	groups, _ = svc.ListOrderGroups(1)
	if !groups.Groups[0].ReadyForDispatch {
		t.Error("failed toggle must revert to the previous value")
	}
}

func TestUpdateItem_TargetedReloadFallsBackToFull(t *testing.T) {
	fb := &fakeBackend{
		orders:  []core.PurchaseOrder{stagingOrder(1, 1)},
		failOps: map[string]error{"fetch-order": errors.New("gone")},
	}
	svc := newTestService(t, fb)

	note := "urgent"
	err := svc.UpdateItem(context.Background(), core.ItemRef{OrderID: 1, Position: 0}, backend.ItemPatch{Note: &note})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if fb.count("fetch-order") != 1 {
		t.Errorf("targeted reload not attempted: %v", fb.calls)
	}
	if fb.count("fetch-stage") != 2 {
		t.Errorf("full reload fallback not triggered: %v", fb.calls)
	}
}

func TestUpdateItem_TrackingAssignmentAdvancesStatus(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 1)}}
	svc := newTestService(t, fb)
	ref := core.ItemRef{OrderID: 1, Position: 0}

	code := "AB123456789BR"
	if err := svc.UpdateItem(context.Background(), ref, backend.ItemPatch{TrackingCode: &code}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if fb.lastPatch.Status == nil || *fb.lastPatch.Status != core.StatusInTransit {
		t.Errorf("patch status = %v, want in_transit on tracking assignment", fb.lastPatch.Status)
	}
}

func TestUpdateItem_ExplicitStatusWinsOverAutoAdvance(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 1)}}
	svc := newTestService(t, fb)
	ref := core.ItemRef{OrderID: 1, Position: 0}

	code := "AB123456789BR"
	delivered := core.StatusDelivered
	err := svc.UpdateItem(context.Background(), ref, backend.ItemPatch{TrackingCode: &code, Status: &delivered})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if fb.lastPatch.Status == nil || *fb.lastPatch.Status != core.StatusDelivered {
		t.Errorf("patch status = %v, want the explicit delivered", fb.lastPatch.Status)
	}
}

func TestUpdateItem_NoAdvanceForItemsAlreadyInTransit(t *testing.T) {
	order := stagingOrder(1, 1)
	order.Items[0].Status = core.StatusInTransit
	fb := &fakeBackend{orders: []core.PurchaseOrder{order}}
	svc := app.NewService(fb, "maria", 25)
	if err := svc.SetStage(context.Background(), core.StatusInTransit); err != nil {
		t.Fatalf("SetStage: %v", err)
	}

	code := "AB123456789BR"
	ref := core.ItemRef{OrderID: 1, Position: 0}
	if err := svc.UpdateItem(context.Background(), ref, backend.ItemPatch{TrackingCode: &code}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if fb.lastPatch.Status != nil {
		t.Errorf("patch status = %v, want none for an item already in transit", *fb.lastPatch.Status)
	}
}

func TestAttachSalesInvoice_FallsBackToInvoiceSelection(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 2)}}
	svc := newTestService(t, fb)
	ctx := context.Background()

	err := svc.AttachSalesInvoice(ctx, app.AttachInvoiceRequest{OrderID: 1, Filename: "nf.pdf"})
	if !errors.Is(err, core.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection with nothing selected", err)
	}

	_ = svc.ToggleSelection(core.SelectInvoice, 1, 1)
	if err := svc.AttachSalesInvoice(ctx, app.AttachInvoiceRequest{OrderID: 1, Filename: "nf.pdf"}); err != nil {
		t.Fatalf("AttachSalesInvoice: %v", err)
	}
	if fb.count("attach-invoice") != 1 {
		t.Errorf("backend calls: %v", fb.calls)
	}
}

func TestListItems_SurfacesSourceGapWarning(t *testing.T) {
	order := stagingOrder(1, 1)
	order.Items[0].Sources = []core.PurchaseSource{{Quantity: decimal.NewFromInt(6)}}
	fb := &fakeBackend{orders: []core.PurchaseOrder{order}}
	svc := newTestService(t, fb)

	page := svc.ListItems(1)
	if len(page.Items) != 1 {
		t.Fatalf("items = %d", len(page.Items))
	}
	view := page.Items[0]
	if !view.SourceGapWarning || !view.SourceGap.Equal(decimal.NewFromInt(4)) {
		t.Errorf("gap = %s warning = %v, want 4 with warning", view.SourceGap, view.SourceGapWarning)
	}
}

func TestListOrderGroups_RejectedOutsideGroupingStages(t *testing.T) {
	fb := &fakeBackend{orders: []core.PurchaseOrder{stagingOrder(1, 1)}}
	svc := app.NewService(fb, "maria", 25)
	if err := svc.SetStage(context.Background(), core.StatusQuoted); err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	if _, err := svc.ListOrderGroups(1); err == nil {
		t.Error("order grouping must be rejected for early stages")
	}
}
