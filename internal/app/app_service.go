package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCategory is returned for selection categories outside the
	// four batch-target purposes.
	ErrUnknownCategory = errors.New("unknown selection category")

	// ErrStaleItem is returned when a position-index reference does not
	// resolve in the current snapshot. Positions shift when the backend
	// splits items, so references never survive a reload.
	ErrStaleItem = errors.New("item not found in current snapshot")

	// ErrOrderNotFound is returned when an order id is absent from the
	// current snapshot.
	ErrOrderNotFound = errors.New("order not found in current snapshot")
)

// service holds one operator session. The mutex serializes whole operations,
// including their backend round-trips: all session state is single-owner and
// every mutation happens between a user action and its completed reload.
// Concurrent unrelated operations are allowed to race at the backend; the
// last reload to complete determines the displayed state.
type service struct {
	mu       sync.Mutex
	backend  Backend
	coord    *core.Coordinator
	user     string
	pageSize int

	stage      core.ItemStatus
	filter     core.FilterState
	selections *core.SelectionManager
	orders     []core.PurchaseOrder
	catalog    []core.CatalogItem
	stock      map[string]decimal.Decimal
	limits     map[string]decimal.Decimal
	planning   map[string]decimal.Decimal
}

// NewService creates a session pinned to the early pipeline's pending stage.
// user backs the only-mine filter; pageSize applies to all three views.
func NewService(b Backend, user string, pageSize int) ApplicationService {
	return &service{
		backend:    b,
		coord:      core.NewCoordinator(b),
		user:       user,
		pageSize:   pageSize,
		stage:      core.StatusPending,
		selections: core.NewSelectionManager(),
	}
}

// loadLocked refetches the current stage through the matching branch and
// replaces the snapshot. Every selection is invalidated: position-index
// identity does not survive a reload. Caller holds the lock.
func (s *service) loadLocked(ctx context.Context) error {
	var (
		orders []core.PurchaseOrder
		err    error
	)
	if core.EarlyStage(s.stage) {
		orders, err = s.backend.FetchOpenOrders(ctx)
	} else {
		orders, err = s.backend.FetchStage(ctx, s.stage)
	}
	if err != nil {
		return err
	}

	stock, err := s.backend.FetchStockLevels(ctx)
	if err != nil {
		return fmt.Errorf("load stock levels: %w", err)
	}
	limits, err := s.backend.FetchContractLimits(ctx)
	if err != nil {
		return fmt.Errorf("load contract limits: %w", err)
	}
	planning, err := s.backend.FetchPlanningTotals(ctx)
	if err != nil {
		return fmt.Errorf("load planning totals: %w", err)
	}

	s.orders = orders
	s.stock = stock
	s.limits = limits
	s.planning = planning
	s.catalog = core.ProjectCatalog(orders, s.stage)
	s.selections.ResetAll()
	return nil
}

func (s *service) SetStage(ctx context.Context, stage core.ItemStatus) error {
	if !core.ValidStatus(stage) {
		return fmt.Errorf("unknown pipeline stage %q", stage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	return s.loadLocked(ctx)
}

func (s *service) Stage() core.ItemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *service) SetFilter(f core.FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *service) Filter() core.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *service) filteredLocked() []core.CatalogItem {
	return core.ApplyFilters(s.catalog, s.filter, s.user)
}

func (s *service) ListItems(page int) *ItemPageResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.filteredLocked()
	pageItems, totalPages := core.Paginate(filtered, page, s.pageSize)

	views := make([]ItemView, len(pageItems))
	for i, item := range pageItems {
		gap := item.SourceQuantityGap()
		views[i] = ItemView{
			CatalogItem:      item,
			SourceGap:        gap,
			SourceGapWarning: len(item.Sources) > 0 && !gap.IsZero(),
		}
	}
	return &ItemPageResult{
		Stage:      s.stage,
		Filter:     s.filter,
		Items:      views,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: len(filtered),
	}
}

func (s *service) ListCodeGroups(page int) *CodeGroupPageResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := core.GroupByCode(s.filteredLocked(), s.stock, s.limits, s.planning)
	pageGroups, totalPages := core.Paginate(groups, page, s.pageSize)
	return &CodeGroupPageResult{
		Stage:      s.stage,
		Groups:     pageGroups,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: len(groups),
	}
}

func (s *service) ListOrderGroups(page int) (*OrderGroupPageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !core.OrderGroupingStage(s.stage) {
		return nil, fmt.Errorf("order grouping is not available for stage %s", s.stage)
	}
	groups := core.GroupByOrder(s.filteredLocked())
	pageGroups, totalPages := core.Paginate(groups, page, s.pageSize)
	return &OrderGroupPageResult{
		Stage:      s.stage,
		Groups:     pageGroups,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: len(groups),
	}, nil
}

func (s *service) ToggleSelection(category core.SelectionCategory, orderID, position int) error {
	if !core.ValidCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections.Set(category).ToggleOne(orderID, position)
	return nil
}

func (s *service) ToggleAllSelection(category core.SelectionCategory, orderID int) error {
	if !core.ValidCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []int
	for _, item := range s.filteredLocked() {
		if item.OrderID == orderID {
			candidates = append(candidates, item.Position)
		}
	}
	s.selections.Set(category).ToggleAll(orderID, candidates)
	return nil
}

func (s *service) Selection(category core.SelectionCategory, orderID int) ([]int, error) {
	if !core.ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections.Set(category).Selected(orderID), nil
}

// itemsAtLocked resolves selected positions against the current snapshot.
// Caller holds the lock.
func (s *service) itemsAtLocked(orderID int, positions []int) ([]core.CatalogItem, error) {
	byPos := make(map[int]core.CatalogItem)
	for _, item := range s.catalog {
		if item.OrderID == orderID {
			byPos[item.Position] = item
		}
	}
	items := make([]core.CatalogItem, 0, len(positions))
	for _, pos := range positions {
		item, ok := byPos[pos]
		if !ok {
			return nil, fmt.Errorf("%w: order %d position %d", ErrStaleItem, orderID, pos)
		}
		items = append(items, item)
	}
	return items, nil
}

// reloadAfterMutationLocked refreshes the whole view after a successful
// mutation. The mutation itself already succeeded, so a reload failure is
// reported but does not undo anything.
func (s *service) reloadAfterMutationLocked(ctx context.Context) error {
	if err := s.loadLocked(ctx); err != nil {
		return fmt.Errorf("operation applied, but reloading the catalog failed: %w", err)
	}
	return nil
}

func (s *service) DistributeFreight(ctx context.Context, orderID int, total decimal.Decimal) (*FreightResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.selections.Set(core.SelectFreight).Selected(orderID)
	share, err := s.coord.DistributeFreight(ctx, orderID, positions, total)
	if err != nil {
		return nil, err
	}
	result := &FreightResult{
		OrderID:      orderID,
		ItemCount:    len(positions),
		Total:        total,
		PerItemShare: share,
	}
	return result, s.reloadAfterMutationLocked(ctx)
}

func (s *service) AssignTracking(ctx context.Context, orderID int, trackingCode string, freightTotal decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.selections.Set(core.SelectTracking).Selected(orderID)
	if err := s.coord.AssignTracking(ctx, orderID, positions, trackingCode, freightTotal); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) ChangeStatus(ctx context.Context, orderID int, target core.ItemStatus, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.selections.Set(core.SelectStatus).Selected(orderID)
	if len(positions) == 0 {
		return core.ErrEmptySelection
	}
	items, err := s.itemsAtLocked(orderID, positions)
	if err != nil {
		return err
	}
	if err := s.coord.ChangeStatus(ctx, orderID, items, target, admin); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) ApplyCombined(ctx context.Context, orderID int, req core.CombinedRequest, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.selections.Set(core.SelectTracking).Selected(orderID)
	if len(positions) == 0 {
		return core.ErrEmptySelection
	}
	items, err := s.itemsAtLocked(orderID, positions)
	if err != nil {
		return err
	}
	if err := s.coord.ApplyCombined(ctx, orderID, items, req, admin); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) BulkStatus(ctx context.Context, orderID int, target core.ItemStatus) (*backend.BulkStatusResult, error) {
	if !core.ValidStatus(target) {
		return nil, fmt.Errorf("unknown pipeline stage %q", target)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.backend.BulkStatus(ctx, orderID, target)
	if err != nil {
		return nil, err
	}
	return result, s.reloadAfterMutationLocked(ctx)
}

func (s *service) PartialPurchase(ctx context.Context, ref core.ItemRef, req core.PartialPurchaseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.itemsAtLocked(ref.OrderID, []int{ref.Position})
	if err != nil {
		return err
	}
	if err := s.coord.PartialPurchase(ctx, items[0], req); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) PartialShipment(ctx context.Context, ref core.ItemRef, req core.PartialShipmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.itemsAtLocked(ref.OrderID, []int{ref.Position})
	if err != nil {
		return err
	}
	if err := s.coord.PartialShipment(ctx, items[0], req); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) UpdateItem(ctx context.Context, ref core.ItemRef, patch backend.ItemPatch) error {
	if patch.Empty() {
		return errors.New("item patch changes nothing")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.itemsAtLocked(ref.OrderID, []int{ref.Position})
	if err != nil {
		return err
	}

	// Assigning a tracking code moves an eligible item into transit on the
	// same patch. An explicit status in the patch always wins.
	if patch.Status == nil && patch.TrackingCode != nil && *patch.TrackingCode != "" {
		if next, ok := core.AutoAdvanceOnTracking(items[0].Status); ok {
			patch.Status = &next
		}
	}

	if err := s.backend.UpdateItem(ctx, ref, patch); err != nil {
		return err
	}

	// Targeted reload of the mutated order; fall back to a full catalog
	// reload when it fails, so the view always re-synchronizes.
	order, err := s.backend.FetchOrder(ctx, ref.OrderID)
	if err != nil {
		log.Printf("targeted reload of order %d failed (%v), reloading full catalog", ref.OrderID, err)
		return s.reloadAfterMutationLocked(ctx)
	}
	s.replaceOrderLocked(*order)
	return nil
}

// replaceOrderLocked swaps one order in the snapshot and rebuilds the flat
// catalog. Positions within the order may have shifted, so its selections
// are dropped in every category.
func (s *service) replaceOrderLocked(order core.PurchaseOrder) {
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = order
			break
		}
	}
	s.catalog = core.ProjectCatalog(s.orders, s.stage)
	for _, c := range core.Categories {
		s.selections.Set(c).Clear(order.ID)
	}
}

func (s *service) ToggleReadyForDispatch(ctx context.Context, orderID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}

	// Optimistic: flip the local aggregate first so the attention ranking
	// responds immediately, then confirm. Undo on failure.
	next := !s.orders[idx].ReadyForDispatch
	s.applyDispatchFlagLocked(idx, next)
	if err := s.backend.SetDispatchFlag(ctx, orderID, next); err != nil {
		s.applyDispatchFlagLocked(idx, !next)
		return fmt.Errorf("toggle dispatch flag on order %d: %w", orderID, err)
	}
	return nil
}

func (s *service) applyDispatchFlagLocked(orderIdx int, ready bool) {
	s.orders[orderIdx].ReadyForDispatch = ready
	id := s.orders[orderIdx].ID
	for i := range s.catalog {
		if s.catalog[i].OrderID == id {
			s.catalog[i].ReadyForDispatch = ready
		}
	}
}

func (s *service) AttachSalesInvoice(ctx context.Context, req AttachInvoiceRequest) error {
	if req.Filename == "" {
		return errors.New("invoice filename is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := req.Positions
	if len(positions) == 0 {
		positions = s.selections.Set(core.SelectInvoice).Selected(req.OrderID)
	}
	if len(positions) == 0 {
		return core.ErrEmptySelection
	}

	invoice := core.SalesInvoice{
		Filename:         req.Filename,
		InvoiceNumber:    req.InvoiceNumber,
		CoveredPositions: positions,
	}
	if err := s.backend.AttachSalesInvoice(ctx, req.OrderID, invoice); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) DetachSalesInvoice(ctx context.Context, orderID int, filename string) error {
	if filename == "" {
		return errors.New("invoice filename is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.DetachSalesInvoice(ctx, orderID, filename); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) UpdateAddress(ctx context.Context, orderID int, address string) error {
	if address == "" {
		return errors.New("delivery address is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.UpdateAddress(ctx, orderID, address); err != nil {
		return err
	}
	return s.reloadAfterMutationLocked(ctx)
}

func (s *service) ListSuppliers(ctx context.Context) ([]string, error) {
	return s.backend.FetchSuppliers(ctx)
}

func (s *service) GetStockDetail(ctx context.Context, code string) (*backend.StockDetail, error) {
	if code == "" {
		return nil, errors.New("product code is required")
	}
	return s.backend.FetchStockDetail(ctx, code)
}
