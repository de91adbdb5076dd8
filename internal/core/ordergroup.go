package core

import "sort"

// OrderGroup is the per-order aggregate backing the "what needs attention"
// view used for the staging, ready-to-ship, and in-transit stages.
type OrderGroup struct {
	OrderID          int           `json:"order_id"`
	OrderNumber      string        `json:"order_number"`
	RequesterTaxID   string        `json:"requester_tax_id"`
	DeliveryAddress  string        `json:"delivery_address"`
	DeliveryDate     string        `json:"delivery_date"`
	Items            []CatalogItem `json:"items"`
	ItemCount        int           `json:"item_count"`
	SupplierInvoiced int           `json:"supplier_invoiced_count"`
	SalesInvoiced    int           `json:"sales_invoiced_count"`

	HasAnySupplierInvoice bool `json:"has_any_supplier_invoice"`
	HasAnySalesInvoice    bool `json:"has_any_sales_invoice"`
	AllSupplierInvoiced   bool `json:"all_supplier_invoiced"`
	AllSalesInvoiced      bool `json:"all_sales_invoiced"`

	ReadyForDispatch bool `json:"ready_for_dispatch"`
	ReadyToShip      bool `json:"ready_to_ship"`

	// Rank is the attention priority: 1 when the order has both a sales and
	// a supplier invoice, 2 with a supplier invoice only, 3 otherwise.
	Rank int `json:"rank"`
}

// GroupByOrder aggregates the filtered catalog by parent order and sorts the
// result by operator attention priority:
//
//  1. ready-for-dispatch orders first, unconditionally;
//  2. ascending rank;
//  3. descending supplier-invoice count;
//  4. descending item count.
func GroupByOrder(items []CatalogItem) []OrderGroup {
	index := make(map[int]int)
	var groups []OrderGroup

	for _, item := range items {
		i, ok := index[item.OrderID]
		if !ok {
			index[item.OrderID] = len(groups)
			groups = append(groups, OrderGroup{
				OrderID:          item.OrderID,
				OrderNumber:      item.OrderNumber,
				RequesterTaxID:   item.RequesterTaxID,
				DeliveryAddress:  item.DeliveryAddress,
				DeliveryDate:     item.DeliveryDate,
				ReadyForDispatch: item.ReadyForDispatch,
			})
			i = index[item.OrderID]
		}
		g := &groups[i]
		g.Items = append(g.Items, item)
		g.ItemCount++
		if item.HasSupplierInvoice() {
			g.SupplierInvoiced++
		}
		if item.SalesInvoiced() {
			g.SalesInvoiced++
		}
	}

	for i := range groups {
		g := &groups[i]
		g.HasAnySupplierInvoice = g.SupplierInvoiced > 0
		g.HasAnySalesInvoice = g.SalesInvoiced > 0
		g.AllSupplierInvoiced = g.SupplierInvoiced == g.ItemCount
		g.AllSalesInvoiced = g.SalesInvoiced == g.ItemCount
		g.ReadyToShip = g.HasAnySalesInvoice && g.AllSupplierInvoiced

		switch {
		case g.HasAnySalesInvoice && g.HasAnySupplierInvoice:
			g.Rank = 1
		case g.HasAnySupplierInvoice:
			g.Rank = 2
		default:
			g.Rank = 3
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ga, gb := groups[a], groups[b]
		if ga.ReadyForDispatch != gb.ReadyForDispatch {
			return ga.ReadyForDispatch
		}
		if ga.Rank != gb.Rank {
			return ga.Rank < gb.Rank
		}
		if ga.SupplierInvoiced != gb.SupplierInvoiced {
			return ga.SupplierInvoiced > gb.SupplierInvoiced
		}
		return ga.ItemCount > gb.ItemCount
	})
	return groups
}
