package core

import "github.com/shopspring/decimal"

// PurchaseOrder is one order as delivered by the order-management backend.
// Orders are read wholesale on every reload; this layer never creates or
// deletes them, it only requests field mutations against the backend.
type PurchaseOrder struct {
	ID               int            `json:"id"`
	OrderNumber      string         `json:"order_number"`
	RequesterTaxID   string         `json:"requester_tax_id"`
	DeliveryAddress  string         `json:"delivery_address"`
	DeliveryDate     string         `json:"delivery_date"`
	ReadyForDispatch bool           `json:"ready_for_dispatch"`
	SalesInvoices    []SalesInvoice `json:"sales_invoices,omitempty"`
	Items            []LineItem     `json:"items"`
}

// SalesInvoice is an invoice attached at the order level. CoveredPositions
// lists the zero-based item positions the invoice covers.
type SalesInvoice struct {
	Filename         string `json:"filename"`
	InvoiceNumber    string `json:"invoice_number,omitempty"`
	CoveredPositions []int  `json:"covered_positions"`
}

// LineItem is one product line within an order. Its externally visible
// identity is (order ID, position in the order's item list); that pair is
// only valid within the lifetime of one fetched snapshot, because partial
// splits performed by the backend shift positions.
type LineItem struct {
	ProductCode       string            `json:"product_code"`
	Description       string            `json:"description"`
	Brand             string            `json:"brand,omitempty"`
	Quantity          decimal.Decimal   `json:"quantity"`
	Unit              string            `json:"unit,omitempty"`
	Status            ItemStatus        `json:"status"`
	Sources           []PurchaseSource  `json:"sources,omitempty"`
	UnitPrice         decimal.Decimal   `json:"unit_price"`
	ShippingCost      decimal.Decimal   `json:"shipping_cost"`
	TrackingCode      string            `json:"tracking_code,omitempty"`
	TrackingEvents    []TrackingEvent   `json:"tracking_events,omitempty"`
	SupplierInvoices  []SupplierInvoice `json:"supplier_invoices,omitempty"`
	Note              string            `json:"note,omitempty"`
	PurchasedQuantity decimal.Decimal   `json:"purchased_quantity"`
	StockQuantity     decimal.Decimal   `json:"stock_quantity"`
	PurchaseDate      string            `json:"purchase_date,omitempty"`
	ShipDate          string            `json:"ship_date,omitempty"`
	Owner             string            `json:"owner,omitempty"`
}

// PurchaseSource is one sourcing channel contributing to a line item.
type PurchaseSource struct {
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Freight   decimal.Decimal `json:"freight"`
	Link      string          `json:"link,omitempty"`
	Supplier  string          `json:"supplier,omitempty"`
}

// TrackingEvent is one carrier status update for a line item.
type TrackingEvent struct {
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
}

// SupplierInvoice is a supplier-issued invoice attached to a line item.
type SupplierInvoice struct {
	Filename string `json:"filename"`
	TaxCode  string `json:"tax_code,omitempty"` // detected tax classification, if any
}

// SourceQuantityGap returns item quantity minus the sum of purchase-source
// quantities. A non-zero gap is surfaced to the operator as a warning and is
// never rejected; upstream data is allowed to deviate.
func (li LineItem) SourceQuantityGap() decimal.Decimal {
	var sourced decimal.Decimal
	for _, s := range li.Sources {
		sourced = sourced.Add(s.Quantity)
	}
	return li.Quantity.Sub(sourced)
}

// HasSupplierInvoice reports whether the item carries at least one supplier invoice.
func (li LineItem) HasSupplierInvoice() bool {
	return len(li.SupplierInvoices) > 0
}

// ItemRef identifies a line item within one catalog snapshot.
type ItemRef struct {
	OrderID  int `json:"order_id"`
	Position int `json:"position"`
}

// CatalogItem is a flattened line-item view: the item itself plus the
// denormalized parent-order fields every screen needs.
type CatalogItem struct {
	LineItem

	OrderID          int            `json:"order_id"`
	Position         int            `json:"position"`
	OrderNumber      string         `json:"order_number"`
	RequesterTaxID   string         `json:"requester_tax_id"`
	DeliveryAddress  string         `json:"delivery_address"`
	DeliveryDate     string         `json:"delivery_date"`
	ReadyForDispatch bool           `json:"ready_for_dispatch"`
	SalesInvoices    []SalesInvoice `json:"sales_invoices,omitempty"`
}

// Ref returns the item's snapshot-scoped identity.
func (ci CatalogItem) Ref() ItemRef {
	return ItemRef{OrderID: ci.OrderID, Position: ci.Position}
}

// SalesInvoiced reports whether any order-level sales invoice covers this
// item's position.
func (ci CatalogItem) SalesInvoiced() bool {
	for _, inv := range ci.SalesInvoices {
		for _, pos := range inv.CoveredPositions {
			if pos == ci.Position {
				return true
			}
		}
	}
	return false
}
