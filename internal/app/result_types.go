package app

import (
	"fulfillment-console/internal/core"

	"github.com/shopspring/decimal"
)

// ItemView is one catalog item plus the soft sourcing-reconciliation check.
// A non-zero SourceGap means the purchase sources do not add up to the item
// quantity; it is surfaced as a warning, never enforced.
type ItemView struct {
	core.CatalogItem

	SourceGap        decimal.Decimal `json:"source_gap"`
	SourceGapWarning bool            `json:"source_gap_warning"`
}

// ItemPageResult is one page of the filtered flat view.
type ItemPageResult struct {
	Stage      core.ItemStatus  `json:"stage"`
	Filter     core.FilterState `json:"filter"`
	Items      []ItemView       `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalItems int              `json:"total_items"`
}

// CodeGroupPageResult is one page of the code-grouped view.
type CodeGroupPageResult struct {
	Stage      core.ItemStatus  `json:"stage"`
	Groups     []core.CodeGroup `json:"groups"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalItems int              `json:"total_groups"`
}

// OrderGroupPageResult is one page of the order-grouped attention view.
type OrderGroupPageResult struct {
	Stage      core.ItemStatus   `json:"stage"`
	Groups     []core.OrderGroup `json:"groups"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	TotalItems int               `json:"total_groups"`
}

// FreightResult reports a freight distribution that was applied.
type FreightResult struct {
	OrderID      int             `json:"order_id"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
	PerItemShare decimal.Decimal `json:"per_item_share"`
}
