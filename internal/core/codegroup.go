package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CodeGroup aggregates the filtered catalog by product code, possibly across
// orders. The sort order surfaces cross-order duplicate purchasing first.
type CodeGroup struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Brand         string          `json:"brand,omitempty"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Items         []CatalogItem   `json:"items"`
	Stock         decimal.Decimal `json:"stock"`
	Limit         decimal.Decimal `json:"limit"`
	HasLimit      bool            `json:"has_limit"`
}

// GroupByCode groups the filtered catalog by product code. stock maps code
// to available warehouse quantity. limits maps code to its contract ceiling;
// planning maps code to the total requested across the whole catalog and is
// the fallback figure when no contract limit exists. A contract limit always
// wins over the planning total.
func GroupByCode(items []CatalogItem, stock, limits, planning map[string]decimal.Decimal) []CodeGroup {
	index := make(map[string]int)
	var groups []CodeGroup

	for _, item := range items {
		i, ok := index[item.ProductCode]
		if !ok {
			g := CodeGroup{
				Code:        item.ProductCode,
				Description: item.Description,
				Brand:       item.Brand,
			}
			if qty, ok := stock[item.ProductCode]; ok {
				g.Stock = qty
			}
			if limit, ok := limits[item.ProductCode]; ok {
				g.Limit = limit
				g.HasLimit = true
			} else if total, ok := planning[item.ProductCode]; ok {
				g.Limit = total
			}
			index[item.ProductCode] = len(groups)
			groups = append(groups, g)
			i = index[item.ProductCode]
		}
		groups[i].TotalQuantity = groups[i].TotalQuantity.Add(item.Quantity)
		groups[i].Items = append(groups[i].Items, item)
	}

	// Groups spanning more items (usually more orders) first, then by
	// summed quantity.
	sort.SliceStable(groups, func(a, b int) bool {
		if len(groups[a].Items) != len(groups[b].Items) {
			return len(groups[a].Items) > len(groups[b].Items)
		}
		return groups[a].TotalQuantity.GreaterThan(groups[b].TotalQuantity)
	})
	return groups
}
