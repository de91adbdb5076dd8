package core

import "strings"

// Owner values observed in upstream data for items nobody picked up. The
// unassigned filter must match all three; the data quality issue is real and
// the disjunction stays as-is.
const (
	ownerNotFound   = "not found"
	ownerUnassigned = "unassigned"
)

// AssigneeUnassigned is the filter value that selects items without a
// usable owner.
const AssigneeUnassigned = "unassigned"

// FilterState holds the operator's current filter criteria. Every predicate
// is optional; an empty criterion passes everything through.
type FilterState struct {
	Search   string `json:"search"`   // substring across code, description, brand, order number, tracking code
	Supplier string `json:"supplier"` // matches any purchase source's supplier
	Link     string `json:"link"`     // substring of any purchase source's link
	Assignee string `json:"assignee"` // owner name, or AssigneeUnassigned
	OnlyMine bool   `json:"only_mine"`
}

// Empty reports whether no predicate is active.
func (f FilterState) Empty() bool {
	return f.Search == "" && f.Supplier == "" && f.Link == "" && f.Assignee == "" && !f.OnlyMine
}

// ApplyFilters returns the subset of items passing every active predicate.
// currentUser backs the only-mine predicate.
func ApplyFilters(items []CatalogItem, f FilterState, currentUser string) []CatalogItem {
	if f.Empty() {
		return items
	}
	var out []CatalogItem
	for _, item := range items {
		if matchesFilters(item, f, currentUser) {
			out = append(out, item)
		}
	}
	return out
}

func matchesFilters(item CatalogItem, f FilterState, currentUser string) bool {
	if f.Search != "" && !matchesSearch(item, f.Search) {
		return false
	}
	if f.Supplier != "" && !matchesSupplier(item, f.Supplier) {
		return false
	}
	if f.Link != "" && !matchesLink(item, f.Link) {
		return false
	}
	if f.Assignee != "" && !matchesAssignee(item, f.Assignee) {
		return false
	}
	if f.OnlyMine && !strings.EqualFold(item.Owner, currentUser) {
		return false
	}
	return true
}

// matchesSearch checks the five text fields with a case-insensitive
// substring match.
func matchesSearch(item CatalogItem, term string) bool {
	t := strings.ToLower(term)
	for _, field := range []string{
		item.ProductCode,
		item.Description,
		item.Brand,
		item.OrderNumber,
		item.TrackingCode,
	} {
		if strings.Contains(strings.ToLower(field), t) {
			return true
		}
	}
	return false
}

func matchesSupplier(item CatalogItem, supplier string) bool {
	for _, src := range item.Sources {
		if strings.EqualFold(src.Supplier, supplier) {
			return true
		}
	}
	return false
}

func matchesLink(item CatalogItem, term string) bool {
	t := strings.ToLower(term)
	for _, src := range item.Sources {
		if strings.Contains(strings.ToLower(src.Link), t) {
			return true
		}
	}
	return false
}

func matchesAssignee(item CatalogItem, assignee string) bool {
	owner := strings.TrimSpace(item.Owner)
	if assignee == AssigneeUnassigned {
		lower := strings.ToLower(owner)
		return owner == "" || lower == ownerNotFound || lower == ownerUnassigned
	}
	return strings.EqualFold(owner, assignee)
}
