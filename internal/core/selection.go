package core

import "sort"

// SelectionCategory names one of the four independent batch-target purposes.
// The four sets share a contract but never share state.
type SelectionCategory string

const (
	SelectInvoice  SelectionCategory = "invoice"
	SelectFreight  SelectionCategory = "freight"
	SelectTracking SelectionCategory = "tracking"
	SelectStatus   SelectionCategory = "status"
)

// Categories lists all selection categories.
var Categories = []SelectionCategory{SelectInvoice, SelectFreight, SelectTracking, SelectStatus}

// ValidCategory reports whether c is one of the four known categories.
func ValidCategory(c SelectionCategory) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// SelectionSet holds multi-select state scoped per parent order. Membership
// is the only observable property; positions are snapshot-scoped and must be
// invalidated on every reload.
type SelectionSet struct {
	byOrder map[int]map[int]struct{}
}

// NewSelectionSet returns an empty selection set.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{byOrder: make(map[int]map[int]struct{})}
}

// ToggleOne flips membership of a single item position.
func (s *SelectionSet) ToggleOne(orderID, position int) {
	set := s.byOrder[orderID]
	if set == nil {
		set = make(map[int]struct{})
		s.byOrder[orderID] = set
	}
	if _, ok := set[position]; ok {
		delete(set, position)
	} else {
		set[position] = struct{}{}
	}
}

// ToggleAll implements select-all semantics over the candidate positions: if
// every candidate is already selected the order's set is cleared; otherwise
// the set becomes exactly the candidate set. It is not additive.
func (s *SelectionSet) ToggleAll(orderID int, candidates []int) {
	set := s.byOrder[orderID]
	all := len(candidates) > 0
	for _, pos := range candidates {
		if _, ok := set[pos]; !ok {
			all = false
			break
		}
	}
	if all {
		delete(s.byOrder, orderID)
		return
	}
	fresh := make(map[int]struct{}, len(candidates))
	for _, pos := range candidates {
		fresh[pos] = struct{}{}
	}
	s.byOrder[orderID] = fresh
}

// Contains reports membership of a single position.
func (s *SelectionSet) Contains(orderID, position int) bool {
	_, ok := s.byOrder[orderID][position]
	return ok
}

// Selected returns the selected positions for an order in ascending order.
func (s *SelectionSet) Selected(orderID int) []int {
	set := s.byOrder[orderID]
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for pos := range set {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Count returns how many positions are selected for an order.
func (s *SelectionSet) Count(orderID int) int {
	return len(s.byOrder[orderID])
}

// Clear removes the order's selection.
func (s *SelectionSet) Clear(orderID int) {
	delete(s.byOrder, orderID)
}

// Reset removes every selection in the set.
func (s *SelectionSet) Reset() {
	s.byOrder = make(map[int]map[int]struct{})
}

// SelectionManager owns the four category sets for one operator session.
// All selections are ephemeral: they are reset whenever the viewed stage
// changes and after every successful batch mutation that consumed them.
type SelectionManager struct {
	sets map[SelectionCategory]*SelectionSet
}

// NewSelectionManager creates the manager with all four sets empty.
func NewSelectionManager() *SelectionManager {
	m := &SelectionManager{sets: make(map[SelectionCategory]*SelectionSet, len(Categories))}
	for _, c := range Categories {
		m.sets[c] = NewSelectionSet()
	}
	return m
}

// Set returns the selection set for a category. Unknown categories return
// nil; callers validate with ValidCategory first.
func (m *SelectionManager) Set(c SelectionCategory) *SelectionSet {
	return m.sets[c]
}

// ResetAll clears every category.
func (m *SelectionManager) ResetAll() {
	for _, s := range m.sets {
		s.Reset()
	}
}
