package core

import "fmt"

// ItemStatus is the fulfillment pipeline stage of a line item.
type ItemStatus string

const (
	StatusPending     ItemStatus = "pending"
	StatusQuoted      ItemStatus = "quoted"
	StatusPurchased   ItemStatus = "purchased"
	StatusStaging     ItemStatus = "staging"
	StatusReadyToShip ItemStatus = "ready_to_ship"
	StatusInTransit   ItemStatus = "in_transit"
	StatusDelivered   ItemStatus = "delivered"
)

// AllStatuses lists the pipeline stages in forward order.
var AllStatuses = []ItemStatus{
	StatusPending,
	StatusQuoted,
	StatusPurchased,
	StatusStaging,
	StatusReadyToShip,
	StatusInTransit,
	StatusDelivered,
}

// forwardTransitions is the regular (non-admin) pipeline graph. Admin
// override is a wildcard: any state to any state, guarded by the caller's
// role claim, and is deliberately not represented here.
var forwardTransitions = map[ItemStatus][]ItemStatus{
	StatusPending:     {StatusQuoted},
	StatusQuoted:      {StatusPurchased},
	StatusPurchased:   {StatusStaging, StatusInTransit},
	StatusStaging:     {StatusReadyToShip, StatusInTransit},
	StatusReadyToShip: {StatusInTransit},
	StatusInTransit:   {StatusDelivered},
	StatusDelivered:   {},
}

// ValidStatus reports whether s is one of the seven pipeline stages.
func ValidStatus(s ItemStatus) bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ParseStatus converts a wire string into an ItemStatus.
func ParseStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !ValidStatus(st) {
		return "", fmt.Errorf("unknown item status %q", s)
	}
	return st, nil
}

// CanTransition reports whether an item may move from one stage to another.
// admin allows the unrestricted override path. A no-op transition (from ==
// to) is always permitted.
func CanTransition(from, to ItemStatus, admin bool) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if admin || from == to {
		return true
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AutoAdvanceOnTracking returns the stage an item moves to when a tracking
// code is assigned, and whether such an auto-advance applies. Items already
// in transit or delivered keep their stage.
func AutoAdvanceOnTracking(s ItemStatus) (ItemStatus, bool) {
	switch s {
	case StatusPurchased, StatusStaging, StatusReadyToShip:
		return StatusInTransit, true
	default:
		return s, false
	}
}

// EarlyStage reports whether the stage belongs to the early pipeline, where
// the backend returns full unfiltered orders and the projection must do its
// own status matching.
func EarlyStage(s ItemStatus) bool {
	return s == StatusPending || s == StatusQuoted
}

// OrderGroupingStage reports whether the order-level grouped view applies to
// the stage.
func OrderGroupingStage(s ItemStatus) bool {
	switch s {
	case StatusStaging, StatusReadyToShip, StatusInTransit:
		return true
	default:
		return false
	}
}
