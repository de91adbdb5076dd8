package core_test

import (
	"testing"

	"fulfillment-console/internal/core"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	tests := []struct {
		name  string
		from  core.ItemStatus
		to    core.ItemStatus
		admin bool
		want  bool
	}{
		{"quote", core.StatusPending, core.StatusQuoted, false, true},
		{"purchase", core.StatusQuoted, core.StatusPurchased, false, true},
		{"stage", core.StatusPurchased, core.StatusStaging, false, true},
		{"tracking from purchased", core.StatusPurchased, core.StatusInTransit, false, true},
		{"tracking from staging", core.StatusStaging, core.StatusInTransit, false, true},
		{"mark ready", core.StatusStaging, core.StatusReadyToShip, false, true},
		{"tracking from ready", core.StatusReadyToShip, core.StatusInTransit, false, true},
		{"deliver", core.StatusInTransit, core.StatusDelivered, false, true},
		{"no-op transition", core.StatusStaging, core.StatusStaging, false, true},
		{"skip ahead", core.StatusPending, core.StatusPurchased, false, false},
		{"backwards", core.StatusInTransit, core.StatusStaging, false, false},
		{"delivered is terminal", core.StatusDelivered, core.StatusInTransit, false, false},
		{"admin override backwards", core.StatusDelivered, core.StatusPending, true, true},
		{"admin override skip", core.StatusPending, core.StatusDelivered, true, true},
		{"unknown target", core.StatusPending, core.ItemStatus("lost"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.CanTransition(tt.from, tt.to, tt.admin); got != tt.want {
				t.Errorf("CanTransition(%s, %s, admin=%v) = %v, want %v", tt.from, tt.to, tt.admin, got, tt.want)
			}
		})
	}
}

func TestAutoAdvanceOnTracking(t *testing.T) {
	for _, from := range []core.ItemStatus{core.StatusPurchased, core.StatusStaging, core.StatusReadyToShip} {
		next, ok := core.AutoAdvanceOnTracking(from)
		if !ok || next != core.StatusInTransit {
			t.Errorf("AutoAdvanceOnTracking(%s) = (%s, %v), want (in_transit, true)", from, next, ok)
		}
	}
	for _, from := range []core.ItemStatus{core.StatusPending, core.StatusQuoted, core.StatusInTransit, core.StatusDelivered} {
		next, ok := core.AutoAdvanceOnTracking(from)
		if ok || next != from {
			t.Errorf("AutoAdvanceOnTracking(%s) = (%s, %v), want no advance", from, next, ok)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := core.ParseStatus("ready_to_ship"); err != nil || st != core.StatusReadyToShip {
		t.Errorf("ParseStatus(ready_to_ship) = (%s, %v)", st, err)
	}
	if _, err := core.ParseStatus("shipped"); err == nil {
		t.Error("ParseStatus(shipped) should fail")
	}
}
