package service

import "testing"

func TestSplitAmountEqualShares(t *testing.T) {
	shares := splitAmount(25000, []string{"a", "b"}, nil)
	if shares["a"] != 12500 || shares["b"] != 12500 {
		t.Fatalf("expected 12500 each, got %v", shares)
	}
}

func TestSplitAmountRemainderOnFirst(t *testing.T) {
	shares := splitAmount(10000, []string{"a", "b", "c"}, nil)
	if shares["a"] != 3334 || shares["b"] != 3333 || shares["c"] != 3333 {
		t.Fatalf("unexpected shares %v", shares)
	}
	var total int64
	for _, amount := range shares {
		total += amount
	}
	if total != 10000 {
		t.Fatalf("shares must sum to total, got %d", total)
	}
}

func TestSplitAmountOverridesFirst(t *testing.T) {
	shares := splitAmount(30000, []string{"a", "b", "c"}, map[string]int64{"b": 5000})
	if shares["b"] != 5000 {
		t.Fatalf("override ignored: %v", shares)
	}
	if shares["a"] != 12500 || shares["c"] != 12500 {
		t.Fatalf("expected 12500 for unassigned, got %v", shares)
	}
}

func TestSplitAmountOverridesExceedTotal(t *testing.T) {
	// The allocator does not clamp; the in-transaction invariant check
	// rejects the event instead.
	shares := splitAmount(10000, []string{"a", "b"}, map[string]int64{"a": 15000})
	if shares["a"] != 15000 {
		t.Fatalf("expected override kept, got %v", shares)
	}
	if shares["b"] != 0 {
		t.Fatalf("expected zero remaining share, got %v", shares)
	}
}

func TestSplitAmountSingleProfile(t *testing.T) {
	shares := splitAmount(15000, []string{"only"}, nil)
	if shares["only"] != 15000 {
		t.Fatalf("expected full amount, got %v", shares)
	}
}
