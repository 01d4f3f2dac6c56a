package sandbox

import "testing"

func TestOperationBudgetScalesWithMaxOperations(t *testing.T) {
	l := Limits{MaxOperations: 2_000_000}
	if got := l.operationBudget(); got.Seconds() != 1 {
		t.Fatalf("got %v, want 1s", got)
	}
}

func TestOperationBudgetDefaultsWhenUnset(t *testing.T) {
	l := Limits{}
	if got := l.operationBudget(); got.Seconds() <= 0 {
		t.Fatalf("expected positive default budget, got %v", got)
	}
}

func TestDefaultLimitsMatchesSpecValues(t *testing.T) {
	l := DefaultLimits()
	if l.MaxOperations != 100_000 {
		t.Fatalf("MaxOperations = %d, want 100000", l.MaxOperations)
	}
	if l.MaxStringSize != 1<<20 {
		t.Fatalf("MaxStringSize = %d, want 1MiB", l.MaxStringSize)
	}
	if l.MaxArraySize != 10_000 {
		t.Fatalf("MaxArraySize = %d, want 10000", l.MaxArraySize)
	}
	if l.MaxMapSize != 5_000 {
		t.Fatalf("MaxMapSize = %d, want 5000", l.MaxMapSize)
	}
}
