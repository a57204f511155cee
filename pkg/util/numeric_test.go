package util

import (
	"math"
	"testing"
)

func TestLinspaceEndpoints(t *testing.T) {
	got := Linspace(2240, 4550, 400)
	if len(got) != 400 {
		t.Fatalf("unexpected len %d", len(got))
	}
	if got[0] != 2240 || got[399] != 4550 {
		t.Fatalf("unexpected endpoints %v %v", got[0], got[399])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("not increasing at %d", i)
		}
	}
}

func TestLinspaceSmall(t *testing.T) {
	if Linspace(1, 2, 0) != nil {
		t.Fatalf("expected nil")
	}
	if got := Linspace(1, 2, 1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(1, 0, 1e-7); got != 1e7 {
		t.Fatalf("unexpected %v", got)
	}
	if got := SafeDiv(6, 3, 1e-7); got != 2 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestQuantile(t *testing.T) {
	v := []float64{5, 1, 4, 2, 3}
	if got := Quantile(v, 0.5); got != 3 {
		t.Fatalf("median %v", got)
	}
	if got := Quantile(v, 0); got != 1 {
		t.Fatalf("min %v", got)
	}
	if got := Quantile(v, 1); got != 5 {
		t.Fatalf("max %v", got)
	}
	if v[0] != 5 {
		t.Fatalf("input mutated")
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || !IsFinite(1) {
		t.Fatalf("unexpected finiteness")
	}
}
