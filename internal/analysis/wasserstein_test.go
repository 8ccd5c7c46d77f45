package analysis

import (
	"math"
	"testing"
)

func TestWassersteinIdenticalIsZero(t *testing.T) {
	values := []float64{0, 10, 5, 5, 2, 50, 0, 2, 5, 8}
	if got := Wasserstein(values, values); got != 0 {
		t.Fatalf("expected zero distance for identical samples, got %v", got)
	}
}

func TestWassersteinEqualLengthMeanAbsDiff(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{2, 3, 4}
	if got := Wasserstein(a, b); math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected distance 1, got %v", got)
	}
}

func TestWassersteinOrderIndependent(t *testing.T) {
	a := []float64{3, 1, 2}
	b := []float64{4, 2, 3}
	if got := Wasserstein(a, b); math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected distance 1 regardless of sample order, got %v", got)
	}
}

func TestWassersteinSymmetric(t *testing.T) {
	a := []float64{0, 5, 9, 1, 7}
	b := []float64{2, 2, 8, 3, 4}
	ab := Wasserstein(a, b)
	ba := Wasserstein(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("expected symmetric distance, got %v and %v", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("expected positive distance for distinct samples, got %v", ab)
	}
}

func TestWassersteinUnequalLengths(t *testing.T) {
	// Mass 1 concentrated at 0 vs uniform mass at 0 and 1: half the mass
	// must travel distance 1.
	a := []float64{0}
	b := []float64{0, 1}
	if got := Wasserstein(a, b); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected distance 0.5, got %v", got)
	}
}

func TestWassersteinEmptyInput(t *testing.T) {
	if got := Wasserstein(nil, []float64{1}); got != 0 {
		t.Fatalf("expected zero for empty sample, got %v", got)
	}
}
