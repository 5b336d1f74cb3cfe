package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t at the first frame where got and want
// differ by more than eps, or when their lengths differ.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	if i, ok := firstMismatch(got, want, eps); ok {
		t.Fatalf("frame %d: got %v, want %v (eps %v)", i, got[i], want[i], eps)
	}
}

// RequireChannelsNearlyEqual is RequireSliceNearlyEqual over planar
// buffers. The failure names the channel.
func RequireChannelsNearlyEqual(t *testing.T, got, want [][]float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("channel count mismatch: got %d, want %d", len(got), len(want))
	}

	for c := range got {
		if len(got[c]) != len(want[c]) {
			t.Fatalf("channel %d: length %d, want %d", c, len(got[c]), len(want[c]))
		}
		if i, ok := firstMismatch(got[c], want[c], eps); ok {
			t.Fatalf("channel %d frame %d: got %v, want %v (eps %v)", c, i, got[c][i], want[c][i], eps)
		}
	}
}

// RequireSilent fails t if any sample is not exactly zero.
func RequireSilent(t *testing.T, data []float64) {
	t.Helper()

	for i, v := range data {
		if v != 0 {
			t.Fatalf("frame %d = %v, want silence", i, v)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	maxDiff := 0.0
	for i := range a {
		maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
	}

	return maxDiff, nil
}

func firstMismatch(got, want []float64, eps float64) (int, bool) {
	for i := range got {
		if math.Abs(got[i]-want[i]) > eps || math.IsNaN(got[i]) != math.IsNaN(want[i]) {
			return i, true
		}
	}

	return 0, false
}
