package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequirePeakBelow fails t if any element magnitude exceeds limit.
func RequirePeakBelow(t *testing.T, data []float64, limit float64) {
	t.Helper()

	for i, v := range data {
		if math.Abs(v) > limit {
			t.Fatalf("index %d: |%v| exceeds limit %v", i, v, limit)
		}
	}
}

// MaxAbs returns the largest element magnitude in data.
func MaxAbs(data []float64) float64 {
	peak := 0.0

	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	return peak
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	maxDiff := 0.0

	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}

	return maxDiff, nil
}

// DominantFrequencyHz returns the frequency of the strongest spectral line in
// signal via a direct DFT magnitude scan over [loHz, hiHz] in 1 Hz steps.
// It is slow but has no FFT-size constraint, which keeps effect tests
// independent of the transform under test.
func DominantFrequencyHz(t *testing.T, signal []float64, sampleRate, loHz, hiHz float64) float64 {
	t.Helper()

	if len(signal) == 0 || hiHz <= loHz {
		return 0
	}

	bestFreq := loHz
	bestPower := -1.0

	for f := loHz; f <= hiHz; f++ {
		// Goertzel-style single-bin power estimate.
		w := 2 * math.Pi * f / sampleRate
		sumRe, sumIm := 0.0, 0.0

		for i, v := range signal {
			s, c := math.Sincos(w * float64(i))
			sumRe += v * c
			sumIm -= v * s
		}

		power := sumRe*sumRe + sumIm*sumIm
		if power > bestPower {
			bestPower = power
			bestFreq = f
		}
	}

	return bestFreq
}
