package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/internal/testutil"
)

func TestFrequencyShiftValidates(t *testing.T) {
	buf, err := buffer.Mono(testutil.Silence(1000), testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	if _, err := FrequencyShift(nil, buffer.Region{Start: 0, End: 10}, DefaultShiftParams()); err == nil {
		t.Fatal("FrequencyShift(nil buffer) expected error, got nil")
	}

	if _, err := FrequencyShift(buf, buffer.Region{Start: 0, End: 0}, DefaultShiftParams()); err == nil {
		t.Fatal("FrequencyShift(empty region) expected error, got nil")
	}

	params := DefaultShiftParams()
	params.Direction = ShiftDirection(9)

	if _, err := FrequencyShift(buf, buffer.Full(1000), params); err == nil {
		t.Fatal("FrequencyShift(unknown direction) expected error, got nil")
	}
}

func TestFrequencyShiftIsNonHarmonic(t *testing.T) {
	n := 22050
	in := testutil.DeterministicSine(440, testSampleRate, 0.5, n)

	buf, err := buffer.Mono(in, testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	out, err := FrequencyShift(buf, buffer.Full(n), DefaultShiftParams())
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	if out.Len() != n {
		t.Fatalf("out.Len() = %d, want %d", out.Len(), n)
	}

	interior := out.Channel(0)[n/4 : 3*n/4]

	// 440 + 100 must land at 540, not at a harmonic of 440.
	got := testutil.DominantFrequencyHz(t, interior, testSampleRate, 400, 900)
	if math.Abs(got-540) > 5 {
		t.Fatalf("dominant frequency = %v Hz, want 540 +/- 5", got)
	}
}

func TestFrequencyShiftDown(t *testing.T) {
	n := 22050
	in := testutil.DeterministicSine(440, testSampleRate, 0.5, n)

	buf, err := buffer.Mono(in, testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	params := DefaultShiftParams()
	params.Direction = ShiftDown

	out, err := FrequencyShift(buf, buffer.Full(n), params)
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	interior := out.Channel(0)[n/4 : 3*n/4]

	got := testutil.DominantFrequencyHz(t, interior, testSampleRate, 200, 600)
	if math.Abs(got-340) > 5 {
		t.Fatalf("dominant frequency = %v Hz, want 340 +/- 5", got)
	}
}

func TestFrequencyShiftNegativeOffsetSwapsSidebands(t *testing.T) {
	n := 22050
	in := testutil.DeterministicSine(440, testSampleRate, 0.5, n)

	buf, err := buffer.Mono(in, testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	params := DefaultShiftParams()
	params.ShiftHz = -100

	out, err := FrequencyShift(buf, buffer.Full(n), params)
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	interior := out.Channel(0)[n/4 : 3*n/4]

	got := testutil.DominantFrequencyHz(t, interior, testSampleRate, 200, 600)
	if math.Abs(got-340) > 5 {
		t.Fatalf("dominant frequency = %v Hz, want 340 +/- 5", got)
	}
}

func TestFrequencyShiftSilenceStaysSilent(t *testing.T) {
	n := 2 * int(testSampleRate)

	buf, err := buffer.Mono(testutil.Silence(n), testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	out, err := FrequencyShift(buf, buffer.Full(n), DefaultShiftParams())
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	testutil.RequirePeakBelow(t, out.Channel(0), 1e-9)
}

func TestFrequencyShiftMixZeroReturnsDry(t *testing.T) {
	n := 8192
	in := testutil.DeterministicSine(440, testSampleRate, 0.5, n)

	buf, err := buffer.Mono(in, testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	params := DefaultShiftParams()
	params.Mix = 0

	out, err := FrequencyShift(buf, buffer.Full(n), params)
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, out.Channel(0), in, 0)
}

func TestFrequencyShiftFeedbackStaysBounded(t *testing.T) {
	n := 22050
	in := testutil.DeterministicSine(440, testSampleRate, 0.5, n)

	buf, err := buffer.Mono(in, testSampleRate)
	if err != nil {
		t.Fatalf("buffer.Mono() error = %v", err)
	}

	params := DefaultShiftParams()
	params.Feedback = 5 // clamps to 0.9

	out, err := FrequencyShift(buf, buffer.Full(n), params)
	if err != nil {
		t.Fatalf("FrequencyShift() error = %v", err)
	}

	testutil.RequireFinite(t, out.Channel(0))

	// Feedback at 0.9 bounds the gain by the geometric series 1/(1-0.9),
	// with headroom for chunk-edge ringing.
	testutil.RequirePeakBelow(t, out.Channel(0), 6)
}
