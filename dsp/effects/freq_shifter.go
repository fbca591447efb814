package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/dsp/core"
	"github.com/cwbudde/algo-spectral/dsp/fft"
	"github.com/cwbudde/algo-spectral/dsp/window"
)

// ShiftDirection selects which sideband of the SSB modulation is kept.
type ShiftDirection int

const (
	// ShiftUp keeps the upper sideband, translating all content up by
	// ShiftHz.
	ShiftUp ShiftDirection = iota
	// ShiftDown keeps the lower sideband.
	ShiftDown
	// ShiftBoth averages the two sidebands, giving a ring-modulator-like
	// result.
	ShiftBoth
)

// String returns the direction name.
func (d ShiftDirection) String() string {
	switch d {
	case ShiftUp:
		return "up"
	case ShiftDown:
		return "down"
	case ShiftBoth:
		return "both"
	default:
		return fmt.Sprintf("ShiftDirection(%d)", int(d))
	}
}

const (
	shifterChunkSize = 4096
	shifterHop       = shifterChunkSize / 4

	defaultShiftHz   = 100.0
	maxShiftFeedback = 0.9

	// shifterDelaySeconds is the fixed feedback tap delay.
	shifterDelaySeconds = 0.1

	shifterWeightFloor = 1e-12
)

// ShiftParams configures the frequency shifter. Out-of-range values are
// clamped.
type ShiftParams struct {
	// ShiftHz is the signed frequency offset, clamped to plus/minus a
	// quarter of the sample rate. Negative values swap the sidebands.
	ShiftHz float64

	// Direction selects the kept sideband.
	Direction ShiftDirection

	// Feedback re-injects the shifted signal through a fixed ~100 ms delay
	// tap before the dry/wet mix. Clamped to [0, 0.9].
	Feedback float64

	// Mix blends dry (0) and shifted (1) signal.
	Mix float64
}

// DefaultShiftParams returns a fully wet 100 Hz upward shift.
func DefaultShiftParams() ShiftParams {
	return ShiftParams{ShiftHz: defaultShiftHz, Direction: ShiftUp, Mix: 1}
}

func (p ShiftParams) normalized(sampleRate float64) ShiftParams {
	p.ShiftHz = core.Clamp(p.ShiftHz, -sampleRate/4, sampleRate/4)
	p.Feedback = core.Clamp(p.Feedback, 0, maxShiftFeedback)
	p.Mix = core.Clamp(p.Mix, 0, 1)

	return p
}

// FrequencyShift translates all spectral content of the region by a fixed Hz
// offset via single-sideband modulation and returns the input buffer with
// the region replaced.
//
// Each chunk is windowed, turned into an analytic signal via the FFT (zero
// negative frequencies, double positives), and modulated against a carrier
// driven by a region-global sample clock so the carrier phase stays
// continuous across chunk boundaries. Reconstruction uses the same
// squared-window weight normalization as the STFT framework.
func FrequencyShift(buf *buffer.Buffer, region buffer.Region, params ShiftParams) (*buffer.Buffer, error) {
	if err := validateCall(buf, region); err != nil {
		return nil, err
	}

	if params.Direction < ShiftUp || params.Direction > ShiftBoth {
		return nil, fmt.Errorf("frequency shifter: unknown direction %d", int(params.Direction))
	}

	p := params.normalized(buf.SampleRate())
	win := window.Hann(shifterChunkSize, window.WithPeriodic())
	omega := 2 * math.Pi * p.ShiftHz / buf.SampleRate()
	delay := int(math.Round(shifterDelaySeconds * buf.SampleRate()))

	return processRegion(buf, region, func(_ int, in []float64) ([]float64, error) {
		return shiftChannel(in, p, win, omega, delay)
	})
}

func shiftChannel(in []float64, p ShiftParams, win []float64, omega float64, delay int) ([]float64, error) {
	tr, err := fft.New(shifterChunkSize)
	if err != nil {
		return nil, fmt.Errorf("frequency shifter: %w", err)
	}

	n := len(in)
	wet := make([]float64, n)
	weight := make([]float64, n)
	chunk := make([]complex128, shifterChunkSize)
	analytic := make([]complex128, shifterChunkSize)

	for pos := 0; pos < n; pos += shifterHop {
		for i := range shifterChunkSize {
			x := 0.0
			if idx := pos + i; idx < n {
				x = in[idx]
			}

			chunk[i] = complex(x*win[i], 0)
		}

		if err := analyticSignal(tr, analytic, chunk); err != nil {
			return nil, fmt.Errorf("frequency shifter: %w", err)
		}

		for i := range shifterChunkSize {
			idx := pos + i
			if idx >= n {
				break
			}

			// The sample clock is region-global so the carrier phase is
			// continuous across chunks.
			s, c := math.Sincos(omega * float64(idx))
			re := real(analytic[i])
			im := imag(analytic[i])

			var v float64

			switch p.Direction {
			case ShiftUp:
				v = re*c - im*s
			case ShiftDown:
				v = re*c + im*s
			case ShiftBoth:
				v = re * c
			}

			w := win[i]
			wet[idx] += v * w
			weight[idx] += w * w
		}
	}

	for i := range wet {
		if weight[i] > shifterWeightFloor {
			wet[i] /= weight[i]
		}
	}

	if p.Feedback > 0 && delay > 0 {
		for i := delay; i < n; i++ {
			wet[i] += p.Feedback * wet[i-delay]
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = (1-p.Mix)*in[i] + p.Mix*wet[i]
	}

	return out, nil
}

// analyticSignal computes the analytic signal of src: real part equals the
// input, imaginary part its Hilbert transform. Negative-frequency bins are
// zeroed and positive bins doubled; DC and Nyquist are kept as is.
func analyticSignal(tr *fft.Transform, dst, src []complex128) error {
	if err := tr.ForwardComplex(dst, src); err != nil {
		return err
	}

	half := len(dst) / 2
	for k := 1; k < half; k++ {
		dst[k] *= 2
	}

	for k := half + 1; k < len(dst); k++ {
		dst[k] = 0
	}

	return tr.InverseComplex(dst, dst)
}
