package effects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/dsp/core"
	"github.com/cwbudde/algo-spectral/dsp/spectrum"
	"github.com/cwbudde/algo-spectral/dsp/stft"
	"github.com/cwbudde/algo-spectral/dsp/window"
	"github.com/cwbudde/algo-spectral/internal/parallel"
)

const (
	defaultStretchFactor    = 8.0
	defaultStretchWindowSec = 0.25
	defaultLimiterThreshDB  = -1.0
	defaultStretchSeed      = 1
	minStretchFactor        = 1.0
	maxStretchFactor        = 200.0
	minStretchWindowSec     = 0.01
	maxStretchWindowSec     = 10.0
	minStretchWindowSize    = 64
	stretchRMSFloor         = 1e-12
	minLimiterThreshDB      = -60.0
	maxLimiterThreshDB      = 0.0
)

// StretchParams configures the extreme time-stretch engine.
// Zero-value fields take the defaults documented per field; out-of-range
// values are clamped, never rejected.
type StretchParams struct {
	// Factor is the duration multiplier. Zero selects 8; clamped to [1, 200].
	Factor float64

	// WindowSeconds is the analysis window duration. Zero selects 0.25 s;
	// clamped to [0.01, 10]. The effective frame size is the next power of
	// two of WindowSeconds at the buffer's sample rate.
	WindowSeconds float64

	// MakeupGainDB is applied after weight normalization, before the
	// limiter. Clamped to [-24, 24].
	MakeupGainDB float64

	// LimiterThresholdDB sets the soft limiter threshold. Zero selects
	// -1 dBFS; values below -60 clamp to -60, positive values clamp to
	// 0 dBFS (full scale).
	LimiterThresholdDB float64

	// Seed drives the per-channel phase randomization. Zero selects 1, so
	// repeated calls are reproducible.
	Seed int64
}

// DefaultStretchParams returns the documented defaults.
func DefaultStretchParams() StretchParams {
	return StretchParams{
		Factor:             defaultStretchFactor,
		WindowSeconds:      defaultStretchWindowSec,
		LimiterThresholdDB: defaultLimiterThreshDB,
		Seed:               defaultStretchSeed,
	}
}

func (p StretchParams) normalized() StretchParams {
	if p.Factor == 0 {
		p.Factor = defaultStretchFactor
	}

	if p.WindowSeconds == 0 {
		p.WindowSeconds = defaultStretchWindowSec
	}

	if p.LimiterThresholdDB == 0 {
		p.LimiterThresholdDB = defaultLimiterThreshDB
	}

	if p.Seed == 0 {
		p.Seed = defaultStretchSeed
	}

	p.Factor = core.Clamp(p.Factor, minStretchFactor, maxStretchFactor)
	p.WindowSeconds = core.Clamp(p.WindowSeconds, minStretchWindowSec, maxStretchWindowSec)
	p.MakeupGainDB = core.Clamp(p.MakeupGainDB, -24, 24)
	p.LimiterThresholdDB = core.Clamp(p.LimiterThresholdDB, minLimiterThreshDB, maxLimiterThreshDB)

	return p
}

// Stretch time-stretches the region by params.Factor using windowed phase
// randomization and returns the stretched region as a new buffer of length
// round(region.Len() * Factor). The source buffer is not modified; because
// the output length differs from the source region, the caller splices the
// result back if a full-track rendition is wanted.
//
// Per frame the input is DC-removed, windowed with a root-Hann envelope,
// forward-transformed, every positive-frequency phase replaced with an
// independent uniform random value while magnitudes are preserved, mirrored
// back to Hermitian symmetry, inverse-transformed, RMS-matched to the
// analysis frame, and overlap-added at a quarter-window synthesis hop.
func Stretch(buf *buffer.Buffer, region buffer.Region, params StretchParams) (*buffer.Buffer, error) {
	if err := validateCall(buf, region); err != nil {
		return nil, err
	}

	p := params.normalized()

	windowSize := core.NextPowerOfTwo(int(math.Round(p.WindowSeconds * buf.SampleRate())))
	if windowSize < minStretchWindowSize {
		windowSize = minStretchWindowSize
	}

	synthesisHop := windowSize / 4
	analysisHop := float64(synthesisHop) / p.Factor
	outLen := int(math.Round(float64(region.Len()) * p.Factor))

	root := window.RootHann(windowSize, window.WithPeriodic())
	makeupGain := core.DBToLinear(p.MakeupGainDB)
	threshold := core.DBToLinear(p.LimiterThresholdDB)

	out, err := buffer.New(buf.Channels(), outLen, buf.SampleRate())
	if err != nil {
		return nil, err
	}

	err = parallel.ForEachChannel(buf.Channels(), func(ch int) error {
		stretched, err := stretchChannel(
			buf.Channel(ch)[region.Start:region.End],
			outLen, windowSize, analysisHop, synthesisHop,
			root, p.Seed+int64(ch),
		)
		if err != nil {
			return err
		}

		for i, v := range stretched {
			out.Channel(ch)[i] = softLimit(v*makeupGain, threshold)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func stretchChannel(in []float64, outLen, windowSize int, analysisHop float64,
	synthesisHop int, win []float64, seed int64,
) ([]float64, error) {
	rng := rand.New(rand.NewSource(seed))

	half := windowSize / 2
	analysisRMS := 0.0

	proc, err := stft.NewProcessor(stft.Config{
		FrameSize:       windowSize,
		AnalysisHop:     analysisHop,
		SynthesisHop:    synthesisHop,
		Window:          win,
		SynthesisWindow: win,
		PreFrame:        removeDC,
		PostFrame: func(frame []float64, _ int) {
			matchRMS(frame, analysisRMS)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("stretch: %w", err)
	}

	return proc.Process(in, outLen, func(spec []complex128, _ int) error {
		// Frame RMS from the spectrum via Parseval, before the phases are
		// destroyed.
		sum := 0.0
		for _, c := range spec {
			sum += real(c)*real(c) + imag(c)*imag(c)
		}

		analysisRMS = math.Sqrt(sum) / float64(windowSize)

		spec[0] = complex(real(spec[0]), 0)
		spec[half] = complex(real(spec[half]), 0)

		for k := 1; k < half; k++ {
			mag := math.Hypot(real(spec[k]), imag(spec[k]))
			s, c := math.Sincos(rng.Float64() * 2 * math.Pi)
			spec[k] = complex(mag*c, mag*s)
		}

		spectrum.MirrorHermitian(spec)

		return nil
	})
}

// removeDC subtracts the frame mean in place.
func removeDC(frame []float64, _ int) {
	if len(frame) == 0 {
		return
	}

	sum := 0.0
	for _, v := range frame {
		sum += v
	}

	mean := sum / float64(len(frame))
	for i := range frame {
		frame[i] -= mean
	}
}

// matchRMS scales frame so its RMS equals target. Silent frames pass
// through unchanged.
func matchRMS(frame []float64, target float64) {
	rms := core.RMS(frame)
	if rms <= stretchRMSFloor || target <= stretchRMSFloor {
		return
	}

	vecmath.ScaleBlockInPlace(frame, target/rms)
}

// softLimit applies y = thr * tanh(x / thr), bounding |y| below thr.
func softLimit(x, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}

	return threshold * mathTanh(x/threshold)
}
