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
)

// FilterMode selects the per-frame spectral transform of the filter family.
type FilterMode int

const (
	// FilterRobot keeps only the dominant bin in each of Bands equal bands.
	FilterRobot FilterMode = iota
	// FilterWhisper randomizes the phase of bins above Threshold and zeroes
	// the rest.
	FilterWhisper
	// FilterHarmonicBoost boosts the first ten harmonics of the detected
	// fundamental by BoostGain with a BoostSpread-controlled width.
	FilterHarmonicBoost
	// FilterFrequencyShift rigidly shifts the bin array by ShiftHz.
	FilterFrequencyShift
	// FilterGate zeroes every bin below Threshold.
	FilterGate
	// FilterOddHarmonics keeps only bins at odd multiples of the detected
	// fundamental.
	FilterOddHarmonics
)

// String returns the mode name.
func (m FilterMode) String() string {
	switch m {
	case FilterRobot:
		return "robot"
	case FilterWhisper:
		return "whisper"
	case FilterHarmonicBoost:
		return "harmonic-boost"
	case FilterFrequencyShift:
		return "frequency-shift"
	case FilterGate:
		return "gate"
	case FilterOddHarmonics:
		return "odd-harmonics"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

const (
	filterFrameSize = 2048
	filterHop       = filterFrameSize / 4

	defaultFilterBands     = 16
	defaultFilterThreshold = 0.1
	defaultFilterBoostGain = 2.0
	defaultFilterSpread    = 0.5
	defaultFilterSeed      = 1

	filterPeakFloor = 1e-12
	maxHarmonics    = 10
)

// FilterParams configures one spectral filter invocation. Zero-value fields
// take the documented defaults; out-of-range values are clamped.
type FilterParams struct {
	Mode FilterMode

	// Bands is the band count for FilterRobot. Zero selects 16; clamped to
	// [2, 64].
	Bands int

	// Threshold gates bin magnitudes for FilterWhisper and FilterGate,
	// relative to the frame's peak magnitude. Zero selects 0.1; any
	// negative value clamps to 0 and disables the gate, values above 1
	// clamp to 1.
	Threshold float64

	// BoostGain is the harmonic magnitude multiplier for
	// FilterHarmonicBoost. Zero selects 2; clamped to [1, 10].
	BoostGain float64

	// BoostSpread widens the boost around each harmonic bin for
	// FilterHarmonicBoost. Zero selects 0.5; clamped to [0, 1].
	BoostSpread float64

	// ShiftHz is the rigid spectral offset for FilterFrequencyShift,
	// clamped to plus/minus a quarter of the sample rate.
	ShiftHz float64

	// Seed drives the per-channel phase randomization of FilterWhisper.
	// Zero selects 1.
	Seed int64
}

// DefaultFilterParams returns the documented defaults for mode.
func DefaultFilterParams(mode FilterMode) FilterParams {
	return FilterParams{
		Mode:        mode,
		Bands:       defaultFilterBands,
		Threshold:   defaultFilterThreshold,
		BoostGain:   defaultFilterBoostGain,
		BoostSpread: defaultFilterSpread,
		Seed:        defaultFilterSeed,
	}
}

func (p FilterParams) normalized(sampleRate float64) FilterParams {
	if p.Bands == 0 {
		p.Bands = defaultFilterBands
	}

	if p.Threshold == 0 {
		p.Threshold = defaultFilterThreshold
	}

	if p.BoostGain == 0 {
		p.BoostGain = defaultFilterBoostGain
	}

	if p.BoostSpread == 0 {
		p.BoostSpread = defaultFilterSpread
	}

	if p.Seed == 0 {
		p.Seed = defaultFilterSeed
	}

	p.Bands = int(core.Clamp(float64(p.Bands), 2, 64))
	p.Threshold = core.Clamp(p.Threshold, 0, 1)
	p.BoostGain = core.Clamp(p.BoostGain, 1, 10)
	p.BoostSpread = core.Clamp(p.BoostSpread, 0, 1)
	p.ShiftHz = core.Clamp(p.ShiftHz, -sampleRate/4, sampleRate/4)

	return p
}

// Filter applies the mode-selected spectral transform to region and returns
// the input buffer with the region replaced. The processed region is
// renormalized to unit peak before writing back, since none of the modes
// preserve overall energy; a silent result is left silent.
func Filter(buf *buffer.Buffer, region buffer.Region, params FilterParams) (*buffer.Buffer, error) {
	if err := validateCall(buf, region); err != nil {
		return nil, err
	}

	p := params.normalized(buf.SampleRate())

	if p.Mode < FilterRobot || p.Mode > FilterOddHarmonics {
		return nil, fmt.Errorf("spectral filter: unknown mode %d", int(p.Mode))
	}

	win := window.Hann(filterFrameSize, window.WithPeriodic())
	binShift := int(math.Round(p.ShiftHz * filterFrameSize / buf.SampleRate()))

	return processRegion(buf, region, func(ch int, in []float64) ([]float64, error) {
		f := &filterState{
			params:   p,
			binShift: binShift,
			rng:      rand.New(rand.NewSource(p.Seed + int64(ch))),
			mags:     make([]float64, filterFrameSize/2+1),
			shifted:  make([]complex128, filterFrameSize/2+1),
		}

		proc, err := stft.NewProcessor(stft.Config{
			FrameSize:    filterFrameSize,
			AnalysisHop:  filterHop,
			SynthesisHop: filterHop,
			Window:       win,
		})
		if err != nil {
			return nil, fmt.Errorf("spectral filter: %w", err)
		}

		out, err := proc.Process(in, len(in), f.transform)
		if err != nil {
			return nil, fmt.Errorf("spectral filter: %w", err)
		}

		normalizeToUnitPeak(out)

		return out, nil
	})
}

type filterState struct {
	params   FilterParams
	binShift int
	rng      *rand.Rand
	mags     []float64
	shifted  []complex128
}

func (f *filterState) transform(spec []complex128, _ int) error {
	half := len(spec) / 2
	spectrum.MagnitudeInto(f.mags, spec[:half+1])

	switch f.params.Mode {
	case FilterRobot:
		f.robot(spec, half)
	case FilterWhisper:
		f.whisper(spec, half)
	case FilterHarmonicBoost:
		f.harmonicBoost(spec, half)
	case FilterFrequencyShift:
		f.frequencyShift(spec, half)
	case FilterGate:
		f.gate(spec, half)
	case FilterOddHarmonics:
		f.oddHarmonics(spec, half)
	}

	spectrum.MirrorHermitian(spec)

	return nil
}

// robot keeps only the dominant bin within each of Bands equal partitions
// of the positive-frequency bins.
func (f *filterState) robot(spec []complex128, half int) {
	bandSize := half / f.params.Bands
	if bandSize < 1 {
		bandSize = 1
	}

	for lo := 1; lo <= half; lo += bandSize {
		hi := lo + bandSize - 1
		if hi > half {
			hi = half
		}

		keep := spectrum.DominantBin(f.mags, lo, hi)
		for k := lo; k <= hi; k++ {
			if k != keep {
				spec[k] = 0
			}
		}
	}
}

func (f *filterState) whisper(spec []complex128, half int) {
	thr := f.params.Threshold * spectrum.PeakMagnitude(f.mags)

	for k := 1; k < half; k++ {
		if f.mags[k] < thr {
			spec[k] = 0

			continue
		}

		s, c := math.Sincos(f.rng.Float64() * 2 * math.Pi)
		spec[k] = complex(f.mags[k]*c, f.mags[k]*s)
	}
}

func (f *filterState) harmonicBoost(spec []complex128, half int) {
	f0 := f.fundamental(half)
	if f0 == 0 {
		return
	}

	radius := int(math.Round(f.params.BoostSpread * float64(f0) / 2))
	if radius < 1 {
		radius = 1
	}

	for h := 1; h <= maxHarmonics; h++ {
		center := h * f0
		if center > half {
			break
		}

		for k := center - radius; k <= center+radius; k++ {
			if k < 1 || k > half {
				continue
			}

			falloff := 1 - math.Abs(float64(k-center))/float64(radius+1)
			gain := 1 + (f.params.BoostGain-1)*falloff
			spec[k] *= complex(gain, 0)
		}
	}
}

func (f *filterState) frequencyShift(spec []complex128, half int) {
	for k := 0; k <= half; k++ {
		src := k - f.binShift
		if src >= 0 && src <= half {
			f.shifted[k] = spec[src]
		} else {
			f.shifted[k] = 0
		}
	}

	copy(spec[:half+1], f.shifted)
}

func (f *filterState) gate(spec []complex128, half int) {
	thr := f.params.Threshold * spectrum.PeakMagnitude(f.mags)

	for k := 0; k <= half; k++ {
		if f.mags[k] < thr {
			spec[k] = 0
		}
	}
}

func (f *filterState) oddHarmonics(spec []complex128, half int) {
	f0 := f.fundamental(half)
	if f0 == 0 {
		return
	}

	radius := f0 / 8
	if radius < 1 {
		radius = 1
	}

	keep := make([]bool, half+1)
	for m := 1; m*f0 <= half; m += 2 {
		center := m * f0
		for k := center - radius; k <= center+radius; k++ {
			if k >= 1 && k <= half {
				keep[k] = true
			}
		}
	}

	for k := 0; k <= half; k++ {
		if !keep[k] {
			spec[k] = 0
		}
	}
}

// fundamental detects the dominant bin in the lower quarter of the
// spectrum, or 0 for a silent frame.
func (f *filterState) fundamental(half int) int {
	f0 := spectrum.DominantBin(f.mags, 1, half/2)
	if f.mags[f0] <= filterPeakFloor {
		return 0
	}

	return f0
}

// normalizeToUnitPeak scales data so its peak magnitude is 1. Silent data
// is left untouched.
func normalizeToUnitPeak(data []float64) {
	peak := 0.0

	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if peak <= filterPeakFloor {
		return
	}

	vecmath.ScaleBlockInPlace(data, 1/peak)
}
