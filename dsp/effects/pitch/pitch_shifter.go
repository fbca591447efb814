// Package pitch implements the region-based phase-vocoder pitch shifter
// with optional formant correction and an independent time-stretch ratio.
package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/dsp/core"
	"github.com/cwbudde/algo-spectral/dsp/spectrum"
	"github.com/cwbudde/algo-spectral/dsp/stft"
	"github.com/cwbudde/algo-spectral/dsp/window"
	"github.com/cwbudde/algo-spectral/internal/parallel"
)

// Quality selects the FFT size / overlap trade-off of the vocoder.
type Quality int

const (
	// QualityFast uses a 1024-point FFT at 25% overlap.
	QualityFast Quality = iota
	// QualityStandard uses a 2048-point FFT at 75% overlap.
	QualityStandard
	// QualityHigh uses a 4096-point FFT at 75% overlap.
	QualityHigh
	// QualityUltra uses an 8192-point FFT at 87.5% overlap.
	QualityUltra
)

// String returns the preset name.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityStandard:
		return "standard"
	case QualityHigh:
		return "high"
	case QualityUltra:
		return "ultra"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// settings returns the frame size and analysis hop of the preset.
func (q Quality) settings() (frameSize, analysisHop int) {
	switch q {
	case QualityFast:
		return 1024, 768
	case QualityHigh:
		return 4096, 1024
	case QualityUltra:
		return 8192, 1024
	default:
		return 2048, 512
	}
}

const (
	minPitchRatio   = 0.25
	maxPitchRatio   = 4.0
	minStretchRatio = 0.25
	maxStretchRatio = 4.0

	formantLoHz = 80.0
	formantHiHz = 5000.0
)

// Params configures one pitch-shift invocation. Out-of-range values are
// clamped to the documented bounds, never rejected.
type Params struct {
	// Semitones and Cents combine into the pitch ratio
	// 2^((100*Semitones+Cents)/1200), clamped to [0.25, 4].
	Semitones float64
	Cents     float64

	// Stretch is the duration ratio, independent of pitch. Zero selects 1;
	// clamped to [0.25, 4]. The realized ratio is quantized to
	// synthesisHop/analysisHop, and the output region length scales by it.
	Stretch float64

	// FormantCorrection re-imposes the unshifted spectral envelope so
	// timbre is decoupled from pitch.
	FormantCorrection bool

	// FormantSemitones shifts the re-imposed envelope itself, clamped to
	// [-12, 12]. Only meaningful with FormantCorrection enabled.
	FormantSemitones float64

	// Quality selects the FFT size / overlap preset.
	Quality Quality

	// OutputGainDB is applied before the dry/wet mix, clamped to [-24, 24].
	OutputGainDB float64

	// Mix blends dry (0) and shifted (1) signal. Ignored when the realized
	// stretch ratio is not 1, since dry and wet then differ in length.
	Mix float64
}

// DefaultParams returns a fully wet, unshifted standard-quality setup.
func DefaultParams() Params {
	return Params{Stretch: 1, Quality: QualityStandard, Mix: 1}
}

// Ratio converts a semitone + cents offset into a pitch ratio.
// Ratio(12, 0) is exactly 2.
func Ratio(semitones, cents float64) float64 {
	return math.Pow(2, (100*semitones+cents)/1200)
}

func (p Params) normalized() Params {
	if p.Stretch == 0 {
		p.Stretch = 1
	}

	p.Stretch = core.Clamp(p.Stretch, minStretchRatio, maxStretchRatio)
	p.FormantSemitones = core.Clamp(p.FormantSemitones, -12, 12)
	p.OutputGainDB = core.Clamp(p.OutputGainDB, -24, 24)
	p.Mix = core.Clamp(p.Mix, 0, 1)

	return p
}

// Process pitch-shifts the region and returns a new buffer with the region
// replaced. When the realized stretch ratio is 1 the output length equals
// the input length and the region is dry/wet mixed in place; otherwise the
// processed region's length scales by the ratio and the head and tail are
// spliced around it, fully wet.
func Process(buf *buffer.Buffer, region buffer.Region, params Params) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("pitch shifter: buffer must be non-nil and non-empty")
	}

	if err := region.Validate(buf.Len()); err != nil {
		return nil, fmt.Errorf("pitch shifter: %w", err)
	}

	p := params.normalized()

	if p.Quality < QualityFast || p.Quality > QualityUltra {
		return nil, fmt.Errorf("pitch shifter: unknown quality preset %d", int(p.Quality))
	}

	ratio := core.Clamp(Ratio(p.Semitones, p.Cents), minPitchRatio, maxPitchRatio)
	frameSize, analysisHop := p.Quality.settings()

	synthesisHop := int(math.Round(float64(analysisHop) * p.Stretch))
	if synthesisHop < 1 {
		synthesisHop = 1
	}

	if synthesisHop > frameSize {
		synthesisHop = frameSize
	}

	outLen := int(math.Round(float64(region.Len()) * float64(synthesisHop) / float64(analysisHop)))
	gain := core.DBToLinear(p.OutputGainDB)
	win := window.Hann(frameSize, window.WithPeriodic())

	loBin := int(math.Round(formantLoHz * float64(frameSize) / buf.SampleRate()))
	hiBin := int(math.Round(formantHiHz * float64(frameSize) / buf.SampleRate()))

	stretched := synthesisHop != analysisHop

	out, err := buffer.New(buf.Channels(), buf.Len()-region.Len()+outLen, buf.SampleRate())
	if err != nil {
		return nil, err
	}

	err = parallel.ForEachChannel(buf.Channels(), func(ch int) error {
		src := buf.Channel(ch)
		dst := out.Channel(ch)

		copy(dst[:region.Start], src[:region.Start])
		copy(dst[region.Start+outLen:], src[region.End:])

		v := newVocoder(vocoderConfig{
			frameSize:    frameSize,
			analysisHop:  analysisHop,
			synthesisHop: synthesisHop,
			ratio:        ratio,
			formant:      p.FormantCorrection,
			formantRatio: Ratio(p.FormantSemitones, 0),
			formantLoBin: loBin,
			formantHiBin: hiBin,
		})

		proc, err := stft.NewProcessor(stft.Config{
			FrameSize:    frameSize,
			AnalysisHop:  float64(analysisHop),
			SynthesisHop: synthesisHop,
			Window:       win,
		})
		if err != nil {
			return fmt.Errorf("pitch shifter: %w", err)
		}

		wet, err := proc.Process(src[region.Start:region.End], outLen, v.transform)
		if err != nil {
			return fmt.Errorf("pitch shifter: %w", err)
		}

		target := dst[region.Start : region.Start+outLen]
		if stretched {
			for i := range target {
				target[i] = wet[i] * gain
			}

			return nil
		}

		dry := src[region.Start:region.End]
		for i := range target {
			target[i] = (1-p.Mix)*dry[i] + p.Mix*wet[i]*gain
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

type vocoderConfig struct {
	frameSize    int
	analysisHop  int
	synthesisHop int
	ratio        float64
	formant      bool
	formantRatio float64
	formantLoBin int
	formantHiBin int
}

// vocoder holds the per-channel phase tracking state of one invocation.
type vocoder struct {
	cfg  vocoderConfig
	half int

	omega     []float64
	prevPhase []float64
	sumPhase  []float64

	mags     []float64
	phases   []float64
	instFreq []float64
	outMag   []float64
	outFreq  []float64

	envelope *formantCorrector
}

func newVocoder(cfg vocoderConfig) *vocoder {
	half := cfg.frameSize / 2
	bins := half + 1

	v := &vocoder{
		cfg:       cfg,
		half:      half,
		omega:     make([]float64, bins),
		prevPhase: make([]float64, bins),
		sumPhase:  make([]float64, bins),
		mags:      make([]float64, bins),
		phases:    make([]float64, bins),
		instFreq:  make([]float64, bins),
		outMag:    make([]float64, bins),
		outFreq:   make([]float64, bins),
	}

	for k := range v.omega {
		v.omega[k] = 2 * math.Pi * float64(k) / float64(cfg.frameSize)
	}

	if cfg.formant {
		lo := cfg.formantLoBin
		hi := cfg.formantHiBin

		if lo < 1 {
			lo = 1
		}

		if hi > half {
			hi = half
		}

		v.envelope = newFormantCorrector(bins, lo, hi, cfg.formantRatio)
	}

	return v
}

// transform is the per-frame spectral callback: magnitude resampling at the
// pitch ratio plus phase-locked synthesis phase accumulation.
func (v *vocoder) transform(spec []complex128, _ int) error {
	spectrum.MagnitudeInto(v.mags, spec[:v.half+1])
	spectrum.PhaseInto(v.phases, spec[:v.half+1])

	analysisHop := float64(v.cfg.analysisHop)
	synthesisHop := float64(v.cfg.synthesisHop)

	// Instantaneous frequency from the wrapped deviation of the
	// frame-to-frame phase difference against the bin's expected increment.
	for k := 0; k <= v.half; k++ {
		delta := v.phases[k] - v.prevPhase[k] - v.omega[k]*analysisHop
		delta = core.WrapPhase(delta)

		v.instFreq[k] = v.omega[k] + delta/analysisHop
		v.prevPhase[k] = v.phases[k]
	}

	// Nearest-bin magnitude resampling at the pitch ratio; the source
	// bin's true frequency scales with the ratio.
	for k := 0; k <= v.half; k++ {
		src := int(math.Round(float64(k) / v.cfg.ratio))
		if src < 0 || src > v.half {
			v.outMag[k] = 0
			v.outFreq[k] = v.omega[k]

			continue
		}

		v.outMag[k] = v.mags[src]
		v.outFreq[k] = v.instFreq[src] * v.cfg.ratio
	}

	if v.envelope != nil {
		v.envelope.apply(v.outMag, v.mags)
	}

	for k := 0; k <= v.half; k++ {
		v.sumPhase[k] += v.outFreq[k] * synthesisHop

		s, c := math.Sincos(v.sumPhase[k])
		spec[k] = complex(v.outMag[k]*c, v.outMag[k]*s)
	}

	spectrum.MirrorHermitian(spec)

	return nil
}
