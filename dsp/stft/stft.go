// Package stft implements the shared short-time Fourier transform
// analysis/synthesis framework.
//
// A Processor frames a mono signal at a hop size, windows each frame,
// forward-transforms it, hands the spectrum to a caller-supplied transform,
// inverse-transforms, windows again, and reconstructs by weight-normalized
// overlap-add. Every spectral effect in this module reduces to a Processor
// plus a per-frame Transform.
package stft

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spectral/dsp/core"
	"github.com/cwbudde/algo-spectral/dsp/fft"
)

// weightFloor guards the overlap-add normalization against division by the
// near-zero window weight at the extreme edges.
const weightFloor = 1e-12

// Transform rewrites one complex spectrum in place. frame is the zero-based
// frame index; transforms that track phase across frames key their state on
// it being strictly increasing.
type Transform func(spectrum []complex128, frame int) error

// FrameHook observes or rewrites one time-domain frame in place.
type FrameHook func(frame []float64, frameIndex int)

// Config describes one STFT analysis/synthesis pass.
type Config struct {
	// FrameSize is the FFT size. Must be a power of two >= 2.
	FrameSize int

	// AnalysisHop is the spacing of analysis frame origins in input
	// samples. It may be fractional: extreme time-stretching advances the
	// analysis position by a fraction of a sample hop per synthesis frame.
	AnalysisHop float64

	// SynthesisHop is the spacing of synthesis frames in output samples.
	SynthesisHop int

	// Window holds the analysis window coefficients, length FrameSize.
	Window []float64

	// SynthesisWindow optionally holds distinct synthesis coefficients.
	// When nil, Window is used for both passes.
	SynthesisWindow []float64

	// PreFrame, when set, runs on the raw frame before windowing
	// (e.g. per-frame DC removal).
	PreFrame FrameHook

	// PostFrame, when set, runs on the inverse-transformed frame before
	// synthesis windowing (e.g. RMS matching).
	PostFrame FrameHook
}

// Processor executes the configured STFT pass. It owns one FFT transform per
// frame size and reuses it across frames. Not safe for concurrent use.
type Processor struct {
	cfg Config
	fft *fft.Transform

	frame    []float64
	windowed []float64
	spec     []complex128
}

// NewProcessor validates cfg and allocates per-call working buffers.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.FrameSize < 2 || !core.IsPowerOfTwo(cfg.FrameSize) {
		return nil, fmt.Errorf("stft: frame size must be a power of two >= 2: %d", cfg.FrameSize)
	}

	if !(cfg.AnalysisHop > 0) || math.IsInf(cfg.AnalysisHop, 0) {
		return nil, fmt.Errorf("stft: analysis hop must be positive and finite: %f", cfg.AnalysisHop)
	}

	if cfg.SynthesisHop <= 0 || cfg.SynthesisHop > cfg.FrameSize {
		return nil, fmt.Errorf("stft: synthesis hop must be in [1, %d]: %d", cfg.FrameSize, cfg.SynthesisHop)
	}

	if len(cfg.Window) != cfg.FrameSize {
		return nil, fmt.Errorf("stft: window length %d != frame size %d", len(cfg.Window), cfg.FrameSize)
	}

	if cfg.SynthesisWindow != nil && len(cfg.SynthesisWindow) != cfg.FrameSize {
		return nil, fmt.Errorf("stft: synthesis window length %d != frame size %d",
			len(cfg.SynthesisWindow), cfg.FrameSize)
	}

	tr, err := fft.New(cfg.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	return &Processor{
		cfg:      cfg,
		fft:      tr,
		frame:    make([]float64, cfg.FrameSize),
		windowed: make([]float64, cfg.FrameSize),
		spec:     make([]complex128, cfg.FrameSize),
	}, nil
}

// FrameSize returns the configured FFT size.
func (p *Processor) FrameSize() int { return p.cfg.FrameSize }

// Process runs the full analysis/synthesis pass over input and returns a
// weight-normalized output of exactly outputLen samples.
//
// Edge policy: analysis reads past either end of input are zero-padded;
// synthesis frames are generated only while their start index lies inside
// the output (trailing-edge skip). Output samples whose accumulated window
// weight stays below a floor (the extreme edges) are left at zero.
func (p *Processor) Process(input []float64, outputLen int, transform Transform) ([]float64, error) {
	if outputLen < 0 {
		return nil, fmt.Errorf("stft: output length must be >= 0: %d", outputLen)
	}

	out := make([]float64, outputLen)
	if outputLen == 0 {
		return out, nil
	}

	weight := make([]float64, outputLen)

	synthWindow := p.cfg.SynthesisWindow
	if synthWindow == nil {
		synthWindow = p.cfg.Window
	}

	for frame := 0; ; frame++ {
		outPos := frame * p.cfg.SynthesisHop
		if outPos >= outputLen {
			break
		}

		inPos := int(math.Round(float64(frame) * p.cfg.AnalysisHop))
		p.extract(input, inPos)

		if p.cfg.PreFrame != nil {
			p.cfg.PreFrame(p.frame, frame)
		}

		vecmath.MulBlock(p.windowed, p.frame, p.cfg.Window)

		if err := p.fft.Forward(p.spec, p.windowed); err != nil {
			return nil, fmt.Errorf("stft: frame %d: %w", frame, err)
		}

		if transform != nil {
			if err := transform(p.spec, frame); err != nil {
				return nil, fmt.Errorf("stft: frame %d transform: %w", frame, err)
			}
		}

		if err := p.fft.Inverse(p.frame, p.spec); err != nil {
			return nil, fmt.Errorf("stft: frame %d: %w", frame, err)
		}

		if p.cfg.PostFrame != nil {
			p.cfg.PostFrame(p.frame, frame)
		}

		for i := 0; i < p.cfg.FrameSize; i++ {
			idx := outPos + i
			if idx >= outputLen {
				break
			}

			w := synthWindow[i]
			out[idx] += p.frame[i] * w
			weight[idx] += w * w
		}
	}

	for i := range out {
		if weight[i] > weightFloor {
			out[i] /= weight[i]
		}
	}

	return out, nil
}

// extract copies FrameSize samples starting at pos into the working frame,
// zero-padding reads outside input.
func (p *Processor) extract(input []float64, pos int) {
	for i := range p.frame {
		idx := pos + i
		if idx >= 0 && idx < len(input) {
			p.frame[i] = input[idx]
		} else {
			p.frame[i] = 0
		}
	}
}
