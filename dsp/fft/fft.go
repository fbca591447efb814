// Package fft provides the shared real-signal FFT primitive used by every
// spectral effect. A Transform wraps one precomputed plan per frame size;
// callers construct it once per size and reuse it across frames.
package fft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-spectral/dsp/core"
)

// Transform performs forward and inverse FFTs of one fixed power-of-two size.
//
// The inverse is scaled by 1/N, so Inverse(Forward(x)) == x up to rounding.
// A Transform is not safe for concurrent use; each goroutine needs its own.
type Transform struct {
	size int
	plan *algofft.Plan[complex128]

	scratch []complex128
}

// New creates a Transform for the given frame size.
// size must be a power of two >= 2; anything else is a programmer error and
// fails fast.
func New(size int) (*Transform, error) {
	if size < 2 || !core.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft: size must be a power of two >= 2: %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("fft: failed to create plan for size %d: %w", size, err)
	}

	return &Transform{
		size:    size,
		plan:    plan,
		scratch: make([]complex128, size),
	}, nil
}

// Size returns the configured frame size.
func (t *Transform) Size() int { return t.size }

// Forward computes the complex spectrum of a real frame.
// len(src) and len(dst) must equal Size.
func (t *Transform) Forward(dst []complex128, src []float64) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("fft: forward length mismatch: src=%d dst=%d size=%d", len(src), len(dst), t.size)
	}

	for i, v := range src {
		t.scratch[i] = complex(v, 0)
	}

	if err := t.plan.Forward(dst, t.scratch); err != nil {
		return fmt.Errorf("fft: forward transform failed: %w", err)
	}

	return nil
}

// Inverse computes the real frame for a complex spectrum, discarding the
// imaginary residue. The spectrum must be Hermitian for the residue to be
// negligible; see spectrum.MirrorHermitian.
func (t *Transform) Inverse(dst []float64, src []complex128) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("fft: inverse length mismatch: src=%d dst=%d size=%d", len(src), len(dst), t.size)
	}

	if err := t.plan.Inverse(t.scratch, src); err != nil {
		return fmt.Errorf("fft: inverse transform failed: %w", err)
	}

	for i, v := range t.scratch {
		dst[i] = real(v)
	}

	return nil
}

// ForwardComplex computes the spectrum of a complex frame.
func (t *Transform) ForwardComplex(dst, src []complex128) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("fft: forward length mismatch: src=%d dst=%d size=%d", len(src), len(dst), t.size)
	}

	if err := t.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("fft: forward transform failed: %w", err)
	}

	return nil
}

// InverseComplex computes the complex frame for a spectrum, keeping the
// imaginary part. The analytic-signal path depends on it.
func (t *Transform) InverseComplex(dst, src []complex128) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("fft: inverse length mismatch: src=%d dst=%d size=%d", len(src), len(dst), t.size)
	}

	if err := t.plan.Inverse(dst, src); err != nil {
		return fmt.Errorf("fft: inverse transform failed: %w", err)
	}

	return nil
}
