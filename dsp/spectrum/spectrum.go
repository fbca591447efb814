// Package spectrum provides helpers for working with complex FFT spectra:
// magnitude/phase decomposition, Hermitian symmetry repair, and simple
// peak queries shared by the spectral effects.
package spectrum

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)

	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}

	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	MagnitudeInto(out, in)

	return out
}

// MagnitudeInto computes |X[k]| into dst. Both slices must have equal length.
func MagnitudeInto(dst []float64, in []complex128) {
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(dst, re, im)
	putScratch(buf)
}

// Phase returns arg(X[k]) for each complex spectrum bin in radians.
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	PhaseInto(out, in)

	return out
}

// PhaseInto computes arg(X[k]) into dst. Both slices must have equal length.
func PhaseInto(dst []float64, in []complex128) {
	for i, c := range in {
		dst[i] = math.Atan2(imag(c), real(c))
	}
}

// FromMagPhase writes mag[k]*e^(i*phase[k]) into dst for every bin.
// All slices must have equal length.
func FromMagPhase(dst []complex128, mag, phase []float64) {
	for i := range dst {
		s, c := math.Sincos(phase[i])
		dst[i] = complex(mag[i]*c, mag[i]*s)
	}
}

// MirrorHermitian re-imposes conjugate symmetry onto a full-length spectrum:
// bin N-k becomes the conjugate of bin k, and the DC and Nyquist bins are
// forced real. Algorithms that rewrite only positive-frequency bins must call
// this before an inverse transform, or the time-domain result is not
// real-valued.
func MirrorHermitian(spec []complex128) {
	n := len(spec)
	if n == 0 {
		return
	}

	spec[0] = complex(real(spec[0]), 0)

	if n%2 == 0 {
		half := n / 2
		spec[half] = complex(real(spec[half]), 0)
	}

	for k := 1; k < (n+1)/2; k++ {
		v := spec[k]
		spec[n-k] = complex(real(v), -imag(v))
	}
}

// DominantBin returns the index of the largest magnitude within [lo, hi],
// clamped to valid bounds. Returns lo when the range is empty or silent.
func DominantBin(mags []float64, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}

	if hi >= len(mags) {
		hi = len(mags) - 1
	}

	best := lo
	bestMag := -1.0

	for k := lo; k <= hi; k++ {
		if mags[k] > bestMag {
			bestMag = mags[k]
			best = k
		}
	}

	return best
}

// PeakMagnitude returns the largest value in mags, or 0 for an empty slice.
func PeakMagnitude(mags []float64) float64 {
	peak := 0.0
	for _, m := range mags {
		if m > peak {
			peak = m
		}
	}

	return peak
}
