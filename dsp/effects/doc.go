// Package effects implements offline, region-based spectral effects over
// multi-channel sample buffers: an extreme time-stretcher, a mode-selected
// spectral filter family, and a Hilbert/SSB frequency shifter.
//
// Every effect is a pure function of (buffer, region, parameters): the input
// buffer is never mutated, parameter values outside their documented bounds
// are clamped rather than rejected, and channels are processed independently
// and concurrently within one call. The phase-vocoder pitch shifter lives in
// the pitch subpackage.
package effects
