// Package buffer defines the multi-channel sample buffer and region types
// shared by all offline effects.
package buffer

import (
	"fmt"
	"math"
)

// Buffer holds one or more channels of float64 samples at a fixed sample
// rate. All channels have equal length. Effects never mutate an input
// Buffer; they clone it and write into the clone.
type Buffer struct {
	sampleRate float64
	data       [][]float64
}

// New returns a zero-filled Buffer with the given channel count and length.
func New(channels, length int, sampleRate float64) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("buffer: channel count must be > 0: %d", channels)
	}

	if length < 0 {
		return nil, fmt.Errorf("buffer: length must be >= 0: %d", length)
	}

	if !isFinitePositive(sampleRate) {
		return nil, fmt.Errorf("buffer: sample rate must be positive and finite: %f", sampleRate)
	}

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, length)
	}

	return &Buffer{sampleRate: sampleRate, data: data}, nil
}

// Mono wraps a single channel without copying.
// Mutations to the slice are visible through the Buffer and vice versa.
func Mono(samples []float64, sampleRate float64) (*Buffer, error) {
	return FromChannels([][]float64{samples}, sampleRate)
}

// FromChannels wraps existing channel slices without copying.
// All channels must have equal length.
func FromChannels(channels [][]float64, sampleRate float64) (*Buffer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("buffer: channel count must be > 0: 0")
	}

	if !isFinitePositive(sampleRate) {
		return nil, fmt.Errorf("buffer: sample rate must be positive and finite: %f", sampleRate)
	}

	length := len(channels[0])
	for ch, c := range channels {
		if len(c) != length {
			return nil, fmt.Errorf("buffer: channel %d length %d != channel 0 length %d", ch, len(c), length)
		}
	}

	return &Buffer{sampleRate: sampleRate, data: channels}, nil
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.data) }

// Len returns the per-channel sample count.
func (b *Buffer) Len() int {
	if len(b.data) == 0 {
		return 0
	}

	return len(b.data[0])
}

// Channel returns the underlying slice for channel ch.
func (b *Buffer) Channel(ch int) []float64 {
	return b.data[ch]
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([][]float64, len(b.data))
	for ch := range b.data {
		data[ch] = append([]float64(nil), b.data[ch]...)
	}

	return &Buffer{sampleRate: b.sampleRate, data: data}
}

// Peak returns the maximum absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0

	for _, c := range b.data {
		for _, v := range c {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}

	return peak
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
