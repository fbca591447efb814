package buffer

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		channels   int
		length     int
		sampleRate float64
		wantErr    bool
	}{
		{name: "mono", channels: 1, length: 100, sampleRate: 44100, wantErr: false},
		{name: "stereo empty", channels: 2, length: 0, sampleRate: 48000, wantErr: false},
		{name: "zero channels", channels: 0, length: 10, sampleRate: 44100, wantErr: true},
		{name: "negative length", channels: 1, length: -1, sampleRate: 44100, wantErr: true},
		{name: "zero rate", channels: 1, length: 10, sampleRate: 0, wantErr: true},
		{name: "NaN rate", channels: 1, length: 10, sampleRate: math.NaN(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.channels, tt.length, tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if b.Channels() != tt.channels || b.Len() != tt.length {
				t.Fatalf("got %d channels x %d samples", b.Channels(), b.Len())
			}

			if b.SampleRate() != tt.sampleRate {
				t.Fatalf("SampleRate() = %f", b.SampleRate())
			}
		})
	}
}

func TestFromChannelsLengthMismatch(t *testing.T) {
	_, err := FromChannels([][]float64{make([]float64, 10), make([]float64, 9)}, 44100)
	if err == nil {
		t.Fatal("expected error for mismatched channel lengths")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b, err := Mono([]float64{1, 2, 3}, 44100)
	if err != nil {
		t.Fatalf("Mono() error = %v", err)
	}

	c := b.Clone()
	c.Channel(0)[0] = 99

	if b.Channel(0)[0] != 1 {
		t.Fatal("Clone() shares backing storage with original")
	}
}

func TestPeak(t *testing.T) {
	b, err := FromChannels([][]float64{{0.1, -0.7}, {0.3, 0.2}}, 44100)
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	if got := b.Peak(); got != 0.7 {
		t.Fatalf("Peak() = %v, want 0.7", got)
	}
}

func TestRegionValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		bufLen  int
		wantErr bool
	}{
		{name: "full", region: Region{0, 100}, bufLen: 100, wantErr: false},
		{name: "interior", region: Region{10, 20}, bufLen: 100, wantErr: false},
		{name: "negative start", region: Region{-1, 10}, bufLen: 100, wantErr: true},
		{name: "empty", region: Region{10, 10}, bufLen: 100, wantErr: true},
		{name: "inverted", region: Region{20, 10}, bufLen: 100, wantErr: true},
		{name: "past end", region: Region{0, 101}, bufLen: 100, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate(tt.bufLen)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegionLen(t *testing.T) {
	if got := (Region{5, 15}).Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}

	if got := (Region{15, 5}).Len(); got != 0 {
		t.Fatalf("inverted Len() = %d, want 0", got)
	}

	if got := Full(44100); got.Start != 0 || got.End != 44100 {
		t.Fatalf("Full() = %+v", got)
	}
}
