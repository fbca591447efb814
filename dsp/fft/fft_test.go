package fft

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spectral/internal/testutil"
)

func TestNewValidatesSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "64", size: 64, wantErr: false},
		{name: "8192", size: 8192, wantErr: false},
		{name: "2", size: 2, wantErr: false},
		{name: "zero", size: 0, wantErr: true},
		{name: "one", size: 1, wantErr: true},
		{name: "non power of two", size: 1000, wantErr: true},
		{name: "negative", size: -8, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}

			if err == nil && tr.Size() != tt.size {
				t.Fatalf("Size() = %d, want %d", tr.Size(), tt.size)
			}
		})
	}
}

func TestForwardRejectsLengthMismatch(t *testing.T) {
	tr, err := New(64)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := tr.Forward(make([]complex128, 64), make([]float64, 63)); err == nil {
		t.Fatal("expected error for short input")
	}

	if err := tr.Inverse(make([]float64, 32), make([]complex128, 64)); err == nil {
		t.Fatal("expected error for short output")
	}
}

func TestRoundTripRandomSignals(t *testing.T) {
	for _, size := range []int{64, 256, 1024, 4096} {
		tr, err := New(size)
		if err != nil {
			t.Fatalf("New(%d) error = %v", size, err)
		}

		signal := testutil.DeterministicNoise(int64(size), 1.0, size)
		spec := make([]complex128, size)
		back := make([]float64, size)

		if err := tr.Forward(spec, signal); err != nil {
			t.Fatalf("Forward() error = %v", err)
		}

		if err := tr.Inverse(back, spec); err != nil {
			t.Fatalf("Inverse() error = %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, back, signal, 1e-9)
	}
}

func TestForwardSineLandsOnBin(t *testing.T) {
	const (
		size = 1024
		bin  = 16
	)

	tr, err := New(size)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	signal := make([]float64, size)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * float64(bin) * float64(i) / size)
	}

	spec := make([]complex128, size)
	if err := tr.Forward(spec, signal); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	maxBin := 0
	maxMag := 0.0

	for k := 1; k < size/2; k++ {
		mag := real(spec[k])*real(spec[k]) + imag(spec[k])*imag(spec[k])
		if mag > maxMag {
			maxMag = mag
			maxBin = k
		}
	}

	if maxBin != bin {
		t.Fatalf("dominant bin = %d, want %d", maxBin, bin)
	}
}

func TestComplexRoundTrip(t *testing.T) {
	const size = 256

	tr, err := New(size)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	noise := testutil.DeterministicNoise(7, 1.0, 2*size)
	src := make([]complex128, size)
	for i := range src {
		src[i] = complex(noise[i], noise[size+i])
	}

	spec := make([]complex128, size)
	back := make([]complex128, size)

	if err := tr.ForwardComplex(spec, src); err != nil {
		t.Fatalf("ForwardComplex() error = %v", err)
	}

	if err := tr.InverseComplex(back, spec); err != nil {
		t.Fatalf("InverseComplex() error = %v", err)
	}

	for i := range back {
		if math.Abs(real(back[i])-real(src[i])) > 1e-9 || math.Abs(imag(back[i])-imag(src[i])) > 1e-9 {
			t.Fatalf("bin %d: got %v, want %v", i, back[i], src[i])
		}
	}
}
