package signal

import (
	"math"
	"testing"
)

func TestNewGeneratorValidates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		wantErr    bool
	}{
		{name: "valid", sampleRate: 44100, wantErr: false},
		{name: "zero", sampleRate: 0, wantErr: true},
		{name: "negative", sampleRate: -1, wantErr: true},
		{name: "nan", sampleRate: math.NaN(), wantErr: true},
		{name: "inf", sampleRate: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGenerator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSine(t *testing.T) {
	g, err := NewGenerator(44100)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	out, err := g.Sine(441, 0.5, 1000)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}

	if len(out) != 1000 {
		t.Fatalf("len(out) = %d, want 1000", len(out))
	}

	// 441 Hz at 44100 Hz is exactly 100 samples per cycle.
	if out[0] != 0 {
		t.Fatalf("out[0] = %v, want 0", out[0])
	}

	if math.Abs(out[25]-0.5) > 1e-12 {
		t.Fatalf("out[25] = %v, want 0.5", out[25])
	}

	if _, err := g.Sine(441, 0.5, 0); err == nil {
		t.Fatal("Sine(0 samples) expected error, got nil")
	}
}

func TestWhiteNoiseDeterministic(t *testing.T) {
	g, err := NewGenerator(44100, WithSeed(7))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	first, err := g.WhiteNoise(0.8, 512)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	second, err := g.WhiteNoise(0.8, 512)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs between seeded runs", i)
		}

		if math.Abs(first[i]) > 0.8 {
			t.Fatalf("sample %d = %v exceeds amplitude", i, first[i])
		}
	}

	if _, err := g.WhiteNoise(-1, 512); err == nil {
		t.Fatal("WhiteNoise(negative amplitude) expected error, got nil")
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]float64{0.1, -0.4, 0.2}, 1.0)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if math.Abs(out[1]+1.0) > 1e-12 {
		t.Fatalf("out[1] = %v, want -1", out[1])
	}

	silent, err := Normalize([]float64{0, 0, 0}, 1.0)
	if err != nil {
		t.Fatalf("Normalize(silence) error = %v", err)
	}

	for i, v := range silent {
		if v != 0 {
			t.Fatalf("silent[%d] = %v, want 0", i, v)
		}
	}

	if _, err := Normalize(nil, 1.0); err == nil {
		t.Fatal("Normalize(empty) expected error, got nil")
	}

	if _, err := Normalize([]float64{1}, -1); err == nil {
		t.Fatal("Normalize(negative target) expected error, got nil")
	}
}
