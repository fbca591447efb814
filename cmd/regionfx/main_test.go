package main

import (
	"io"
	"math"
	"testing"
)

// stubFloatPCM serves a fixed interleaved stream in reads capped at maxRead
// values, so reads can end mid-frame the way a real decoder's do.
type stubFloatPCM struct {
	data       []float32
	channels   int
	sampleRate int
	maxRead    int
	pos        int
}

func (s *stubFloatPCM) Read(p []float32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	if s.maxRead > 0 && len(p) > s.maxRead {
		p = p[:s.maxRead]
	}

	n := copy(p, s.data[s.pos:])
	s.pos += n

	return n, nil
}

func (s *stubFloatPCM) Channels() int   { return s.channels }
func (s *stubFloatPCM) SampleRate() int { return s.sampleRate }

func TestReadFloatPCM(t *testing.T) {
	const frames = 7

	stereo := make([]float32, 0, 2*frames)
	for i := range frames {
		stereo = append(stereo, float32(i)/10, -float32(i)/10)
	}

	mono := make([]float32, frames)
	for i := range mono {
		mono[i] = float32(i) / 10
	}

	tests := []struct {
		name     string
		channels int
		maxRead  int
		data     []float32
	}{
		{name: "mono full reads", channels: 1, data: mono},
		{name: "stereo full reads", channels: 2, data: stereo},
		{name: "stereo reads split mid frame", channels: 2, maxRead: 3, data: stereo},
		{name: "stereo single value reads", channels: 2, maxRead: 1, data: stereo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubFloatPCM{
				data:       tt.data,
				channels:   tt.channels,
				sampleRate: 48000,
				maxRead:    tt.maxRead,
			}

			buf, err := readFloatPCM(src)
			if err != nil {
				t.Fatalf("readFloatPCM() error = %v", err)
			}

			if buf.Channels() != tt.channels || buf.Len() != frames {
				t.Fatalf("got %d channels x %d samples, want %d x %d",
					buf.Channels(), buf.Len(), tt.channels, frames)
			}

			if buf.SampleRate() != 48000 {
				t.Fatalf("SampleRate() = %f, want 48000", buf.SampleRate())
			}

			for i := range frames {
				for ch := range tt.channels {
					want := float64(tt.data[i*tt.channels+ch])
					if got := buf.Channel(ch)[i]; math.Abs(got-want) > 1e-7 {
						t.Fatalf("channel %d sample %d = %v, want %v", ch, i, got, want)
					}
				}
			}
		})
	}
}

func TestReadFloatPCMRejectsBadChannelCount(t *testing.T) {
	if _, err := readFloatPCM(&stubFloatPCM{channels: 0, sampleRate: 44100}); err == nil {
		t.Fatal("expected error for zero channels")
	}
}
