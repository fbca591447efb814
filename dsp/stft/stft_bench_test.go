package stft

import (
	"strconv"
	"testing"

	"github.com/cwbudde/algo-spectral/dsp/window"
	"github.com/cwbudde/algo-spectral/internal/testutil"
)

func BenchmarkProcessIdentity(b *testing.B) {
	for _, frameSize := range []int{1024, 2048, 4096} {
		b.Run(strconv.Itoa(frameSize), func(b *testing.B) {
			hop := frameSize / 4
			input := testutil.DeterministicNoise(1, 0.5, 16*frameSize)

			p, err := NewProcessor(Config{
				FrameSize:    frameSize,
				AnalysisHop:  float64(hop),
				SynthesisHop: hop,
				Window:       window.Hann(frameSize, window.WithPeriodic()),
			})
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := p.Process(input, len(input), nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
