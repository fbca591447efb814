package pitch

const (
	envelopeFloor  = 1e-12
	maxFormantGain = 10.0
)

// formantCorrector re-imposes the unshifted spectral envelope onto the
// pitch-shifted magnitudes. Envelopes are built from local magnitude maxima
// within [loBin, hiBin] with linear interpolation between peaks, so the
// correction is qualitative: it preserves timbre under pitch shift without
// reproducing any particular legacy curve.
type formantCorrector struct {
	loBin int
	hiBin int
	ratio float64

	srcEnv []float64
	dstEnv []float64
	peaks  []int
}

func newFormantCorrector(bins, loBin, hiBin int, ratio float64) *formantCorrector {
	return &formantCorrector{
		loBin:  loBin,
		hiBin:  hiBin,
		ratio:  ratio,
		srcEnv: make([]float64, bins),
		dstEnv: make([]float64, bins),
		peaks:  make([]int, 0, bins),
	}
}

// apply rescales the shifted magnitudes so their envelope matches the
// unshifted one, optionally moved by the formant ratio.
func (f *formantCorrector) apply(shifted, unshifted []float64) {
	f.envelope(f.srcEnv, unshifted)
	f.envelope(f.dstEnv, shifted)

	for k := range shifted {
		want := f.sampleSource(float64(k) / f.ratio)

		have := f.dstEnv[k]
		if have < envelopeFloor {
			continue
		}

		gain := want / have
		if gain > maxFormantGain {
			gain = maxFormantGain
		}

		shifted[k] *= gain
	}
}

// envelope fills env with a piecewise-linear interpolation of the local
// magnitude maxima of mags within [loBin, hiBin]. With fewer than two peaks
// the magnitudes themselves serve as the envelope, which makes the
// correction a no-op.
func (f *formantCorrector) envelope(env, mags []float64) {
	f.peaks = f.peaks[:0]

	lo := f.loBin
	if lo < 1 {
		lo = 1
	}

	hi := f.hiBin
	if hi > len(mags)-2 {
		hi = len(mags) - 2
	}

	for k := lo; k <= hi; k++ {
		if mags[k] >= mags[k-1] && mags[k] > mags[k+1] {
			f.peaks = append(f.peaks, k)
		}
	}

	if len(f.peaks) < 2 {
		copy(env, mags)
		return
	}

	// Extend the first and last peak values to the spectrum edges.
	first := f.peaks[0]
	for k := 0; k <= first; k++ {
		env[k] = mags[first]
	}

	for i := 0; i+1 < len(f.peaks); i++ {
		a := f.peaks[i]
		b := f.peaks[i+1]

		for k := a; k <= b; k++ {
			t := float64(k-a) / float64(b-a)
			env[k] = mags[a] + t*(mags[b]-mags[a])
		}
	}

	last := f.peaks[len(f.peaks)-1]
	for k := last; k < len(env); k++ {
		env[k] = mags[last]
	}
}

// sampleSource reads the unshifted envelope at a fractional bin position
// with linear interpolation, clamping to the edges.
func (f *formantCorrector) sampleSource(pos float64) float64 {
	if pos <= 0 {
		return f.srcEnv[0]
	}

	if pos >= float64(len(f.srcEnv)-1) {
		return f.srcEnv[len(f.srcEnv)-1]
	}

	lo := int(pos)
	frac := pos - float64(lo)

	return f.srcEnv[lo]*(1-frac) + f.srcEnv[lo+1]*frac
}
