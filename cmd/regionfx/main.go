// Command regionfx applies one spectral effect to a region of an audio file.
//
// Usage:
//
//	regionfx -in input.wav -out output.wav -effect pitch -semitones 12
//
// Input may be WAV, MP3 or Ogg Vorbis (by extension), or a synthesized test
// tone via -tone. The region is selected in seconds with -start/-end and
// defaults to the whole file. Output is always 16-bit PCM WAV.
//
// Examples:
//
//	regionfx -in voice.wav -out robot.wav -effect filter -mode robot
//	regionfx -in pad.mp3 -out long.wav -effect stretch -factor 25
//	regionfx -tone 440 -dur 2 -out shifted.wav -effect shift -shift-hz 100
//	regionfx -in song.ogg -out up.wav -effect pitch -semitones 7 -start 10 -end 20
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/dsp/effects"
	"github.com/cwbudde/algo-spectral/dsp/effects/pitch"
	"github.com/cwbudde/algo-spectral/dsp/signal"
)

type options struct {
	inPath  string
	outPath string
	effect  string

	toneHz   float64
	duration float64
	rate     int

	startSec float64
	endSec   float64

	semitones        float64
	cents            float64
	pitchStretch     float64
	formant          bool
	formantSemitones float64
	quality          string
	gainDB           float64
	mix              float64

	factor        float64
	windowSeconds float64
	makeupDB      float64
	limiterDB     float64

	mode        string
	bands       int
	threshold   float64
	boostGain   float64
	boostSpread float64

	shiftHz   float64
	direction string
	feedback  float64
}

func main() {
	var o options

	flag.StringVar(&o.inPath, "in", "", "input file (wav, mp3 or ogg; empty with -tone to synthesize)")
	flag.StringVar(&o.outPath, "out", "", "output WAV file (required)")
	flag.StringVar(&o.effect, "effect", "", "effect to apply: pitch, stretch, filter, shift")

	flag.Float64Var(&o.toneHz, "tone", 0, "synthesize a sine test tone at this frequency instead of reading -in")
	flag.Float64Var(&o.duration, "dur", 2, "synthesized tone duration in seconds")
	flag.IntVar(&o.rate, "rate", 44100, "synthesized tone sample rate in Hz")

	flag.Float64Var(&o.startSec, "start", 0, "region start in seconds")
	flag.Float64Var(&o.endSec, "end", -1, "region end in seconds (-1 for end of file)")

	flag.Float64Var(&o.semitones, "semitones", 0, "pitch: shift in semitones")
	flag.Float64Var(&o.cents, "cents", 0, "pitch: additional shift in cents")
	flag.Float64Var(&o.pitchStretch, "stretch", 1, "pitch: independent duration ratio")
	flag.BoolVar(&o.formant, "formant", false, "pitch: enable formant correction")
	flag.Float64Var(&o.formantSemitones, "formant-semitones", 0, "pitch: formant envelope shift in semitones")
	flag.StringVar(&o.quality, "quality", "standard", "pitch: quality preset (fast, standard, high, ultra)")
	flag.Float64Var(&o.gainDB, "gain", 0, "pitch: output gain in dB")
	flag.Float64Var(&o.mix, "mix", 1, "pitch/shift: dry/wet mix in [0, 1]")

	flag.Float64Var(&o.factor, "factor", 8, "stretch: duration multiplier")
	flag.Float64Var(&o.windowSeconds, "window", 0.25, "stretch: analysis window in seconds")
	flag.Float64Var(&o.makeupDB, "makeup", 0, "stretch: makeup gain in dB")
	flag.Float64Var(&o.limiterDB, "limiter", -1, "stretch: soft limiter threshold in dBFS")

	flag.StringVar(&o.mode, "mode", "robot", "filter: mode (robot, whisper, harmonic-boost, frequency-shift, gate, odd-harmonics)")
	flag.IntVar(&o.bands, "bands", 16, "filter: band count for robot mode")
	flag.Float64Var(&o.threshold, "threshold", 0.1, "filter: magnitude threshold relative to frame peak")
	flag.Float64Var(&o.boostGain, "boost-gain", 2, "filter: harmonic boost gain")
	flag.Float64Var(&o.boostSpread, "boost-spread", 0.5, "filter: harmonic boost spread")

	flag.Float64Var(&o.shiftHz, "shift-hz", 100, "shift/filter: frequency offset in Hz")
	flag.StringVar(&o.direction, "direction", "up", "shift: sideband (up, down, both)")
	flag.Float64Var(&o.feedback, "feedback", 0, "shift: feedback amount in [0, 0.9]")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: regionfx [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Applies one spectral effect to a region of an audio file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  regionfx -in voice.wav -out robot.wav -effect filter -mode robot\n")
		fmt.Fprintf(os.Stderr, "  regionfx -in pad.mp3 -out long.wav -effect stretch -factor 25\n")
		fmt.Fprintf(os.Stderr, "  regionfx -tone 440 -dur 2 -out shifted.wav -effect shift -shift-hz 100\n")
	}
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "regionfx: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.outPath == "" {
		return fmt.Errorf("missing -out")
	}

	if o.effect == "" {
		return fmt.Errorf("missing -effect")
	}

	buf, err := loadInput(o)
	if err != nil {
		return err
	}

	region, err := regionFromSeconds(buf, o.startSec, o.endSec)
	if err != nil {
		return err
	}

	out, err := applyEffect(o, buf, region)
	if err != nil {
		return err
	}

	return encodeWAV(o.outPath, out)
}

func loadInput(o options) (*buffer.Buffer, error) {
	if o.inPath == "" {
		if o.toneHz <= 0 {
			return nil, fmt.Errorf("need either -in or -tone")
		}

		return synthesizeTone(o)
	}

	switch strings.ToLower(filepath.Ext(o.inPath)) {
	case ".wav":
		return decodeWAV(o.inPath)
	case ".mp3":
		return decodeMP3(o.inPath)
	case ".ogg":
		return decodeOgg(o.inPath)
	default:
		return nil, fmt.Errorf("unsupported input extension %q (want .wav, .mp3 or .ogg)", filepath.Ext(o.inPath))
	}
}

func synthesizeTone(o options) (*buffer.Buffer, error) {
	gen, err := signal.NewGenerator(float64(o.rate))
	if err != nil {
		return nil, err
	}

	samples := int(math.Round(o.duration * float64(o.rate)))

	tone, err := gen.Sine(o.toneHz, 0.5, samples)
	if err != nil {
		return nil, err
	}

	return buffer.Mono(tone, float64(o.rate))
}

func applyEffect(o options, buf *buffer.Buffer, region buffer.Region) (*buffer.Buffer, error) {
	switch o.effect {
	case "pitch":
		quality, err := parseQuality(o.quality)
		if err != nil {
			return nil, err
		}

		return pitch.Process(buf, region, pitch.Params{
			Semitones:         o.semitones,
			Cents:             o.cents,
			Stretch:           o.pitchStretch,
			FormantCorrection: o.formant,
			FormantSemitones:  o.formantSemitones,
			Quality:           quality,
			OutputGainDB:      o.gainDB,
			Mix:               o.mix,
		})

	case "stretch":
		params := effects.DefaultStretchParams()
		params.Factor = o.factor
		params.WindowSeconds = o.windowSeconds
		params.MakeupGainDB = o.makeupDB
		params.LimiterThresholdDB = o.limiterDB

		return effects.Stretch(buf, region, params)

	case "filter":
		mode, err := parseFilterMode(o.mode)
		if err != nil {
			return nil, err
		}

		params := effects.DefaultFilterParams(mode)
		params.Bands = o.bands
		params.Threshold = o.threshold
		params.BoostGain = o.boostGain
		params.BoostSpread = o.boostSpread
		params.ShiftHz = o.shiftHz

		return effects.Filter(buf, region, params)

	case "shift":
		direction, err := parseDirection(o.direction)
		if err != nil {
			return nil, err
		}

		return effects.FrequencyShift(buf, region, effects.ShiftParams{
			ShiftHz:   o.shiftHz,
			Direction: direction,
			Feedback:  o.feedback,
			Mix:       o.mix,
		})

	default:
		return nil, fmt.Errorf("unknown effect %q (want pitch, stretch, filter or shift)", o.effect)
	}
}

func parseQuality(name string) (pitch.Quality, error) {
	switch name {
	case "fast":
		return pitch.QualityFast, nil
	case "standard":
		return pitch.QualityStandard, nil
	case "high":
		return pitch.QualityHigh, nil
	case "ultra":
		return pitch.QualityUltra, nil
	default:
		return 0, fmt.Errorf("unknown quality %q", name)
	}
}

func parseFilterMode(name string) (effects.FilterMode, error) {
	switch name {
	case "robot":
		return effects.FilterRobot, nil
	case "whisper":
		return effects.FilterWhisper, nil
	case "harmonic-boost":
		return effects.FilterHarmonicBoost, nil
	case "frequency-shift":
		return effects.FilterFrequencyShift, nil
	case "gate":
		return effects.FilterGate, nil
	case "odd-harmonics":
		return effects.FilterOddHarmonics, nil
	default:
		return 0, fmt.Errorf("unknown filter mode %q", name)
	}
}

func parseDirection(name string) (effects.ShiftDirection, error) {
	switch name {
	case "up":
		return effects.ShiftUp, nil
	case "down":
		return effects.ShiftDown, nil
	case "both":
		return effects.ShiftBoth, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", name)
	}
}

func regionFromSeconds(buf *buffer.Buffer, startSec, endSec float64) (buffer.Region, error) {
	start := int(math.Round(startSec * buf.SampleRate()))

	end := buf.Len()
	if endSec >= 0 {
		end = int(math.Round(endSec * buf.SampleRate()))
	}

	if end > buf.Len() {
		end = buf.Len()
	}

	region := buffer.Region{Start: start, End: end}
	if err := region.Validate(buf.Len()); err != nil {
		return buffer.Region{}, err
	}

	return region, nil
}

func decodeWAV(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = pcm.SourceBitDepth
	}

	if bitDepth == 0 {
		return nil, fmt.Errorf("unknown bit depth in %s", path)
	}

	scale := math.Pow(2, float64(bitDepth-1))
	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}

	for i := range frames {
		for ch := range channels {
			data[ch][i] = float64(pcm.Data[i*channels+ch]) / scale
		}
	}

	return buffer.FromChannels(data, float64(pcm.Format.SampleRate))
}

func decodeMP3(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	// go-mp3 always yields interleaved stereo 16-bit little-endian PCM.
	frames := len(raw) / 4
	left := make([]float64, frames)
	right := make([]float64, frames)

	for i := range frames {
		l := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		r := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		left[i] = float64(l) / 32768
		right[i] = float64(r) / 32768
	}

	return buffer.FromChannels([][]float64{left, right}, float64(dec.SampleRate()))
}

func decodeOgg(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	buf, err := readFloatPCM(dec)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return buf, nil
}

// floatPCMSource is the subset of oggvorbis.Reader the decode loop needs.
// Read reports the number of interleaved float32 values written, which is
// not necessarily a whole number of frames per call.
type floatPCMSource interface {
	Read(p []float32) (int, error)
	Channels() int
	SampleRate() int
}

func readFloatPCM(src floatPCMSource) (*buffer.Buffer, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}

	var samples []float32

	chunk := make([]float32, 4096*channels)

	for {
		n, err := src.Read(chunk)
		if n > 0 {
			samples = append(samples, chunk[:n]...)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	frames := len(samples) / channels

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}

	for i := range frames {
		for ch := range channels {
			data[ch][i] = float64(samples[i*channels+ch])
		}
	}

	return buffer.FromChannels(data, float64(src.SampleRate()))
}

func encodeWAV(path string, buf *buffer.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sampleRate := int(math.Round(buf.SampleRate()))
	channels := buf.Channels()
	frames := buf.Len()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}

	for i := range frames {
		for ch := range channels {
			v := buf.Channel(ch)[i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}

			intBuf.Data[i*channels+ch] = int(math.Round(v * 32767))
		}
	}

	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return enc.Close()
}
