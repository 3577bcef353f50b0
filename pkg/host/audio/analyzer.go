// Package audio derives the host's band triggers from captured samples.
package audio

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
)

// Band names one of the four trigger bands.
type Band int

const (
	Low Band = iota
	MidLow
	MidHigh
	High
	bandCount
)

var bandNames = [bandCount]string{"low", "mid-low", "mid-high", "high"}

func (b Band) String() string {
	if b < 0 || b >= bandCount {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// edges are the band limits in Hz. High runs to Nyquist.
var edges = [bandCount]float32{20, 250, 2000, 6000}

// Size is the transform length in stereo frames.
const Size = fx.MaxAudioSamples / 2

// Config tunes an Analyzer.
type Config struct {
	SampleRate float32
	// ThresholdDB is the band level that switches a trigger on.
	ThresholdDB float32
	// HysteresisDB is how far below the threshold a trigger switches off again.
	HysteresisDB float32
}

// DefaultConfig returns 44.1 kHz with triggers at -30 dB.
func DefaultConfig() Config {
	return Config{SampleRate: 44100, ThresholdDB: -30, HysteresisDB: 3}
}

// Analyzer turns blocks of interleaved stereo samples into band triggers.
// Not safe for concurrent use.
type Analyzer struct {
	cfg    Config
	fft    *fft
	mono   []float32
	mags   []float32
	levels [bandCount]float32
	on     [bandCount]bool
}

// NewAnalyzer creates an analyzer. Non-positive sample rates fall back to the default.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	cfg.HysteresisDB = math32.Abs(cfg.HysteresisDB)
	a := &Analyzer{
		cfg:  cfg,
		fft:  newFFT(Size),
		mono: make([]float32, 0, Size),
		mags: make([]float32, Size/2+1),
	}
	a.Reset()
	return a
}

// Analyze measures a block and returns the trigger states.
func (a *Analyzer) Analyze(samples []int16) fx.Bands {
	a.mono = a.mono[:0]
	for i := 0; i+1 < len(samples) && len(a.mono) < Size; i += 2 {
		a.mono = append(a.mono, (float32(samples[i])+float32(samples[i+1]))/65536)
	}
	a.fft.magnitudes(a.mono, a.mags)

	binHz := a.cfg.SampleRate / Size
	for b := Low; b < bandCount; b++ {
		lo := int(math32.Ceil(edges[b] / binHz))
		hi := len(a.mags) - 1
		if b+1 < bandCount {
			hi = int(edges[b+1]/binHz) - 1
		}
		var energy float32
		for k := max(lo, 1); k <= hi && k < len(a.mags); k++ {
			energy += a.mags[k] * a.mags[k]
		}
		level := toDB(math32.Sqrt(energy))
		a.levels[b] = level

		switch {
		case level >= a.cfg.ThresholdDB:
			a.on[b] = true
		case level < a.cfg.ThresholdDB-a.cfg.HysteresisDB:
			a.on[b] = false
		}
	}
	return a.Bands()
}

// Bands returns the current trigger states.
func (a *Analyzer) Bands() fx.Bands {
	return fx.Bands{Low: a.on[Low], MidLow: a.on[MidLow], MidHigh: a.on[MidHigh], High: a.on[High]}
}

// Level returns a band's level in dB from the last block.
func (a *Analyzer) Level(b Band) float32 {
	if b < 0 || b >= bandCount {
		return floorDB
	}
	return a.levels[b]
}

// Reset switches every trigger off.
func (a *Analyzer) Reset() {
	for b := range a.levels {
		a.levels[b] = floorDB
		a.on[b] = false
	}
}

// Tone fills n stereo frames with a sine of the given frequency and peak
// level in dB, continuing from phase. It returns the samples and the next phase.
func Tone(n int, freq, levelDB, sampleRate, phase float32) ([]int16, float32) {
	out := make([]int16, 2*n)
	amp := 32767 * math32.Pow(10, levelDB/20)
	step := 2 * math32.Pi * freq / sampleRate
	for i := 0; i < n; i++ {
		v := int16(math32.Round(amp * math32.Sin(phase)))
		out[2*i], out[2*i+1] = v, v
		phase = math32.Mod(phase+step, 2*math32.Pi)
	}
	return out, phase
}
