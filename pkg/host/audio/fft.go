package audio

import (
	"github.com/chewxy/math32"
)

// floorDB is reported for silent bins and bands.
const floorDB = -120

// fft is a radix-2 transform with a Hann window. Size must be a power of two.
type fft struct {
	size   int
	window []float32
	re     []float32
	im     []float32
}

func newFFT(size int) *fft {
	f := &fft{
		size:   size,
		window: make([]float32, size),
		re:     make([]float32, size),
		im:     make([]float32, size),
	}
	n := float32(size - 1)
	for i := range f.window {
		f.window[i] = 0.5 * (1 - math32.Cos(2*math32.Pi*float32(i)/n))
	}
	return f
}

// magnitudes writes the windowed spectrum of input into out, which holds
// size/2+1 bins. Input shorter than the transform is zero padded. A full
// scale sine centred on a bin reads 1.
func (f *fft) magnitudes(input, out []float32) {
	for i := range f.re {
		f.re[i], f.im[i] = 0, 0
		if i < len(input) {
			f.re[i] = input[i] * f.window[i]
		}
	}
	f.transform()

	scale := 4 / float32(f.size)
	for i := range out {
		out[i] = math32.Sqrt(f.re[i]*f.re[i]+f.im[i]*f.im[i]) * scale
	}
}

// transform runs an in-place Cooley-Tukey pass over re and im.
func (f *fft) transform() {
	re, im, n := f.re, f.im, f.size

	for i, j := 0, 0; i < n; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	for stage := 2; stage <= n; stage <<= 1 {
		theta := -2 * math32.Pi / float32(stage)
		wr, wi := math32.Cos(theta), math32.Sin(theta)
		half := stage / 2
		for k := 0; k < n; k += stage {
			tr, ti := float32(1), float32(0)
			for j := 0; j < half; j++ {
				a, b := k+j, k+j+half
				xr := tr*re[b] - ti*im[b]
				xi := tr*im[b] + ti*re[b]
				re[b], im[b] = re[a]-xr, im[a]-xi
				re[a] += xr
				im[a] += xi
				tr, ti = tr*wr-ti*wi, tr*wi+ti*wr
			}
		}
	}
}

// toDB converts a linear level to decibels, clamped at floorDB.
func toDB(v float32) float32 {
	if v <= 0 {
		return floorDB
	}
	return math32.Max(20*math32.Log10(v), floorDB)
}
