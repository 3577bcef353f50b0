package param

import (
	"github.com/chewxy/math32"
)

// BenderCurve maps a bender delta onto a gentle cubic step so small
// movements give fine control and full throws move quickly.
func BenderCurve(delta int64) float32 {
	d := math32.Abs(float32(delta))
	dist := math32.Pow(d*0.1, 3) * 0.0001
	if delta < 0 {
		dist = -dist
	}
	return dist
}

// PackRGBA packs 0..1 colour channels into a 0xRRGGBBAA parameter value.
func PackRGBA(r, g, b, a float32) int64 {
	ch := func(v float32) int64 {
		return int64(math32.Round(255*clamp01(v))) & 0xFF
	}
	return ch(r)<<24 | ch(g)<<16 | ch(b)<<8 | ch(a)
}

// UnpackRGBA splits a 0xRRGGBBAA parameter value into 0..1 channels.
func UnpackRGBA(v int64) (r, g, b, a float32) {
	u := uint32(v)
	r = float32(u>>24&0xFF) / 255
	g = float32(u>>16&0xFF) / 255
	b = float32(u>>8&0xFF) / 255
	a = float32(u&0xFF) / 255
	return
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
