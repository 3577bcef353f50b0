// Package fx defines the effect object shared by a host and one plugin instance.
package fx

import (
	"github.com/chewxy/math32"

	"github.com/justyntemme/vfxgo/pkg/framework/buffer"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
)

// SchemaVersion is the layout version of Object. Hosts refuse plugins built
// against any other version.
const SchemaVersion = 9

// MaxAudioSamples is the most int16 samples one audio snapshot carries.
const MaxAudioSamples = 2048

// Bands are the host's filter trigger states as shown on its panel.
type Bands struct {
	Low     bool
	MidLow  bool
	MidHigh bool
	High    bool
}

// Audio is the latest captured audio block.
type Audio struct {
	Active     bool
	LastUpdate float64
	// Samples is interleaved stereo, left first.
	Samples []int16
	Bands   Bands
}

// Levels returns the RMS level of each channel in [0, 1].
func (a Audio) Levels() (left, right float32) {
	frames := len(a.Samples) / 2
	if frames == 0 {
		return 0, 0
	}
	var l, r float32
	for i := 0; i < frames; i++ {
		sl := float32(a.Samples[2*i]) / 32768
		sr := float32(a.Samples[2*i+1]) / 32768
		l += sl * sl
		r += sr * sr
	}
	n := float32(frames)
	return math32.Sqrt(l / n), math32.Sqrt(r / n)
}

// Transport is the host's clock, tempo and mix state for the frame.
type Transport struct {
	CurTime timing.Timespec
	// GlobalSpeed scales time. 0 while paused.
	GlobalSpeed   float32
	GlobalReverse bool
	// SubBeatCount runs 0 to 256 within the bar.
	SubBeatCount float64
	BPM          float32
	Bar          uint32

	DisplayWidth  int32
	DisplayHeight int32

	// MixLevel is the dry/wet amount in [0, 1].
	MixLevel float32
	// SequencePos is the plugin's place in the chain, 0 to 7.
	SequencePos  int32
	MutableLevel float32
}

// DefaultTransport returns a stopped transport at normal speed.
func DefaultTransport() Transport {
	return Transport{GlobalSpeed: 1, MixLevel: 1}
}

// Beat returns the tempo snapshot for beat clocks.
func (t Transport) Beat() timing.Beat {
	return timing.Beat{
		SubBeat: int64(t.SubBeatCount),
		Bar:     int64(t.Bar),
		BPM:     float64(t.BPM),
	}
}

// Counts are derived from the object's tables.
type Counts struct {
	Params  int
	Shaders int
	Buffers int
}

// Object is the aggregate a host and one plugin instance share. The host
// constructs and destroys it; each field documents which side writes it.
type Object struct {
	// Plugin, published once at Init.
	Info Info

	// Declared by the plugin at Init. Flag ownership is on param.Record.
	Params *param.Store
	// State carries snapshots in both directions. See state.Blob for ownership.
	State *state.Blob
	// Declared by the plugin, built by the host.
	Shaders *shader.Table
	// Host.
	Sources *source.Table
	// Requested by the plugin, allocated by the host.
	Requested *buffer.Table

	// Host.
	Output  buffer.Descriptor
	BufferA buffer.Descriptor
	BufferB buffer.Descriptor
	BufferC buffer.Descriptor

	// Host.
	Audio     Audio
	Transport Transport

	// Device is the host's drawing capability, valid during Process and Deinit.
	Device render.Device

	// Bypass is set by the plugin when the frame was not rendered.
	Bypass bool

	err    bool
	errMsg string
}

// New creates an empty object with default transport.
func New() *Object {
	return &Object{
		Params:    param.NewStore(),
		Shaders:   shader.NewTable(),
		Sources:   source.NewTable(),
		Requested: buffer.NewTable(),
		Transport: DefaultTransport(),
	}
}

// Counts returns the table sizes.
func (o *Object) Counts() Counts {
	return Counts{
		Params:  o.Params.Len(),
		Shaders: o.Shaders.Len(),
		Buffers: o.Requested.Len(),
	}
}

// SetError raises the plugin error flag.
func (o *Object) SetError(msg string) {
	o.err = true
	o.errMsg = msg
}

// ClearError lowers the plugin error flag.
func (o *Object) ClearError() {
	o.err = false
	o.errMsg = ""
}

// Failed reports whether the plugin error flag is raised.
func (o *Object) Failed() bool { return o.err }

// ErrorMessage returns the message given with the error flag.
func (o *Object) ErrorMessage() string { return o.errMsg }

// InBusPosition reports whether the host placed the instance where bus
// sources are fed, which mixers need to do anything.
func (o *Object) InBusPosition() bool {
	return o.Sources.Get(source.BusA.OutputSlot()).Available() ||
		o.Sources.Get(source.BusB.OutputSlot()).Available()
}

// DisplayRatio returns the output buffer size relative to the display.
func (o *Object) DisplayRatio() (float32, float32) {
	t := o.Transport
	if t.DisplayWidth <= 0 || t.DisplayHeight <= 0 {
		return 1, 1
	}
	return float32(o.Output.Width) / float32(t.DisplayWidth),
		float32(o.Output.Height) / float32(t.DisplayHeight)
}
