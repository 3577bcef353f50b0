package host

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// Description is a serialisable view of an instance.
type Description struct {
	Instance  string        `yaml:"instance" json:"instance"`
	Plugin    PluginView    `yaml:"plugin" json:"plugin"`
	Params    []ParamView   `yaml:"params" json:"params"`
	Shaders   []ShaderView  `yaml:"shaders" json:"shaders"`
	Buffers   []BufferView  `yaml:"buffers,omitempty" json:"buffers,omitempty"`
	Transport TransportView `yaml:"transport" json:"transport"`
	Error     string        `yaml:"error,omitempty" json:"error,omitempty"`
}

// PluginView carries the published info.
type PluginView struct {
	ID            string   `yaml:"id" json:"id"`
	CanonicalName string   `yaml:"canonical_name" json:"canonical_name"`
	Name          string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	Version       string   `yaml:"version" json:"version"`
	Kind          string   `yaml:"type" json:"type"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	FPS           float32  `yaml:"fps,omitempty" json:"fps,omitempty"`
	TotalFrames   int64    `yaml:"total_frames,omitempty" json:"total_frames,omitempty"`
}

// ParamView is one parameter slot.
type ParamView struct {
	Index   int      `yaml:"index" json:"index"`
	Name    string   `yaml:"name" json:"name"`
	Kind    string   `yaml:"kind" json:"kind"`
	Min     int64    `yaml:"min" json:"min"`
	Max     int64    `yaml:"max" json:"max"`
	Default int64    `yaml:"default" json:"default"`
	Current int64    `yaml:"current" json:"current"`
	Display string   `yaml:"display,omitempty" json:"display,omitempty"`
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// ShaderView is one declared shader.
type ShaderView struct {
	Name     string   `yaml:"name" json:"name"`
	Stage    string   `yaml:"stage" json:"stage"`
	ID       uint32   `yaml:"id" json:"id"`
	Failed   bool     `yaml:"failed,omitempty" json:"failed,omitempty"`
	Uniforms []string `yaml:"uniforms,omitempty" json:"uniforms,omitempty"`
}

// BufferView is one requested framebuffer.
type BufferView struct {
	Width  uint32 `yaml:"width" json:"width"`
	Height uint32 `yaml:"height" json:"height"`
	Depth  bool   `yaml:"depth" json:"depth"`
	Status string `yaml:"status" json:"status"`
}

// TransportView is the host clock and tempo.
type TransportView struct {
	Seconds       float64 `yaml:"seconds" json:"seconds"`
	GlobalSpeed   float32 `yaml:"speed" json:"speed"`
	GlobalReverse bool    `yaml:"reverse" json:"reverse"`
	BPM           float32 `yaml:"bpm" json:"bpm"`
	Bar           uint32  `yaml:"bar" json:"bar"`
	DisplayWidth  int32   `yaml:"display_width" json:"display_width"`
	DisplayHeight int32   `yaml:"display_height" json:"display_height"`
	MixLevel      float32 `yaml:"mix" json:"mix"`
}

// Describe returns a view of the instance's current state.
func (i *Instance) Describe() (Description, error) {
	if err := i.lock(); err != nil {
		return Description{}, err
	}
	defer i.mu.Unlock()

	obj := i.obj
	d := Description{Instance: i.id.String(), Error: obj.ErrorMessage()}
	if err := copier.Copy(&d.Plugin, obj.Info); err != nil {
		return d, fmt.Errorf("host: describe info: %w", err)
	}
	d.Plugin.ID = obj.Info.ID().String()
	d.Plugin.Kind = obj.Info.Type.String()
	if err := copier.Copy(&d.Transport, obj.Transport); err != nil {
		return d, fmt.Errorf("host: describe transport: %w", err)
	}
	d.Transport.Seconds = obj.Transport.CurTime.Seconds()

	for idx, r := range obj.Params.All() {
		d.Params = append(d.Params, ParamView{
			Index:   idx,
			Name:    r.Name(),
			Kind:    r.Kind().String(),
			Min:     r.Min(),
			Max:     r.Max(),
			Default: r.Default(),
			Current: r.Current(),
			Display: r.DisplayValue(),
			Options: r.Options(),
		})
	}
	for _, s := range obj.Shaders.All() {
		v := ShaderView{Name: s.Name(), Stage: s.Stage.String(), ID: s.ID, Failed: s.CompileFailed}
		for _, u := range s.Uniforms {
			v.Uniforms = append(v.Uniforms, u.Name)
		}
		d.Shaders = append(d.Shaders, v)
	}
	for _, b := range obj.Requested.All() {
		d.Buffers = append(d.Buffers, BufferView{Width: b.Width, Height: b.Height, Depth: b.WantsDepth(), Status: b.Status.String()})
	}
	return d, nil
}
