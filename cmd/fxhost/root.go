package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/vfxgo/examples/tint"
	"github.com/justyntemme/vfxgo/pkg/config"
	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
	fwplugin "github.com/justyntemme/vfxgo/pkg/framework/plugin"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/host"
	"github.com/justyntemme/vfxgo/pkg/host/preset"
	"github.com/justyntemme/vfxgo/pkg/plugin"
)

type app struct {
	out    io.Writer
	errOut io.Writer

	cfgPath  string
	name     string
	logLevel string

	cfg config.Config
	log *fxdebug.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:          "fxhost",
		Short:        "Headless host for vfxgo effect plugins",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "TOML configuration file")
	f.StringVar(&a.name, "plugin", tint.CanonicalName, "canonical name of the plugin to host")
	f.StringVar(&a.logLevel, "log-level", "", "log level, overrides the configuration")

	root.AddCommand(
		newPluginsCmd(a),
		newDescribeCmd(a),
		newRunCmd(a),
		newPresetCmd(a),
	)
	return root
}

// setup loads the configuration. Subcommands apply their own flag
// overrides and call validate again.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.cfgPath != "" {
		loaded, err := config.Load(a.cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	return a.validate()
}

func (a *app) validate() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	a.log = a.cfg.Logger(a.errOut)
	return nil
}

// module resolves the selected plugin and configures it for this host.
func (a *app) module() (plugin.Module, error) {
	m, ok := plugin.Lookup(a.name)
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q (registered: %s)", a.name, strings.Join(plugin.Registered(), ", "))
	}
	ctrl := []fwplugin.Option{fwplugin.WithFPS(a.cfg.Render.FPS)}
	if a.cfg.Seed != 0 {
		ctrl = append(ctrl, fwplugin.WithSeed(a.cfg.Seed))
	}
	return plugin.Configure(m, plugin.WithLogger(a.log), plugin.WithControllerOptions(ctrl...)), nil
}

// session is a chain of loaded instances on a recording backend. inst is
// the head of the chain.
type session struct {
	backend *render.Recorder
	host    *host.Host
	module  plugin.Module
	inst    *host.Instance
	chain   *host.Chain
	input   render.Framebuffer
	entry   source.Entry
	store   *preset.Store
}

func (a *app) open(ctx context.Context, opts ...host.Option) (*session, error) {
	m, err := a.module()
	if err != nil {
		return nil, err
	}
	s := &session{backend: render.NewRecorder(), module: m, chain: host.NewChain(a.name)}
	h, err := host.New(a.cfg, s.backend, append(opts, host.WithLogger(a.log))...)
	if err != nil {
		return nil, err
	}
	s.host = h
	if s.inst, err = h.Load(ctx, m); err != nil {
		return nil, err
	}
	if err := s.chain.Add(s.inst); err != nil {
		s.close(ctx)
		return nil, err
	}

	// Stand-in for the video the host would be playing.
	r := a.cfg.Render
	s.input, err = s.backend.CreateFramebuffer(r.BufferWidth, r.BufferHeight, false)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.entry = source.Entry{
		Texture: s.input.Texture,
		TX2:     1,
		TY2:     1,
		Width:   r.BufferWidth,
		Height:  r.BufferHeight,
		Depth:   4,
	}
	if err := s.inst.SetSource(source.SlotInput, s.entry); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

// openWithPresets opens a session backed by the preset database.
func (a *app) openWithPresets(ctx context.Context) (*session, error) {
	store, err := preset.Open(preset.Config{Path: a.cfg.Presets.Path, Compress: a.cfg.Presets.Compress})
	if err != nil {
		return nil, err
	}
	s, err := a.open(ctx, host.WithPresets(store))
	if err != nil {
		store.Close()
		return nil, err
	}
	s.store = store
	return s, nil
}

// extend appends instances of the session's plugin until the chain holds n.
func (s *session) extend(ctx context.Context, n int) error {
	for s.chain.Len() < n {
		inst, err := s.host.Load(ctx, s.module)
		if err != nil {
			return err
		}
		if err := s.chain.Add(inst); err != nil {
			_ = inst.Close(ctx)
			return err
		}
	}
	return nil
}

// each calls fn on every instance in chain order.
func (s *session) each(fn func(*host.Instance) error) error {
	for k := range s.chain.Len() {
		if err := fn(s.chain.At(k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) close(ctx context.Context) {
	if s.chain.Len() > 0 {
		_ = s.chain.Close(ctx)
	} else if s.inst != nil {
		_ = s.inst.Close(ctx)
	}
	if s.input.FBO != 0 {
		s.backend.ReleaseFramebuffer(s.input)
	}
	if s.store != nil {
		s.store.Close()
	}
}

// applySets sets parameters by name in a stable order.
func applySets(inst *host.Instance, sets map[string]int64) error {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx, ok := inst.ParamIndex(name)
		if !ok {
			return fmt.Errorf("no parameter named %q", name)
		}
		if err := inst.SetParam(idx, sets[name]); err != nil {
			return err
		}
	}
	return nil
}

func newPluginsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the plugins linked into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range plugin.Registered() {
				m, _ := plugin.Lookup(name)
				info := m.Info()
				fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", name, info.Version, info.Type, info.DisplayName())
			}
			return nil
		},
	}
}
