// Package plugin is the entry-point surface a host resolves from a loaded
// effect module. It maps opaque instance handles onto lifecycle controllers.
package plugin

import (
	"errors"
	"fmt"

	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	fwplugin "github.com/justyntemme/vfxgo/pkg/framework/plugin"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
)

var (
	// ErrUnknownHandle is returned for a handle the module never issued or already released.
	ErrUnknownHandle = errors.New("plugin: unknown instance handle")
	// ErrPanic is returned when a call panicked outside effect code.
	ErrPanic = errors.New("plugin: entry point panicked")
)

// Handle identifies one instance created by a Module. Zero is never issued.
type Handle uintptr

// Module is the set of entry points a host calls. Calls on one handle must
// not overlap; distinct handles are independent.
type Module interface {
	// QuerySchemaVersion returns the object layout the module was built against.
	QuerySchemaVersion() int
	// Info describes the effect without creating an instance.
	Info() fx.Info

	CreateInstance() Handle
	Init(h Handle, obj *fx.Object) error
	Reset(h Handle) error
	Randomize(h Handle) error
	Update(h Handle) error
	Process(h Handle) error
	// Deinit releases the instance; the handle is invalid afterwards.
	Deinit(h Handle) error
	GetState(h Handle) error
	SetState(h Handle, blob *state.Blob) bool
}

// Factory creates a fresh effect for every instance.
type Factory func() fwplugin.Effect

// ExportOption configures an exported module.
type ExportOption func(*module)

// WithLogger sets the logger handed to every controller.
func WithLogger(l *fxdebug.Logger) ExportOption {
	return func(m *module) { m.log = l }
}

// WithControllerOptions passes options to every controller the module creates.
func WithControllerOptions(opts ...fwplugin.Option) ExportOption {
	return func(m *module) { m.ctrlOpts = append(m.ctrlOpts, opts...) }
}

type module struct {
	factory  Factory
	info     fx.Info
	reg      *registry
	log      *fxdebug.Logger
	ctrlOpts []fwplugin.Option
	opts     []ExportOption
}

// Export builds a Module around an effect factory.
func Export(factory Factory, opts ...ExportOption) Module {
	m := &module{
		factory: factory,
		info:    factory().Info(),
		reg:     newRegistry(),
		log:     fxdebug.Discard(),
		opts:    opts,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("module", m.info.CanonicalName)
	return m
}

// Configure re-exports a module built by Export with extra options, e.g. to
// give a registered module the host's logger. m itself is unchanged.
// Modules built some other way are returned unchanged.
func Configure(m Module, opts ...ExportOption) Module {
	mod, ok := m.(*module)
	if !ok {
		return m
	}
	all := append(append([]ExportOption(nil), mod.opts...), opts...)
	return Export(mod.factory, all...)
}

func (m *module) QuerySchemaVersion() int { return fx.SchemaVersion }

func (m *module) Info() fx.Info { return m.info }

func (m *module) CreateInstance() (h Handle) {
	defer recoverPanic(m.log, "CreateInstance", nil)
	opts := append([]fwplugin.Option{fwplugin.WithLogger(m.log)}, m.ctrlOpts...)
	h = m.reg.register(fwplugin.New(m.factory(), opts...))
	m.log.Debug("instance created", "handle", uint64(h))
	return h
}

// call runs fn on the controller behind h.
func (m *module) call(name string, h Handle, fn func(c *fwplugin.Controller) error) (err error) {
	defer recoverPanic(m.log, name, &err)
	c := m.reg.lookup(h)
	if c == nil {
		m.log.Warn("call on unknown handle", "call", name, "handle", uint64(h))
		return fmt.Errorf("%w: %s(%d)", ErrUnknownHandle, name, h)
	}
	return fn(c)
}

func (m *module) Init(h Handle, obj *fx.Object) error {
	return m.call("Init", h, func(c *fwplugin.Controller) error { return c.Init(obj) })
}

func (m *module) Reset(h Handle) error {
	return m.call("Reset", h, (*fwplugin.Controller).Reset)
}

func (m *module) Randomize(h Handle) error {
	return m.call("Randomize", h, (*fwplugin.Controller).Randomize)
}

func (m *module) Update(h Handle) error {
	return m.call("Update", h, (*fwplugin.Controller).Update)
}

func (m *module) Process(h Handle) error {
	return m.call("Process", h, (*fwplugin.Controller).Process)
}

func (m *module) GetState(h Handle) error {
	return m.call("GetState", h, (*fwplugin.Controller).GetState)
}

func (m *module) SetState(h Handle, blob *state.Blob) bool {
	ok := false
	_ = m.call("SetState", h, func(c *fwplugin.Controller) error {
		ok = c.SetState(blob)
		return nil
	})
	return ok
}

func (m *module) Deinit(h Handle) error {
	err := m.call("Deinit", h, (*fwplugin.Controller).Deinit)
	m.reg.unregister(h)
	return err
}

// recoverPanic keeps a panic from crossing the module boundary. When err is
// non-nil it receives ErrPanic.
func recoverPanic(log *fxdebug.Logger, operation string, err *error) {
	if r := recover(); r != nil {
		log.Error("panic in entry point", "call", operation, "panic", r)
		if err != nil {
			*err = fmt.Errorf("%w: %s: %v", ErrPanic, operation, r)
		}
	}
}
