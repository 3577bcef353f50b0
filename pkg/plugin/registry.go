package plugin

import (
	"fmt"
	"sort"
	"sync"

	fwplugin "github.com/justyntemme/vfxgo/pkg/framework/plugin"
)

// registry maps handles to controllers.
type registry struct {
	mu     sync.RWMutex
	byID   map[Handle]*fwplugin.Controller
	nextID Handle
}

func newRegistry() *registry {
	return &registry{byID: make(map[Handle]*fwplugin.Controller), nextID: 1}
}

func (r *registry) register(c *fwplugin.Controller) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.byID[id] = c
	return id
}

func (r *registry) unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, h)
}

func (r *registry) lookup(h Handle) *fwplugin.Controller {
	if h == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[h]
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Modules linked into a binary register themselves here, usually from an
// init function, so a host can find them by canonical name.
var (
	modules   = make(map[string]Module)
	modulesMu sync.RWMutex
)

// Register adds a module under its canonical name. Registering the same
// name twice panics.
func Register(m Module) {
	name := m.Info().CanonicalName
	modulesMu.Lock()
	defer modulesMu.Unlock()
	if _, dup := modules[name]; dup {
		panic(fmt.Sprintf("plugin: module %q registered twice", name))
	}
	modules[name] = m
}

// Lookup returns the module registered under a canonical name.
func Lookup(name string) (Module, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	m, ok := modules[name]
	return m, ok
}

// Registered returns the canonical names of every registered module, sorted.
func Registered() []string {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
