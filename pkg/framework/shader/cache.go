package shader

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnresolved is returned when a program links a shader name nobody built.
var ErrUnresolved = errors.New("shader: unresolved name")

// Compiler builds shader objects on the device. Implemented by the host's render backend.
type Compiler interface {
	CompileShader(stage Stage, name, source string) (uint32, error)
	LinkProgram(name string, vert, frag uint32) (uint32, error)
	DeleteShader(id uint32)
}

type cacheEntry struct {
	id     uint32
	stage  Stage
	refs   int
	err    error
	pinned bool
}

// Cache resolves shader names once for all instances. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	compiler Compiler
	entries  map[string]*cacheEntry
}

// NewCache creates a cache that builds through compiler.
func NewCache(compiler Compiler) *Cache {
	return &Cache{
		compiler: compiler,
		entries:  make(map[string]*cacheEntry),
	}
}

// Preload builds a host-provided shader that plugins may reference by name.
// Preloaded shaders are never released.
func (c *Cache) Preload(stage Stage, name, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[name]; ok {
		return nil
	}
	id, err := c.compiler.CompileShader(stage, name, source)
	if err != nil {
		return fmt.Errorf("preload %q: %w", name, err)
	}
	c.entries[name] = &cacheEntry{id: id, stage: stage, pinned: true}
	return nil
}

// Acquire resolves a descriptor, building it on first use of its name.
// Every successful or failed Acquire must be paired with a Release of the same name.
func (c *Cache) Acquire(d *Descriptor) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := d.Name()
	if e, ok := c.entries[name]; ok {
		e.refs++
		return e.id, e.err
	}

	e := &cacheEntry{stage: d.Stage, refs: 1}
	switch d.Stage {
	case StageProgram:
		vert, verr := c.lookup(d.VertName)
		frag, ferr := c.lookup(d.FragName)
		switch {
		case verr != nil:
			e.err = verr
		case ferr != nil:
			e.err = ferr
		default:
			e.id, e.err = c.compiler.LinkProgram(name, vert, frag)
		}
	default:
		e.id, e.err = c.compiler.CompileShader(d.Stage, name, d.Source)
	}
	c.entries[name] = e
	return e.id, e.err
}

func (c *Cache) lookup(name string) (uint32, error) {
	e, ok := c.entries[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnresolved, name)
	}
	if e.err != nil {
		return 0, fmt.Errorf("%q failed to build: %w", name, e.err)
	}
	return e.id, nil
}

// Release drops one reference to a name and deletes the shader when the last user goes.
func (c *Cache) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok || e.pinned {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	if e.err == nil && e.id != 0 {
		c.compiler.DeleteShader(e.id)
	}
	delete(c.entries, name)
}

// Refs returns the reference count of a name. Zero for unknown names.
func (c *Cache) Refs(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
