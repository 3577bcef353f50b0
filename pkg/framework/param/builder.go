package param

// Spec is a parameter declaration assembled by a Builder.
type Spec struct {
	kind    Kind
	name    string
	display string
	options []string
	min     int64
	max     int64
	def     int64
	current int64
}

// Builder provides a fluent API for declaring parameters
type Builder struct {
	spec *Spec
}

// New creates a new parameter builder for a 0..100 range control
func New(kind Kind, name string) *Builder {
	return &Builder{
		spec: &Spec{
			kind: kind,
			name: name,
			min:  0,
			max:  100,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max int64) *Builder {
	b.spec.min = min
	b.spec.max = max
	return b
}

// Default sets the default value. The current value starts there too.
func (b *Builder) Default(value int64) *Builder {
	b.spec.def = value
	b.spec.current = value
	return b
}

// Current sets a start value different from the default
func (b *Builder) Current(value int64) *Builder {
	b.spec.current = value
	return b
}

// Display sets the initial display value
func (b *Builder) Display(label string) *Builder {
	b.spec.display = label
	return b
}

// Options sets the selector option list and its range
func (b *Builder) Options(options ...string) *Builder {
	b.spec.options = append([]string(nil), options...)
	b.spec.min = 0
	b.spec.max = int64(len(options) - 1)
	if b.spec.max < 0 {
		b.spec.max = 0
	}
	return b
}

// Build returns the configured declaration
func (b *Builder) Build() *Spec {
	return b.spec
}
