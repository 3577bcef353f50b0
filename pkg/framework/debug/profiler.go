package debug

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects timing statistics for named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name      string
	count     uint64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	lastTime  time.Duration
	samples   []time.Duration
	next      int
}

// NewProfiler creates a profiler keeping the last maxSamples timings per section.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section. Call the returned func to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record stores an externally measured timing.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.minTime = min(m.minTime, elapsed)
	m.maxTime = max(m.maxTime, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
		return
	}
	m.samples[m.next] = elapsed
	m.next = (m.next + 1) % p.maxSamples
}

// GetMeasurement returns a copy of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	return m.clone(), true
}

// GetAllMeasurements returns copies of all measurements.
func (p *Profiler) GetAllMeasurements() map[string]*Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*Measurement, len(p.measurements))
	for k, v := range p.measurements {
		result[k] = v.clone()
	}
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report formats every measurement, sorted by name.
func (p *Profiler) Report() string {
	measurements := p.GetAllMeasurements()
	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	names := make([]string, 0, len(measurements))
	for name := range measurements {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")
	for _, name := range names {
		m := measurements[name]
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.totalTime)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.minTime)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.maxTime)
		fmt.Fprintf(&sb, "  P95:     %v\n", m.Percentile(95))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Measurement) clone() *Measurement {
	c := *m
	c.samples = slices.Clone(m.samples)
	return &c
}

// Name returns the section name.
func (m *Measurement) Name() string { return m.name }

// Count returns how many timings were recorded.
func (m *Measurement) Count() uint64 { return m.count }

// Min returns the fastest timing.
func (m *Measurement) Min() time.Duration { return m.minTime }

// Max returns the slowest timing.
func (m *Measurement) Max() time.Duration { return m.maxTime }

// Last returns the most recent timing.
func (m *Measurement) Last() time.Duration { return m.lastTime }

// Average returns the mean over all recorded timings.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile of the retained samples.
func (m *Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)
	p = min(max(p, 0), 100)
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// Section names used by FrameProfiler.
const (
	SectionUpdate  = "Update"
	SectionProcess = "Process"
)

// FrameProfiler relates per-frame work to the frame budget.
type FrameProfiler struct {
	*Profiler
	budget time.Duration
}

// NewFrameProfiler creates a profiler for a host running at fps.
func NewFrameProfiler(fps float64) *FrameProfiler {
	if fps <= 0 {
		fps = 25
	}
	return &FrameProfiler{
		Profiler: NewProfiler(1000),
		budget:   time.Duration(float64(time.Second) / fps),
	}
}

// Budget returns the time available per frame.
func (f *FrameProfiler) Budget() time.Duration { return f.budget }

// Load returns the average Update plus Process time as a percentage of the budget.
func (f *FrameProfiler) Load() float64 {
	var used time.Duration
	for _, name := range []string{SectionUpdate, SectionProcess} {
		if m, ok := f.GetMeasurement(name); ok {
			used += m.Average()
		}
	}
	return float64(used) / float64(f.budget) * 100
}

// FrameReport appends the frame budget figures to Report.
func (f *FrameProfiler) FrameReport() string {
	var sb strings.Builder
	sb.WriteString(f.Report())
	sb.WriteString("\nFrame Stats:\n")
	fmt.Fprintf(&sb, "  Budget:  %v\n", f.budget)
	fmt.Fprintf(&sb, "  Load:    %.2f%%\n", f.Load())
	return sb.String()
}
