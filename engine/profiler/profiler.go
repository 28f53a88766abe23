package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
)

// Stats is a snapshot of the frame rate and memory statistics of one reporting interval.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64 // MB allocated per second over the interval
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64 // longest GC pause since the previous report
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics and logs them through the common
// logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
	now            func() time.Time
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(p *Profiler)

// WithInterval sets the reporting interval. Non-positive values keep the default of one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a Profiler. The reporting interval defaults to one second.
//
// Parameters:
//   - options: interval and clock options
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick is called once per frame. When the interval has elapsed it samples the runtime
// memory statistics and logs them at info level.
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      toMB(p.memStats.Alloc),
		AllocRateMB: toMB(p.memStats.TotalAlloc-p.lastTotalAlloc) / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       toMB(p.memStats.Sys),
	}
	s.LastPauseUs, s.MaxPauseUs = pauses(&p.memStats, p.lastGCCount)

	common.Logger().Info("profiler",
		"fps", s.FPS,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc_count", s.GCCount,
		"gc_last_pause_us", s.LastPauseUs,
		"gc_max_pause_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.last = s
	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report. It is the zero value before the first one.
func (p *Profiler) Last() Stats {
	return p.last
}

// pauses returns the last GC pause and the longest pause since sinceGC, in microseconds.
// PauseNs is a ring of the most recent 256 pauses.
func pauses(m *runtime.MemStats, sinceGC uint32) (last, longest uint64) {
	n := m.NumGC
	if n == 0 {
		return 0, 0
	}
	last = m.PauseNs[(n-1)%256] / 1000

	start := sinceGC
	if n-start > 256 {
		start = n - 256
	}
	for i := start; i < n; i++ {
		longest = max(longest, m.PauseNs[i%256]/1000)
	}
	return last, longest
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
