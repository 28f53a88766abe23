package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithInterval(time.Second), WithClock(clk.now))

	// 30 frames at 50ms each cover 1.5s, so the report fires on the 20th frame.
	reports := 0
	for i := 1; i <= 30; i++ {
		clk.t = clk.t.Add(50 * time.Millisecond)
		if p.Tick() {
			reports++
			if i != 20 {
				t.Fatalf("report on frame %d, want 20", i)
			}
		}
	}
	if reports != 1 {
		t.Fatalf("reports = %d, want 1", reports)
	}

	got := p.Last()
	if got.FPS < 19.99 || got.FPS > 20.01 {
		t.Errorf("FPS = %v, want 20", got.FPS)
	}
	if got.HeapMB <= 0 || got.SysMB <= 0 {
		t.Errorf("memory stats not sampled: %+v", got)
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero", 0, time.Second},
		{"negative", -time.Second, time.Second},
		{"custom", 250 * time.Millisecond, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfiler(WithInterval(tt.in))
			if p.updateInterval != tt.want {
				t.Errorf("interval = %v, want %v", p.updateInterval, tt.want)
			}
		})
	}
}
