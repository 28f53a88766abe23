package dokaben

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
)

func newTestRenderer(t *testing.T, options ...renderer.RendererBuilderOption) (renderer.Renderer, renderer.SoftwareRendererBackend) {
	t.Helper()
	opts := append([]renderer.RendererBuilderOption{SoftwareKernel(), renderer.WithSoftwareWorkers(4)}, options...)
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, opts...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Release)
	return r, r.Backend().(renderer.SoftwareRendererBackend)
}

func runFrame(t *testing.T, r renderer.Renderer, d Dokaben, dt float32) {
	t.Helper()
	steps := []struct {
		name string
		fn   func() error
	}{
		{"BeginComputeFrame", r.BeginComputeFrame},
		{"Update", func() error { return d.Update(dt) }},
		{"EndComputeFrame", r.EndComputeFrame},
		{"BeginFrame", r.BeginFrame},
		{"Draw", d.Draw},
		{"EndFrame", r.EndFrame},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	r.Present()
}

func readRecords(t *testing.T, sw renderer.SoftwareRendererBackend, buf buffer.Buffer) []GPUDokabenData {
	t.Helper()
	data, err := sw.BufferBytes(buf)
	if err != nil {
		t.Fatalf("BufferBytes(records): %v", err)
	}
	out := make([]GPUDokabenData, len(data)/DokabenDataSize)
	for i := range out {
		out[i] = UnmarshalDokabenData(data[i*DokabenDataSize:])
	}
	return out
}

func readPhases(t *testing.T, sw renderer.SoftwareRendererBackend, buf buffer.Buffer) []float32 {
	t.Helper()
	data, err := sw.BufferBytes(buf)
	if err != nil {
		t.Fatalf("BufferBytes(phases): %v", err)
	}
	out := make([]float32, len(data)/PhaseSize)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*PhaseSize:]))
	}
	return out
}

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}
