package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
)

func TestGPUDrawParamsLayout(t *testing.T) {
	p := GPUDrawParams{
		MeshScale: [3]float32{1, 2, 3},
		BaseColor: [4]float32{0.1, 0.2, 0.3, 1},
	}
	if p.Size() != 32 {
		t.Fatalf("Size() = %d, want 32", p.Size())
	}
	buf := p.Marshal()
	if len(buf) != p.Size() {
		t.Fatalf("Marshal() len = %d, want %d", len(buf), p.Size())
	}

	tests := []struct {
		name   string
		offset int
		want   float32
	}{
		{"scale x", 0, 1},
		{"scale z", 8, 3},
		{"pad", 12, 0},
		{"color r", 16, 0.1},
		{"color a", 28, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := math.Float32frombits(binary.LittleEndian.Uint32(buf[tt.offset:]))
			if got != tt.want {
				t.Errorf("offset %d = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestMaterialDefaultsAndOptions(t *testing.T) {
	m := NewMaterial()
	if m.BaseColor() != [4]float32{1, 1, 1, 1} {
		t.Errorf("default BaseColor() = %v, want opaque white", m.BaseColor())
	}
	if m.BindGroupProvider() != nil {
		t.Error("new material should have no bind group provider")
	}

	m = NewMaterial(
		WithName("tile"),
		WithBaseColor([4]float32{1, 0, 0, 1}),
		WithPipelineKey("tile_render"),
	)
	if m.Name() != "tile" || m.PipelineKey() != "tile_render" || m.BaseColor()[1] != 0 {
		t.Errorf("options not applied: name=%q key=%q color=%v", m.Name(), m.PipelineKey(), m.BaseColor())
	}

	p := bind_group_provider.NewBindGroupProvider("tile bindings")
	m.SetBindGroupProvider(p)
	if m.BindGroupProvider() != p {
		t.Error("SetBindGroupProvider() did not attach the provider")
	}
	m.SetBindGroupProvider(nil)
	if m.BindGroupProvider() != nil {
		t.Error("SetBindGroupProvider(nil) did not detach the provider")
	}
}
