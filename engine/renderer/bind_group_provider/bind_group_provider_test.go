package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
)

type countingBuffer struct {
	releases int
}

func (b *countingBuffer) Label() string       { return "counting" }
func (b *countingBuffer) Size() uint64        { return 16 }
func (b *countingBuffer) Usage() buffer.Usage { return buffer.UsageUniform }
func (b *countingBuffer) Released() bool      { return b.releases > 0 }
func (b *countingBuffer) Release()            { b.releases++ }

func TestReleaseSkipsBorrowedBuffers(t *testing.T) {
	owned := &countingBuffer{}
	borrowed := &countingBuffer{}
	vertex := &countingBuffer{}

	p := NewBindGroupProvider("test",
		WithOwnedBuffer(0, owned),
		WithBorrowedBuffer(1, borrowed),
	)
	p.SetVertexBuffer(vertex)
	p.SetIndexCount(36)

	if !p.Borrowed(1) || p.Borrowed(0) {
		t.Fatalf("borrowed flags wrong: 0=%v 1=%v", p.Borrowed(0), p.Borrowed(1))
	}

	p.Release()
	p.Release()

	if owned.releases != 1 {
		t.Errorf("owned buffer released %d times, want 1", owned.releases)
	}
	if borrowed.releases != 0 {
		t.Errorf("borrowed buffer released %d times, want 0", borrowed.releases)
	}
	if vertex.releases != 1 {
		t.Errorf("vertex buffer released %d times, want 1", vertex.releases)
	}
	if len(p.Buffers()) != 0 || p.IndexCount() != 0 {
		t.Error("provider should be empty after release")
	}
}

func TestSetOwnedBufferClearsBorrowedFlag(t *testing.T) {
	p := NewBindGroupProvider("test")
	p.SetBuffer(2, &countingBuffer{})
	p.SetOwnedBuffer(2, &countingBuffer{})
	if p.Borrowed(2) {
		t.Error("binding 2 should be owned after SetOwnedBuffer")
	}
	if p.Label() != "test" {
		t.Errorf("Label() = %q, want %q", p.Label(), "test")
	}
}
