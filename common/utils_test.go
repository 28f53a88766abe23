package common

import "testing"

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   int
	}{
		{"first non-zero", []int{0, 3, 5}, 3},
		{"all zero", []int{0, 0}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coalesce(tt.values...); got != tt.want {
				t.Errorf("Coalesce(%v) = %d, want %d", tt.values, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(0, 256, 32768); got != 256 {
		t.Errorf("Clamp(0) = %d, want 256", got)
	}
	if got := Clamp(40000, 256, 32768); got != 32768 {
		t.Errorf("Clamp(40000) = %d, want 32768", got)
	}
	if got := Clamp(1024, 256, 32768); got != 1024 {
		t.Errorf("Clamp(1024) = %d, want 1024", got)
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		n, d, want uint32
	}{
		{256, 256, 1},
		{257, 256, 2},
		{14384, 256, 57},
		{0, 256, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.n, tt.d); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Error("empty slice should produce nil")
	}
	b := SliceToBytes([]uint32{1, 2})
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
}
