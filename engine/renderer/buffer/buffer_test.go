package buffer

import "testing"

func TestUsageHas(t *testing.T) {
	u := UsageStorage | UsageCopyDst
	if !u.Has(UsageStorage) {
		t.Error("expected Storage bit")
	}
	if !u.Has(UsageStorage | UsageCopyDst) {
		t.Error("expected both bits")
	}
	if u.Has(UsageIndirect) {
		t.Error("unexpected Indirect bit")
	}
}

func TestUsageString(t *testing.T) {
	tests := []struct {
		u    Usage
		want string
	}{
		{0, "None"},
		{UsageIndirect | UsageCopyDst, "CopyDst|Indirect"},
		{UsageStorage, "Storage"},
	}
	for _, tt := range tests {
		if got := tt.u.String(); got != tt.want {
			t.Errorf("Usage(%d).String() = %q, want %q", tt.u, got, tt.want)
		}
	}
}
