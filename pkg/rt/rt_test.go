package rt

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNone, "none"},
		{KindDXR, "dxr"},
		{KindVulkan, "vulkan"},
		{KindMetal, "metal"},
		{Kind(99), "none"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestIdentity(t *testing.T) {
	m := Identity()
	for i, v := range m {
		onDiagonal := i == 0 || i == 5 || i == 10 || i == 15
		if onDiagonal && v != 1 {
			t.Errorf("Identity()[%d] = %v, want 1", i, v)
		}
		if !onDiagonal && v != 0 {
			t.Errorf("Identity()[%d] = %v, want 0", i, v)
		}
	}
}
