package stub

import (
	"testing"

	"github.com/prismrt/prism/pkg/rt"
)

func TestStubReportsUnsupported(t *testing.T) {
	s := New(nil)
	if s.Supported() {
		t.Error("Supported() = true, want false")
	}
	if s.Kind() != rt.KindNone {
		t.Errorf("Kind() = %v, want KindNone", s.Kind())
	}
	if s.Name() != "none" {
		t.Errorf("Name() = %q, want %q", s.Name(), "none")
	}
}

func TestStubCreationVerbsReturnInvalidHandle(t *testing.T) {
	s := New(nil)

	desc := &rt.GeometryDesc{
		Vertices:     []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		VertexCount:  3,
		VertexStride: rt.DefaultVertexStride,
	}
	if g := s.CreateGeometry(desc); g != nil {
		t.Error("CreateGeometry returned a handle from the stub")
	}
	if b := s.CreateBLAS([]rt.Geometry{nil}); b != nil {
		t.Error("CreateBLAS returned a handle from the stub")
	}
	if tl := s.CreateTLAS([]rt.Instance{{Transform: rt.Identity()}}); tl != nil {
		t.Error("CreateTLAS returned a handle from the stub")
	}
}

func TestStubDestroyAndTraceAreSafe(t *testing.T) {
	s := New(nil)

	// All of these must be safe no-ops, including on nil handles.
	s.DestroyGeometry(nil)
	s.DestroyBLAS(nil)
	s.DestroyTLAS(nil)
	s.UpdateTLAS(nil, nil)
	s.TraceRays(&rt.TraceOptions{Width: 4, Height: 4})
}
