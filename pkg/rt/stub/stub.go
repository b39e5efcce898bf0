// Package stub provides the no-op ray tracing backend used when no
// hardware implementation is compiled in or detected. It always reports
// unsupported; every creation verb returns the invalid handle and logs a
// diagnostic, every destroy verb is a no-op.
package stub

import (
	"github.com/charmbracelet/log"

	"github.com/prismrt/prism/pkg/rt"
)

// Compile-time interface check.
var _ rt.Backend = (*Stub)(nil)

// Stub is the fallback backend for platforms without hardware ray tracing.
type Stub struct {
	log *log.Logger
}

// New returns a stub backend. A nil logger falls back to the default.
func New(logger *log.Logger) *Stub {
	if logger == nil {
		logger = log.Default()
	}
	return &Stub{log: logger}
}

// Supported always reports false.
func (s *Stub) Supported() bool { return false }

// Kind returns rt.KindNone.
func (s *Stub) Kind() rt.Kind { return rt.KindNone }

// Name returns "none".
func (s *Stub) Name() string { return rt.KindNone.String() }

func (s *Stub) unavailable(op string) {
	s.log.Error("hardware ray tracing not available", "op", op)
}

// CreateGeometry always fails with the invalid handle.
func (s *Stub) CreateGeometry(desc *rt.GeometryDesc) rt.Geometry {
	s.unavailable("createGeometry")
	return nil
}

// DestroyGeometry is a no-op.
func (s *Stub) DestroyGeometry(g rt.Geometry) {}

// CreateBLAS always fails with the invalid handle.
func (s *Stub) CreateBLAS(geometries []rt.Geometry) rt.BLAS {
	s.unavailable("createBLAS")
	return nil
}

// DestroyBLAS is a no-op.
func (s *Stub) DestroyBLAS(b rt.BLAS) {}

// CreateTLAS always fails with the invalid handle.
func (s *Stub) CreateTLAS(instances []rt.Instance) rt.TLAS {
	s.unavailable("createTLAS")
	return nil
}

// UpdateTLAS logs and no-ops.
func (s *Stub) UpdateTLAS(t rt.TLAS, instances []rt.Instance) {
	s.unavailable("updateTLAS")
}

// DestroyTLAS is a no-op.
func (s *Stub) DestroyTLAS(t rt.TLAS) {}

// TraceRays logs and no-ops.
func (s *Stub) TraceRays(opts *rt.TraceOptions) {
	s.unavailable("traceRays")
}
