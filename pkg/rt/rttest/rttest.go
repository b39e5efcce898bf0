// Package rttest provides an in-memory rt.Backend conformance double for
// tests. It honors the full contract (handle allocation, nil sentinels on
// malformed input, idempotent destroys) without touching any GPU API, and
// records calls so tests can assert on teardown ordering and trace
// dispatch.
package rttest

import (
	"fmt"

	"github.com/prismrt/prism/pkg/rt"
)

// Compile-time interface check.
var _ rt.Backend = (*Fake)(nil)

type fakeGeometry struct {
	serial      int
	vertexCount int
	indexed     bool
}

func (g *fakeGeometry) Backend() rt.Kind { return rt.KindVulkan }

type fakeBLAS struct {
	serial        int
	geometryCount int
}

func (b *fakeBLAS) Backend() rt.Kind { return rt.KindVulkan }

type fakeTLAS struct {
	serial    int
	instances []rt.Instance
}

func (t *fakeTLAS) Backend() rt.Kind { return rt.KindVulkan }

// Fake is a supported backend double. The zero value is ready to use.
type Fake struct {
	// FailCreates makes every creation verb return the invalid handle,
	// simulating backend-internal build failures.
	FailCreates bool

	// Destroyed records destroy calls in order, as "geometry:N",
	// "blas:N", "tlas:N" strings keyed by creation serial.
	Destroyed []string

	// Traces records every TraceRays dispatch.
	Traces []rt.TraceOptions

	serial int
}

// Supported always reports true.
func (f *Fake) Supported() bool { return true }

// Kind reports Vulkan, an arbitrary supported kind.
func (f *Fake) Kind() rt.Kind { return rt.KindVulkan }

// Name returns the kind's name.
func (f *Fake) Name() string { return f.Kind().String() }

func (f *Fake) next() int {
	f.serial++
	return f.serial
}

// CreateGeometry validates the descriptor and returns a fake handle.
func (f *Fake) CreateGeometry(desc *rt.GeometryDesc) rt.Geometry {
	if f.FailCreates || desc == nil || len(desc.Vertices) == 0 {
		return nil
	}
	return &fakeGeometry{
		serial:      f.next(),
		vertexCount: desc.VertexCount,
		indexed:     len(desc.Indices) > 0,
	}
}

// DestroyGeometry records the destroy. No-op on nil or foreign handles.
func (f *Fake) DestroyGeometry(g rt.Geometry) {
	fg, ok := g.(*fakeGeometry)
	if !ok {
		return
	}
	f.Destroyed = append(f.Destroyed, fmt.Sprintf("geometry:%d", fg.serial))
}

// CreateBLAS returns a fake handle unless the input is empty.
func (f *Fake) CreateBLAS(geometries []rt.Geometry) rt.BLAS {
	if f.FailCreates || len(geometries) == 0 {
		return nil
	}
	for _, g := range geometries {
		if _, ok := g.(*fakeGeometry); !ok {
			return nil
		}
	}
	return &fakeBLAS{serial: f.next(), geometryCount: len(geometries)}
}

// DestroyBLAS records the destroy. No-op on nil or foreign handles.
func (f *Fake) DestroyBLAS(b rt.BLAS) {
	fb, ok := b.(*fakeBLAS)
	if !ok {
		return
	}
	f.Destroyed = append(f.Destroyed, fmt.Sprintf("blas:%d", fb.serial))
}

// CreateTLAS returns a fake handle unless the input is empty. Instances
// are copied, matching the borrowed-buffer rule of the contract.
func (f *Fake) CreateTLAS(instances []rt.Instance) rt.TLAS {
	if f.FailCreates || len(instances) == 0 {
		return nil
	}
	t := &fakeTLAS{serial: f.next()}
	t.instances = append(t.instances, instances...)
	return t
}

// UpdateTLAS replaces the stored instances. No-op on foreign handles.
func (f *Fake) UpdateTLAS(t rt.TLAS, instances []rt.Instance) {
	ft, ok := t.(*fakeTLAS)
	if !ok {
		return
	}
	ft.instances = append(ft.instances[:0], instances...)
}

// DestroyTLAS records the destroy. No-op on nil or foreign handles.
func (f *Fake) DestroyTLAS(t rt.TLAS) {
	ft, ok := t.(*fakeTLAS)
	if !ok {
		return
	}
	f.Destroyed = append(f.Destroyed, fmt.Sprintf("tlas:%d", ft.serial))
}

// TraceRays records the dispatch.
func (f *Fake) TraceRays(opts *rt.TraceOptions) {
	if opts == nil {
		return
	}
	f.Traces = append(f.Traces, *opts)
}

// Instances returns the instances currently held by a fake TLAS, for
// asserting on update semantics.
func (f *Fake) Instances(t rt.TLAS) []rt.Instance {
	ft, ok := t.(*fakeTLAS)
	if !ok {
		return nil
	}
	return ft.instances
}
