// Package rt defines the abstract hardware ray tracing backend contract.
// Implementations (DXR, Vulkan RT, Metal RT) provide acceleration structure
// building and ray dispatch behind this interface; the stub implementation
// is used when no hardware support is available. The abstraction allows
// swapping backends without changing the rest of the system.
package rt

// Kind identifies a concrete backend implementation.
type Kind int

const (
	// KindNone means no hardware ray tracing is available (stub).
	KindNone Kind = iota
	// KindDXR is DirectX Raytracing (Windows).
	KindDXR
	// KindVulkan is Vulkan Ray Tracing (cross-platform).
	KindVulkan
	// KindMetal is Metal ray tracing (Apple).
	KindMetal
)

// String returns the host-visible backend name.
func (k Kind) String() string {
	switch k {
	case KindDXR:
		return "dxr"
	case KindVulkan:
		return "vulkan"
	case KindMetal:
		return "metal"
	}
	return "none"
}

// DefaultMask is the visibility mask applied to instances: all bits set.
const DefaultMask uint32 = 0xFF

// DefaultVertexStride is the byte distance between consecutive vertices
// when the caller does not specify one (a packed 3-float position).
const DefaultVertexStride = 12

// Geometry is an opaque handle to backend-prepared geometry data,
// ready for BLAS construction. A nil Geometry is the invalid handle.
type Geometry interface {
	// Backend reports which backend kind issued the handle.
	Backend() Kind
}

// BLAS is an opaque handle to a bottom-level acceleration structure:
// one or more geometries built in object space. Immutable once built.
// A nil BLAS is the invalid handle.
type BLAS interface {
	Backend() Kind
}

// TLAS is an opaque handle to a top-level acceleration structure:
// positioned instances of BLASes. A nil TLAS is the invalid handle.
type TLAS interface {
	Backend() Kind
}

// ImageTarget is an opaque, host-managed output image that TraceRays
// writes into. The core never interprets its contents; a concrete backend
// decides how to resolve it to device memory.
type ImageTarget interface {
	// Size returns the target dimensions in pixels.
	Size() (width, height int)
}

// GeometryDesc describes raw mesh input for geometry creation.
// The Vertices and Indices slices are borrowed for the duration of the
// call only; a backend must copy what it needs before returning.
type GeometryDesc struct {
	Vertices     []float32 // packed position data, 3 floats per vertex
	VertexCount  int       // number of vertices
	VertexStride int       // bytes between vertices (DefaultVertexStride for vec3)
	VertexOffset int       // byte offset to the position field within a vertex
	Indices      []uint32  // optional index data, nil for non-indexed
}

// Instance places one BLAS into a TLAS.
type Instance struct {
	BLAS       BLAS        // structure to instance
	Transform  [16]float32 // 4x4 object-to-world matrix, column-major
	InstanceID uint32      // user-defined id surfaced to shaders
	Mask       uint32      // visibility mask
	Flags      uint32      // instance flags (e.g. cull disable)
}

// TraceOptions is a one-shot ray dispatch request. Uniforms is borrowed
// for the duration of the call only.
type TraceOptions struct {
	TLAS     TLAS
	Width    uint32
	Height   uint32
	Output   ImageTarget
	Uniforms []byte // optional opaque uniform payload
}

// Identity returns a 4x4 identity transform.
func Identity() [16]float32 {
	var m [16]float32
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Backend is the abstract ray tracing backend contract. Every creation
// verb returns a nil handle on failure and never panics; destroy verbs are
// idempotent and safe on nil handles. Callers gate mutating verbs on
// Supported.
//
// Buffer views inside descriptors are valid only for the duration of a
// call. As a consequence a built BLAS is independent of the Geometry
// handles it was built from: destroying a source Geometry afterwards must
// not affect the BLAS.
type Backend interface {
	// Supported reports whether hardware ray tracing can be used.
	// It must be cheap and side-effect free.
	Supported() bool

	// Kind returns the backend kind.
	Kind() Kind

	// Name returns "dxr", "vulkan", "metal", or "none".
	Name() string

	// CreateGeometry prepares geometry for acceleration structure
	// building. Returns nil if desc has no vertex data.
	CreateGeometry(desc *GeometryDesc) Geometry

	// DestroyGeometry releases a geometry handle. No-op on nil.
	DestroyGeometry(g Geometry)

	// CreateBLAS builds a bottom-level acceleration structure over the
	// given geometries. Returns nil if the slice is empty.
	CreateBLAS(geometries []Geometry) BLAS

	// DestroyBLAS releases a BLAS. No-op on nil.
	DestroyBLAS(b BLAS)

	// CreateTLAS builds a top-level acceleration structure over the
	// given instances. Returns nil if the slice is empty.
	CreateTLAS(instances []Instance) TLAS

	// UpdateTLAS refreshes instance data without a full rebuild. The
	// contract does not require the instance count to match the original
	// build; a backend may reject a mismatch internally.
	UpdateTLAS(t TLAS, instances []Instance)

	// DestroyTLAS releases a TLAS. No-op on nil.
	DestroyTLAS(t TLAS)

	// TraceRays dispatches ray generation against opts.TLAS, writing
	// into opts.Output. Fire-and-forget: unsupported backends log and
	// no-op.
	TraceRays(opts *TraceOptions)
}
