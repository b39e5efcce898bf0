// Package session owns the process state of the ray tracing binding
// layer: the active backend and the three handle registries. A Session is
// an explicit service instance rather than package-level state, so tests
// can run many of them in isolation.
//
// Sessions are single-threaded by contract: the scripting host serializes
// all calls, so no internal locking is performed.
package session

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/prismrt/prism/pkg/registry"
	"github.com/prismrt/prism/pkg/rt"
	"github.com/prismrt/prism/pkg/rt/stub"
	"github.com/prismrt/prism/pkg/rt/vulkanrt"
)

// Failure kinds. Callers distinguish them with errors.Is; the scripting
// surface collapses all of them to null plus a log line.
var (
	// ErrUnsupported means no hardware ray tracing backend is active.
	ErrUnsupported = errors.New("hardware ray tracing not available")
	// ErrMalformed means the input had the wrong shape or a missing
	// required field.
	ErrMalformed = errors.New("malformed input")
	// ErrUnknownRef means an identifier did not resolve in its registry.
	ErrUnknownRef = errors.New("unknown resource reference")
	// ErrBackend means the backend rejected an otherwise valid request.
	ErrBackend = errors.New("backend rejected the request")
	// ErrClosed means the session was already torn down.
	ErrClosed = errors.New("session is closed")
)

// GeometryData is the validated host-side geometry descriptor. Buffers
// are borrowed for the duration of the call only.
type GeometryData struct {
	Vertices     []float32
	Indices      []uint32
	VertexStride int // 0 means rt.DefaultVertexStride
	VertexOffset int
}

// InstanceData references a BLAS by identifier, not by handle; the
// session resolves it at build time.
type InstanceData struct {
	BLAS       registry.ID
	Transform  [16]float32
	InstanceID uint32
}

// TraceData is a one-shot trace request against a TLAS identifier.
type TraceData struct {
	TLAS     registry.ID
	Width    uint32
	Height   uint32
	Output   rt.ImageTarget
	Uniforms []byte
}

// Options configures session construction.
type Options struct {
	// Backend overrides backend selection; nil selects automatically
	// (capability probe, falling back to the stub).
	Backend rt.Backend
	// PreferBackend biases selection: "auto" (default), "vulkan", or
	// "none" to force the stub.
	PreferBackend string
	// Logger for diagnostics; nil uses log.Default.
	Logger *log.Logger
}

// Session owns the active backend, the three registries, and their
// identifier allocation.
type Session struct {
	id      string
	log     *log.Logger
	backend rt.Backend
	closed  bool

	geometries *registry.Table[rt.Geometry]
	blases     *registry.Table[rt.BLAS]
	tlases     *registry.Table[rt.TLAS]
}

// New constructs a session and its backend. Construction never fails:
// when no hardware backend is available the stub is installed and every
// mutating call degrades to a logged no-op.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.NewString()[:8]
	logger = logger.With("session", id)

	backend := opts.Backend
	if backend == nil {
		backend = selectBackend(logger, opts.PreferBackend)
	}
	logger.Info("ray tracing session initialized", "backend", backend.Name(), "supported", backend.Supported())

	return &Session{
		id:         id,
		log:        logger,
		backend:    backend,
		geometries: registry.New[rt.Geometry](),
		blases:     registry.New[rt.BLAS](),
		tlases:     registry.New[rt.TLAS](),
	}
}

// selectBackend picks the backend for this platform. No hardware backend
// is implemented yet, so the stub is always installed; the probe only
// determines what gets logged and keeps the selection path in place for
// future DXR/Vulkan/Metal implementations.
func selectBackend(logger *log.Logger, prefer string) rt.Backend {
	if prefer != "none" {
		info, err := vulkanrt.Detect()
		if err != nil {
			logger.Debug("vulkan ray tracing probe", "err", err)
		} else {
			logger.Info("ray tracing capable device found, but no hardware backend is compiled in",
				"device", info.DeviceName)
		}
	}
	return stub.New(logger)
}

// ID returns the session's log-correlation identifier.
func (s *Session) ID() string { return s.id }

// Supported reports whether the active backend can service mutating calls.
func (s *Session) Supported() bool {
	return !s.closed && s.backend.Supported()
}

// BackendName returns "dxr", "vulkan", "metal", or "none".
func (s *Session) BackendName() string {
	if s.closed {
		return rt.KindNone.String()
	}
	return s.backend.Name()
}

// BackendKind returns the active backend kind.
func (s *Session) BackendKind() rt.Kind {
	if s.closed {
		return rt.KindNone
	}
	return s.backend.Kind()
}

// Counts returns the number of live resources per kind, for diagnostics.
func (s *Session) Counts() (geometries, blases, tlases int) {
	return s.geometries.Len(), s.blases.Len(), s.tlases.Len()
}

func (s *Session) gate(op string) error {
	if s.closed {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	if !s.backend.Supported() {
		return fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	return nil
}

// CreateGeometry validates the descriptor, asks the backend to prepare
// geometry, and registers the resulting handle. Nothing is registered on
// failure.
func (s *Session) CreateGeometry(d GeometryData) (registry.ID, error) {
	if err := s.gate("createGeometry"); err != nil {
		return registry.Invalid, err
	}
	if len(d.Vertices) == 0 {
		return registry.Invalid, fmt.Errorf("createGeometry: vertices: %w", ErrMalformed)
	}
	stride := d.VertexStride
	if stride <= 0 {
		stride = rt.DefaultVertexStride
	}

	desc := &rt.GeometryDesc{
		Vertices:     d.Vertices,
		VertexCount:  len(d.Vertices) / 3, // packed vec3 positions
		VertexStride: stride,
		VertexOffset: d.VertexOffset,
		Indices:      d.Indices,
	}
	h := s.backend.CreateGeometry(desc)
	if h == nil {
		return registry.Invalid, fmt.Errorf("createGeometry: %w", ErrBackend)
	}
	return s.geometries.Insert(h), nil
}

// CreateBLAS resolves every geometry identifier and builds a BLAS over
// them. The call is atomic: the first unresolvable identifier aborts it
// and nothing is registered.
func (s *Session) CreateBLAS(geometries []registry.ID) (registry.ID, error) {
	if err := s.gate("createBLAS"); err != nil {
		return registry.Invalid, err
	}
	if len(geometries) == 0 {
		return registry.Invalid, fmt.Errorf("createBLAS: empty geometry list: %w", ErrMalformed)
	}

	handles := make([]rt.Geometry, 0, len(geometries))
	for i, id := range geometries {
		h, ok := s.geometries.Lookup(id)
		if !ok {
			return registry.Invalid, fmt.Errorf("createBLAS: geometry %d: %w", i, ErrUnknownRef)
		}
		handles = append(handles, h)
	}

	h := s.backend.CreateBLAS(handles)
	if h == nil {
		return registry.Invalid, fmt.Errorf("createBLAS: %w", ErrBackend)
	}
	return s.blases.Insert(h), nil
}

// CreateTLAS resolves every instance's BLAS identifier and builds a TLAS.
// Atomic like CreateBLAS.
func (s *Session) CreateTLAS(instances []InstanceData) (registry.ID, error) {
	if err := s.gate("createTLAS"); err != nil {
		return registry.Invalid, err
	}
	if len(instances) == 0 {
		return registry.Invalid, fmt.Errorf("createTLAS: empty instance list: %w", ErrMalformed)
	}

	resolved, err := s.resolveInstances("createTLAS", instances)
	if err != nil {
		return registry.Invalid, err
	}
	h := s.backend.CreateTLAS(resolved)
	if h == nil {
		return registry.Invalid, fmt.Errorf("createTLAS: %w", ErrBackend)
	}
	return s.tlases.Insert(h), nil
}

// UpdateTLAS refreshes instance data in place. The instance count is not
// checked against the original build; a backend may reject a mismatch.
func (s *Session) UpdateTLAS(id registry.ID, instances []InstanceData) error {
	if err := s.gate("updateTLAS"); err != nil {
		return err
	}
	h, ok := s.tlases.Lookup(id)
	if !ok {
		return fmt.Errorf("updateTLAS: tlas: %w", ErrUnknownRef)
	}
	resolved, err := s.resolveInstances("updateTLAS", instances)
	if err != nil {
		return err
	}
	s.backend.UpdateTLAS(h, resolved)
	return nil
}

func (s *Session) resolveInstances(op string, instances []InstanceData) ([]rt.Instance, error) {
	resolved := make([]rt.Instance, 0, len(instances))
	for i, in := range instances {
		blas, ok := s.blases.Lookup(in.BLAS)
		if !ok {
			return nil, fmt.Errorf("%s: instance %d: blas: %w", op, i, ErrUnknownRef)
		}
		resolved = append(resolved, rt.Instance{
			BLAS:       blas,
			Transform:  in.Transform,
			InstanceID: in.InstanceID,
			Mask:       rt.DefaultMask,
			Flags:      0,
		})
	}
	return resolved, nil
}

// TraceRays dispatches ray generation against a TLAS identifier.
func (s *Session) TraceRays(d TraceData) error {
	if err := s.gate("traceRays"); err != nil {
		return err
	}
	h, ok := s.tlases.Lookup(d.TLAS)
	if !ok {
		return fmt.Errorf("traceRays: tlas: %w", ErrUnknownRef)
	}
	s.backend.TraceRays(&rt.TraceOptions{
		TLAS:     h,
		Width:    d.Width,
		Height:   d.Height,
		Output:   d.Output,
		Uniforms: d.Uniforms,
	})
	return nil
}

// DestroyGeometry releases one geometry. Unknown, stale, and repeated
// identifiers are safe no-ops.
func (s *Session) DestroyGeometry(id registry.ID) {
	if h, ok := s.geometries.Remove(id); ok {
		s.backend.DestroyGeometry(h)
	}
}

// DestroyBLAS releases one BLAS. Safe no-op on unknown identifiers.
func (s *Session) DestroyBLAS(id registry.ID) {
	if h, ok := s.blases.Remove(id); ok {
		s.backend.DestroyBLAS(h)
	}
}

// DestroyTLAS releases one TLAS. Safe no-op on unknown identifiers.
func (s *Session) DestroyTLAS(id registry.ID) {
	if h, ok := s.tlases.Remove(id); ok {
		s.backend.DestroyTLAS(h)
	}
}

// Close tears the session down: every TLAS, then every BLAS, then every
// Geometry is destroyed through the backend, the registries reset their
// identifier allocation, and the backend reference is dropped so the
// backend can be released. Closing twice is a no-op. A freshly
// constructed Session after Close is indistinguishable from first start.
func (s *Session) Close() {
	if s.closed {
		return
	}
	g, b, tl := s.Counts()

	s.tlases.Each(func(_ registry.ID, h rt.TLAS) { s.backend.DestroyTLAS(h) })
	s.tlases.Reset()
	s.blases.Each(func(_ registry.ID, h rt.BLAS) { s.backend.DestroyBLAS(h) })
	s.blases.Reset()
	s.geometries.Each(func(_ registry.ID, h rt.Geometry) { s.backend.DestroyGeometry(h) })
	s.geometries.Reset()

	s.closed = true
	s.backend = nil
	s.log.Info("ray tracing session closed", "geometries", g, "blases", b, "tlases", tl)
}
