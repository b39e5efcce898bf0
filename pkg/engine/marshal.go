package engine

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/prismrt/prism/pkg/meshgen"
	"github.com/prismrt/prism/pkg/registry"
	"github.com/prismrt/prism/pkg/rt"
	"github.com/prismrt/prism/pkg/session"
)

// ---------------------------------------------------------------------------
// Custom Sexp types: opaque references handed back to scripts
// ---------------------------------------------------------------------------

// sexpGeometry wraps a geometry identifier. The script only ever sees the
// identifier, never a backend handle.
type sexpGeometry struct {
	id registry.ID
}

func (g *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rt-geometry %d)", g.id)
}
func (g *sexpGeometry) Type() *zygo.RegisteredType { return nil }

// sexpBLAS wraps a BLAS identifier.
type sexpBLAS struct {
	id registry.ID
}

func (b *sexpBLAS) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rt-blas %d)", b.id)
}
func (b *sexpBLAS) Type() *zygo.RegisteredType { return nil }

// sexpTLAS wraps a TLAS identifier.
type sexpTLAS struct {
	id registry.ID
}

func (t *sexpTLAS) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rt-tlas %d)", t.id)
}
func (t *sexpTLAS) Type() *zygo.RegisteredType { return nil }

// sexpInstance carries one unresolved TLAS instance between rt-instance
// and rt-create-tlas / rt-update-tlas. The BLAS reference resolves at
// build time, not at construction.
type sexpInstance struct {
	data session.InstanceData
}

func (in *sexpInstance) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rt-instance :blas %d :instance-id %d)", in.data.BLAS, in.data.InstanceID)
}
func (in *sexpInstance) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps generated demo geometry buffers.
type sexpMesh struct {
	mesh *meshgen.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh :vertices %d :triangles %d)", m.mesh.VertexCount(), m.mesh.TriangleCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// Target is a host-managed RGBA output image implementing rt.ImageTarget.
type Target struct {
	img *image.RGBA
}

// Compile-time interface check.
var _ rt.ImageTarget = (*Target)(nil)

// NewTarget allocates a width x height output image.
func NewTarget(width, height int) *Target {
	return &Target{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the target dimensions in pixels.
func (t *Target) Size() (width, height int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// WritePNG encodes the target to a PNG file.
func (t *Target) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, t.img)
}

// sexpTarget wraps a Target for scripts.
type sexpTarget struct {
	target *Target
}

func (t *sexpTarget) SexpString(ps *zygo.PrintState) string {
	w, h := t.target.Size()
	return fmt.Sprintf("(rt-target %dx%d)", w, h)
}
func (t *sexpTarget) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks whether a Sexp is a preprocessed keyword string and returns
// the keyword name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a parsed mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword with no value: treat as a nil flag.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

// toFloat64 extracts a number from a Sexp.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T", s)
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T", s)
}

// toUint32 extracts a non-negative integer from a Sexp.
func toUint32(s zygo.Sexp) (uint32, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("expected non-negative number, got %g", f)
	}
	return uint32(f), nil
}

// sexpToSlice converts a Lisp list or array to a Go slice.
func sexpToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// floatBuffer extracts a typed numeric buffer. Absent or zero-length
// buffers are a failure, never a guess.
func floatBuffer(s zygo.Sexp) ([]float32, error) {
	if s == nil {
		return nil, fmt.Errorf("missing buffer")
	}
	items, err := sexpToSlice(s)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}
	out := make([]float32, len(items))
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// uintBuffer extracts an index buffer.
func uintBuffer(s zygo.Sexp) ([]uint32, error) {
	items, err := sexpToSlice(s)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}
	out := make([]uint32, len(items))
	for i, item := range items {
		u, err := toUint32(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = u
	}
	return out, nil
}

// transform16 reads a 4x4 transform buffer. Anything short of 16 elements
// (including absence or the wrong shape) yields the identity matrix; a
// malformed transform never fails the enclosing call.
func transform16(s zygo.Sexp) [16]float32 {
	if s == nil {
		return rt.Identity()
	}
	buf, err := floatBuffer(s)
	if err != nil || len(buf) < 16 {
		return rt.Identity()
	}
	var m [16]float32
	copy(m[:], buf[:16])
	return m
}

// uniformBytes packs a numeric buffer into the opaque little-endian
// float32 payload handed to the backend.
func uniformBytes(s zygo.Sexp) ([]byte, error) {
	buf, err := floatBuffer(s)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4*len(buf))
	for i, f := range buf {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out, nil
}
