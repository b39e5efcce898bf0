// Package meshgen produces triangle meshes as the flat vertex/index
// buffers the ray tracing surface consumes. Solids are modeled as SDFs
// with github.com/deadsy/sdfx and tessellated with marching cubes; scripts
// use these as ready-made geometry sources.
package meshgen

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// meshCells controls marching cubes tessellation resolution.
const meshCells = 64

// Mesh is a triangle mesh in the layout createGeometry expects:
// packed x,y,z positions, 3 indices per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Box tessellates an axis-aligned box with the given dimensions,
// centered at the origin.
func Box(x, y, z float64) (*Mesh, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("box dimensions must be positive, got %g x %g x %g", x, y, z)
	}
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("box: %w", err)
	}
	return toMesh(s), nil
}

// Cylinder tessellates a cylinder with the given height and radius,
// centered at the origin with its axis along Z.
func Cylinder(height, radius float64) (*Mesh, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("cylinder dimensions must be positive, got h=%g r=%g", height, radius)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return toMesh(s), nil
}

// toMesh runs marching cubes and flattens the triangle soup. Vertices are
// not deduplicated; index i of triangle t is t*3+i.
func toMesh(s sdf.SDF3) *Mesh {
	renderer := render.NewMarchingCubesUniform(meshCells)
	triangles := render.ToTriangles(s, renderer)

	m := &Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m
}
