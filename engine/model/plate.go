package model

import "github.com/go-gl/mathgl/mgl32"

// DefaultPlateSize is the edge length of the built-in Dokaben plate along x, y and z.
// The plate faces +z and flips around its x axis.
var DefaultPlateSize = mgl32.Vec3{1, 1, 0.1}

// plateFaces lists each box face as (normal, u, v) with u x v = normal, so the two
// triangles of a face wind counter-clockwise seen from outside.
var plateFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
}

// PlateGeometry builds a box centered on the origin with four vertices and two triangles per face.
//
// Parameters:
//   - size: full edge lengths along x, y and z
//
// Returns:
//   - []GPUVertex: 24 vertices
//   - []uint32: 36 triangle list indices
func PlateGeometry(size mgl32.Vec3) ([]GPUVertex, []uint32) {
	half := size.Mul(0.5)
	scale := func(axis mgl32.Vec3) mgl32.Vec3 {
		return mgl32.Vec3{axis[0] * half[0], axis[1] * half[1], axis[2] * half[2]}
	}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, face := range plateFaces {
		n := face[0]
		center, u, v := scale(n), scale(face[1]), scale(face[2])
		base := uint32(len(vertices))

		corners := [4]struct {
			pos mgl32.Vec3
			uv  [2]float32
		}{
			{center.Sub(u).Sub(v), [2]float32{0, 0}},
			{center.Add(u).Sub(v), [2]float32{1, 0}},
			{center.Add(u).Add(v), [2]float32{1, 1}},
			{center.Sub(u).Add(v), [2]float32{0, 1}},
		}
		for _, c := range corners {
			vertices = append(vertices, GPUVertex{Position: c.pos, Normal: n, TexCoord: c.uv})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// NewDokabenPlate builds the thin tile mesh drawn for every Dokaben instance.
//
// Parameters:
//   - options: applied after the geometry, so they may override name or bounding radius
//
// Returns:
//   - Model: a model with 24 vertices and 36 indices
func NewDokabenPlate(options ...ModelBuilderOption) Model {
	vertices, indices := PlateGeometry(DefaultPlateSize)
	opts := append([]ModelBuilderOption{
		WithName("dokaben_plate"),
		WithVertices(vertices),
		WithIndices(indices),
	}, options...)
	return NewModel(opts...)
}
