// Package pixel describes the unit cube every echo is drawn as: its six
// faces, their triangles, and its twelve edges.
package pixel

import "voxelscan.ai/internal/geom"

// Vertex is a cube corner in local coordinates (each axis 0 or 1).
type Vertex = geom.Vec3

var (
	V000 = geom.V(0, 0, 0)
	V001 = geom.V(0, 0, 1)
	V010 = geom.V(0, 1, 0)
	V011 = geom.V(0, 1, 1)
	V100 = geom.V(1, 0, 0)
	V101 = geom.V(1, 0, 1)
	V110 = geom.V(1, 1, 0)
	V111 = geom.V(1, 1, 1)
)

const (
	SideZ0 uint8 = 1 << iota
	SideY0
	SideZ1
	SideY1
	SideX0
	SideX1

	AllSides = SideX0 | SideX1 | SideY0 | SideY1 | SideZ0 | SideZ1
)

var SideNames = [6]string{"Z0", "Y0", "Z1", "Y1", "X0", "X1"}

// Triangles holds two triangles per side, indexed by side bit position.
var Triangles = [6][6]Vertex{
	{V000, V010, V100, V100, V010, V110},
	{V001, V000, V101, V101, V000, V100},
	{V011, V001, V111, V111, V001, V101},
	{V010, V011, V110, V110, V011, V111},
	{V001, V011, V000, V000, V011, V010},
	{V100, V110, V101, V101, V110, V111},
}

// Neighbor pairs a side with the direction to the voxel touching it and the
// side of that voxel which touches back.
type Neighbor struct {
	Dir    geom.Vec3
	Mine   uint8
	Theirs uint8
}

var Neighbors = [6]Neighbor{
	{geom.V(-1, 0, 0), SideX0, SideX1},
	{geom.V(1, 0, 0), SideX1, SideX0},
	{geom.V(0, -1, 0), SideY0, SideY1},
	{geom.V(0, 1, 0), SideY1, SideY0},
	{geom.V(0, 0, -1), SideZ0, SideZ1},
	{geom.V(0, 0, 1), SideZ1, SideZ0},
}

// Edge is one of the twelve cube edges. Sides are the two faces meeting at
// it. Opposite is the index of the coincident edge on the voxel diagonally
// across it, reached by moving Start - Edges[Opposite].Start.
type Edge struct {
	Start, End Vertex
	Sides      uint8
	Opposite   int
}

const (
	EdgeFrontBottom uint16 = 1 << iota
	EdgeBackBottom
	EdgeBackTop
	EdgeFrontTop

	EdgeFrontLeft
	EdgeBackLeft
	EdgeBackRight
	EdgeFrontRight

	EdgeLeftBottom
	EdgeLeftTop
	EdgeRightTop
	EdgeRightBottom

	AllEdges uint16 = 1<<12 - 1
)

var Edges = [12]Edge{
	{V000, V100, SideZ0 | SideY0, 2},
	{V001, V101, SideY0 | SideZ1, 3},
	{V011, V111, SideZ1 | SideY1, 0},
	{V010, V110, SideZ0 | SideY1, 1},

	{V000, V010, SideZ0 | SideX0, 6},
	{V001, V011, SideZ1 | SideX0, 7},
	{V101, V111, SideZ1 | SideX1, 4},
	{V100, V110, SideZ0 | SideX1, 5},

	{V000, V001, SideY0 | SideX0, 10},
	{V010, V011, SideY1 | SideX0, 11},
	{V110, V111, SideY1 | SideX1, 8},
	{V100, V101, SideY0 | SideX1, 9},
}

var EdgeNames = [12]string{
	"FRONT_BOTTOM", "BACK_BOTTOM", "BACK_TOP", "FRONT_TOP",
	"FRONT_LEFT", "BACK_LEFT", "BACK_RIGHT", "FRONT_RIGHT",
	"LEFT_BOTTOM", "LEFT_TOP", "RIGHT_TOP", "RIGHT_BOTTOM",
}

// Movement is the offset from a voxel to the one owning the opposite edge.
func (e Edge) Movement() geom.Vec3 {
	return e.Start.Sub(Edges[e.Opposite].Start)
}

// EdgesOf collects the edges lying on any of the given sides.
func EdgesOf(sides uint8) uint16 {
	var out uint16
	for i, e := range Edges {
		if e.Sides&sides != 0 {
			out |= 1 << i
		}
	}
	return out
}

func CountSides(s uint8) int {
	n := 0
	for ; s != 0; s &= s - 1 {
		n++
	}
	return n
}

func CountEdges(e uint16) int {
	n := 0
	for ; e != 0; e &= e - 1 {
		n++
	}
	return n
}
