package geom

import (
	"fmt"
	"math"

	"voxelscan.ai/internal/logic/mathx"
)

// Vec3 is an integer voxel position.
type Vec3 struct {
	X, Y, Z int
}

var Zero = Vec3{}

func V(x, y, z int) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3  { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3  { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k int) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

func (v Vec3) DistSq(o Vec3) int {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// Dist is the straight-line distance rounded half-up.
func (v Vec3) Dist(o Vec3) int {
	return mathx.RoundHalfUp(math.Sqrt(float64(v.DistSq(o))))
}

// Compare orders by Y, then Z, then X.
func (v Vec3) Compare(o Vec3) int {
	if v.Y != o.Y {
		return cmpInt(v.Y, o.Y)
	}
	if v.Z != o.Z {
		return cmpInt(v.Z, o.Z)
	}
	return cmpInt(v.X, o.X)
}

func (v Vec3) Less(o Vec3) bool { return v.Compare(o) < 0 }

func (v Vec3) Float() Vec3f { return Vec3f{float64(v.X), float64(v.Y), float64(v.Z)} }

func (v Vec3) String() string { return fmt.Sprintf("%d, %d, %d", v.X, v.Y, v.Z) }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Vec3f is a world-space point (camera positions, voxel centers).
type Vec3f struct {
	X, Y, Z float64
}

func (v Vec3f) Add(o Vec3f) Vec3f   { return Vec3f{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3f) Sub(o Vec3f) Vec3f   { return Vec3f{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3f) Mul(k float64) Vec3f { return Vec3f{v.X * k, v.Y * k, v.Z * k} }

func (v Vec3f) DistSq(o Vec3f) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Rounded converts back to voxel space using half-up rounding on every axis.
func (v Vec3f) Rounded() Vec3 {
	return Vec3{mathx.RoundHalfUp(v.X), mathx.RoundHalfUp(v.Y), mathx.RoundHalfUp(v.Z)}
}
