package geom

import "voxelscan.ai/internal/logic/mathx"

// Line enumerates the voxels between two points (both inclusive). The axis
// with the largest absolute delta drives the walk one voxel per step; the
// two remaining axes are interpolated against it and rounded half-up.
//
// Driving axis priority: X only when its delta is strictly greater than both
// Y and Z, then Y when strictly greater than Z, else Z.
type Line struct {
	From, To Vec3
}

func NewLine(from, to Vec3) Line { return Line{From: from, To: to} }

// LineFromCamera builds the line from operator along the camera direction.
func LineFromCamera(operator Vec3, pitch, yaw float32, distance int) Line {
	tgt := Direction(pitch, yaw).Mul(float64(distance)).Rounded()
	return NewLine(operator, operator.Add(tgt))
}

type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

func (a axis) of(v Vec3) int {
	switch a {
	case axisX:
		return v.X
	case axisY:
		return v.Y
	}
	return v.Z
}

func (l Line) driver() axis {
	dx := mathx.AbsInt(l.To.X - l.From.X)
	dy := mathx.AbsInt(l.To.Y - l.From.Y)
	dz := mathx.AbsInt(l.To.Z - l.From.Z)
	if dx > dy && dx > dz {
		return axisX
	}
	if dy > dz {
		return axisY
	}
	return axisZ
}

// Len is the number of voxels the line visits.
func (l Line) Len() int {
	d := l.driver()
	return mathx.AbsInt(d.of(l.To)-d.of(l.From)) + 1
}

// Each calls fn for every voxel from From to To, stopping early when fn
// returns false. Every call walks the line afresh.
func (l Line) Each(fn func(Vec3) bool) {
	drv := l.driver()
	start := drv.of(l.From)
	stop := drv.of(l.To)
	step := 1
	if stop < start {
		step = -1
	}
	span := float64(stop - start)

	lerp := func(a axis, dom int) int {
		c0 := float64(a.of(l.From))
		c1 := float64(a.of(l.To))
		slope := 1.0
		if span != 0 {
			slope = (c1 - c0) / span
		}
		return mathx.RoundHalfUp(float64(dom-start)*slope + c0)
	}

	for dom := start; ; dom += step {
		var p Vec3
		switch drv {
		case axisX:
			p = Vec3{dom, lerp(axisY, dom), lerp(axisZ, dom)}
		case axisY:
			p = Vec3{lerp(axisX, dom), dom, lerp(axisZ, dom)}
		default:
			p = Vec3{lerp(axisX, dom), lerp(axisY, dom), dom}
		}
		if !fn(p) {
			return
		}
		if dom == stop {
			return
		}
	}
}

func (l Line) Points() []Vec3 {
	out := make([]Vec3, 0, l.Len())
	l.Each(func(p Vec3) bool {
		out = append(out, p)
		return true
	})
	return out
}
