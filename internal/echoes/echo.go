package echoes

import (
	"fmt"

	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/pixel"
)

// Echo is what a ping bounced off of, independent of where and when.
type Echo struct {
	ID    ids.ID
	Color colors.Proxy
}

func (e Echo) Compare(o Echo) int {
	if c := e.ID.Compare(o.ID); c != 0 {
		return c
	}
	if e.Color == nil || o.Color == nil {
		switch {
		case e.Color == nil && o.Color == nil:
			return 0
		case e.Color == nil:
			return -1
		}
		return 1
	}
	return colors.Compare(e.Color, o.Color)
}

// RGB24 resolves the echo color, falling back to the vanilla tint.
func (e Echo) RGB24() uint32 {
	if e.Color == nil {
		return colors.Vanilla
	}
	return e.Color.RGB24()
}

func (e Echo) Equal(o Echo) bool {
	return e.ID == o.ID && colors.Equal(e.Color, o.Color)
}

func (e Echo) String() string {
	if e.Color == nil {
		return e.ID.String()
	}
	return fmt.Sprintf("%s#%06X", e.ID, e.Color.RGB24())
}

// State is one recorded echo plus the per-voxel mesh bits.
type State struct {
	Pos      geom.Vec3
	Echo     Echo
	PingTime int64
	Sides    uint8
	Edges    uint16
	Alpha    uint32
}

func NewState(pos geom.Vec3, echo Echo, pingTime int64) State {
	return State{
		Pos:      pos,
		Echo:     echo,
		PingTime: pingTime,
		Sides:    pixel.AllSides,
		Alpha:    colors.EchoAlpha,
	}
}

func (s State) ID() ids.ID { return s.Echo.ID }

// Compare is the store order: ping time, then echo, then position.
func (s State) Compare(o State) int {
	switch {
	case s.PingTime < o.PingTime:
		return -1
	case s.PingTime > o.PingTime:
		return 1
	}
	if c := s.Echo.Compare(o.Echo); c != 0 {
		return c
	}
	return s.Pos.Compare(o.Pos)
}

// Bounds is the unit box the voxel occupies.
func (s State) Bounds() AABB {
	lo := s.Pos.Float()
	return AABB{Min: lo, Max: lo.Add(geom.Vec3f{X: 1, Y: 1, Z: 1})}
}

// Center is the middle of the voxel in world space.
func (s State) Center() geom.Vec3f {
	return s.Pos.Float().Add(geom.Vec3f{X: .5, Y: .5, Z: .5})
}

type AABB struct {
	Min, Max geom.Vec3f
}

func (b AABB) Expand(o AABB) AABB {
	return AABB{
		Min: geom.Vec3f{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)},
		Max: geom.Vec3f{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y), Z: max(b.Max.Z, o.Max.Z)},
	}
}

// ClosestDistSq is the squared distance from p to the nearest point of the box.
func (b AABB) ClosestDistSq(p geom.Vec3f) float64 {
	c := geom.Vec3f{
		X: clampF(p.X, b.Min.X, b.Max.X),
		Y: clampF(p.Y, b.Min.Y, b.Max.Y),
		Z: clampF(p.Z, b.Min.Z, b.Max.Z),
	}
	return c.DistSq(p)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
