package geom

import (
	"math"
	"sort"

	"voxelscan.ai/internal/logic/mathx"
)

// Cone approximates a solid cone of sight as a fan of lines from the
// operator to every voxel of a disc centered on operator+offset.
type Cone struct {
	Operator Vec3
	Offset   Vec3
	Radius   int
}

func NewCone(operator, offset Vec3, radius int) Cone {
	return Cone{Operator: operator, Offset: offset, Radius: radius}
}

// ConeFromCamera points the cone along the camera (pitch/yaw in degrees),
// reaching distance voxels away.
func ConeFromCamera(operator Vec3, pitch, yaw float32, distance, radius int) Cone {
	center := LineFromCamera(operator, pitch, yaw, distance)
	return NewCone(operator, center.To.Sub(operator), radius)
}

// Lines returns one line per disc voxel, in disc order.
func (c Cone) Lines() []Line {
	plate := NewCircle(c.Radius).AlongCamera(c.Offset)
	tgt := c.Operator.Add(c.Offset)
	out := make([]Line, 0, len(plate))
	for _, pt := range plate {
		out = append(out, NewLine(c.Operator, tgt.Add(pt)))
	}
	return out
}

// SlicePrecision is the number of distance buckets per voxel used by Slicer.
const SlicePrecision = 4

// Slice is a group of cone voxels sharing one bucketed distance.
type Slice struct {
	// Distance in 1/SlicePrecision voxel units.
	Distance int
	Items    []Vec3
}

// Meters is the slice distance rounded to whole voxels.
func (s Slice) Meters() int {
	return mathx.RoundHalfUp(float64(s.Distance) / SlicePrecision)
}

type rangedPos struct {
	dist int
	pos  Vec3
}

// Slicer walks the cone outward from the operator, one distance bucket at a
// time. Every voxel of the cone is reported once.
type Slicer struct {
	items []rangedPos
	start int
}

func (c Cone) Sliced() *Slicer {
	seen := make(map[Vec3]struct{})
	var items []rangedPos
	for _, line := range c.Lines() {
		line.Each(func(p Vec3) bool {
			if _, ok := seen[p]; ok {
				return true
			}
			seen[p] = struct{}{}
			d := mathx.RoundHalfUp(math.Sqrt(float64(c.Operator.DistSq(p))) * SlicePrecision)
			items = append(items, rangedPos{dist: d, pos: p})
			return true
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].dist < items[j].dist })
	return &Slicer{items: items}
}

func (s *Slicer) HasNext() bool { return s.start < len(s.items) }

func (s *Slicer) Next() Slice {
	if !s.HasNext() {
		return Slice{}
	}
	dist := s.items[s.start].dist
	end := s.start
	for end < len(s.items) && s.items[end].dist == dist {
		end++
	}
	out := Slice{Distance: dist, Items: make([]Vec3, 0, end-s.start)}
	for _, it := range s.items[s.start:end] {
		out.Items = append(out.Items, it.pos)
	}
	s.start = end
	return out
}

// Remaining is the number of voxels not yet handed out.
func (s *Slicer) Remaining() int { return len(s.items) - s.start }
