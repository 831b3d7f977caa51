package mesh

import (
	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/pixel"
)

// Sink receives geometry in camera-relative coordinates, in the order it
// must be blended.
type Sink interface {
	Triangle(a, b, c geom.Vec3f, argb uint32)
	Line(a, b geom.Vec3f, argb uint32)
	// Marker closes a batch, one per nugget drawn or sketched.
	Marker()
}

// Draw emits the visible faces of every member, farthest voxel first.
func (n *Nugget) Draw(sink Sink, camera geom.Vec3f) {
	drawStates(sink, n.furthestToClosest(camera), camera)
	sink.Marker()
}

// Sketch emits the visible edges of every member, farthest voxel first.
func (n *Nugget) Sketch(sink Sink, camera geom.Vec3f) {
	sketchStates(sink, n.furthestToClosest(camera), camera)
	sink.Marker()
}

// Render draws a frame: nuggets sorted back to front, all faces first, then
// all edges on top.
func Render(sink Sink, nuggets []*Nugget, camera geom.Vec3f) {
	sorted := SortForCamera(nuggets, camera)
	for _, n := range sorted {
		n.Draw(sink, camera)
	}
	for _, n := range sorted {
		n.Sketch(sink, camera)
	}
}

// RenderViews is Render for frustum-filtered views.
func RenderViews(sink Sink, views []View, camera geom.Vec3f) {
	byNugget := make(map[*Nugget]View, len(views))
	nuggets := make([]*Nugget, 0, len(views))
	for _, v := range views {
		byNugget[v.Nugget] = v
		nuggets = append(nuggets, v.Nugget)
	}
	sorted := SortForCamera(nuggets, camera)
	for _, n := range sorted {
		drawStates(sink, byNugget[n].furthestToClosest(camera), camera)
		sink.Marker()
	}
	for _, n := range sorted {
		sketchStates(sink, byNugget[n].furthestToClosest(camera), camera)
		sink.Marker()
	}
}

func (v View) furthestToClosest(camera geom.Vec3f) []echoes.State {
	sub := &Nugget{states: v.States}
	return sub.furthestToClosest(camera)
}

func drawStates(sink Sink, states []echoes.State, camera geom.Vec3f) {
	for _, st := range states {
		if st.Alpha == 0 {
			continue
		}
		argb := colors.ARGB(st.Echo.Color, st.Alpha)
		origin := st.Pos.Float().Sub(camera)
		for side, tri := range pixel.Triangles {
			if st.Sides&(1<<side) == 0 {
				continue
			}
			for i := 0; i < len(tri); i += 3 {
				sink.Triangle(
					origin.Add(tri[i].Float()),
					origin.Add(tri[i+1].Float()),
					origin.Add(tri[i+2].Float()),
					argb,
				)
			}
		}
	}
}

func sketchStates(sink Sink, states []echoes.State, camera geom.Vec3f) {
	for _, st := range states {
		argb := colors.ARGB(st.Echo.Color, colors.Opaque)
		origin := st.Pos.Float().Sub(camera)
		for i, e := range pixel.Edges {
			if st.Edges&(1<<i) == 0 {
				continue
			}
			sink.Line(origin.Add(e.Start.Float()), origin.Add(e.End.Float()), argb)
		}
	}
}

// Tape records what a Sink was given. Batches are split on Marker.
type Tape struct {
	Batches []Batch
	cur     Batch
}

type Batch struct {
	Triangles []Triangle
	Lines     []Segment
}

type Triangle struct {
	A, B, C geom.Vec3f
	ARGB    uint32
}

type Segment struct {
	A, B geom.Vec3f
	ARGB uint32
}

func (t *Tape) Triangle(a, b, c geom.Vec3f, argb uint32) {
	t.cur.Triangles = append(t.cur.Triangles, Triangle{a, b, c, argb})
}

func (t *Tape) Line(a, b geom.Vec3f, argb uint32) {
	t.cur.Lines = append(t.cur.Lines, Segment{a, b, argb})
}

func (t *Tape) Marker() {
	t.Batches = append(t.Batches, t.cur)
	t.cur = Batch{}
}

func (t *Tape) Reset() {
	t.Batches = nil
	t.cur = Batch{}
}
