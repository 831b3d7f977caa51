package viewer

import (
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/viewerproto"
)

// FrameSink collects one frame of mesh output in wire form. Empty batches
// are dropped.
type FrameSink struct {
	camera  geom.Vec3f
	batches []viewerproto.Batch
	cur     viewerproto.Batch
}

func NewFrameSink(camera geom.Vec3f) *FrameSink {
	return &FrameSink{camera: camera}
}

func (f *FrameSink) Triangle(a, b, c geom.Vec3f, argb uint32) {
	f.cur.Triangles = append(f.cur.Triangles, viewerproto.Triangle{
		V: [9]float32{
			float32(a.X), float32(a.Y), float32(a.Z),
			float32(b.X), float32(b.Y), float32(b.Z),
			float32(c.X), float32(c.Y), float32(c.Z),
		},
		ARGB: argb,
	})
}

func (f *FrameSink) Line(a, b geom.Vec3f, argb uint32) {
	f.cur.Lines = append(f.cur.Lines, viewerproto.Line{
		V:    [6]float32{float32(a.X), float32(a.Y), float32(a.Z), float32(b.X), float32(b.Y), float32(b.Z)},
		ARGB: argb,
	})
}

func (f *FrameSink) Marker() {
	switch {
	case len(f.cur.Triangles) > 0:
		f.cur.Kind = viewerproto.BatchFaces
	case len(f.cur.Lines) > 0:
		f.cur.Kind = viewerproto.BatchEdges
	default:
		return
	}
	f.batches = append(f.batches, f.cur)
	f.cur = viewerproto.Batch{}
}

func (f *FrameSink) Batches() []viewerproto.Batch { return f.batches }

func (f *FrameSink) frame(seq uint64, edges bool) viewerproto.FrameMsg {
	msg := viewerproto.FrameMsg{
		Type:            viewerproto.TypeFrame,
		ProtocolVersion: viewerproto.Version,
		Seq:             seq,
		Camera:          [3]float64{f.camera.X, f.camera.Y, f.camera.Z},
		Batches:         make([]viewerproto.Batch, 0, len(f.batches)),
	}
	for _, b := range f.batches {
		if b.Kind == viewerproto.BatchEdges && !edges {
			continue
		}
		msg.Batches = append(msg.Batches, b)
	}
	return msg
}
