package mesh

import (
	"sort"

	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
)

// Nugget is one connected patch of same-id echoes with its mesh bits
// settled. It is immutable once built.
type Nugget struct {
	ID     ids.ID
	states []echoes.State
	bounds echoes.AABB
}

func newNugget(arena []echoes.State, members []int) *Nugget {
	n := &Nugget{states: make([]echoes.State, len(members))}
	for i, idx := range members {
		n.states[i] = arena[idx]
	}
	n.ID = n.states[0].Echo.ID
	n.bounds = n.states[0].Bounds()
	for _, st := range n.states[1:] {
		n.bounds = n.bounds.Expand(st.Bounds())
	}
	return n
}

// States returns a copy of the members in ascending position order.
func (n *Nugget) States() []echoes.State {
	out := make([]echoes.State, len(n.states))
	copy(out, n.states)
	return out
}

func (n *Nugget) Len() int            { return len(n.states) }
func (n *Nugget) Bounds() echoes.AABB { return n.bounds }

// Get finds the member at pos.
func (n *Nugget) Get(pos geom.Vec3) (echoes.State, bool) {
	i := sort.Search(len(n.states), func(i int) bool { return !n.states[i].Pos.Less(pos) })
	if i < len(n.states) && n.states[i].Pos == pos {
		return n.states[i], true
	}
	return echoes.State{}, false
}

// furthestToClosest orders members for blending: farthest voxel center
// first, ties in ascending position.
func (n *Nugget) furthestToClosest(camera geom.Vec3f) []echoes.State {
	out := n.States()
	sort.SliceStable(out, func(a, b int) bool {
		da := out[a].Center().DistSq(camera)
		db := out[b].Center().DistSq(camera)
		return da > db
	})
	return out
}

// SortForCamera orders nuggets back to front by the distance from camera to
// the nearest point of each bounding box. The input is not modified.
func SortForCamera(nuggets []*Nugget, camera geom.Vec3f) []*Nugget {
	out := make([]*Nugget, len(nuggets))
	copy(out, nuggets)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].bounds.ClosestDistSq(camera) > out[b].bounds.ClosestDistSq(camera)
	})
	return out
}

// Frustum decides whether a box can be seen this frame.
type Frustum interface {
	Contains(box echoes.AABB) bool
}

// FrustumFunc adapts a plain function to Frustum.
type FrustumFunc func(box echoes.AABB) bool

func (f FrustumFunc) Contains(box echoes.AABB) bool { return f(box) }

// View is the part of a nugget that survived frustum culling.
type View struct {
	Nugget *Nugget
	States []echoes.State
}

// FilterVisible keeps the nuggets whose box is in the frustum and, within
// each, the voxels whose own box is. A nil frustum keeps everything.
func FilterVisible(nuggets []*Nugget, f Frustum) []View {
	var out []View
	for _, n := range nuggets {
		if f != nil && !f.Contains(n.bounds) {
			continue
		}
		v := View{Nugget: n}
		for _, st := range n.states {
			if f == nil || f.Contains(st.Bounds()) {
				v.States = append(v.States, st)
			}
		}
		if len(v.States) > 0 {
			out = append(out, v)
		}
	}
	return out
}
