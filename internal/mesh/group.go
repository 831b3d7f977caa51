package mesh

import (
	"sort"

	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/pixel"
)

// Group splits a snapshot into nuggets: maximal face-connected runs of
// echoes with the same id. Faces shared inside a nugget are culled on both
// voxels, and each voxel's edge bits are worked out so every visible seam
// is drawn exactly once.
//
// The snapshot is copied; the caller's states are left untouched. Nuggets
// come out in ascending order of their lowest position.
func Group(snapshot []echoes.State) []*Nugget {
	g := newGrouper(snapshot)
	var out []*Nugget
	for _, start := range g.order {
		if g.groupOf[start] >= 0 {
			continue
		}
		members := g.walk(start, len(out))
		g.markEdges(members, len(out))
		out = append(out, newNugget(g.arena, members))
	}
	return out
}

type grouper struct {
	arena   []echoes.State
	index   map[geom.Vec3]int
	groupOf []int
	order   []int
}

func newGrouper(snapshot []echoes.State) *grouper {
	g := &grouper{
		arena: make([]echoes.State, 0, len(snapshot)),
		index: make(map[geom.Vec3]int, len(snapshot)),
	}
	for _, st := range snapshot {
		if _, dup := g.index[st.Pos]; dup {
			continue
		}
		st.Sides = pixel.AllSides
		st.Edges = 0
		g.index[st.Pos] = len(g.arena)
		g.arena = append(g.arena, st)
	}
	g.groupOf = make([]int, len(g.arena))
	g.order = make([]int, len(g.arena))
	for i := range g.arena {
		g.groupOf[i] = -1
		g.order[i] = i
	}
	sort.Slice(g.order, func(a, b int) bool {
		return g.arena[g.order[a]].Pos.Less(g.arena[g.order[b]].Pos)
	})
	return g
}

// walk floods out from start, clearing every face shared with a matching
// neighbor on both sides of the seam. A neighbor is queued once per shared
// face; revisits only look at faces still set, so the walk terminates.
func (g *grouper) walk(start, group int) []int {
	var members []int
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if g.groupOf[cur] < 0 {
			g.groupOf[cur] = group
			members = append(members, cur)
		}

		for _, n := range pixel.Neighbors {
			if g.arena[cur].Sides&n.Mine == 0 {
				continue
			}
			other, ok := g.index[g.arena[cur].Pos.Add(n.Dir)]
			if !ok || g.arena[other].Echo.ID != g.arena[cur].Echo.ID {
				continue
			}
			g.arena[cur].Sides &^= n.Mine
			g.arena[other].Sides &^= n.Theirs
			queue = append(queue, other)
		}
	}
	return members
}

// markEdges runs once the sides of the whole group are final. Members are
// visited in ascending position order; on a seam where only one of an
// edge's faces survives, the voxel visited first claims the edge and its
// diagonal partner skips the coincident one.
func (g *grouper) markEdges(members []int, group int) {
	sort.Slice(members, func(a, b int) bool {
		return g.arena[members[a]].Pos.Less(g.arena[members[b]].Pos)
	})
	for _, idx := range members {
		st := &g.arena[idx]
		st.Edges = 0
		for e, edge := range pixel.Edges {
			mask := st.Sides & edge.Sides
			switch {
			case mask == edge.Sides:
				st.Edges |= 1 << e
			case mask == 0:
			default:
				other, ok := g.index[st.Pos.Add(edge.Movement())]
				if !ok || g.groupOf[other] != group {
					continue
				}
				if g.arena[other].Edges&(1<<edge.Opposite) == 0 {
					st.Edges |= 1 << e
				}
			}
		}
	}
}
