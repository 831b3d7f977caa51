package world

import (
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/logic/mathx"
)

// GenConfig drives the procedural world. Everything is a pure function of
// the seed, so two generators with the same config agree voxel for voxel.
type GenConfig struct {
	Seed int64
	// SurfaceY is the first air layer; everything below is rock.
	SurfaceY int
	// DeepslateY is the top of the deepslate layer.
	DeepslateY int
	// OreScalePermille scales every ore cluster probability (1000 = as is).
	OreScalePermille int
}

func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{Seed: seed, SurfaceY: 64, DeepslateY: 0, OreScalePermille: 1000}
}

type ore struct {
	name     string
	salt     int64
	grid     int
	radius   int
	permille uint64
	minY     int
	maxY     int
}

// Precedence order: rare ores first.
var ores = []ore{
	{"diamond_ore", 101, 48, 1, 300, -64, 16},
	{"emerald_ore", 102, 64, 1, 150, 0, 64},
	{"gold_ore", 103, 40, 2, 350, -64, 32},
	{"lapis_ore", 104, 40, 2, 350, -64, 64},
	{"redstone_ore", 105, 32, 2, 400, -64, 16},
	{"iron_ore", 106, 24, 2, 500, -64, 64},
	{"copper_ore", 107, 24, 2, 450, -16, 64},
	{"coal_ore", 108, 16, 2, 650, 0, 64},
}

var (
	stone     = ids.MustVanilla("stone")
	deepslate = ids.MustVanilla("deepslate")
)

// Generator answers block lookups for a procedural world.
type Generator struct {
	cfg    GenConfig
	oreIDs map[string][2]ids.ID
}

func NewGenerator(cfg GenConfig) *Generator {
	g := &Generator{cfg: cfg, oreIDs: make(map[string][2]ids.ID, len(ores))}
	for _, o := range ores {
		g.oreIDs[o.name] = [2]ids.ID{ids.MustVanilla(o.name), ids.MustVanilla("deepslate_" + o.name)}
	}
	return g
}

func (g *Generator) Config() GenConfig { return g.cfg }

// BlockAt returns the generated block; false means air.
func (g *Generator) BlockAt(p geom.Vec3) (ids.ID, bool) {
	if p.Y >= g.cfg.SurfaceY {
		return ids.ID{}, false
	}
	deep := p.Y < g.cfg.DeepslateY
	for _, o := range ores {
		if p.Y < o.minY || p.Y >= o.maxY {
			continue
		}
		prob := scalePermille(o.permille, g.cfg.OreScalePermille)
		if !inCluster(g.cfg.Seed+o.salt, p, o.grid, o.radius, prob) {
			continue
		}
		if deep {
			return g.oreIDs[o.name][1], true
		}
		return g.oreIDs[o.name][0], true
	}
	if deep {
		return deepslate, true
	}
	return stone, true
}

func clampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

func scalePermille(base uint64, scale int) uint64 {
	if scale <= 0 {
		scale = 1000
	}
	scaled := (base*uint64(clampPermille(scale)) + 500) / 1000
	if scaled > 1000 {
		return 1000
	}
	return scaled
}

// inCluster reports whether p lies within radius of the cluster center
// seeded in its grid cell or one of the 26 cells around it. Each cell holds
// a center with probability prob/1000.
func inCluster(seed int64, p geom.Vec3, grid, radius int, prob uint64) bool {
	if grid <= 0 || radius <= 0 || prob == 0 {
		return false
	}
	cell := geom.V(mathx.FloorDiv(p.X, grid), mathx.FloorDiv(p.Y, grid), mathx.FloorDiv(p.Z, grid))
	r2 := radius * radius

	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				c := cell.Add(geom.V(dx, dy, dz))
				h := mathx.Hash3(seed, c.X, c.Y, c.Z)
				if h%1000 >= prob {
					continue
				}
				center := geom.V(
					c.X*grid+int((h>>10)%uint64(grid)),
					c.Y*grid+int((h>>20)%uint64(grid)),
					c.Z*grid+int((h>>30)%uint64(grid)),
				)
				if p.DistSq(center) <= r2 {
					return true
				}
			}
		}
	}
	return false
}
