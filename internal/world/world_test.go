package world

import (
	"testing"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(DefaultGenConfig(1337))
	b := NewGenerator(DefaultGenConfig(1337))
	for y := -8; y < 8; y++ {
		for z := -8; z < 8; z++ {
			for x := -8; x < 8; x++ {
				p := geom.V(x, y, z)
				ia, oka := a.BlockAt(p)
				ib, okb := b.BlockAt(p)
				if ia != ib || oka != okb {
					t.Fatalf("%v: %v vs %v", p, ia, ib)
				}
			}
		}
	}
}

func TestGeneratorLayers(t *testing.T) {
	cfg := DefaultGenConfig(7)
	cfg.OreScalePermille = 1
	g := NewGenerator(cfg)
	if _, ok := g.BlockAt(geom.V(0, cfg.SurfaceY, 0)); ok {
		t.Fatalf("surface layer should be air")
	}

	deep := 0
	for x := 0; x < 64; x++ {
		id, ok := g.BlockAt(geom.V(x, -10, 0))
		if !ok {
			t.Fatalf("underground air at x=%d", x)
		}
		if id == deepslate {
			deep++
		}
	}
	if deep == 0 {
		t.Fatalf("no deepslate below the deepslate line")
	}

	// At default odds coal turns up in a small volume.
	cfg.OreScalePermille = 1000
	g = NewGenerator(cfg)
	found := map[ids.ID]bool{}
	for y := 1; y < 60; y += 3 {
		for z := 0; z < 48; z++ {
			for x := 0; x < 48; x++ {
				if id, _ := g.BlockAt(geom.V(x, y, z)); id != stone {
					found[id] = true
				}
			}
		}
	}
	if !found[ids.MustVanilla("coal_ore")] {
		t.Fatalf("no coal generated, found %v", found)
	}
}

func TestMemEditsWin(t *testing.T) {
	w := NewMem(NewGenerator(DefaultGenConfig(1)))
	p := geom.V(3, 10, 3)
	if _, ok := w.Lookup(p); !ok {
		t.Fatalf("generated rock expected at %v", p)
	}
	w.Clear(p)
	if _, ok := w.Lookup(p); ok {
		t.Fatalf("cleared voxel is not air")
	}
	gold := ids.MustVanilla("gold_ore")
	w.Set(p, gold)
	if id, ok := w.Lookup(p); !ok || id != gold {
		t.Fatalf("lookup=%v", id)
	}

	empty := NewMem(nil)
	if _, ok := empty.Lookup(p); ok {
		t.Fatalf("world without generator should be air")
	}
}

func TestFixture(t *testing.T) {
	f, err := LoadFixture("testdata/seam.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, o, err := f.Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if w.Edits() != 3+1+6 {
		t.Fatalf("edits=%d", w.Edits())
	}
	if id, ok := o.Lookup(geom.V(1, 0, 6)); !ok || id != ids.MustVanilla("coal_ore") {
		t.Fatalf("coal missing: %v", id)
	}
	if id, _ := o.Lookup(geom.V(0, -1, 10)); id != ids.MustVanilla("deepslate_coal_ore") {
		t.Fatalf("box fill missing: %v", id)
	}
	if _, ok := o.Lookup(geom.V(5, 5, 5)); ok {
		t.Fatalf("fixture without seed should float in air")
	}

	var heard []int
	o.OnNotify = func(d int, _ ids.ID) { heard = append(heard, d) }
	o.Notify(4, ids.MustVanilla("coal_ore"))
	if len(heard) != 1 || heard[0] != 4 {
		t.Fatalf("notify hook: %v", heard)
	}
}
