// Package world is a voxel world the sonar can scan without a game client:
// a procedural generator with hand-placed edits layered on top.
package world

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
)

// Mem is a world held in memory. Edits win over the generator; with no
// generator, unedited voxels are air. Safe for concurrent use.
type Mem struct {
	mu    sync.RWMutex
	gen   *Generator
	edits map[geom.Vec3]ids.ID
}

func NewMem(gen *Generator) *Mem {
	return &Mem{gen: gen, edits: make(map[geom.Vec3]ids.ID)}
}

// Lookup reports the block at p; false means air.
func (w *Mem) Lookup(p geom.Vec3) (ids.ID, bool) {
	w.mu.RLock()
	id, edited := w.edits[p]
	w.mu.RUnlock()
	if edited {
		return id, !id.IsZero()
	}
	if w.gen == nil {
		return ids.ID{}, false
	}
	return w.gen.BlockAt(p)
}

func (w *Mem) Set(p geom.Vec3, id ids.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.edits[p] = id
}

// Clear turns p into air.
func (w *Mem) Clear(p geom.Vec3) { w.Set(p, ids.ID{}) }

func (w *Mem) Edits() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.edits)
}

// Observer stands in a world and looks somewhere. It satisfies the sonar
// client contract.
type Observer struct {
	World interface {
		Lookup(geom.Vec3) (ids.ID, bool)
	}
	Pos        geom.Vec3
	Pitch, Yaw float32

	// OnNotify, when set, sees every match the sonar reports.
	OnNotify func(distance int, id ids.ID)
	logger   *log.Logger
}

func NewObserver(w *Mem, pos geom.Vec3, pitch, yaw float32, logger *log.Logger) *Observer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Observer{World: w, Pos: pos, Pitch: pitch, Yaw: yaw, logger: logger}
}

func (o *Observer) Lookup(p geom.Vec3) (ids.ID, bool) { return o.World.Lookup(p) }
func (o *Observer) Position() geom.Vec3               { return o.Pos }
func (o *Observer) PitchYaw() (pitch, yaw float32)    { return o.Pitch, o.Yaw }
func (o *Observer) Look(pitch, yaw float32)           { o.Pitch, o.Yaw = pitch, yaw }
func (o *Observer) MoveTo(p geom.Vec3)                { o.Pos = p }

func (o *Observer) Notify(distance int, id ids.ID) {
	o.logger.Printf("> %dm %s", distance, id)
	if o.OnNotify != nil {
		o.OnNotify(distance, id)
	}
}

// Fixture is a hand-written scene: an observer and the blocks around it.
type Fixture struct {
	Seed     *int64 `yaml:"seed"`
	Observer struct {
		Pos   [3]int  `yaml:"pos"`
		Pitch float32 `yaml:"pitch"`
		Yaw   float32 `yaml:"yaw"`
	} `yaml:"observer"`
	Blocks []FixtureBlocks `yaml:"blocks"`
}

// FixtureBlocks places one id at every listed point and in every box.
type FixtureBlocks struct {
	ID    string       `yaml:"id"`
	At    [][3]int     `yaml:"at"`
	Boxes []FixtureBox `yaml:"boxes"`
}

// FixtureBox is inclusive on both corners.
type FixtureBox struct {
	Min [3]int `yaml:"min"`
	Max [3]int `yaml:"max"`
}

func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func vec(a [3]int) geom.Vec3 { return geom.V(a[0], a[1], a[2]) }

// Build creates the world and observer described by the fixture. A fixture
// with a seed sits on top of generated terrain; without one, it floats in
// air.
func (f Fixture) Build(logger *log.Logger) (*Mem, *Observer, error) {
	var gen *Generator
	if f.Seed != nil {
		gen = NewGenerator(DefaultGenConfig(*f.Seed))
	}
	w := NewMem(gen)
	for _, b := range f.Blocks {
		id, err := ids.Parse(b.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture block %q: %w", b.ID, err)
		}
		for _, p := range b.At {
			w.Set(vec(p), id)
		}
		for _, box := range b.Boxes {
			lo, hi := vec(box.Min), vec(box.Max)
			for y := lo.Y; y <= hi.Y; y++ {
				for z := lo.Z; z <= hi.Z; z++ {
					for x := lo.X; x <= hi.X; x++ {
						w.Set(geom.V(x, y, z), id)
					}
				}
			}
		}
	}
	o := NewObserver(w, vec(f.Observer.Pos), f.Observer.Pitch, f.Observer.Yaw, logger)
	return w, o, nil
}
