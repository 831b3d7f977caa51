package main

import (
	"strings"
	"testing"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	persistlog "voxelscan.ai/internal/persistence/log"
	"voxelscan.ai/internal/sonar"
)

var coalOre = ids.MustVanilla("coal_ore")

type observer struct {
	blocks map[geom.Vec3]ids.ID
	pos    geom.Vec3
}

func (o *observer) Lookup(p geom.Vec3) (ids.ID, bool) {
	id, ok := o.blocks[p]
	return id, ok
}
func (o *observer) Position() geom.Vec3            { return o.pos }
func (o *observer) PitchYaw() (float32, float32)   { return 0, 0 }
func (o *observer) Notify(distance int, id ids.ID) {}

// recordRun drives a sonar the way the scanner loop does and returns the
// logged entries.
func recordRun(t *testing.T, steps func(son *sonar.Sonar, clk *clock.Manual, obs *observer)) []persistlog.SweepEntry {
	t.Helper()
	dir := t.TempDir()
	clk := clock.NewManual(0)
	son, err := sonar.New(sonar.DefaultConfig(), clk, nil, nil)
	if err != nil {
		t.Fatalf("sonar: %v", err)
	}
	lg := persistlog.NewSweepLogger(dir, nil)
	son.SetRecorder(lg)
	steps(son, clk, &observer{blocks: map[geom.Vec3]ids.ID{}})
	if err := lg.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	files, err := lg.Files()
	if err != nil || len(files) == 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var out []persistlog.SweepEntry
	for _, f := range files {
		entries, err := persistlog.ReadSweeps(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		out = append(out, entries...)
	}
	return out
}

func newTestReplayer(out *strings.Builder) (*replayer, *echoes.Store) {
	clk := clock.NewManual(0)
	store := echoes.NewStore(echoes.DefaultCapacity, echoes.DefaultLifetime, clk)
	return newReplayer(store, clk, nil, out), store
}

func TestReplayExpiresAfterTheSweep(t *testing.T) {
	entries := recordRun(t, func(son *sonar.Sonar, clk *clock.Manual, obs *observer) {
		obs.blocks[geom.V(0, 0, 5)] = coalOre
		son.Ping(obs)
		son.Expire(obs)

		// The first echo reaches its lifetime exactly when the second
		// sweep runs; it still counts toward that sweep's size.
		clk.Set(echoes.DefaultLifetime.Milliseconds())
		delete(obs.blocks, geom.V(0, 0, 5))
		obs.blocks[geom.V(0, 0, 7)] = coalOre
		son.Ping(obs)
		son.Expire(obs)
	})
	if len(entries) != 2 || entries[1].Stored != 2 {
		t.Fatalf("entries=%+v", entries)
	}

	var out strings.Builder
	r, store := newTestReplayer(&out)
	for _, e := range entries {
		if err := r.apply(e); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if r.sweeps != 2 || r.mismatches != 0 {
		t.Fatalf("sweeps=%d mismatches=%d output=%q", r.sweeps, r.mismatches, out.String())
	}
	if store.Len() != 1 || store.All()[0].Pos != geom.V(0, 0, 7) {
		t.Fatalf("store=%+v", store.All())
	}
}

func TestReplayReportsMismatch(t *testing.T) {
	var out strings.Builder
	r, _ := newTestReplayer(&out)
	e := persistlog.SweepEntry{
		Started:  100,
		Finished: 100,
		Stored:   3,
		Found:    []persistlog.FoundEntry{{Pos: [3]int{1, 2, 3}, ID: "minecraft:coal_ore"}},
	}
	if err := r.apply(e); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if r.mismatches != 1 || !strings.Contains(out.String(), "stored=3 replayed=1") {
		t.Fatalf("mismatches=%d output=%q", r.mismatches, out.String())
	}
}

func TestReplayRejectsBadID(t *testing.T) {
	r, _ := newTestReplayer(&strings.Builder{})
	e := persistlog.SweepEntry{Found: []persistlog.FoundEntry{{ID: "Not An ID"}}}
	if err := r.apply(e); err == nil {
		t.Fatalf("expected parse error")
	}
}
