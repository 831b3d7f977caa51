package main

import (
	"fmt"
	"io"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	persistlog "voxelscan.ai/internal/persistence/log"
)

// replayer feeds logged sweeps into a store in the order the scanner ran
// them: matches land at the start of the sweep, the size is taken when the
// sweep finishes, and expiry follows.
type replayer struct {
	store *echoes.Store
	clk   *clock.Manual
	table *colors.Table
	out   io.Writer

	sweeps     int
	mismatches int
}

func newReplayer(store *echoes.Store, clk *clock.Manual, table *colors.Table, out io.Writer) *replayer {
	if table == nil {
		table = colors.Defaults()
	}
	if out == nil {
		out = io.Discard
	}
	return &replayer{store: store, clk: clk, table: table, out: out}
}

func (r *replayer) apply(e persistlog.SweepEntry) error {
	r.sweeps++
	r.clk.Set(e.Started)
	for _, f := range e.Found {
		id, err := ids.Parse(f.ID)
		if err != nil {
			return fmt.Errorf("sweep %d: %w", r.sweeps, err)
		}
		r.store.Insert(geom.V(f.Pos[0], f.Pos[1], f.Pos[2]), echoes.Echo{ID: id, Color: r.table.ForBlock(id)})
	}
	r.clk.Set(e.Finished)
	if got := r.store.Len(); got != e.Stored {
		r.mismatches++
		fmt.Fprintf(r.out, "sweep %d at %d: stored=%d replayed=%d\n", r.sweeps, e.Started, e.Stored, got)
	}
	r.store.Expire()
	return nil
}

// applyFile replays every entry of one sweep log.
func (r *replayer) applyFile(path string) error {
	entries, err := persistlog.ReadSweeps(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := r.apply(e); err != nil {
			return err
		}
	}
	return nil
}
