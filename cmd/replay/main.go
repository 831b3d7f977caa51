package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/mesh"
	persistlog "voxelscan.ai/internal/persistence/log"
	"voxelscan.ai/internal/tuning"
)

// replay rebuilds the echo store from sweep logs and checks that every sweep
// left the store at the size it logged.
func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning.yaml used by the recorded run")
		strict     = flag.Bool("strict", false, "exit non-zero on any size mismatch")
	)
	flag.Parse()

	tun, err := tuning.Load(*tuningPath)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	files, err := persistlog.NewSweepLogger(*dataDir, nil).Files()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list sweeps:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no sweep logs found under", *dataDir)
		os.Exit(1)
	}

	clk := clock.NewManual(0)
	store := echoes.NewStore(tun.EchoesSize, time.Duration(tun.EchoLifetimeMs)*time.Millisecond, clk)
	table := colors.Defaults()

	r := newReplayer(store, clk, table, os.Stdout)
	for _, path := range files {
		if err := r.applyFile(path); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	perBlock := map[ids.ID]int{}
	store.Each(func(st echoes.State) bool {
		perBlock[st.ID()]++
		return true
	})
	blocks := make([]ids.ID, 0, len(perBlock))
	for id := range perBlock {
		blocks = append(blocks, id)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Compare(blocks[j]) < 0 })

	nuggets := mesh.Group(store.Snapshot())
	var tape mesh.Tape
	mesh.Render(&tape, nuggets, geom.Vec3f{})
	var tris, lines int
	for _, b := range tape.Batches {
		tris += len(b.Triangles)
		lines += len(b.Lines)
	}

	fmt.Printf("replayed %d sweeps from %d files: %d echoes in %d nuggets (%d triangles, %d lines)\n",
		r.sweeps, len(files), store.Len(), len(nuggets), tris, lines)
	for _, id := range blocks {
		fmt.Printf("  %s: %d\n", id, perBlock[id])
	}
	if r.mismatches > 0 {
		fmt.Printf("%d sweeps differ from the log\n", r.mismatches)
		if *strict {
			os.Exit(1)
		}
	}
}
