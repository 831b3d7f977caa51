package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/sweeps.sqlite)")
	limit := fs.Int("limit", 20, "result limit (sweeps)")
	block := fs.String("block", "", "block id (near)")
	center := fs.String("at", "0,0,0", "center x,y,z (near)")
	radius := fs.Int("r", 16, "box radius (near)")
	_ = fs.Parse(args)

	q := "sweeps"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "sweeps.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	switch q {
	case "sweeps":
		rows, err := idx.RecentSweeps(ctx, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			_ = enc.Encode(r)
		}
	case "blocks":
		counts, err := idx.CountByBlock(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, c := range counts {
			_ = enc.Encode(c)
		}
	case "near":
		id, err := ids.Parse(*block)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -block:", err)
			os.Exit(2)
		}
		at, err := parseVec3(*center)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -at:", err)
			os.Exit(2)
		}
		found, err := idx.FindsWithin(ctx, id.String(), at, *radius)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, p := range found {
			fmt.Printf("%v (%dm)\n", p, at.Dist(p))
		}
	case "meta":
		for _, key := range []string{"schema_version", "palette_digest"} {
			v, ok, err := idx.Meta(ctx, key)
			if err != nil {
				fmt.Fprintln(os.Stderr, "query:", err)
				os.Exit(1)
			}
			if ok {
				fmt.Printf("%s=%s\n", key, v)
			}
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(sweeps|blocks|near|meta)")
		os.Exit(2)
	}
}
