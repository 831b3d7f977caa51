package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "scene":
			sceneCmd(os.Args[2:])
			return
		case "settings":
			settingsCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin db|scene|settings [flags]")
	os.Exit(2)
}

// settingsCmd prints resource-scanner.json, or rewrites the fields given on
// the command line. A running scanner picks the change up on SIGHUP.
func settingsCmd(args []string) {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	echoesSize := fs.Int("echoes", -1, "echo store capacity")
	distance := fs.Int("distance", -1, "cone length in blocks")
	radius := fs.Int("radius", -1, "cone end radius in blocks")
	interesting := fs.String("ids", "", "comma separated block ids to look for")
	_ = fs.Parse(args)

	f := tuning.NewSettingsFile(*configDir, nil)
	s, err := f.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load:", err)
			os.Exit(1)
		}
		if s, err = tuning.Defaults().Settings(); err != nil {
			fmt.Fprintln(os.Stderr, "defaults:", err)
			os.Exit(1)
		}
	}

	changed := false
	set := func(dst *int, v int) {
		if v >= 0 {
			*dst = v
			changed = true
		}
	}
	set(&s.EchoesSize, *echoesSize)
	set(&s.BlockDistance, *distance)
	set(&s.BlockRadius, *radius)
	if strings.TrimSpace(*interesting) != "" {
		list, err := ids.ParseSet(strings.Split(*interesting, ","))
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -ids:", err)
			os.Exit(2)
		}
		s.Interesting = list
		changed = true
	}

	if changed {
		if err := f.SetAll(s, false); err != nil {
			fmt.Fprintln(os.Stderr, "write:", err)
			os.Exit(1)
		}
	}
	raw, err := s.Marshal()
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(raw))
}

func parseVec3(s string) (geom.Vec3, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return geom.Vec3{}, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return geom.Vec3{}, err
		}
		v[i] = n
	}
	return geom.V(v[0], v[1], v[2]), nil
}
