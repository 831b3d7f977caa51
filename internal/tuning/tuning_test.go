package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/sonar"
)

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := "block_distance: 32\ninteresting_ids:\n  - iron_ore\n  - create:zinc_ore\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.BlockDistance != 32 || tu.BlockRadius != sonar.DefaultRadius || tu.SliceDelay() != 10*time.Millisecond {
		t.Fatalf("tuning=%+v", tu)
	}
	cfg, err := tu.SonarConfig()
	if err != nil {
		t.Fatalf("sonar config: %v", err)
	}
	if !cfg.Interesting.Contains(ids.MustVanilla("iron_ore")) || !cfg.Interesting.Contains(ids.MustParse("create:zinc_ore")) {
		t.Fatalf("interesting=%v", cfg.Interesting.Strings())
	}
	if cfg.Lifetime != 10*time.Second || cfg.Capacity != 100 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadRejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("block_radius: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err=%v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err=%v", err)
	}
}

func TestParseSettingsRejectsBrokenFiles(t *testing.T) {
	for _, raw := range []string{
		``,
		`{}`,
		`{"interestingIds":53}`,
		`{"interestingIds":null}`,
		`{"interestingIds":true}`,
		`{"interestingIds":false}`,
		`{"interestingIds":[], "echoesSize": -5}`,
		`{"interestingIds":[], "blockDistance": -5}`,
		`{"interestingIds":[], "blockRadius": -5}`,
		`{"interestingIds":["Not An Id"]}`,
	} {
		if _, err := ParseSettings([]byte(raw)); !errors.Is(err, ErrInvalidSettings) {
			t.Fatalf("%q: err=%v", raw, err)
		}
	}
}

func TestParseSettingsEmptyObject(t *testing.T) {
	s, err := ParseSettings([]byte(`{"interestingIds":[]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.EchoesSize != 0 || s.BlockDistance != 0 || s.BlockRadius != 0 || len(s.Interesting) != 0 {
		t.Fatalf("settings=%+v", s)
	}
}

func TestSettingsFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := NewSettingsFile(dir, nil)
	var heard []Settings
	f.OnChange(func(s Settings) { heard = append(heard, s) })

	want := Settings{
		EchoesSize:    50,
		BlockDistance: 24,
		BlockRadius:   3,
		Interesting:   ids.NewSet(ids.MustVanilla("gold_ore"), ids.MustVanilla("coal_ore")),
	}
	if err := f.SetAll(want, true); err != nil {
		t.Fatalf("set all: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, SettingsFileName))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != `{"echoesSize":50,"blockDistance":24,"blockRadius":3,"interestingIds":["minecraft:coal_ore","minecraft:gold_ore"]}` {
		t.Fatalf("stored %s", raw)
	}

	again := NewSettingsFile(dir, nil)
	again.OnChange(func(s Settings) { heard = append(heard, s) })
	got, err := again.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.EchoesSize != 50 || len(got.Interesting) != 2 || !got.Interesting.Contains(ids.MustVanilla("gold_ore")) {
		t.Fatalf("loaded %+v", got)
	}
	if len(heard) != 2 {
		t.Fatalf("listeners called %d times", len(heard))
	}
}

func TestSettingsFileBrokenLoadDispatchesNothing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(`{"interestingIds":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewSettingsFile(dir, nil)
	calls := 0
	f.OnChange(func(Settings) { calls++ })
	if _, err := f.Load(); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err=%v", err)
	}
	if _, ok := f.Current(); ok || calls != 0 {
		t.Fatalf("broken file produced settings")
	}
}

func TestSettingsFileIsADirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, SettingsFileName), 0o755); err != nil {
		t.Fatal(err)
	}
	f := NewSettingsFile(dir, nil)
	calls := 0
	f.OnChange(func(Settings) { calls++ })
	if _, err := f.Load(); err == nil || calls != 0 {
		t.Fatalf("loading a directory: err=%v calls=%d", err, calls)
	}
	// The write fails but listeners still hear the new settings.
	if err := f.SetAll(Settings{Interesting: ids.NewSet()}, true); err == nil {
		t.Fatalf("expected write error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d want 1", calls)
	}
}

func TestApply(t *testing.T) {
	s := Settings{EchoesSize: 7, BlockDistance: 8, BlockRadius: 1, Interesting: ids.NewSet(ids.MustVanilla("iron_ore"))}
	tu := Defaults().Apply(s)
	if tu.EchoesSize != 7 || tu.BlockDistance != 8 || tu.BlockRadius != 1 || len(tu.InterestingIDs) != 1 {
		t.Fatalf("applied=%+v", tu)
	}
	back, err := tu.Settings()
	if err != nil || !back.Interesting.Contains(ids.MustVanilla("iron_ore")) {
		t.Fatalf("settings=%+v err=%v", back, err)
	}
}
