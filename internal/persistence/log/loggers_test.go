package log

import (
	"testing"
	"time"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/sonar"
)

func TestSweepLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewSweepLogger(dir, nil)
	l.RecordSweep(sonar.Sweep{
		Started: 10, Finished: 25,
		Origin:  geom.V(1, 64, -3),
		Scanned: 120, Stored: 2,
		Found: []sonar.Partial{
			{Pos: geom.V(1, 60, 2), ID: ids.MustVanilla("coal_ore")},
			{Pos: geom.V(1, 60, 3), ID: ids.MustVanilla("coal_ore")},
		},
	})
	l.RecordSweep(sonar.Sweep{Started: 30, Finished: 31, Scanned: 5})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := l.Files()
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	got, err := ReadSweeps(files[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d want 2", len(got))
	}
	first := got[0]
	if first.Origin != [3]int{1, 64, -3} || first.Scanned != 120 || len(first.Found) != 2 {
		t.Fatalf("first=%+v", first)
	}
	if first.Found[1].ID != "minecraft:coal_ore" || first.Found[1].Pos != [3]int{1, 60, 3} {
		t.Fatalf("found=%+v", first.Found)
	}
	if got[1].Started != 30 || len(got[1].Found) != 0 {
		t.Fatalf("second=%+v", got[1])
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "sweeps")
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(SweepEntry{Started: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(SweepEntry{Started: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := w.Files()
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	for i, f := range files {
		got, err := ReadSweeps(f)
		if err != nil || len(got) != 1 || got[0].Started != int64(i+1) {
			t.Fatalf("%s: %+v err=%v", f, got, err)
		}
	}
}
