package ids

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want ID
	}{
		{"coal_ore", ID{DefaultNamespace, "coal_ore"}},
		{":coal_ore", ID{DefaultNamespace, "coal_ore"}},
		{"minecraft:deepslate_coal_ore", ID{DefaultNamespace, "deepslate_coal_ore"}},
		{"c:ores/tin", ID{"c", "ores/tin"}},
		{"my-mod.x:a_b.c-d", ID{"my-mod.x", "a_b.c-d"}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, in := range []string{
		"Coal_Ore",
		"minecraft:coal ore",
		"mine/craft:coal_ore",
		"minecraft:coal:ore",
		"ns:path#1",
	} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("Parse(%q): expected ErrInvalidIdentifier, got %v", in, err)
		}
	}
}

func TestCompareByPathThenNamespace(t *testing.T) {
	a := ID{"zeta", "apple"}
	b := ID{"alpha", "banana"}
	c := ID{"beta", "banana"}
	if a.Compare(b) >= 0 {
		t.Fatalf("path must dominate: %v vs %v", a, b)
	}
	if b.Compare(c) >= 0 {
		t.Fatalf("namespace breaks ties: %v vs %v", b, c)
	}
	if c.Compare(c) != 0 {
		t.Fatalf("self compare")
	}
}

func TestTextRoundTrip(t *testing.T) {
	id := MustParse("c:ores/tin")
	b, _ := id.MarshalText()
	var back ID
	if err := back.UnmarshalText(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != id {
		t.Fatalf("got %v want %v", back, id)
	}
	if err := back.UnmarshalText([]byte("BAD")); err == nil {
		t.Fatalf("expected error for invalid text")
	}
}

func TestSet(t *testing.T) {
	s, err := ParseSet([]string{"coal_ore", " minecraft:iron_ore ", "c:ores/tin"})
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	if !s.Contains(MustVanilla("iron_ore")) {
		t.Fatalf("expected iron_ore in set")
	}
	got := s.Strings()
	want := []string{"minecraft:coal_ore", "minecraft:iron_ore", "c:ores/tin"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Strings()=%v want %v", got, want)
		}
	}
	if _, err := ParseSet([]string{"ok", "NOT OK"}); err == nil {
		t.Fatalf("expected error")
	}
}
