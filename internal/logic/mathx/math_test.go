package mathx

import "testing"

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{1.5, 2},
		{-0.5, 0},
		{-1.5, -1},
		{-2.5, -2},
		{-2.51, -3},
	}
	for _, tc := range cases {
		if got := RoundHalfUp(tc.in); got != tc.want {
			t.Fatalf("RoundHalfUp(%v)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	if got := FloorDiv(-1, 16); got != -1 {
		t.Fatalf("FloorDiv(-1,16)=%d", got)
	}
	if got := FloorDiv(16, 16); got != 1 {
		t.Fatalf("FloorDiv(16,16)=%d", got)
	}
}

func TestHash3Deterministic(t *testing.T) {
	if Hash3(7, 1, 2, 3) != Hash3(7, 1, 2, 3) {
		t.Fatalf("hash not deterministic")
	}
	if Hash3(7, 1, 2, 3) == Hash3(7, 3, 2, 1) {
		t.Fatalf("hash ignores axis order")
	}
}
