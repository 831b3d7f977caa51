package colors

import (
	"errors"
	"fmt"
)

const (
	Clear        uint32 = 0x000000
	Vanilla      uint32 = 0xF3E5AB
	Purple       uint32 = 0x7F3FB2
	Gray         uint32 = 0x4C4C4C
	Brown        uint32 = 0x664C33
	Red          uint32 = 0x993333
	Gold         uint32 = 0xFAEE4D
	DiamondBlue  uint32 = 0x5CDBD5
	LapisBlue    uint32 = 0x4A80FF
	EmeraldGreen uint32 = 0x00D93A
	Orange       uint32 = 0x9F5224
	White        uint32 = 0xFFFFFF

	RGBMask   uint32 = 0xFFFFFF
	EchoAlpha uint32 = 0x80000000
	Opaque    uint32 = 0xFF000000
)

var ErrIncomparable = errors.New("incomparable color types")

// Proxy is a 24-bit RGB value, either given directly or resolved from a
// table at use time.
type Proxy interface {
	RGB24() uint32
	family() string
}

// Direct is a literal color.
type Direct uint32

func (d Direct) RGB24() uint32  { return uint32(d) & RGBMask }
func (d Direct) family() string { return "direct" }
func (d Direct) String() string { return fmt.Sprintf("#%06X", d.RGB24()) }

// Tagged resolves its color through a Table, so a palette override applies to
// echoes recorded before it.
type Tagged struct {
	Tag   string
	table *Table
}

func (t Tagged) RGB24() uint32 {
	if t.table == nil {
		return Vanilla
	}
	return t.table.rgbOf(t.Tag)
}

func (t Tagged) family() string { return "tagged" }
func (t Tagged) String() string { return t.Tag }

func Equal(a, b Proxy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.RGB24() == b.RGB24()
}

// Compare orders colors of the same family by value. Mixing families is a
// programming error and panics with ErrIncomparable.
func Compare(a, b Proxy) int {
	if a.family() != b.family() {
		panic(fmt.Errorf("%w: %T vs %T", ErrIncomparable, a, b))
	}
	av, bv := a.RGB24(), b.RGB24()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

// ARGB packs a proxy with an alpha channel (alpha is already shifted). A nil
// proxy paints with the vanilla tint.
func ARGB(c Proxy, alpha uint32) uint32 {
	if c == nil {
		return alpha | Vanilla
	}
	return alpha | c.RGB24()
}
