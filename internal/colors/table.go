package colors

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"voxelscan.ai/internal/ids"
)

// Table maps block tags to colors. Blocks are matched by their own id first
// and then by the plural tag (coal_ore -> coal_ores).
type Table struct {
	byTag    map[string]uint32
	fallback uint32
	Digest   string
}

var defaultTags = map[string]uint32{
	"minecraft:lapis_ores":    LapisBlue,
	"minecraft:redstone_ores": Red,
	"minecraft:copper_ores":   Orange,
	"minecraft:coal_ores":     Gray,
	"minecraft:emerald_ores":  EmeraldGreen,
	"minecraft:iron_ores":     Brown,
	"minecraft:diamond_ores":  DiamondBlue,
	"minecraft:gold_ores":     Gold,
}

func Defaults() *Table {
	t := &Table{byTag: make(map[string]uint32, len(defaultTags)), fallback: Vanilla}
	for k, v := range defaultTags {
		t.byTag[k] = v
	}
	t.Digest = t.digest()
	return t
}

// Set overrides (or adds) a tag color. Proxies handed out earlier pick the
// new color up; Set must not race with painting.
func (t *Table) Set(tag ids.ID, rgb uint32) {
	t.byTag[tag.String()] = rgb & RGBMask
	t.Digest = t.digest()
}

// ForBlock returns the proxy used to paint echoes of id. Every block gets a
// Tagged proxy, so echoes always share one color family and later overrides
// reach blocks that had no entry when they were found.
func (t *Table) ForBlock(id ids.ID) Proxy {
	return Tagged{Tag: id.String(), table: t}
}

func (t *Table) rgbOf(tag string) uint32 {
	if v, ok := t.byTag[tag]; ok {
		return v
	}
	if v, ok := t.byTag[tag+"s"]; ok {
		return v
	}
	return t.fallback
}

func (t *Table) Len() int { return len(t.byTag) }

func (t *Table) digest() string {
	keys := make([]string, 0, len(t.byTag))
	for k := range t.byTag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%06X\n", k, t.byTag[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type paletteFile struct {
	Fallback string            `json:"fallback,omitempty"`
	Colors   map[string]string `json:"colors"`
}

// LoadPalette applies overrides from a JSON palette on top of the defaults:
//
//	{"fallback": "#F3E5AB", "colors": {"minecraft:coal_ores": "#4C4C4C"}}
func LoadPalette(path string) (*Table, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f paletteFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	if f.Fallback != "" {
		v, err := ParseHex(f.Fallback)
		if err != nil {
			return nil, fmt.Errorf("palette %s: fallback: %w", path, err)
		}
		t.fallback = v
	}
	for k, raw := range f.Colors {
		tag, err := ids.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("palette %s: %w", path, err)
		}
		v, err := ParseHex(raw)
		if err != nil {
			return nil, fmt.Errorf("palette %s: %s: %w", path, k, err)
		}
		t.byTag[tag.String()] = v
	}
	t.Digest = t.digest()
	return t, nil
}

// ParseHex accepts "#RRGGBB", "0xRRGGBB" or "RRGGBB".
func ParseHex(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return 0, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad color %q", s)
	}
	return uint32(v), nil
}
