package render

import "unicode/utf8"

// DefaultColor fills nodes whose type has no legend entry.
const DefaultColor = "#6B7280"

// LabelRunes is the label length before truncation.
const LabelRunes = 12

// LegendEntry pairs a node type with its fill color.
type LegendEntry struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

var palette = []LegendEntry{
	{"Technology", "#3B82F6"},
	{"Data Structure", "#10B981"},
	{"Concept", "#F59E0B"},
	{"Person", "#EF4444"},
	{"Organization", "#8B5CF6"},
	{"Document", "#06B6D4"},
	{"Unknown", DefaultColor},
}

var colors = func() map[string]string {
	m := make(map[string]string, len(palette))
	for _, e := range palette {
		m[e.Type] = e.Color
	}
	return m
}()

// ColorFor returns the fill color of a node type.
func ColorFor(nodeType string) string {
	if c, ok := colors[nodeType]; ok {
		return c
	}
	return DefaultColor
}

// FullLegend returns every known type in display order.
func FullLegend() []LegendEntry {
	out := make([]LegendEntry, len(palette))
	copy(out, palette)
	return out
}

// Legend returns entries only for the given types, keeping their order.
func Legend(types []string) []LegendEntry {
	out := make([]LegendEntry, 0, len(types))
	for _, t := range types {
		out = append(out, LegendEntry{Type: t, Color: ColorFor(t)})
	}
	return out
}

// Truncate shortens s to n runes followed by "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
