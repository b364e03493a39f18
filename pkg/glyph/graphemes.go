package glyph

import "github.com/rivo/uniseg"

// Special is the glyph that receives distinct styling in both layout modes.
const Special = "💙"

// Split segments s into extended grapheme clusters.
func Split(s string) []string {
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Reverse reverses g in place.
func Reverse(g []string) {
	for i, j := 0, len(g)-1; i < j; i, j = i+1, j-1 {
		g[i], g[j] = g[j], g[i]
	}
}

// IsSpecial reports whether grapheme g is the specially styled glyph. Variation
// selectors are ignored.
func IsSpecial(g string) bool {
	return g == Special || g == Special+"\uFE0F"
}

// ContainsSpecial reports whether any grapheme in gs is special.
func ContainsSpecial(gs []string) bool {
	for _, g := range gs {
		if IsSpecial(g) {
			return true
		}
	}
	return false
}
