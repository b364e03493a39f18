package glyph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/overlay3d/pkg/glyph"
)

func ExampleSplit() {
	g := glyph.Split("AB👋🏽")
	fmt.Println(len(g))
	glyph.Reverse(g)
	fmt.Println(strings.Join(g, "|"))
	// Output:
	// 3
	// 👋🏽|B|A
}

func ExampleIsSpecial() {
	fmt.Println(glyph.IsSpecial("💙"), glyph.IsSpecial("💙\uFE0F"), glyph.IsSpecial("A"))
	// Output: true true false
}
