// Package layout places glyphs in 3D space.
//
// Two engines share the [Engine] interface:
//
//   - [Circular] distributes one glyph per grapheme evenly around a circle in the
//     XZ plane. Each glyph is oriented by a look-at toward the circle center, which
//     makes the orientation a pure function of the glyph's position.
//   - [Linear] lays text out on a horizontal line, either as a single text block or,
//     when the text contains the special glyph, as individually styled glyphs with a
//     fixed manual advance.
//
// Engines own a group node and a [glyph.Pool]. Update may be called any number of
// times; it resizes the pool, recomputes every transform from scratch and then
// applies visibility culling, so repeated calls with the same parameters are
// idempotent.
package layout
