// Package glyph holds the text style parameters shared by the layout engines,
// grapheme segmentation, color parsing and the pooled glyph arena.
//
// # Parameters
//
// [Params] mirrors the caller-facing style record. Absent or malformed values fall
// back to defaults through accessor methods ([Params.Size], [Params.Radius], ...)
// rather than by mutating the record, so the same Params can be applied repeatedly.
//
// # Pool
//
// [Pool] owns one scene node per displayed glyph. Engines resize it to the grapheme
// count on every update; surplus nodes are disposed and new nodes are attached to
// the pool's parent group.
package glyph
