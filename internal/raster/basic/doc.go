// Package basic is a small pure-Go subtitle rasterizer.
//
// It understands the parts of an ASS script that decide where and whether a
// line shows up: PlayRes, styles (size, colours, outline, shadow, alignment,
// margins), dialogue timing and the \pos, \an, \alpha, \1a, \3a, \4a, \bord
// and \shad overrides. Glyphs come from the fixed 7x13 bitmap face in
// golang.org/x/image, scaled by whole pixels. Each line produces up to three
// layers in draw order: shadow, outline, fill, clipped to the canvas.
//
// It is the default engine when libass is not compiled in and the engine the
// test suites drive. It does not shape text, load fonts or resolve collisions.
package basic
