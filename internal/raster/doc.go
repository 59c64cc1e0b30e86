// Package raster defines the contract between the inspector and a subtitle
// rasterization engine.
//
// A Renderer turns a parsed script (Track) and a timestamp into a Frame: an
// ordered, lazily produced sequence of alpha-mask Layers plus the engine's own
// verdict on whether the frame differs from the previous render. Layers are
// borrowed from the engine and are only valid while the sequence is being
// iterated; callers must copy anything they need to keep.
//
// Two engines live in subpackages: basic, a pure-Go renderer for a small ASS
// subset, and libass, a cgo binding compiled with the libass build tag.
package raster
