package bounds

import (
	"encoding/binary"
	"hash/crc32"
	"iter"

	"subinspector/internal/raster"
)

// Frame accumulates the layers of one rendered frame. The zero value is ready
// to use.
type Frame struct {
	crc      uint32
	box      Box
	hit      bool
	solid    bool
	anchored bool
	anchorX  int
	anchorY  int
	scanned  int
}

// Add folds one layer into the frame. Layers without area are ignored
// entirely. Transparent layers are not scanned but their color still feeds the
// fingerprint, so frames that differ only in an invisible layer's color do not
// collide.
func (f *Frame) Add(layer raster.Layer) {
	if layer.Empty() {
		return
	}
	if !f.anchored {
		f.anchored = true
		f.anchorX = layer.DstX + layer.W
		f.anchorY = layer.DstY + layer.H
	}

	if !layer.Transparent() {
		res := Scan(layer, f.crc)
		f.scanned++
		f.crc = res.CRC
		f.solid = f.solid || res.Solid
		if res.Hit {
			if f.hit {
				f.box = f.box.Union(res.Box)
			} else {
				f.box = res.Box
				f.hit = true
			}
		}
	}

	var color [4]byte
	binary.LittleEndian.PutUint32(color[:], layer.Color)
	f.crc = crc32.Update(f.crc, crc32.IEEETable, color[:])
}

// Scanned returns how many layers went through Scan.
func (f *Frame) Scanned() int {
	return f.scanned
}

// Rect finalizes the frame. Without any visible pixel the result is a
// zero-area rectangle at the far corner of the first non-empty layer.
func (f *Frame) Rect() Rect {
	var r Rect
	switch {
	case f.hit:
		r.X = int32(f.box.X1)
		r.Y = int32(f.box.Y1)
		r.W = uint32(f.box.X2 - f.box.X1)
		r.H = uint32(f.box.Y2 - f.box.Y1)
	case f.anchored:
		r.X = int32(f.anchorX)
		r.Y = int32(f.anchorY)
	}
	r.Solid = f.solid
	r.Fingerprint = r.sealFingerprint(f.crc)
	return r
}

// Merge folds a whole layer sequence into a Rect.
func Merge(layers iter.Seq[raster.Layer]) Rect {
	var f Frame
	for layer := range layers {
		f.Add(layer)
	}
	return f.Rect()
}
