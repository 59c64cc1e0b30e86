package bounds

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"subinspector/internal/raster"
)

// wordSize is the chunk width used to skip transparent runs.
const wordSize = 8

// Box is a bounding box in frame coordinates with exclusive X2/Y2.
type Box struct {
	X1, Y1, X2, Y2 int
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	return Box{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}

// ScanResult is the contribution of one layer.
type ScanResult struct {
	Box Box
	// Hit is false when the layer holds no coverage; Box is zero then.
	Hit bool
	// Solid is set when some byte reached MaxCoverage.
	Solid bool
	// CRC is the running checksum after this layer's coverage bytes.
	CRC uint32
}

type scanState struct {
	ScanResult
	rowHit bool
}

func (s *scanState) visit(line []byte, col, dstX int) {
	s.CRC = crc32.Update(s.CRC, crc32.IEEETable, line[col:col+1])
	if line[col] == raster.MaxCoverage {
		s.Solid = true
	}
	x := dstX + col
	if x < s.Box.X1 {
		s.Box.X1 = x
	}
	if x+1 > s.Box.X2 {
		s.Box.X2 = x + 1
	}
	s.rowHit = true
}

// Scan computes the coverage bounds of layer, continuing the checksum crc over
// every nonzero coverage byte in row-major order. The layer's color is not
// consulted; callers decide whether a transparent layer is scanned at all.
// Bytes in the stride padding are never read.
func Scan(layer raster.Layer, crc uint32) ScanResult {
	if layer.Empty() || !layer.Valid() {
		return ScanResult{CRC: crc}
	}

	s := scanState{ScanResult: ScanResult{
		CRC: crc,
		Box: Box{X1: math.MaxInt, Y1: math.MaxInt, X2: math.MinInt, Y2: math.MinInt},
	}}
	chunked := layer.W - layer.W%wordSize

	for row := 0; row < layer.H; row++ {
		start := row * layer.Stride
		line := layer.Bitmap[start : start+layer.W]
		s.rowHit = false

		col := 0
		for ; col < chunked; col += wordSize {
			if binary.NativeEndian.Uint64(line[col:col+wordSize]) == 0 {
				continue
			}
			for i := col; i < col+wordSize; i++ {
				if line[i] != 0 {
					s.visit(line, i, layer.DstX)
				}
			}
		}
		for ; col < layer.W; col++ {
			if line[col] != 0 {
				s.visit(line, col, layer.DstX)
			}
		}

		if s.rowHit {
			s.Hit = true
			y := layer.DstY + row
			if y < s.Box.Y1 {
				s.Box.Y1 = y
			}
			if y+1 > s.Box.Y2 {
				s.Box.Y2 = y + 1
			}
		}
	}

	if !s.Hit {
		s.Box = Box{}
	}
	return s.ScanResult
}

// Visible reports whether layer would contribute any pixel to a frame's
// bounds. It stops at the first nonzero word.
func Visible(layer raster.Layer) bool {
	if layer.Empty() || layer.Transparent() || !layer.Valid() {
		return false
	}
	chunked := layer.W - layer.W%wordSize
	for row := 0; row < layer.H; row++ {
		start := row * layer.Stride
		line := layer.Bitmap[start : start+layer.W]
		col := 0
		for ; col < chunked; col += wordSize {
			if binary.NativeEndian.Uint64(line[col:col+wordSize]) != 0 {
				return true
			}
		}
		for ; col < layer.W; col++ {
			if line[col] != 0 {
				return true
			}
		}
	}
	return false
}
