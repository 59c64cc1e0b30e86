package bounds

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Rect is the result for one rendered timestamp.
type Rect struct {
	X           int32  `json:"x" yaml:"x"`
	Y           int32  `json:"y" yaml:"y"`
	W           uint32 `json:"w" yaml:"w"`
	H           uint32 `json:"h" yaml:"h"`
	Fingerprint uint32 `json:"fingerprint" yaml:"fingerprint"`
	Solid       bool   `json:"solid" yaml:"solid"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.W == 0 || r.H == 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d fp=%08x solid=%t", r.W, r.H, r.X, r.Y, r.Fingerprint, r.Solid)
}

// geometryLen is the encoded size of x, y, w, h and solid.
const geometryLen = 17

// sealFingerprint extends crc with the finalized geometry. The fingerprint
// field itself is never part of the input.
func (r Rect) sealFingerprint(crc uint32) uint32 {
	var buf [geometryLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.X))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Y))
	binary.LittleEndian.PutUint32(buf[8:12], r.W)
	binary.LittleEndian.PutUint32(buf[12:16], r.H)
	if r.Solid {
		buf[16] = 1
	}
	return crc32.Update(crc, crc32.IEEETable, buf[:])
}
