package raster

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// TransparentAlpha is the alpha byte that marks a whole layer as invisible.
// Engines follow the ASS convention where 0x00 is opaque and 0xFF transparent.
const TransparentAlpha = 0xFF

// MaxCoverage is the coverage byte value of a fully opaque pixel.
const MaxCoverage = 0xFF

// ErrUnavailable reports a renderer backend that was not compiled in.
var ErrUnavailable = errors.New("renderer unavailable")

// Layer is a read-only view over one engine image. Byte Bitmap[row*Stride+col]
// is the coverage of pixel (DstX+col, DstY+row); zero is fully transparent.
type Layer struct {
	W      int
	H      int
	Stride int
	Bitmap []byte
	DstX   int
	DstY   int
	Color  uint32
}

// Alpha returns the uniform layer alpha stored in the low byte of Color.
func (l Layer) Alpha() uint8 {
	return uint8(l.Color & 0xFF)
}

// Transparent reports whether the layer is excluded from bounds scanning.
func (l Layer) Transparent() bool {
	return l.Alpha() == TransparentAlpha
}

// Empty reports whether the layer has no pixel area.
func (l Layer) Empty() bool {
	return l.W <= 0 || l.H <= 0
}

// Valid reports whether the bitmap is large enough for the declared geometry.
func (l Layer) Valid() bool {
	if l.Empty() {
		return true
	}
	if l.Stride < l.W {
		return false
	}
	return len(l.Bitmap) >= (l.H-1)*l.Stride+l.W
}

// Change is the engine's verdict about a frame relative to the previous render.
type Change int

const (
	// Unchanged means the frame is identical to the previous render.
	Unchanged Change = iota
	// Moved means the content is identical but placed differently.
	Moved
	// Changed means the content differs.
	Changed
)

func (c Change) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Moved:
		return "moved"
	case Changed:
		return "changed"
	default:
		return fmt.Sprintf("change(%d)", int(c))
	}
}

// Frame is one rendered timestamp.
type Frame struct {
	Layers iter.Seq[Layer]
	Change Change
}

// Level is an engine diagnostic severity. Lower is more severe.
type Level int

const (
	LevelFatal Level = 0
	LevelError Level = 1
	LevelWarn  Level = 2
	LevelInfo  Level = 4
	LevelV     Level = 6
	LevelDebug Level = 7
)

// MessageFunc receives engine diagnostics.
type MessageFunc func(level Level, msg string)

// Track is a parsed script owned by the renderer that produced it.
type Track interface {
	Close()
}

// Renderer is a subtitle rasterization engine. A Renderer is owned by a single
// inspector session and is not safe for concurrent use.
type Renderer interface {
	SetFrameSize(width, height int)
	SetFonts(fontConfig, fontDir string)
	SetMessageHandler(fn MessageFunc)
	ParseScript(data []byte) (Track, error)
	// RenderFrame renders track at ms. It reports false when nothing was
	// rendered at all.
	RenderFrame(track Track, ms int64) (Frame, bool)
	Close() error
}

// Layers adapts a slice to a layer sequence. Used by engines that materialise
// a frame up front and by tests.
func Layers(layers []Layer) iter.Seq[Layer] {
	return func(yield func(Layer) bool) {
		for _, layer := range layers {
			if !yield(layer) {
				return
			}
		}
	}
}

// Backend names a renderer implementation.
type Backend string

const (
	BackendBasic  Backend = "basic"
	BackendLibass Backend = "libass"
)

// ParseBackend normalizes a backend name.
func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case "", BackendBasic:
		return BackendBasic, nil
	case BackendLibass:
		return BackendLibass, nil
	default:
		return "", fmt.Errorf("unknown renderer backend %q", value)
	}
}
