package testsupport

import (
	"bytes"

	"subinspector/internal/raster"
)

// FakeFrame is what FakeRenderer returns for one time.
type FakeFrame struct {
	Layers []raster.Layer
	Change raster.Change
}

// FakeRenderer is a scripted raster.Renderer. Times missing from Frames, or
// mapped to a frame without layers, render nothing.
type FakeRenderer struct {
	Frames   map[int64]FakeFrame
	ParseErr error

	Width      int
	Height     int
	FontConfig string
	FontDir    string

	// Parsed records every script handed to ParseScript.
	Parsed [][]byte
	// Yielded counts layers pulled out of rendered frames.
	Yielded    int
	OpenTracks int
	Closed     bool

	handler raster.MessageFunc
}

var _ raster.Renderer = (*FakeRenderer)(nil)

type fakeTrack struct {
	r      *FakeRenderer
	closed bool
}

func (t *fakeTrack) Close() {
	if !t.closed {
		t.closed = true
		t.r.OpenTracks--
	}
}

// Emit delivers a diagnostic through the installed message handler.
func (f *FakeRenderer) Emit(level raster.Level, msg string) {
	if f.handler != nil {
		f.handler(level, msg)
	}
}

func (f *FakeRenderer) SetFrameSize(width, height int) {
	f.Width, f.Height = width, height
}

func (f *FakeRenderer) SetFonts(fontConfig, fontDir string) {
	f.FontConfig, f.FontDir = fontConfig, fontDir
}

func (f *FakeRenderer) SetMessageHandler(fn raster.MessageFunc) {
	f.handler = fn
}

func (f *FakeRenderer) ParseScript(data []byte) (raster.Track, error) {
	f.Parsed = append(f.Parsed, bytes.Clone(data))
	if f.ParseErr != nil {
		return nil, f.ParseErr
	}
	f.OpenTracks++
	return &fakeTrack{r: f}, nil
}

func (f *FakeRenderer) RenderFrame(track raster.Track, ms int64) (raster.Frame, bool) {
	frame, ok := f.Frames[ms]
	if !ok || len(frame.Layers) == 0 {
		return raster.Frame{}, false
	}
	layers := func(yield func(raster.Layer) bool) {
		for _, layer := range frame.Layers {
			f.Yielded++
			if !yield(layer) {
				return
			}
		}
	}
	return raster.Frame{Layers: layers, Change: frame.Change}, true
}

func (f *FakeRenderer) Close() error {
	f.Closed = true
	return nil
}

// SolidLayer returns an opaque w x h block at (x, y) filled with value.
func SolidLayer(x, y, w, h int, value byte) raster.Layer {
	stride := (w + 15) &^ 15
	bitmap := make([]byte, stride*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			bitmap[row*stride+col] = value
		}
	}
	return raster.Layer{W: w, H: h, Stride: stride, Bitmap: bitmap, DstX: x, DstY: y, Color: 0xFFFFFF00}
}
