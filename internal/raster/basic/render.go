package basic

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"subinspector/internal/raster"
)

// Renderer implements raster.Renderer. Layers returned by RenderFrame stay
// valid until the next RenderFrame call.
type Renderer struct {
	width      int
	height     int
	fontConfig string
	fontDir    string
	onMessage  raster.MessageFunc

	layers      []raster.Layer
	hasPrev     bool
	prevContent uint64
	prevPlace   uint64
}

var _ raster.Renderer = (*Renderer)(nil)

// New returns a renderer with an empty canvas. Call SetFrameSize before
// rendering.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SetFrameSize(width, height int) {
	r.width = max(width, 0)
	r.height = max(height, 0)
	r.hasPrev = false
}

// SetFonts records the font configuration. The built-in face is always used;
// a missing font directory is reported as a warning.
func (r *Renderer) SetFonts(fontConfig, fontDir string) {
	r.fontConfig = strings.TrimSpace(fontConfig)
	r.fontDir = strings.TrimSpace(fontDir)
	r.hasPrev = false
	if r.fontDir != "" {
		if info, err := os.Stat(r.fontDir); err != nil || !info.IsDir() {
			r.message(raster.LevelWarn, "fonts directory %q is not accessible", r.fontDir)
		}
	}
	if r.fontConfig != "" {
		r.message(raster.LevelInfo, "font config %q ignored, using built-in face", r.fontConfig)
	}
}

func (r *Renderer) SetMessageHandler(fn raster.MessageFunc) {
	r.onMessage = fn
}

func (r *Renderer) ParseScript(data []byte) (raster.Track, error) {
	t, err := parseScript(data, r.message)
	if err != nil {
		r.message(raster.LevelError, "failed to parse script: %v", err)
		return nil, err
	}
	return t, nil
}

func (r *Renderer) Close() error {
	r.layers = nil
	r.hasPrev = false
	return nil
}

func (r *Renderer) message(level raster.Level, format string, args ...any) {
	if r.onMessage == nil {
		return
	}
	r.onMessage(level, fmt.Sprintf(format, args...))
}

func (r *Renderer) RenderFrame(tr raster.Track, ms int64) (raster.Frame, bool) {
	t, ok := tr.(*track)
	if !ok || t == nil || r.width == 0 || r.height == 0 {
		r.hasPrev = false
		return raster.Frame{}, false
	}

	active := make([]event, 0, 4)
	for _, ev := range t.events {
		if ev.activeAt(ms) {
			active = append(active, ev)
		}
	}
	slices.SortStableFunc(active, func(a, b event) int {
		if a.layer != b.layer {
			return a.layer - b.layer
		}
		return a.index - b.index
	})

	r.layers = r.layers[:0]
	for _, ev := range active {
		r.renderEvent(t, ev)
	}
	if len(r.layers) == 0 {
		r.hasPrev = false
		return raster.Frame{}, false
	}

	content, place := signatures(r.layers)
	change := raster.Changed
	if r.hasPrev && content == r.prevContent {
		change = raster.Moved
		if place == r.prevPlace {
			change = raster.Unchanged
		}
	}
	r.hasPrev = true
	r.prevContent = content
	r.prevPlace = place

	return raster.Frame{Layers: raster.Layers(r.layers), Change: change}, true
}

func (r *Renderer) renderEvent(t *track, ev event) {
	st, found := t.style(ev.style)
	if !found {
		r.message(raster.LevelWarn, "event %d: no style named %q, using %s", ev.index, ev.style, defaultStyleName)
	}
	lines, ov := parseText(ev.text)

	scaleX := float64(r.width) / float64(t.playResX)
	scaleY := float64(r.height) / float64(t.playResY)

	align := st.alignment
	if ov.alignment != 0 {
		align = ov.alignment
	}
	col := (align - 1) % 3
	row := (align - 1) / 3

	glyphs := textMask(lines, col)
	if glyphs == nil {
		return
	}

	border := st.border
	if ov.border != nil {
		border = *ov.border
	}
	shadow := st.shadow
	if ov.shadow != nil {
		shadow = *ov.shadow
	}
	// Sizes are capped by the canvas: a glyph row is never taller than the
	// larger canvas side, and neither is an outline or shadow offset.
	limit := max(r.width, r.height)
	factor := max(1, pixels(st.fontSize*scaleY/glyphHeight, max(1, limit/glyphHeight)))
	bord := pixels(border*scaleY, limit)
	shad := pixels(shadow*scaleY, limit)

	if w, h := glyphs.w*factor+2*bord, glyphs.h*factor+2*bord; w*h > maxMaskPixels {
		r.message(raster.LevelWarn, "event %d: rendered size %dx%d exceeds %d pixels, skipped", ev.index, w, h, maxMaskPixels)
		return
	}
	fill := glyphs.scale(factor)

	x, y := r.place(ev, st, ov, col, row, scaleX, scaleY, fill.w, fill.h)

	outline := fill
	if bord > 0 {
		outline = fill.dilate(bord)
	}
	if shad > 0 {
		r.emit(outline, x-bord+shad, y-bord+shad, withAlpha(st.back, ov.shadowAlpha))
	}
	if bord > 0 {
		r.emit(outline, x-bord, y-bord, withAlpha(st.outline, ov.borderAlpha))
	}
	r.emit(fill, x, y, withAlpha(st.primary, ov.fillAlpha))
}

// place returns the top-left corner of a w×h block for the event.
func (r *Renderer) place(ev event, st *style, ov overrides, col, row int, scaleX, scaleY float64, w, h int) (int, int) {
	var ax, ay int
	if ov.hasPos {
		ax = int(math.Round(ov.posX * scaleX))
		ay = int(math.Round(ov.posY * scaleY))
	} else {
		marginL := int(math.Round(float64(pickMargin(ev.marginL, st.marginL)) * scaleX))
		marginR := int(math.Round(float64(pickMargin(ev.marginR, st.marginR)) * scaleX))
		marginV := int(math.Round(float64(pickMargin(ev.marginV, st.marginV)) * scaleY))
		switch col {
		case 0:
			ax = marginL
		case 1:
			ax = (marginL + r.width - marginR) / 2
		default:
			ax = r.width - marginR
		}
		switch row {
		case 0:
			ay = r.height - marginV
		case 1:
			ay = r.height / 2
		default:
			ay = marginV
		}
	}

	x := ax - col*w/2
	var y int
	switch row {
	case 0:
		y = ay - h
	case 1:
		y = ay - h/2
	default:
		y = ay
	}
	return x, y
}

// pixels rounds a scaled size to whole pixels within [0, limit].
func pixels(v float64, limit int) int {
	if !(v > 0) {
		return 0
	}
	return int(math.Round(min(v, float64(limit))))
}

func pickMargin(eventMargin, styleMargin int) int {
	if eventMargin != 0 {
		return eventMargin
	}
	return styleMargin
}

// emit appends the part of m placed at (x, y) that lies on the canvas.
func (r *Renderer) emit(m *mask, x, y int, color uint32) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+m.w, r.width), min(y+m.h, r.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	offset := (y0-y)*m.stride + (x0 - x)
	r.layers = append(r.layers, raster.Layer{
		W:      x1 - x0,
		H:      y1 - y0,
		Stride: m.stride,
		Bitmap: m.pix[offset:],
		DstX:   x0,
		DstY:   y0,
		Color:  color,
	})
}

// signatures hashes the rendered content and its placement separately so a
// pure move can be told apart from a content change.
func signatures(layers []raster.Layer) (uint64, uint64) {
	content := xxhash.New()
	place := xxhash.New()
	var scratch [12]byte
	for _, layer := range layers {
		binary.LittleEndian.PutUint32(scratch[0:4], uint32(layer.W))
		binary.LittleEndian.PutUint32(scratch[4:8], uint32(layer.H))
		binary.LittleEndian.PutUint32(scratch[8:12], layer.Color)
		_, _ = content.Write(scratch[:])
		for row := 0; row < layer.H; row++ {
			start := row * layer.Stride
			_, _ = content.Write(layer.Bitmap[start : start+layer.W])
		}
		binary.LittleEndian.PutUint32(scratch[0:4], uint32(int32(layer.DstX)))
		binary.LittleEndian.PutUint32(scratch[4:8], uint32(int32(layer.DstY)))
		_, _ = place.Write(scratch[:8])
	}
	return content.Sum64(), place.Sum64()
}
