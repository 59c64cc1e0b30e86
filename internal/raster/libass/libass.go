//go:build cgo && libass

package libass

/*
#cgo pkg-config: libass
#include <stdint.h>
#include <stdlib.h>
#include <ass/ass.h>

void subinspectorSetMessageCallback(ASS_Library *library, uintptr_t handle);
*/
import "C"

import (
	"errors"
	"iter"
	"runtime/cgo"
	"strings"
	"unsafe"

	"subinspector/internal/raster"
)

const (
	cacheGlyphMax      = 1000
	cacheBitmapMaxSize = 1000
	defaultFamily      = "Sans"
)

// Available reports whether the binding was compiled in.
const Available = true

// Renderer wraps one ASS_Library and ASS_Renderer pair.
type Renderer struct {
	library   *C.ASS_Library
	renderer  *C.ASS_Renderer
	handle    cgo.Handle
	onMessage raster.MessageFunc
}

var _ raster.Renderer = (*Renderer)(nil)

type track struct {
	ptr *C.ASS_Track
}

func (t *track) Close() {
	if t.ptr != nil {
		C.ass_free_track(t.ptr)
		t.ptr = nil
	}
}

// New initializes libass.
func New() (*Renderer, error) {
	library := C.ass_library_init()
	if library == nil {
		return nil, errors.New("ass_library_init failed")
	}
	r := &Renderer{library: library}
	r.handle = cgo.NewHandle(r)
	C.subinspectorSetMessageCallback(library, C.uintptr_t(r.handle))

	renderer := C.ass_renderer_init(library)
	if renderer == nil {
		C.ass_library_done(library)
		r.handle.Delete()
		return nil, errors.New("ass_renderer_init failed")
	}
	r.renderer = renderer
	C.ass_set_cache_limits(renderer, cacheGlyphMax, cacheBitmapMaxSize)
	return r, nil
}

//export subinspectorMessage
func subinspectorMessage(level C.int, msg *C.char, handle C.uintptr_t) {
	r, ok := cgo.Handle(handle).Value().(*Renderer)
	if !ok || r.onMessage == nil {
		return
	}
	r.onMessage(raster.Level(level), strings.TrimRight(C.GoString(msg), "\n"))
}

func (r *Renderer) SetFrameSize(width, height int) {
	C.ass_set_frame_size(r.renderer, C.int(width), C.int(height))
}

func (r *Renderer) SetFonts(fontConfig, fontDir string) {
	var cDir, cConfig *C.char
	if dir := strings.TrimSpace(fontDir); dir != "" {
		cDir = C.CString(dir)
		defer C.free(unsafe.Pointer(cDir))
	}
	if cfg := strings.TrimSpace(fontConfig); cfg != "" {
		cConfig = C.CString(cfg)
		defer C.free(unsafe.Pointer(cConfig))
	}
	family := C.CString(defaultFamily)
	defer C.free(unsafe.Pointer(family))

	C.ass_set_fonts_dir(r.library, cDir)
	C.ass_set_fonts(r.renderer, nil, family, C.int(C.ASS_FONTPROVIDER_AUTODETECT), cConfig, 1)
}

func (r *Renderer) SetMessageHandler(fn raster.MessageFunc) {
	r.onMessage = fn
}

func (r *Renderer) ParseScript(data []byte) (raster.Track, error) {
	if len(data) == 0 {
		return nil, errors.New("empty script")
	}
	buf := C.CBytes(data)
	defer C.free(buf)
	ptr := C.ass_read_memory(r.library, (*C.char)(buf), C.size_t(len(data)), nil)
	if ptr == nil {
		return nil, errors.New("ass_read_memory failed")
	}
	return &track{ptr: ptr}, nil
}

func (r *Renderer) RenderFrame(tr raster.Track, ms int64) (raster.Frame, bool) {
	t, ok := tr.(*track)
	if !ok || t.ptr == nil {
		return raster.Frame{}, false
	}
	var detect C.int
	head := C.ass_render_frame(r.renderer, t.ptr, C.longlong(ms), &detect)
	if head == nil {
		return raster.Frame{}, false
	}
	change := raster.Changed
	switch detect {
	case 0:
		change = raster.Unchanged
	case 1:
		change = raster.Moved
	}
	return raster.Frame{Layers: imageLayers(head), Change: change}, true
}

func imageLayers(head *C.ASS_Image) iter.Seq[raster.Layer] {
	return func(yield func(raster.Layer) bool) {
		for img := head; img != nil; img = img.next {
			layer := raster.Layer{
				W:      int(img.w),
				H:      int(img.h),
				Stride: int(img.stride),
				DstX:   int(img.dst_x),
				DstY:   int(img.dst_y),
				Color:  uint32(img.color),
			}
			if layer.W > 0 && layer.H > 0 && img.bitmap != nil {
				size := (layer.H-1)*layer.Stride + layer.W
				layer.Bitmap = unsafe.Slice((*byte)(unsafe.Pointer(img.bitmap)), size)
			}
			if !yield(layer) {
				return
			}
		}
	}
}

func (r *Renderer) Close() error {
	if r.renderer != nil {
		C.ass_renderer_done(r.renderer)
		r.renderer = nil
	}
	if r.library != nil {
		C.ass_library_done(r.library)
		r.library = nil
		r.handle.Delete()
	}
	return nil
}
