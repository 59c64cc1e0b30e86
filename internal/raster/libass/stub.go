//go:build !(cgo && libass)

package libass

import (
	"fmt"

	"subinspector/internal/raster"
)

// Available reports whether the binding was compiled in.
const Available = false

var errNotBuilt = fmt.Errorf("%w: libass support not compiled in (rebuild with -tags libass)", raster.ErrUnavailable)

// Renderer is a placeholder so callers compile without libass.
type Renderer struct{}

var _ raster.Renderer = (*Renderer)(nil)

func New() (*Renderer, error) {
	return nil, errNotBuilt
}

func (r *Renderer) SetFrameSize(width, height int) {}

func (r *Renderer) SetFonts(fontConfig, fontDir string) {}

func (r *Renderer) SetMessageHandler(fn raster.MessageFunc) {}

func (r *Renderer) ParseScript(data []byte) (raster.Track, error) {
	return nil, errNotBuilt
}

func (r *Renderer) RenderFrame(track raster.Track, ms int64) (raster.Frame, bool) {
	return raster.Frame{}, false
}

func (r *Renderer) Close() error {
	return nil
}
