package inspector

import (
	"subinspector/internal/raster"
	"subinspector/internal/raster/basic"
	"subinspector/internal/raster/libass"
)

// NewRenderer constructs the renderer for backend. The empty backend selects
// the built-in renderer.
func NewRenderer(backend raster.Backend) (raster.Renderer, error) {
	backend, err := raster.ParseBackend(string(backend))
	if err != nil {
		return nil, err
	}
	switch backend {
	case raster.BackendLibass:
		r, err := libass.New()
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return basic.New(), nil
	}
}
