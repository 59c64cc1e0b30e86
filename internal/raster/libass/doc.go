// Package libass binds the libass subtitle renderer through cgo.
//
// The binding is compiled only with cgo enabled and the libass build tag
// (go build -tags libass); other builds get a stub whose New reports
// raster.ErrUnavailable. Images returned by ass_render_frame are exposed as
// raster.Layer views over libass-owned memory and become invalid on the next
// render call.
package libass
