// Package inspector drives a subtitle renderer over a batch of timestamps and
// reports, per timestamp, the tight bounding rectangle of visible pixels
// together with a content fingerprint.
//
// A Session owns its renderer, the script buffers (header and the combined
// header+body script), the last computed result and an error slot that keeps
// the most recent diagnostic. When the renderer reports that a frame is
// unchanged from the previous render the previous result is replayed without
// scanning any layer.
//
// Sessions are not safe for concurrent use. Independent sessions share no
// state and may run on separate goroutines.
package inspector
