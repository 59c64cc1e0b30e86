// Package bounds computes the visible bounding rectangle and content
// fingerprint of rendered subtitle frames.
//
// Scan walks one alpha-mask layer in machine-word chunks, skipping transparent
// runs eight bytes at a time and inspecting only the words that contain
// coverage. Frame folds the layers of one render into a single Rect whose
// Fingerprint is a CRC-32 over every visible coverage byte, every layer color
// and the final geometry, so two frames with identical visible output share a
// fingerprint no matter which markup produced them.
//
// Rectangles use exclusive right and bottom edges: X+W and Y+H are one past
// the last visible pixel.
package bounds
