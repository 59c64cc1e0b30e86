// Package scriptfile splits an ASS subtitle file into the pieces an inspector
// session consumes: a compact header (the rendering-relevant [Script Info]
// keys, the styles and the event format) and one body per Dialogue line
// together with its start and end times.
//
// Input may be UTF-8 with or without a byte order mark, or UTF-16 with a
// byte order mark. Line endings may be LF or CRLF.
package scriptfile
