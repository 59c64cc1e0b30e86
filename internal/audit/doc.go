// Package audit checks subtitle files for lines that render to nothing and
// for lines whose rendered content duplicates an earlier line.
//
// Each file gets its own inspector session. The header is set once and every
// Dialogue line is then inspected on its own at its start time, so a line's
// result depends only on that line and the file's styles. Files are checked
// concurrently up to a configurable limit; a file that cannot be read or
// rendered is reported as failed without stopping the run.
package audit
