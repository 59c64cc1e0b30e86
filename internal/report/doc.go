// Package report renders audit results and bounds samples as a terminal
// table, JSON, YAML or Markdown.
package report
