package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"subinspector/internal/audit"
	"subinspector/internal/bounds"
)

// Format names an output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be table, json, yaml or markdown)", s)
	}
}

// Options tunes human-readable output.
type Options struct {
	// Color highlights issue kinds in tables.
	Color bool
	// AllLines lists every line rather than only the ones with issues.
	AllLines bool
}

// Write renders an audit report.
func Write(w io.Writer, r *audit.Report, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatMarkdown:
		return writeMarkdown(w, r, opts)
	case FormatTable, "":
		return writeTable(w, r, opts)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Sample is the bounding box computed for one time.
type Sample struct {
	TimeMS int64       `json:"time_ms" yaml:"time_ms"`
	Rect   bounds.Rect `json:"rect" yaml:"rect"`
}

// Samples is the output of a bounds query against one file.
type Samples struct {
	Path    string   `json:"path" yaml:"path"`
	Width   int      `json:"width" yaml:"width"`
	Height  int      `json:"height" yaml:"height"`
	Samples []Sample `json:"samples" yaml:"samples"`
}

// WriteSamples renders bounds samples.
func WriteSamples(w io.Writer, s Samples, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatYAML:
		return writeYAML(w, s)
	case FormatMarkdown:
		return writeSamplesMarkdown(w, s)
	case FormatTable, "":
		_, err := io.WriteString(w, samplesTable(s)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// issue is one flagged line flattened for tabular output.
type issue struct {
	file string
	line audit.Line
	kind string
}

func issues(r *audit.Report, all bool) []issue {
	var out []issue
	for _, file := range r.Files {
		for _, line := range file.Lines {
			kind := issueKind(line)
			if kind == "" && !all {
				continue
			}
			out = append(out, issue{file: file.Path, line: line, kind: kind})
		}
	}
	return out
}

func issueKind(line audit.Line) string {
	switch {
	case line.Invisible:
		return "invisible"
	case line.DuplicateOf != 0:
		return fmt.Sprintf("duplicate of #%d", line.DuplicateOf)
	default:
		return ""
	}
}

// excerpt shortens dialogue text for table cells.
func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func formatMS(ms int64) string {
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms%1000)
}
