package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"subinspector/internal/audit"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const excerptRunes = 40

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func writeTable(w io.Writer, r *audit.Report, opts Options) error {
	var b strings.Builder

	found := issues(r, opts.AllLines)
	if len(found) > 0 {
		rows := make([][]string, 0, len(found))
		for _, item := range found {
			kind := item.kind
			if opts.Color && kind != "" {
				kind = issueColor(item.line).Sprint(kind)
			}
			rows = append(rows, []string{
				filepath.Base(item.file),
				strconv.Itoa(item.line.Number),
				formatMS(item.line.Start),
				item.line.Rect.String(),
				kind,
				excerpt(item.line.Text, excerptRunes),
			})
		}
		b.WriteString(renderTable(
			[]string{"File", "Line", "Start", "Bounds", "Issue", "Text"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
		))
		b.WriteString("\n\n")
	}

	for _, file := range r.Files {
		if file.Error == "" {
			continue
		}
		msg := fmt.Sprintf("%s: %s", file.Path, file.Error)
		if opts.Color {
			msg = text.Colors{text.FgRed}.Sprint(msg)
		}
		b.WriteString(msg)
		b.WriteByte('\n')
	}

	s := r.Summary
	b.WriteString(renderTable(
		[]string{"Files", "Failed", "Lines", "Invisible", "Duplicates"},
		[][]string{{
			strconv.Itoa(s.Files),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Lines),
			strconv.Itoa(s.Invisible),
			strconv.Itoa(s.Duplicates),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func issueColor(line audit.Line) text.Colors {
	if line.Invisible {
		return text.Colors{text.FgYellow}
	}
	return text.Colors{text.FgCyan}
}

func samplesTable(s Samples) string {
	rows := make([][]string, 0, len(s.Samples))
	for _, sample := range s.Samples {
		r := sample.Rect
		rows = append(rows, []string{
			formatMS(sample.TimeMS),
			strconv.Itoa(int(r.X)),
			strconv.Itoa(int(r.Y)),
			strconv.FormatUint(uint64(r.W), 10),
			strconv.FormatUint(uint64(r.H), 10),
			fmt.Sprintf("%08x", r.Fingerprint),
			strconv.FormatBool(r.Solid),
		})
	}
	return renderTable(
		[]string{"Time", "X", "Y", "W", "H", "Fingerprint", "Solid"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}
