package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"subinspector/internal/audit"
)

func writeMarkdown(w io.Writer, r *audit.Report, opts Options) error {
	md := markdown.NewMarkdown(w)

	md.H1("Subtitle Audit")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Started", r.Started.Format("2006-01-02 15:04:05 MST")},
			{"Renderer", r.Backend},
			{"Files", strconv.Itoa(r.Summary.Files)},
			{"Lines", strconv.Itoa(r.Summary.Lines)},
			{"Invisible", strconv.Itoa(r.Summary.Invisible)},
			{"Duplicates", strconv.Itoa(r.Summary.Duplicates)},
			{"Failed", strconv.Itoa(r.Summary.Failed)},
		},
	})
	md.PlainText("")

	switch {
	case r.Summary.Failed > 0:
		md.Cautionf("%d file(s) could not be checked.", r.Summary.Failed)
	case r.HasIssues():
		md.Warningf("%d invisible and %d duplicate line(s) found.", r.Summary.Invisible, r.Summary.Duplicates)
	default:
		md.Tip("Every line renders visibly and no line repeats another.")
	}
	md.PlainText("")

	for _, file := range r.Files {
		writeMarkdownFile(md, file, opts)
	}
	return md.Build()
}

func writeMarkdownFile(md *markdown.Markdown, file audit.File, opts Options) {
	md.H2(file.Path)
	md.PlainText("")

	if file.Error != "" {
		md.Cautionf("%s", file.Error)
		md.PlainText("")
		return
	}
	md.PlainText(fmt.Sprintf("Canvas %dx%d, %d line(s).", file.Width, file.Height, len(file.Lines)))
	md.PlainText("")

	if len(file.Warnings) > 0 {
		md.BulletList(file.Warnings...)
		md.PlainText("")
	}

	var rows [][]string
	for _, line := range file.Lines {
		kind := issueKind(line)
		if kind == "" && !opts.AllLines {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(line.Number),
			formatMS(line.Start),
			"`" + line.Rect.String() + "`",
			kind,
			excerpt(line.Text, excerptRunes),
		})
	}
	if len(rows) == 0 {
		md.PlainText("No issues.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Line", "Start", "Bounds", "Issue", "Text"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeSamplesMarkdown(w io.Writer, s Samples) error {
	md := markdown.NewMarkdown(w)
	md.H1(s.Path)
	md.PlainText("")
	md.PlainText(fmt.Sprintf("Canvas %dx%d.", s.Width, s.Height))
	md.PlainText("")

	rows := make([][]string, 0, len(s.Samples))
	for _, sample := range s.Samples {
		r := sample.Rect
		rows = append(rows, []string{
			formatMS(sample.TimeMS),
			fmt.Sprintf("%d,%d", r.X, r.Y),
			fmt.Sprintf("%dx%d", r.W, r.H),
			fmt.Sprintf("%08x", r.Fingerprint),
			strconv.FormatBool(r.Solid),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Time", "Origin", "Size", "Fingerprint", "Solid"},
		Rows:   rows,
	})
	return md.Build()
}
