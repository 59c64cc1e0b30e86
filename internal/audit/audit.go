package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"subinspector/internal/bounds"
	"subinspector/internal/config"
	"subinspector/internal/inspector"
	"subinspector/internal/logging"
	"subinspector/internal/raster"
	"subinspector/internal/scriptfile"
)

// RendererFactory builds the renderer for one file's session.
type RendererFactory func() (raster.Renderer, error)

// Options configures a run.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// NewRenderer overrides the backend named by Config.
	NewRenderer RendererFactory
	Now         func() time.Time
}

// Line is the outcome for one Dialogue line.
type Line struct {
	Index  int         `json:"index" yaml:"index"`
	Number int         `json:"number" yaml:"number"`
	Start  int64       `json:"start_ms" yaml:"start_ms"`
	End    int64       `json:"end_ms" yaml:"end_ms"`
	Text   string      `json:"text" yaml:"text"`
	Rect   bounds.Rect `json:"rect" yaml:"rect"`
	// Invisible is set when the line renders no visible pixel.
	Invisible bool `json:"invisible" yaml:"invisible"`
	// DuplicateOf is the Index of the first visible line with the same
	// fingerprint, or zero.
	DuplicateOf int `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
}

// File is the outcome for one script.
type File struct {
	Path     string          `json:"path" yaml:"path"`
	Width    int             `json:"width" yaml:"width"`
	Height   int             `json:"height" yaml:"height"`
	Lines    []Line          `json:"lines" yaml:"lines"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats    inspector.Stats `json:"stats" yaml:"stats"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Invisible returns the lines that render nothing.
func (f File) Invisible() []Line {
	var out []Line
	for _, line := range f.Lines {
		if line.Invisible {
			out = append(out, line)
		}
	}
	return out
}

// Duplicates returns the lines that repeat an earlier line's content.
func (f File) Duplicates() []Line {
	var out []Line
	for _, line := range f.Lines {
		if line.DuplicateOf != 0 {
			out = append(out, line)
		}
	}
	return out
}

// Summary totals a run.
type Summary struct {
	Files      int `json:"files" yaml:"files"`
	Failed     int `json:"failed" yaml:"failed"`
	Lines      int `json:"lines" yaml:"lines"`
	Invisible  int `json:"invisible" yaml:"invisible"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
}

// Report is the outcome of a run.
type Report struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Backend  string        `json:"backend" yaml:"backend"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
	Files    []File        `json:"files" yaml:"files"`
	Summary  Summary       `json:"summary" yaml:"summary"`
}

// HasIssues reports whether any line was invisible or duplicated, or any
// file failed.
func (r *Report) HasIssues() bool {
	return r.Summary.Invisible > 0 || r.Summary.Duplicates > 0 || r.Summary.Failed > 0
}

// Run checks every path. It returns an error only when ctx ends first.
func Run(ctx context.Context, paths []string, opts Options) (*Report, error) {
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Backend: cfg.Renderer.Backend,
		Started: now(),
		Files:   make([]File, len(paths)),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.NewComponentLogger(opts.Logger, "audit")
	logging.WithContext(ctx, logger).Info("audit started",
		logging.Int("files", len(paths)),
		logging.String(logging.FieldBackend, report.Backend),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if cfg.Audit.Concurrency > 0 {
		group.SetLimit(cfg.Audit.Concurrency)
	}
	for i, path := range paths {
		group.Go(func() error {
			file, err := CheckFile(groupCtx, path, cfg, opts.NewRenderer, opts.Logger)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				file.Error = err.Error()
				logging.WarnWithContext(logging.WithContext(logging.WithFile(groupCtx, path), logger),
					"file check failed", "file_failed", "fix the script or rerun with --renderer basic",
					logging.Error(err))
			}
			report.Files[i] = file
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report.Duration = now().Sub(report.Started)
	report.Summary = summarize(report.Files)
	logging.WithContext(ctx, logger).Info("audit finished",
		logging.Int("lines", report.Summary.Lines),
		logging.Int("invisible", report.Summary.Invisible),
		logging.Int("duplicates", report.Summary.Duplicates),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func summarize(files []File) Summary {
	s := Summary{Files: len(files)}
	for _, file := range files {
		if file.Error != "" {
			s.Failed++
		}
		s.Lines += len(file.Lines)
		s.Invisible += len(file.Invisible())
		s.Duplicates += len(file.Duplicates())
	}
	return s
}

// CheckFile inspects one script. The returned File carries the path even
// when err is set.
func CheckFile(ctx context.Context, path string, cfg *config.Config, factory RendererFactory, logger *slog.Logger) (File, error) {
	file := File{Path: path}
	ctx = logging.WithFile(ctx, path)
	base := logging.WithContext(ctx, logger)
	log := logging.NewComponentLogger(base, "audit")

	script, err := scriptfile.Read(path)
	if err != nil {
		return file, err
	}
	file.Warnings = script.Warnings
	for _, warning := range script.Warnings {
		log.Warn("dialogue line skipped", logging.String("reason", warning))
	}
	file.Width, file.Height = cfg.CanvasFor(script.PlayResX, script.PlayResY)

	opts := inspector.Options{
		Width:          file.Width,
		Height:         file.Height,
		FontConfig:     cfg.Fonts.Config,
		FontDir:        cfg.Fonts.Dir,
		Backend:        raster.Backend(cfg.Renderer.Backend),
		MaxScriptBytes: cfg.Renderer.MaxScriptBytes,
		Logger:         base,
	}
	if factory != nil {
		if opts.Renderer, err = factory(); err != nil {
			return file, fmt.Errorf("create renderer: %w", err)
		}
	}
	session, err := inspector.New(opts)
	if err != nil {
		return file, err
	}
	defer session.Close()

	if err := session.SetHeader(script.Header, len(script.Header)); err != nil {
		return file, err
	}

	firstByFingerprint := make(map[uint32]int)
	file.Lines = make([]Line, 0, len(script.Lines))
	for _, sl := range script.Lines {
		if err := ctx.Err(); err != nil {
			return file, err
		}
		line, err := checkLine(session, sl)
		if err != nil {
			return file, fmt.Errorf("line %d: %w", sl.Number, err)
		}
		if line.Invisible {
			log.Info("line renders nothing", logging.Int(logging.FieldLineIndex, line.Index))
		} else if first, ok := firstByFingerprint[line.Rect.Fingerprint]; ok {
			line.DuplicateOf = first
			log.Info("duplicate line", logging.Int(logging.FieldLineIndex, line.Index), logging.Int("first", first))
		} else {
			firstByFingerprint[line.Rect.Fingerprint] = line.Index
		}
		file.Lines = append(file.Lines, line)
	}
	file.Stats = session.Stats()
	return file, nil
}

func checkLine(session *inspector.Session, sl scriptfile.Line) (Line, error) {
	if err := session.SetScript(sl.Body, len(sl.Body)); err != nil {
		return Line{}, err
	}
	var rects [1]bounds.Rect
	if err := session.CalculateBounds(rects[:], []int64{sl.Start}); err != nil {
		return Line{}, err
	}
	return Line{
		Index:     sl.Index,
		Number:    sl.Number,
		Start:     sl.Start,
		End:       sl.End,
		Text:      sl.Text,
		Rect:      rects[0],
		Invisible: rects[0].Empty(),
	}, nil
}
