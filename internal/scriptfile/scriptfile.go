package scriptfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNotASS reports input that does not start with a [Script Info] section.
var ErrNotASS = errors.New("not an ASS script")

const maxLineBytes = 1 << 20

// infoKeys are the [Script Info] entries that influence rendering.
var infoKeys = []string{
	"ScriptType",
	"PlayResX",
	"PlayResY",
	"LayoutResX",
	"LayoutResY",
	"WrapStyle",
	"ScaledBorderAndShadow",
}

// Line is one Dialogue event.
type Line struct {
	// Index is the 1-based position among Dialogue lines.
	Index int `json:"index" yaml:"index"`
	// Number is the 1-based line number in the source file.
	Number int    `json:"number" yaml:"number"`
	Start  int64  `json:"start_ms" yaml:"start_ms"`
	End    int64  `json:"end_ms" yaml:"end_ms"`
	Text   string `json:"text" yaml:"text"`
	// Body is the Dialogue line terminated by a newline, ready to follow
	// Header.
	Body []byte `json:"-" yaml:"-"`
}

// Script is a split ASS file.
type Script struct {
	Header   []byte
	Lines    []Line
	PlayResX int
	PlayResY int
	// Warnings lists Dialogue lines that were skipped.
	Warnings []string
}

// Read opens and splits the file at path.
func Read(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	script, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

type section int

const (
	sectionOther section = iota
	sectionInfo
	sectionStyles
	sectionEvents
)

type splitter struct {
	section     section
	info        []string
	styleFormat string
	styles      []string
	eventFormat string
	startField  int
	endField    int
	textField   int
	script      Script
}

// Parse splits ASS text read from r.
func Parse(r io.Reader) (*Script, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	s := &splitter{startField: 1, endField: 2, textField: 9}
	number := 0
	started := false
	for scanner.Scan() {
		number++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if !started {
			if trimmed == "" {
				continue
			}
			if !strings.EqualFold(trimmed, "[Script Info]") {
				return nil, ErrNotASS
			}
			started = true
		}
		s.add(number, line, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if !started {
		return nil, ErrNotASS
	}
	s.script.Header = s.header()
	return &s.script, nil
}

func (s *splitter) add(number int, line, trimmed string) {
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		switch strings.ToLower(trimmed) {
		case "[script info]":
			s.section = sectionInfo
		case "[v4+ styles]", "[v4 styles]":
			s.section = sectionStyles
		case "[events]":
			s.section = sectionEvents
		default:
			s.section = sectionOther
		}
		return
	}
	if trimmed == "" || strings.HasPrefix(trimmed, ";") {
		return
	}
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch s.section {
	case sectionInfo:
		for _, known := range infoKeys {
			if strings.EqualFold(key, known) {
				s.info = append(s.info, known+": "+value)
				switch known {
				case "PlayResX":
					s.script.PlayResX, _ = strconv.Atoi(value)
				case "PlayResY":
					s.script.PlayResY, _ = strconv.Atoi(value)
				}
			}
		}
	case sectionStyles:
		switch {
		case strings.EqualFold(key, "Format"):
			s.styleFormat = trimmed
		case strings.EqualFold(key, "Style"):
			s.styles = append(s.styles, trimmed)
		}
	case sectionEvents:
		switch {
		case strings.EqualFold(key, "Format"):
			s.setEventFormat(trimmed, value)
		case strings.EqualFold(key, "Dialogue"):
			s.addDialogue(number, line, value)
		}
	}
}

func (s *splitter) setEventFormat(line, value string) {
	s.eventFormat = line
	for i, field := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "start":
			s.startField = i
		case "end":
			s.endField = i
		case "text":
			s.textField = i
		}
	}
}

func (s *splitter) addDialogue(number int, line, value string) {
	fields := strings.SplitN(value, ",", s.textField+1)
	if len(fields) <= max(s.startField, s.endField) {
		s.script.Warnings = append(s.script.Warnings, fmt.Sprintf("line %d: too few fields", number))
		return
	}
	start, err := ParseTimestamp(fields[s.startField])
	if err != nil {
		s.script.Warnings = append(s.script.Warnings, fmt.Sprintf("line %d: bad start time: %v", number, err))
		return
	}
	end, err := ParseTimestamp(fields[s.endField])
	if err != nil {
		s.script.Warnings = append(s.script.Warnings, fmt.Sprintf("line %d: bad end time: %v", number, err))
		return
	}
	var text string
	if s.textField < len(fields) {
		text = fields[s.textField]
	}
	s.script.Lines = append(s.script.Lines, Line{
		Index:  len(s.script.Lines) + 1,
		Number: number,
		Start:  start,
		End:    end,
		Text:   text,
		Body:   []byte(strings.TrimSpace(line) + "\n"),
	})
}

func (s *splitter) header() []byte {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	for _, line := range s.info {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\n[V4+ Styles]\n")
	if s.styleFormat != "" {
		b.WriteString(s.styleFormat)
		b.WriteByte('\n')
	}
	for _, line := range s.styles {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\n[Events]\n")
	if s.eventFormat != "" {
		b.WriteString(s.eventFormat)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ParseTimestamp reads an H:MM:SS.CC time into milliseconds.
func ParseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	hms, frac, _ := strings.Cut(value, ".")
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	var total int64
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q", value)
		}
		total = total*60 + int64(n)
	}
	total *= 1000
	if frac != "" {
		n, err := strconv.ParseUint(frac, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q", value)
		}
		total += int64(n) * 10
	}
	return total, nil
}

// FormatTimestamp renders ms as H:MM:SS.CC.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := ms / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}
