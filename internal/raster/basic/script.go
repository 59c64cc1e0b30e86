package basic

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"subinspector/internal/raster"
)

const defaultStyleName = "Default"

var (
	defaultStyleFormat = []string{
		"name", "fontname", "fontsize", "primarycolour", "secondarycolour",
		"outlinecolour", "backcolour", "bold", "italic", "underline", "strikeout",
		"scalex", "scaley", "spacing", "angle", "borderstyle", "outline", "shadow",
		"alignment", "marginl", "marginr", "marginv", "encoding",
	}
	defaultEventFormat = []string{
		"layer", "start", "end", "style", "name", "marginl", "marginr", "marginv", "effect", "text",
	}
)

type style struct {
	name      string
	fontSize  float64
	primary   uint32
	outline   uint32
	back      uint32
	border    float64
	shadow    float64
	alignment int
	marginL   int
	marginR   int
	marginV   int
}

func defaultStyle() *style {
	return &style{
		name:      defaultStyleName,
		fontSize:  18,
		primary:   0xFFFFFF00,
		outline:   0x00000000,
		back:      0x00000000,
		border:    2,
		shadow:    2,
		alignment: 2,
		marginL:   10,
		marginR:   10,
		marginV:   10,
	}
}

type event struct {
	index   int
	layer   int
	start   int64
	end     int64
	style   string
	marginL int
	marginR int
	marginV int
	text    string
}

func (e event) activeAt(ms int64) bool {
	return ms >= e.start && ms < e.end
}

type track struct {
	playResX int
	playResY int
	styles   map[string]*style
	events   []event
}

func (t *track) Close() {
	t.events = nil
	t.styles = nil
}

func (t *track) style(name string) (*style, bool) {
	if st, ok := t.styles[name]; ok {
		return st, true
	}
	if st, ok := t.styles[strings.TrimLeft(name, "*")]; ok {
		return st, true
	}
	return t.styles[defaultStyleName], false
}

var errNoSections = errors.New("no [Script Info], [V4+ Styles] or [Events] section")

type parser struct {
	track       *track
	section     string
	styleFormat []string
	eventFormat []string
	warn        func(level raster.Level, format string, args ...any)
	sections    int
}

func parseScript(data []byte, warn func(raster.Level, string, ...any)) (*track, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty script")
	}
	p := &parser{
		track: &track{
			styles: map[string]*style{defaultStyleName: defaultStyle()},
		},
		styleFormat: defaultStyleFormat,
		eventFormat: defaultEventFormat,
		warn:        warn,
	}
	for lineNo, raw := range bytes.Split(data, []byte("\n")) {
		p.line(lineNo+1, strings.TrimRight(string(raw), "\r"))
	}
	if p.sections == 0 {
		return nil, errNoSections
	}
	p.track.playResX, p.track.playResY = resolvePlayRes(p.track.playResX, p.track.playResY)
	return p.track, nil
}

func (p *parser) line(lineNo int, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "!:") {
		return
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		p.section = strings.ToLower(trimmed)
		switch p.section {
		case "[script info]", "[v4+ styles]", "[v4 styles]", "[events]":
			p.sections++
		}
		return
	}
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch p.section {
	case "[script info]":
		switch strings.ToLower(key) {
		case "playresx":
			p.track.playResX = atoi(value)
		case "playresy":
			p.track.playResY = atoi(value)
		}
	case "[v4+ styles]", "[v4 styles]":
		switch strings.ToLower(key) {
		case "format":
			p.styleFormat = parseFormat(value)
		case "style":
			st := p.style(value)
			p.track.styles[st.name] = st
		}
	case "[events]":
		switch strings.ToLower(key) {
		case "format":
			p.eventFormat = parseFormat(value)
		case "dialogue":
			ev, err := p.event(value)
			if err != nil {
				p.warn(raster.LevelWarn, "line %d: %v", lineNo, err)
				return
			}
			ev.index = len(p.track.events)
			p.track.events = append(p.track.events, ev)
		}
	}
}

func parseFormat(value string) []string {
	fields := strings.Split(value, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, strings.ToLower(strings.TrimSpace(field)))
	}
	return out
}

func splitFields(format []string, value string) map[string]string {
	parts := strings.SplitN(value, ",", len(format))
	fields := make(map[string]string, len(parts))
	for i, part := range parts {
		if format[i] == "text" {
			fields[format[i]] = part
			continue
		}
		fields[format[i]] = strings.TrimSpace(part)
	}
	return fields
}

func (p *parser) style(value string) *style {
	fields := splitFields(p.styleFormat, value)
	st := defaultStyle()
	if name := fields["name"]; name != "" {
		st.name = strings.TrimLeft(name, "*")
	}
	if v, ok := fields["fontsize"]; ok {
		st.fontSize = atof(v, st.fontSize)
	}
	if v, ok := fields["primarycolour"]; ok {
		st.primary = parseColor(v, st.primary)
	}
	if v, ok := fields["outlinecolour"]; ok {
		st.outline = parseColor(v, st.outline)
	}
	if v, ok := fields["backcolour"]; ok {
		st.back = parseColor(v, st.back)
	}
	if v, ok := fields["outline"]; ok {
		st.border = atof(v, st.border)
	}
	if v, ok := fields["shadow"]; ok {
		st.shadow = atof(v, st.shadow)
	}
	if v, ok := fields["alignment"]; ok {
		if a := atoi(v); a >= 1 && a <= 9 {
			st.alignment = a
		}
	}
	if v, ok := fields["marginl"]; ok {
		st.marginL = atoi(v)
	}
	if v, ok := fields["marginr"]; ok {
		st.marginR = atoi(v)
	}
	if v, ok := fields["marginv"]; ok {
		st.marginV = atoi(v)
	}
	return st
}

func (p *parser) event(value string) (event, error) {
	fields := splitFields(p.eventFormat, value)
	start, err := parseTimestamp(fields["start"])
	if err != nil {
		return event{}, fmt.Errorf("bad start timestamp: %w", err)
	}
	end, err := parseTimestamp(fields["end"])
	if err != nil {
		return event{}, fmt.Errorf("bad end timestamp: %w", err)
	}
	return event{
		layer:   atoi(fields["layer"]),
		start:   start,
		end:     end,
		style:   fields["style"],
		marginL: atoi(fields["marginl"]),
		marginR: atoi(fields["marginr"]),
		marginV: atoi(fields["marginv"]),
		text:    fields["text"],
	}, nil
}

// parseTimestamp reads H:MM:SS.CC. The fractional part counts centiseconds.
func parseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%q", value)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q", value)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q", value)
	}
	secText, fracText, _ := strings.Cut(parts[2], ".")
	seconds, err := strconv.ParseInt(secText, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q", value)
	}
	var centis int64
	if fracText != "" {
		if centis, err = strconv.ParseInt(fracText, 10, 64); err != nil {
			return 0, fmt.Errorf("%q", value)
		}
	}
	return ((hours*60+minutes)*60+seconds)*1000 + centis*10, nil
}

// parseColor converts an ASS &HAABBGGRR value to RGBA with the alpha in the
// low byte.
func parseColor(value string, fallback uint32) uint32 {
	v := strings.TrimSpace(value)
	var raw uint64
	var err error
	switch {
	case strings.HasPrefix(v, "&H") || strings.HasPrefix(v, "&h"):
		raw, err = strconv.ParseUint(strings.TrimRight(v[2:], "&"), 16, 32)
	default:
		var n int64
		n, err = strconv.ParseInt(v, 10, 64)
		raw = uint64(uint32(n))
	}
	if err != nil {
		return fallback
	}
	abgr := uint32(raw)
	r := abgr & 0xFF
	g := (abgr >> 8) & 0xFF
	b := (abgr >> 16) & 0xFF
	a := (abgr >> 24) & 0xFF
	return r<<24 | g<<16 | b<<8 | a
}

func resolvePlayRes(x, y int) (int, int) {
	switch {
	case x <= 0 && y <= 0:
		return 384, 288
	case y <= 0:
		if x == 1280 {
			return x, 1024
		}
		return x, x * 3 / 4
	case x <= 0:
		if y == 1024 {
			return 1280, y
		}
		return y * 4 / 3, y
	}
	return x, y
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func atof(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
