package basic

import (
	"strconv"
	"strings"
)

// overrides holds the tag values that affect placement and visibility.
type overrides struct {
	hasPos      bool
	posX, posY  float64
	alignment   int
	fillAlpha   *uint8
	borderAlpha *uint8
	shadowAlpha *uint8
	border      *float64
	shadow      *float64
}

// parseText splits dialogue text into display lines and the override tags
// that apply to the whole event. As in libass, the first \pos and the first
// \an win.
func parseText(text string) ([]string, overrides) {
	var ov overrides
	var plain strings.Builder
	for len(text) > 0 {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			plain.WriteString(text)
			break
		}
		plain.WriteString(text[:open])
		rest := text[open+1:]
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			break
		}
		ov.apply(rest[:closing])
		text = rest[closing+1:]
	}

	replaced := strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(plain.String())
	return strings.Split(replaced, "\n"), ov
}

func (ov *overrides) apply(block string) {
	for _, tag := range strings.Split(block, `\`) {
		tag = strings.TrimSpace(tag)
		switch {
		case tag == "":
		case strings.HasPrefix(tag, "pos("):
			if ov.hasPos {
				continue
			}
			args := tagArgs(tag[len("pos"):])
			if len(args) != 2 {
				continue
			}
			x, errX := strconv.ParseFloat(args[0], 64)
			y, errY := strconv.ParseFloat(args[1], 64)
			if errX != nil || errY != nil {
				continue
			}
			ov.hasPos, ov.posX, ov.posY = true, x, y
		case strings.HasPrefix(tag, "an"):
			if ov.alignment != 0 {
				continue
			}
			if a, err := strconv.Atoi(tag[2:]); err == nil && a >= 1 && a <= 9 {
				ov.alignment = a
			}
		case strings.HasPrefix(tag, "alpha"):
			if a, ok := parseAlpha(tag[len("alpha"):]); ok {
				ov.fillAlpha, ov.borderAlpha, ov.shadowAlpha = &a, &a, &a
			}
		case strings.HasPrefix(tag, "1a"):
			if a, ok := parseAlpha(tag[2:]); ok {
				ov.fillAlpha = &a
			}
		case strings.HasPrefix(tag, "3a"):
			if a, ok := parseAlpha(tag[2:]); ok {
				ov.borderAlpha = &a
			}
		case strings.HasPrefix(tag, "4a"):
			if a, ok := parseAlpha(tag[2:]); ok {
				ov.shadowAlpha = &a
			}
		case strings.HasPrefix(tag, "bord"):
			if v, err := strconv.ParseFloat(tag[len("bord"):], 64); err == nil && v >= 0 {
				ov.border = &v
			}
		case strings.HasPrefix(tag, "shad"):
			if v, err := strconv.ParseFloat(tag[len("shad"):], 64); err == nil && v >= 0 {
				ov.shadow = &v
			}
		}
	}
}

func tagArgs(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "(")
	value = strings.TrimSuffix(value, ")")
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseAlpha reads &Hxx& style alpha values.
func parseAlpha(value string) (uint8, bool) {
	v := strings.TrimSpace(value)
	v = strings.Trim(v, "&")
	v = strings.TrimPrefix(strings.TrimPrefix(v, "H"), "h")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint8(n & 0xFF), true
}

func withAlpha(color uint32, alpha *uint8) uint32 {
	if alpha == nil {
		return color
	}
	return color&^0xFF | uint32(*alpha)
}
