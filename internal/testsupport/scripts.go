package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subinspector/internal/scriptfile"
)

// ScriptHeader is a 640x480 script preamble with two styles: Default
// (bottom-centered with outline and shadow) and Plain (top-left aligned,
// no outline or shadow).
const ScriptHeader = "[Script Info]\n" +
	"ScriptType: v4.00+\n" +
	"PlayResX: 640\n" +
	"PlayResY: 480\n" +
	"\n" +
	"[V4+ Styles]\n" +
	"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n" +
	"Style: Default,Arial,26,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,1,2,20,20,20,1\n" +
	"Style: Plain,Arial,13,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,0,0,7,0,0,0,1\n" +
	"\n" +
	"[Events]\n" +
	"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"

// Dialogue formats one event line between startMS and endMS.
func Dialogue(startMS, endMS int64, style, text string) string {
	return fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
		scriptfile.FormatTimestamp(startMS), scriptfile.FormatTimestamp(endMS), style, text)
}

// Script joins the header with the given event lines.
func Script(lines ...string) string {
	return ScriptHeader + strings.Join(lines, "")
}

// WriteScript writes content to name inside a fresh temp directory and
// returns the path.
func WriteScript(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
