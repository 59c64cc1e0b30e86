package basic_test

import (
	"strings"
	"testing"

	"subinspector/internal/bounds"
	"subinspector/internal/raster"
	"subinspector/internal/raster/basic"
)

const header = "[Script Info]\nScriptType: v4.00+\nPlayResX: 640\nPlayResY: 480\n\n" +
	"[V4+ Styles]\n" +
	"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n" +
	"Style: Default,Arial,26,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,1,2,20,20,20,1\n" +
	"Style: Plain,Arial,13,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,0,0,7,0,0,0,1\n\n" +
	"[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"

func newRenderer(t *testing.T) (*basic.Renderer, *[]string) {
	t.Helper()
	r := basic.New()
	var messages []string
	r.SetMessageHandler(func(level raster.Level, msg string) {
		messages = append(messages, msg)
	})
	r.SetFrameSize(640, 480)
	return r, &messages
}

func parse(t *testing.T, r *basic.Renderer, body string) raster.Track {
	t.Helper()
	tr, err := r.ParseScript([]byte(header + body))
	if err != nil {
		t.Fatalf("ParseScript returned error: %v", err)
	}
	t.Cleanup(tr.Close)
	return tr
}

func collect(frame raster.Frame) []raster.Layer {
	var out []raster.Layer
	for layer := range frame.Layers {
		out = append(out, layer)
	}
	return out
}

func TestParseScriptRejectsEmptyAndUnknownInput(t *testing.T) {
	r, messages := newRenderer(t)
	if _, err := r.ParseScript(nil); err == nil {
		t.Fatal("expected error for empty script")
	}
	if _, err := r.ParseScript([]byte("just some text\nwithout sections\n")); err == nil {
		t.Fatal("expected error for script without sections")
	}
	if len(*messages) == 0 {
		t.Fatal("expected parse failures to be reported through the message handler")
	}
}

func TestRenderVisibleLine(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r, "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello world\n")

	frame, ok := r.RenderFrame(tr, 1500)
	if !ok {
		t.Fatal("expected a rendered frame")
	}
	if frame.Change != raster.Changed {
		t.Fatalf("expected first frame to be changed, got %s", frame.Change)
	}
	layers := collect(frame)
	if len(layers) != 3 {
		t.Fatalf("expected shadow, outline and fill layers, got %d", len(layers))
	}
	rect := bounds.Merge(raster.Layers(layers))
	if rect.Empty() {
		t.Fatalf("expected visible bounds, got %v", rect)
	}
	if int(rect.Y)+int(rect.H) > 480 || rect.X < 0 {
		t.Fatalf("bounds escaped the canvas: %v", rect)
	}
	if !rect.Solid {
		t.Fatal("expected bitmap glyphs to be solid")
	}
}

func TestRenderOutsideEventTimeIsEmpty(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r, "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello\n")
	if _, ok := r.RenderFrame(tr, 2000); ok {
		t.Fatal("end time is exclusive")
	}
	if _, ok := r.RenderFrame(tr, 999); ok {
		t.Fatal("expected nothing before start")
	}
}

func TestRenderOffCanvasLineProducesNoLayers(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r, "Dialogue: 0,0:00:00.00,0:00:05.00,Default,,0,0,0,,{\\pos(-2000,-2000)}Gone\n")
	if _, ok := r.RenderFrame(tr, 100); ok {
		t.Fatal("expected off-canvas line to render nothing")
	}
}

func TestRenderClipsPartiallyVisibleLine(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r, "Dialogue: 0,0:00:00.00,0:00:05.00,Plain,,0,0,0,,{\\an7\\pos(-10,0)}Clipped text\n")
	frame, ok := r.RenderFrame(tr, 100)
	if !ok {
		t.Fatal("expected partially visible frame")
	}
	layers := collect(frame)
	if len(layers) != 1 {
		t.Fatalf("expected only a fill layer, got %d", len(layers))
	}
	layer := layers[0]
	if layer.DstX != 0 || layer.DstY != 0 {
		t.Fatalf("expected clipped layer at origin, got %d,%d", layer.DstX, layer.DstY)
	}
	if layer.Stride < layer.W || !layer.Valid() {
		t.Fatalf("invalid clipped layer geometry: w=%d stride=%d len=%d", layer.W, layer.Stride, len(layer.Bitmap))
	}
}

func TestRenderChangeSignal(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r,
		"Dialogue: 0,0:00:01.00,0:00:02.00,Plain,,0,0,0,,{\\pos(100,100)}Same\n"+
			"Dialogue: 0,0:00:03.00,0:00:04.00,Plain,,0,0,0,,{\\pos(100,100)}Same\n"+
			"Dialogue: 0,0:00:05.00,0:00:06.00,Plain,,0,0,0,,{\\pos(300,100)}Same\n"+
			"Dialogue: 0,0:00:07.00,0:00:08.00,Plain,,0,0,0,,{\\pos(300,100)}Other\n")

	steps := []struct {
		ms   int64
		want raster.Change
	}{
		{1000, raster.Changed},
		{1500, raster.Unchanged},
		{3000, raster.Unchanged},
		{5000, raster.Moved},
		{7000, raster.Changed},
	}
	for _, step := range steps {
		frame, ok := r.RenderFrame(tr, step.ms)
		if !ok {
			t.Fatalf("at %d: expected frame", step.ms)
		}
		if frame.Change != step.want {
			t.Fatalf("at %d: got %s want %s", step.ms, frame.Change, step.want)
		}
	}

	if _, ok := r.RenderFrame(tr, 9000); ok {
		t.Fatal("expected empty frame")
	}
	frame, _ := r.RenderFrame(tr, 7000)
	if frame.Change != raster.Changed {
		t.Fatalf("expected change after an empty frame, got %s", frame.Change)
	}

	r.SetFrameSize(640, 480)
	frame, _ = r.RenderFrame(tr, 7000)
	if frame.Change != raster.Changed {
		t.Fatalf("expected change after resize, got %s", frame.Change)
	}
}

func TestRenderAlphaOverrideMarksLayerTransparent(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r, "Dialogue: 0,0:00:00.00,0:00:05.00,Default,,0,0,0,,{\\alpha&HFF&}Hidden\n")
	frame, ok := r.RenderFrame(tr, 100)
	if !ok {
		t.Fatal("expected layers for transparent text")
	}
	for _, layer := range collect(frame) {
		if !layer.Transparent() {
			t.Fatalf("expected transparent layer, color %08x", layer.Color)
		}
	}
	frame, _ = r.RenderFrame(tr, 100)
	if rect := bounds.Merge(frame.Layers); !rect.Empty() {
		t.Fatalf("expected fully transparent line to have no bounds, got %v", rect)
	}
}

func TestRenderWarnsAboutBadEvents(t *testing.T) {
	r, messages := newRenderer(t)
	tr := parse(t, r,
		"Dialogue: 0,nonsense,0:00:02.00,Default,,0,0,0,,Broken\n"+
			"Dialogue: 0,0:00:00.00,0:00:02.00,Missing,,0,0,0,,Styled\n")
	if _, ok := r.RenderFrame(tr, 100); !ok {
		t.Fatal("expected event with unknown style to fall back to Default")
	}
	joined := strings.Join(*messages, "\n")
	if !strings.Contains(joined, "bad start timestamp") {
		t.Fatalf("expected timestamp warning, got %q", joined)
	}
	if !strings.Contains(joined, `no style named "Missing"`) {
		t.Fatalf("expected style warning, got %q", joined)
	}
}

func TestRenderLayerOrdering(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r,
		"Dialogue: 1,0:00:00.00,0:00:02.00,Plain,,0,0,0,,{\\pos(10,10)}Top\n"+
			"Dialogue: 0,0:00:00.00,0:00:02.00,Plain,,0,0,0,,{\\pos(10,200)}Bottom\n")
	frame, ok := r.RenderFrame(tr, 100)
	if !ok {
		t.Fatal("expected frame")
	}
	layers := collect(frame)
	if len(layers) != 2 {
		t.Fatalf("expected two fill layers, got %d", len(layers))
	}
	if layers[0].DstY <= layers[1].DstY {
		t.Fatalf("expected layer 0 event first, got y=%d then y=%d", layers[0].DstY, layers[1].DstY)
	}
}

func TestRenderCapsOversizedBorderToCanvas(t *testing.T) {
	r, _ := newRenderer(t)
	tr := parse(t, r,
		"Dialogue: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,{\\bord1e12}x\n"+
			"Dialogue: 0,0:00:02.00,0:00:03.00,Default,,0,0,0,,{\\bordinf\\shadinf}x\n")
	for _, ms := range []int64{100, 2100} {
		frame, ok := r.RenderFrame(tr, ms)
		if !ok {
			t.Fatalf("%d ms: expected a rendered frame", ms)
		}
		rect := bounds.Merge(frame.Layers)
		if rect.X != 0 || rect.Y != 0 || rect.W != 640 || rect.H != 480 {
			t.Fatalf("%d ms: expected outline to cover the canvas, got %v", ms, rect)
		}
	}
}

func TestRenderCapsHugeFontSize(t *testing.T) {
	r, messages := newRenderer(t)
	huge := strings.Replace(header, "Style: Plain,Arial,13,", "Style: Plain,Arial,1e12,", 1)
	tr, err := r.ParseScript([]byte(huge +
		"Dialogue: 0,0:00:00.00,0:00:01.00,Plain,,0,0,0,,x\n" +
		"Dialogue: 0,0:00:02.00,0:00:03.00,Plain,,0,0,0,,{\\bord1e12}" + strings.Repeat("x", 100) + "\n"))
	if err != nil {
		t.Fatalf("ParseScript returned error: %v", err)
	}
	t.Cleanup(tr.Close)

	frame, ok := r.RenderFrame(tr, 100)
	if !ok {
		t.Fatal("expected a rendered frame")
	}
	rect := bounds.Merge(frame.Layers)
	if rect.Empty() || int(rect.X)+int(rect.W) > 640 || int(rect.Y)+int(rect.H) > 480 {
		t.Fatalf("expected clipped visible bounds, got %v", rect)
	}

	if _, ok := r.RenderFrame(tr, 2100); ok {
		t.Fatal("expected oversized event to be skipped")
	}
	if joined := strings.Join(*messages, "\n"); !strings.Contains(joined, "exceeds") {
		t.Fatalf("expected size warning, got %q", joined)
	}
}
