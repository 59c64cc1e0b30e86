package inspector_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"subinspector/internal/bounds"
	"subinspector/internal/inspector"
	"subinspector/internal/raster"
	"subinspector/internal/testsupport"
)

func newFakeSession(t *testing.T, fake *testsupport.FakeRenderer, opts ...func(*inspector.Options)) *inspector.Session {
	t.Helper()
	options := inspector.Options{Width: 640, Height: 480, Renderer: fake}
	for _, opt := range opts {
		opt(&options)
	}
	session, err := inspector.New(options)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func mustScript(t *testing.T, s *inspector.Session, body string) {
	t.Helper()
	if err := s.SetScript([]byte(body), len(body)); err != nil {
		t.Fatalf("SetScript returned error: %v", err)
	}
}

func TestNewRejectsInvalidFrameSize(t *testing.T) {
	_, err := inspector.New(inspector.Options{Width: 0, Height: 480, Renderer: &testsupport.FakeRenderer{}})
	if !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestNewConfiguresRenderer(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	newFakeSession(t, fake, func(o *inspector.Options) {
		o.Width, o.Height = 1920, 1080
		o.FontConfig = "/etc/fonts/fonts.conf"
		o.FontDir = "/usr/share/fonts"
	})
	if fake.Width != 1920 || fake.Height != 1080 {
		t.Fatalf("unexpected frame size %dx%d", fake.Width, fake.Height)
	}
	if fake.FontConfig != "/etc/fonts/fonts.conf" || fake.FontDir != "/usr/share/fonts" {
		t.Fatalf("unexpected fonts %q %q", fake.FontConfig, fake.FontDir)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := inspector.New(inspector.Options{Width: 1, Height: 1, Backend: "vulkan"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestScriptIsHeaderFollowedByBody(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake)

	if err := s.SetHeader([]byte("HEAD\n"), 5); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	mustScript(t, s, "body-1")
	if err := s.SetHeader([]byte("OTHER\n"), 0); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	mustScript(t, s, "body-2")
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}

	if len(fake.Parsed) != 2 {
		t.Fatalf("expected two parses, got %d", len(fake.Parsed))
	}
	if got := string(fake.Parsed[0]); got != "HEAD\nbody-1" {
		t.Fatalf("header change must not rebuild the script, got %q", got)
	}
	if got := string(fake.Parsed[1]); got != "OTHER\nbody-2" {
		t.Fatalf("unexpected rebuilt script %q", got)
	}
}

func TestExplicitLengthIsBinarySafe(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake)

	header := []byte("A\x00B")
	if err := s.SetHeader(header, len(header)); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	if err := s.SetScript([]byte("xyz-ignored"), 3); err != nil {
		t.Fatalf("SetScript returned error: %v", err)
	}
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}

	if err := s.SetHeader(header, 0); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	if err := s.SetScript([]byte("b\x00tail"), 0); err != nil {
		t.Fatalf("SetScript returned error: %v", err)
	}
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}

	if got := string(fake.Parsed[0]); got != "A\x00Bxyz" {
		t.Fatalf("expected explicit lengths to keep NUL bytes, got %q", got)
	}
	if got := string(fake.Parsed[1]); got != "Ab" {
		t.Fatalf("expected implicit lengths to stop at NUL, got %q", got)
	}
}

func TestLengthBeyondDataIsInvalid(t *testing.T) {
	s := newFakeSession(t, &testsupport.FakeRenderer{})
	if err := s.SetHeader([]byte("abc"), 4); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from SetHeader, got %v", err)
	}
	if err := s.SetScript([]byte("abc"), 10); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from SetScript, got %v", err)
	}
}

func TestFailedSetHeaderClearsHeader(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake)

	if err := s.SetHeader([]byte("HEAD\n"), 5); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	if err := s.SetHeader([]byte("abc"), 4); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	mustScript(t, s, "body")
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if got := string(fake.Parsed[0]); got != "body" {
		t.Fatalf("expected script without the old header, got %q", got)
	}
}

func TestCalculateBoundsRequiresScript(t *testing.T) {
	s := newFakeSession(t, &testsupport.FakeRenderer{})
	err := s.CalculateBounds(make([]bounds.Rect, 1), []int64{0})
	if !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if s.ErrorString() == "" {
		t.Fatal("expected failure to populate the error slot")
	}

	mustScript(t, s, "body")
	if err := s.SetScript(nil, 0); err != nil {
		t.Fatalf("SetScript(nil) returned error: %v", err)
	}
	if err := s.CalculateBounds(make([]bounds.Rect, 1), []int64{0}); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected cleared script to be invalid, got %v", err)
	}
}

func TestCalculateBoundsRejectsShortResultSlice(t *testing.T) {
	s := newFakeSession(t, &testsupport.FakeRenderer{})
	mustScript(t, s, "body")
	if err := s.CalculateBounds(make([]bounds.Rect, 1), []int64{0, 1}); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCalculateBoundsReportsParseFailure(t *testing.T) {
	fake := &testsupport.FakeRenderer{ParseErr: errors.New("garbage in")}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")
	err := s.CalculateBounds(make([]bounds.Rect, 1), []int64{0})
	if !errors.Is(err, inspector.ErrRasterizerParse) {
		t.Fatalf("expected ErrRasterizerParse, got %v", err)
	}
	if !strings.Contains(s.ErrorString(), "garbage in") {
		t.Fatalf("expected cause in error slot, got %q", s.ErrorString())
	}
}

func TestSetScriptOverLimitIsAllocationFailure(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake, func(o *inspector.Options) { o.MaxScriptBytes = 8 })

	if err := s.SetHeader([]byte("HEAD:"), 0); err != nil {
		t.Fatalf("SetHeader returned error: %v", err)
	}
	mustScript(t, s, "ok")
	if err := s.SetScript([]byte("toolong"), 0); !errors.Is(err, inspector.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if err := s.CalculateBounds(nil, nil); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected no usable script after failed set, got %v", err)
	}

	mustScript(t, s, "abc")
	if err := s.CalculateBounds(nil, nil); err != nil {
		t.Fatalf("expected session to recover, got %v", err)
	}
	if got := string(fake.Parsed[len(fake.Parsed)-1]); got != "HEAD:abc" {
		t.Fatalf("unexpected script %q", got)
	}
}

func TestUnchangedFrameReplaysPreviousResultWithoutScanning(t *testing.T) {
	first := testsupport.SolidLayer(10, 20, 30, 5, 0xFF)
	other := testsupport.SolidLayer(100, 100, 4, 4, 0x80)
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0:  {Layers: []raster.Layer{first}, Change: raster.Changed},
		10: {Layers: []raster.Layer{other}, Change: raster.Unchanged},
		20: {Layers: []raster.Layer{other}, Change: raster.Changed},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	rects := make([]bounds.Rect, 3)
	if err := s.CalculateBounds(rects, []int64{0, 10, 20}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}

	if rects[1] != rects[0] {
		t.Fatalf("expected replayed result, got %v want %v", rects[1], rects[0])
	}
	if rects[2] == rects[0] {
		t.Fatal("expected changed frame to be recomputed")
	}
	if rects[0].X != 10 || rects[0].Y != 20 || rects[0].W != 30 || rects[0].H != 5 || !rects[0].Solid {
		t.Fatalf("unexpected first rect %v", rects[0])
	}
	if fake.Yielded != 2 {
		t.Fatalf("expected layers to be pulled only for changed frames, got %d", fake.Yielded)
	}
	stats := s.Stats()
	if stats.Frames != 3 || stats.Reused != 1 || stats.Merged != 2 || stats.LayersScanned != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestUnchangedWithoutPreviousResultIsMerged(t *testing.T) {
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0: {Layers: []raster.Layer{testsupport.SolidLayer(1, 2, 3, 4, 0xFF)}, Change: raster.Unchanged},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	rects := make([]bounds.Rect, 1)
	if err := s.CalculateBounds(rects, []int64{0}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if rects[0].W != 3 || rects[0].H != 4 {
		t.Fatalf("expected merged rect, got %v", rects[0])
	}
}

func TestEmptyFrameLeavesSlotAndPreviousResult(t *testing.T) {
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0:  {Layers: []raster.Layer{testsupport.SolidLayer(5, 5, 10, 10, 0xFF)}, Change: raster.Changed},
		20: {Layers: []raster.Layer{testsupport.SolidLayer(50, 50, 1, 1, 0x01)}, Change: raster.Unchanged},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	seed := bounds.Rect{X: -1, Y: -1, Fingerprint: 0xDEADBEEF}
	rects := []bounds.Rect{seed, seed, seed}
	if err := s.CalculateBounds(rects, []int64{0, 10, 20}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if rects[1] != seed {
		t.Fatalf("expected empty frame to leave the slot untouched, got %v", rects[1])
	}
	if rects[2] != rects[0] {
		t.Fatalf("expected previous result to survive an empty frame, got %v", rects[2])
	}
	if s.Stats().Empty != 1 {
		t.Fatalf("expected one empty frame, got %+v", s.Stats())
	}
}

func TestMovedFrameIsRecomputed(t *testing.T) {
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0: {Layers: []raster.Layer{testsupport.SolidLayer(0, 0, 8, 8, 0xFF)}, Change: raster.Changed},
		1: {Layers: []raster.Layer{testsupport.SolidLayer(40, 0, 8, 8, 0xFF)}, Change: raster.Moved},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	rects := make([]bounds.Rect, 2)
	if err := s.CalculateBounds(rects, []int64{0, 1}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if rects[1].X != 40 {
		t.Fatalf("expected moved frame to be rescanned, got %v", rects[1])
	}
}

func TestCalculateBoundsReleasesTrack(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")
	for range 3 {
		if err := s.CalculateBounds(nil, nil); err != nil {
			t.Fatalf("CalculateBounds returned error: %v", err)
		}
	}
	if fake.OpenTracks != 0 {
		t.Fatalf("expected every track to be released, %d open", fake.OpenTracks)
	}
}

func TestErrorSlotFiltersAndTruncatesDiagnostics(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s := newFakeSession(t, fake)

	fake.Emit(raster.LevelInfo, "just chatter")
	if got := s.ErrorString(); got != "" {
		t.Fatalf("expected info messages to be ignored, got %q", got)
	}

	fake.Emit(raster.LevelWarn, "missing glyph")
	if got := s.ErrorString(); got != "2: missing glyph" {
		t.Fatalf("unexpected error slot %q", got)
	}

	fake.Emit(raster.LevelError, strings.Repeat("é", 100))
	got := s.ErrorString()
	if len(got) > 128 {
		t.Fatalf("expected at most 128 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if !strings.HasPrefix(got, "1: é") {
		t.Fatalf("unexpected prefix %q", got)
	}
}

func TestClosedSessionIsInvalid(t *testing.T) {
	fake := &testsupport.FakeRenderer{}
	s, err := inspector.New(inspector.Options{Width: 10, Height: 10, Renderer: fake})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !fake.Closed {
		t.Fatal("expected renderer to be closed")
	}
	if err := s.SetScript([]byte("x"), 1); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after Close, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestReconfigurationForgetsPreviousResult(t *testing.T) {
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0: {Layers: []raster.Layer{testsupport.SolidLayer(0, 0, 2, 2, 0xFF)}, Change: raster.Changed},
		1: {Layers: []raster.Layer{testsupport.SolidLayer(9, 9, 3, 3, 0xFF)}, Change: raster.Unchanged},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	rects := make([]bounds.Rect, 1)
	if err := s.CalculateBounds(rects, []int64{0}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if err := s.ChangeResolution(1280, 720); err != nil {
		t.Fatalf("ChangeResolution returned error: %v", err)
	}
	if fake.Width != 1280 || fake.Height != 720 {
		t.Fatalf("expected renderer to be resized, got %dx%d", fake.Width, fake.Height)
	}
	if err := s.CalculateBounds(rects, []int64{1}); err != nil {
		t.Fatalf("CalculateBounds returned error: %v", err)
	}
	if rects[0].X != 9 {
		t.Fatalf("expected a fresh merge after resize, got %v", rects[0])
	}

	if err := s.ReloadFonts("", "/tmp/fonts"); err != nil {
		t.Fatalf("ReloadFonts returned error: %v", err)
	}
	if fake.FontDir != "/tmp/fonts" {
		t.Fatalf("expected font dir to be forwarded, got %q", fake.FontDir)
	}
	if err := s.ChangeResolution(0, 720); !errors.Is(err, inspector.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for zero width, got %v", err)
	}
}

func TestCheckVisible(t *testing.T) {
	blank := testsupport.SolidLayer(0, 0, 8, 8, 0)
	hidden := testsupport.SolidLayer(0, 0, 8, 8, 0xFF)
	hidden.Color = 0x000000FF
	fake := &testsupport.FakeRenderer{Frames: map[int64]testsupport.FakeFrame{
		0:  {Layers: []raster.Layer{blank}, Change: raster.Changed},
		10: {Layers: []raster.Layer{hidden}, Change: raster.Changed},
		20: {Layers: []raster.Layer{blank, testsupport.SolidLayer(1, 1, 1, 1, 3)}, Change: raster.Changed},
	}}
	s := newFakeSession(t, fake)
	mustScript(t, s, "body")

	visible, anyVisible, err := s.CheckVisible([]int64{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("CheckVisible returned error: %v", err)
	}
	want := []bool{false, false, true, false}
	for i := range want {
		if visible[i] != want[i] {
			t.Fatalf("time %d: got %t want %t", i, visible[i], want[i])
		}
	}
	if !anyVisible {
		t.Fatal("expected aggregate visibility")
	}
}

func TestVersionIsSet(t *testing.T) {
	if inspector.Version() == 0 {
		t.Fatal("expected non-zero version")
	}
}
