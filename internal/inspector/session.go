package inspector

import (
	"bytes"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"subinspector/internal/bounds"
	"subinspector/internal/logging"
	"subinspector/internal/raster"
)

// version is the build identifier reported by Version, 0x00MMmmpp.
const version uint32 = 0x000600

// DefaultMaxScriptBytes bounds the combined header and body size.
const DefaultMaxScriptBytes = 64 << 20

// errorSlotSize is the maximum length in bytes of ErrorString.
const errorSlotSize = 128

// Version returns a monotonically increasing build identifier.
func Version() uint32 {
	return version
}

// Options configures a Session.
type Options struct {
	Width      int
	Height     int
	FontConfig string
	FontDir    string

	// Renderer is used as-is when set; the session takes ownership and closes
	// it. Otherwise a renderer for Backend is constructed.
	Renderer raster.Renderer
	Backend  raster.Backend

	// MaxScriptBytes limits the combined script; zero selects
	// DefaultMaxScriptBytes.
	MaxScriptBytes int
	Logger         *slog.Logger
}

// Stats counts the work a session has done.
type Stats struct {
	Frames        int `json:"frames" yaml:"frames"`
	Empty         int `json:"empty" yaml:"empty"`
	Reused        int `json:"reused" yaml:"reused"`
	Merged        int `json:"merged" yaml:"merged"`
	LayersScanned int `json:"layers_scanned" yaml:"layers_scanned"`
}

// Session inspects one script at a time with its own renderer.
type Session struct {
	renderer  raster.Renderer
	logger    *slog.Logger
	maxScript int

	header    []byte
	script    []byte
	hasScript bool

	last    bounds.Rect
	hasLast bool

	errMsg string
	stats  Stats
}

// New creates a session and configures the renderer canvas and fonts.
func New(opts Options) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, wrap(ErrInvalidState, "init", fmt.Sprintf("invalid frame size %dx%d", opts.Width, opts.Height), nil)
	}
	renderer := opts.Renderer
	if renderer == nil {
		r, err := NewRenderer(opts.Backend)
		if err != nil {
			return nil, wrap(ErrInvalidState, "init", "create renderer", err)
		}
		renderer = r
	}
	maxScript := opts.MaxScriptBytes
	if maxScript <= 0 {
		maxScript = DefaultMaxScriptBytes
	}

	s := &Session{
		renderer:  renderer,
		logger:    logging.NewComponentLogger(opts.Logger, "inspector"),
		maxScript: maxScript,
	}
	renderer.SetMessageHandler(s.onMessage)
	renderer.SetFrameSize(opts.Width, opts.Height)
	renderer.SetFonts(opts.FontConfig, opts.FontDir)
	return s, nil
}

// onMessage keeps renderer diagnostics more severe than info in the error
// slot.
func (s *Session) onMessage(level raster.Level, msg string) {
	if level >= raster.LevelInfo {
		s.logger.Debug("renderer message", logging.Int(logging.FieldEngineLevel, int(level)), logging.String("message", msg))
		return
	}
	s.setError(fmt.Sprintf("%d: %s", level, msg))
	s.logger.Warn("renderer diagnostic",
		logging.Int(logging.FieldEngineLevel, int(level)),
		logging.String("message", msg),
		logging.String(logging.FieldEventType, "renderer_diagnostic"),
	)
}

func (s *Session) setError(msg string) {
	s.errMsg = truncateUTF8(msg, errorSlotSize)
}

func (s *Session) fail(err error) error {
	s.setError(err.Error())
	return err
}

// ErrorString returns the most recent diagnostic, at most 128 bytes.
func (s *Session) ErrorString() string {
	if s == nil {
		return ""
	}
	return s.errMsg
}

// SetHeader replaces the header used by the next SetScript. A length of zero
// or less takes the bytes up to the first NUL, or all of data. A nil data
// clears the header, and so does a failed call.
func (s *Session) SetHeader(data []byte, length int) error {
	if err := s.usable("set header"); err != nil {
		return err
	}
	s.header = nil
	if data == nil {
		return nil
	}
	n, err := payloadLength(data, length)
	if err != nil {
		return s.fail(wrap(ErrInvalidState, "set header", "", err))
	}
	s.header = bytes.Clone(data[:n])
	return nil
}

// SetScript rebuilds the combined script as header followed by body. A nil
// body clears the script.
func (s *Session) SetScript(body []byte, length int) error {
	if err := s.usable("set script"); err != nil {
		return err
	}
	s.script = nil
	s.hasScript = false
	if body == nil {
		return nil
	}
	n, err := payloadLength(body, length)
	if err != nil {
		return s.fail(wrap(ErrInvalidState, "set script", "", err))
	}
	total := len(s.header) + n
	if total > s.maxScript {
		return s.fail(wrap(ErrAllocation, "set script", fmt.Sprintf("%d bytes exceeds limit of %d", total, s.maxScript), nil))
	}
	script := make([]byte, 0, total)
	script = append(script, s.header...)
	script = append(script, body[:n]...)
	s.script = script
	s.hasScript = true
	return nil
}

func payloadLength(data []byte, length int) (int, error) {
	if length > len(data) {
		return 0, fmt.Errorf("length %d exceeds %d available bytes", length, len(data))
	}
	if length > 0 {
		return length, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return i, nil
	}
	return len(data), nil
}

// CalculateBounds renders the script at every time and writes the result for
// times[i] into rects[i]. Slots whose time renders nothing are left as the
// caller seeded them.
func (s *Session) CalculateBounds(rects []bounds.Rect, times []int64) error {
	const op = "calculate bounds"
	if err := s.usable(op); err != nil {
		return err
	}
	if !s.hasScript {
		return s.fail(wrap(ErrInvalidState, op, "no script set", nil))
	}
	if len(rects) < len(times) {
		return s.fail(wrap(ErrInvalidState, op, fmt.Sprintf("%d result slots for %d times", len(rects), len(times)), nil))
	}
	track, err := s.renderer.ParseScript(s.script)
	if err != nil {
		return s.fail(wrap(ErrRasterizerParse, op, "", err))
	}
	defer track.Close()

	for i, ms := range times {
		frame, ok := s.renderer.RenderFrame(track, ms)
		s.stats.Frames++
		if !ok {
			s.stats.Empty++
			continue
		}
		if frame.Change == raster.Unchanged && s.hasLast {
			rects[i] = s.last
			s.stats.Reused++
			s.logger.Debug("frame unchanged", logging.Int64(logging.FieldTimeMS, ms))
			continue
		}
		var merged bounds.Frame
		for layer := range frame.Layers {
			merged.Add(layer)
		}
		s.last = merged.Rect()
		s.hasLast = true
		s.stats.Merged++
		s.stats.LayersScanned += merged.Scanned()
		rects[i] = s.last
	}
	return nil
}

// CheckVisible reports per time whether anything visible was rendered, and
// whether any time was.
func (s *Session) CheckVisible(times []int64) ([]bool, bool, error) {
	const op = "check visible"
	if err := s.usable(op); err != nil {
		return nil, false, err
	}
	if !s.hasScript {
		return nil, false, s.fail(wrap(ErrInvalidState, op, "no script set", nil))
	}
	track, err := s.renderer.ParseScript(s.script)
	if err != nil {
		return nil, false, s.fail(wrap(ErrRasterizerParse, op, "", err))
	}
	defer track.Close()

	visible := make([]bool, len(times))
	anyVisible := false
	for i, ms := range times {
		frame, ok := s.renderer.RenderFrame(track, ms)
		s.stats.Frames++
		if !ok {
			s.stats.Empty++
			continue
		}
		for layer := range frame.Layers {
			if bounds.Visible(layer) {
				visible[i] = true
				break
			}
		}
		anyVisible = anyVisible || visible[i]
	}
	// The renderer's notion of the previous frame no longer matches s.last.
	s.hasLast = false
	return visible, anyVisible, nil
}

// ChangeResolution reconfigures the canvas size.
func (s *Session) ChangeResolution(width, height int) error {
	if err := s.usable("change resolution"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return s.fail(wrap(ErrInvalidState, "change resolution", fmt.Sprintf("invalid frame size %dx%d", width, height), nil))
	}
	s.renderer.SetFrameSize(width, height)
	s.hasLast = false
	return nil
}

// ReloadFonts reconfigures font lookup.
func (s *Session) ReloadFonts(fontConfig, fontDir string) error {
	if err := s.usable("reload fonts"); err != nil {
		return err
	}
	s.renderer.SetFonts(fontConfig, fontDir)
	s.hasLast = false
	return nil
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}

// Close releases the renderer and buffers. The session is unusable
// afterwards.
func (s *Session) Close() error {
	if s == nil || s.renderer == nil {
		return nil
	}
	err := s.renderer.Close()
	s.renderer = nil
	s.header = nil
	s.script = nil
	s.hasScript = false
	s.hasLast = false
	return err
}

func (s *Session) usable(op string) error {
	if s == nil {
		return wrap(ErrInvalidState, op, "nil session", nil)
	}
	if s.renderer == nil {
		return s.fail(wrap(ErrInvalidState, op, "session closed", nil))
	}
	return nil
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
