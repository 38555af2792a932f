package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"

	"github.com/kobzarvs/htext/internal/arena"
	"github.com/kobzarvs/htext/internal/buffer"
	"github.com/kobzarvs/htext/internal/config"
	"github.com/kobzarvs/htext/internal/logger"
	"github.com/kobzarvs/htext/internal/session"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeCommand
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeCommand:
		return "EX"
	default:
		return "NORMAL"
	}
}

// Key is a control key delivered outside of text input.
type Key int

const (
	KeyBackspace Key = iota + 1
	KeyEnter
	KeyEscape
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

var keyNames = map[Key]string{
	KeyBackspace: "backspace",
	KeyEnter:     "enter",
	KeyEscape:    "escape",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// ParseKey is the inverse of Key.String.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingPath    = errors.New("missing file path")
)

// Recorder receives every key event the editor handles.
type Recorder interface {
	Text(s string) error
	Key(name string) error
}

// HighlightSpan colours columns [StartCol, EndCol) of one line.
type HighlightSpan struct {
	StartCol int
	EndCol   int
	Kind     string
}

// chrome is the number of screen rows below the text: modeline and ex line.
const chrome = 2

type Editor struct {
	frame       *buffer.Frame
	ex          *buffer.CommandLine
	keys        KeyMachine
	mode        Mode
	filename    string
	status      string
	lastCommand string
	changeTick  uint64
	tabWidth    int
	lineNumbers bool
	screenRows  int
	screenCols  int
	session     *session.Manager
	recorder    Recorder

	highlights     map[int][]HighlightSpan
	highlightStart int
	highlightEnd   int
	highlightGen   uint32

	cache  map[buffer.LineID]*cachedLine
	styles styles
}

func New(cfg config.Config) *Editor {
	a := arena.New(cfg.Editor.ArenaBlock)
	// Grow copies at most one line at a time through scratch.
	scratch := arena.New(max(cfg.Editor.ArenaBlock/16, 4096))
	store := buffer.NewStore(a, scratch, cfg.Editor.LineChunk)
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	return &Editor{
		frame:          buffer.NewFrame(store),
		ex:             buffer.NewCommandLine(a, scratch, cfg.Editor.CommandChunk),
		mode:           ModeNormal,
		tabWidth:       tabWidth,
		lineNumbers:    parseLineNumbers(cfg.Editor.LineNumbers),
		highlightStart: -1,
		highlightEnd:   -1,
		cache:          make(map[buffer.LineID]*cachedLine),
		styles:         newStyles(cfg.Theme),
	}
}

func parseLineNumbers(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off", "none", "false":
		return false
	default:
		return true
	}
}

func (e *Editor) Frame() *buffer.Frame { return e.frame }
func (e *Editor) Mode() Mode           { return e.mode }
func (e *Editor) Filename() string     { return e.filename }
func (e *Editor) Status() string       { return e.status }
func (e *Editor) CommandText() string  { return e.ex.String() }
func (e *Editor) Pending() string      { return e.keys.Pending() }

// ChangeTick moves whenever the buffer contents change.
func (e *Editor) ChangeTick() uint64 { return e.changeTick }

// Content returns the buffer as it would be dumped.
func (e *Editor) Content() string { return buffer.Content(e.frame) }

func (e *Editor) SetSession(m *session.Manager) { e.session = m }
func (e *Editor) SetRecorder(r Recorder)        { e.recorder = r }

func (e *Editor) SetStatusMessage(msg string) { e.setStatus(msg) }

func (e *Editor) setStatus(msg string) {
	e.status = msg
}

func (e *Editor) setMode(m Mode) {
	if e.mode != m {
		logger.Debug("mode change", "from", e.mode.String(), "to", m.String())
	}
	e.mode = m
}

func (e *Editor) touch() {
	e.changeTick++
}

// SetGeometry sets the screen size. Two rows go to the modeline and the ex
// line; the gutter takes columns when line numbers are on.
func (e *Editor) SetGeometry(rows, cols int) {
	e.screenRows = rows
	e.screenCols = cols
	e.syncGeometry()
}

func (e *Editor) syncGeometry() {
	rows := max(e.screenRows-chrome, 0)
	cols := max(e.screenCols-e.gutterWidth(), 0)
	v, h := e.frame.Vertical(), e.frame.Horizontal()
	if v.Size != rows || h.Size != cols {
		e.frame.SetViewportSize(rows, cols)
	}
}

// VisibleRange returns the first and last visible line ordinals, inclusive.
func (e *Editor) VisibleRange() (int, int) {
	start, end := e.frame.Vertical().Range(e.frame.LineCount())
	if end <= start {
		return start, start
	}
	return start, end - 1
}

// HandleKey converts a tcell key event and handles it. It reports whether
// the editor asked to quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		e.HandleText(string(ev.Rune()))
		return false
	case tcell.KeyTab:
		if e.mode == ModeNormal {
			return false
		}
		col := e.frame.Cursor().Column
		if e.mode == ModeCommand {
			col = e.ex.Column()
		}
		e.HandleText(strings.Repeat(" ", e.tabWidth-col%e.tabWidth))
		return false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return e.HandleControl(KeyBackspace)
	case tcell.KeyEnter:
		return e.HandleControl(KeyEnter)
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return e.HandleControl(KeyEscape)
	case tcell.KeyLeft:
		return e.HandleControl(KeyLeft)
	case tcell.KeyRight:
		return e.HandleControl(KeyRight)
	case tcell.KeyUp:
		return e.HandleControl(KeyUp)
	case tcell.KeyDown:
		return e.HandleControl(KeyDown)
	}
	return false
}

// HandleText handles a printable text event. Bytes outside the printable
// ASCII range are dropped.
func (e *Editor) HandleText(text string) {
	if e.recorder != nil {
		if err := e.recorder.Text(text); err != nil {
			logger.Warn("record text failed", "error", err)
		}
	}
	if e.mode != ModeCommand {
		e.status = ""
	}
	b := printableBytes(text)
	for len(b) > 0 {
		switch e.mode {
		case ModeNormal:
			if cmd, ok := e.keys.Feed(b[0]); ok {
				e.exec(cmd)
			}
			b = b[1:]
		case ModeInsert:
			e.frame.InsertText(b)
			e.touch()
			b = nil
		case ModeCommand:
			e.ex.InsertText(b)
			b = nil
		}
	}
	e.syncGeometry()
}

func printableBytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 32 && s[i] <= 126 {
			out = append(out, s[i])
		}
	}
	return out
}

// HandleControl handles a control key. It reports whether the editor asked
// to quit.
func (e *Editor) HandleControl(k Key) bool {
	if e.recorder != nil {
		if err := e.recorder.Key(k.String()); err != nil {
			logger.Warn("record key failed", "error", err)
		}
	}
	var quit bool
	switch e.mode {
	case ModeNormal:
		e.handleNormalControl(k)
	case ModeInsert:
		e.handleInsertControl(k)
	case ModeCommand:
		quit = e.handleCommandControl(k)
	}
	e.syncGeometry()
	return quit
}

func (e *Editor) handleNormalControl(k Key) {
	switch k {
	case KeyEscape:
		e.keys.Reset()
		e.status = ""
	case KeyLeft:
		e.frame.MoveCursorHorizontal(-1)
	case KeyRight:
		e.frame.MoveCursorHorizontal(1)
	case KeyUp:
		e.frame.MoveCursorVertical(-1, nil)
	case KeyDown:
		e.frame.MoveCursorVertical(1, nil)
	}
}

func (e *Editor) handleInsertControl(k Key) {
	switch k {
	case KeyEnter:
		e.frame.InsertNewLine()
		e.touch()
	case KeyBackspace:
		e.frame.RemoveChar()
		e.touch()
	case KeyEscape:
		e.setMode(ModeNormal)
	case KeyLeft:
		e.frame.MoveCursorHorizontal(-1)
	case KeyRight:
		e.frame.MoveCursorHorizontal(1)
	case KeyUp:
		e.frame.MoveCursorVertical(-1, nil)
	case KeyDown:
		e.frame.MoveCursorVertical(1, nil)
	}
}

func (e *Editor) handleCommandControl(k Key) bool {
	switch k {
	case KeyEnter:
		cmd := strings.TrimSpace(e.ex.String())
		e.ex.Reset()
		e.setMode(ModeNormal)
		return e.execCommand(cmd)
	case KeyBackspace:
		e.ex.RemoveChar()
	case KeyEscape:
		e.ex.Reset()
		e.setMode(ModeNormal)
	case KeyLeft:
		e.ex.MoveCursor(-1)
	case KeyRight:
		e.ex.MoveCursor(1)
	}
	return false
}

// normalCommands maps op1 or op1+op2 to its action. The count is always at
// least 1.
var normalCommands = map[string]func(e *Editor, count int){
	":": func(e *Editor, _ int) {
		e.ex.Reset()
		e.setMode(ModeCommand)
	},
	"i": func(e *Editor, _ int) { e.setMode(ModeInsert) },
	"I": func(e *Editor, _ int) {
		e.lineStart()
		e.setMode(ModeInsert)
	},
	"A": func(e *Editor, _ int) {
		e.lineEnd()
		e.setMode(ModeInsert)
	},
	"h": func(e *Editor, n int) { e.frame.MoveCursorHorizontal(-n) },
	"l": func(e *Editor, n int) { e.frame.MoveCursorHorizontal(n) },
	"j": func(e *Editor, n int) { e.frame.MoveCursorVertical(n, nil) },
	"k": func(e *Editor, n int) { e.frame.MoveCursorVertical(-n, nil) },
	"H": func(e *Editor, _ int) { e.lineStart() },
	"L": func(e *Editor, _ int) { e.lineEnd() },
	"G": func(e *Editor, _ int) {
		e.frame.MoveCursorVertical(e.frame.LineCount()-1-e.frame.Cursor().LineNum, nil)
	},
	"gg": func(e *Editor, _ int) {
		e.frame.MoveCursorVertical(-e.frame.Cursor().LineNum, nil)
	},
	"dd": func(e *Editor, n int) {
		e.frame.RemoveLines(n)
		e.touch()
	},
}

func (e *Editor) exec(cmd Command) {
	fn, ok := normalCommands[cmd.Op]
	if !ok {
		return
	}
	fn(e, cmd.Count)
	e.lastCommand = cmd.Op
	if cmd.Count > 1 {
		e.lastCommand = fmt.Sprintf("%d%s", cmd.Count, cmd.Op)
	}
}

func (e *Editor) lineStart() {
	e.frame.MoveCursorHorizontal(-e.frame.Cursor().Column)
}

func (e *Editor) lineEnd() {
	c := e.frame.Cursor()
	e.frame.MoveCursorHorizontal(e.frame.LineLen(c.Line) - c.Column)
}

// execCommand runs a submitted ex line and reports whether to quit. Errors
// end up in the status message.
func (e *Editor) execCommand(cmd string) bool {
	quit, err := e.runCommand(cmd)
	if err != nil {
		logger.Info("command failed", "command", cmd, "error", err)
		e.setStatus(err.Error())
	}
	return quit
}

func (e *Editor) runCommand(cmd string) (bool, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false, nil
	}
	name := fields[0]
	path := strings.Join(fields[1:], " ")
	logger.Debug("command", "name", name, "args", path)

	switch name {
	case "quit", "q":
		e.rememberPosition()
		return true, nil
	case "load", "e":
		if path == "" {
			return false, fmt.Errorf("load: %w", ErrMissingPath)
		}
		return false, e.Load(path)
	case "dump", "w":
		if path == "" {
			path = e.filename
		}
		if path == "" {
			return false, fmt.Errorf("dump: %w", ErrMissingPath)
		}
		return false, e.Dump(path)
	case "clear":
		e.frame.Clear()
		e.touch()
		e.setStatus("cleared")
		return false, nil
	case "close":
		e.Close()
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

// Load replaces the buffer with the file at path. On failure the buffer
// and file name are left untouched.
func (e *Editor) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	e.rememberPosition()
	if err := buffer.Load(e.frame, data, buffer.LoadOptions{TabWidth: e.tabWidth}); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.filename = path
	e.touch()
	e.SetHighlights(-1, -1, nil)
	e.syncGeometry()
	e.restorePosition()
	logger.Info("file loaded", "path", path, "lines", e.frame.LineCount(), "bytes", len(data))
	e.setStatus(fmt.Sprintf("%q %dL", path, e.frame.LineCount()))
	return nil
}

// Dump writes the buffer to path.
func (e *Editor) Dump(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	if err := buffer.Dump(e.frame, f); err != nil {
		return err
	}
	logger.Info("file dumped", "path", path, "lines", e.frame.LineCount())
	e.setStatus(fmt.Sprintf("%q written", path))
	return nil
}

// Close empties the buffer and forgets the file.
func (e *Editor) Close() {
	e.rememberPosition()
	e.frame.Clear()
	e.filename = ""
	e.touch()
	e.SetHighlights(-1, -1, nil)
	e.setStatus("closed")
}

// Shutdown persists the cursor position of the current file.
func (e *Editor) Shutdown() {
	e.rememberPosition()
}

func (e *Editor) sessionKey() string {
	if e.session == nil || e.filename == "" {
		return ""
	}
	abs, err := filepath.Abs(e.filename)
	if err != nil {
		return e.filename
	}
	return abs
}

func (e *Editor) rememberPosition() {
	key := e.sessionKey()
	if key == "" {
		return
	}
	c := e.frame.Cursor()
	e.session.SetFileState(key, session.FileState{
		Line:     c.LineNum,
		Column:   c.Column,
		ViewTop:  e.frame.Vertical().Start,
		ViewLeft: e.frame.Horizontal().Start,
	})
}

func (e *Editor) restorePosition() {
	key := e.sessionKey()
	if key == "" {
		return
	}
	st, ok := e.session.FileState(key)
	if !ok {
		return
	}
	col := st.Column
	e.frame.MoveCursorVertical(st.Line, &col)
	e.frame.ScrollTo(st.ViewTop, st.ViewLeft)
}

// SetHighlights installs spans for lines startLine..endLine. A nil map or an
// empty range clears them.
func (e *Editor) SetHighlights(startLine, endLine int, spans map[int][]HighlightSpan) {
	e.highlightGen++
	if spans == nil || startLine < 0 || endLine < startLine {
		e.highlights = nil
		e.highlightStart = -1
		e.highlightEnd = -1
		return
	}
	e.highlights = spans
	e.highlightStart = startLine
	e.highlightEnd = endLine
}

func (e *Editor) HasHighlights() bool {
	return e.highlights != nil && e.highlightStart >= 0 && e.highlightEnd >= e.highlightStart
}
