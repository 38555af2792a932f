package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/htext/internal/buffer"
	"github.com/kobzarvs/htext/internal/config"
	"github.com/kobzarvs/htext/internal/session"
)

func TestMain(m *testing.M) {
	buffer.Checks = true
	os.Exit(m.Run())
}

func newTestEditor(t *testing.T, lines ...string) *Editor {
	t.Helper()
	e := New(config.Default())
	if len(lines) > 0 {
		data := []byte(strings.Join(lines, "\n"))
		if err := buffer.Load(e.Frame(), data, buffer.LoadOptions{TabWidth: 4}); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	e.SetGeometry(24, 80)
	return e
}

func lines(e *Editor) []string {
	var out []string
	for _, id := range e.Frame().Lines() {
		out = append(out, string(e.Frame().Text(id)))
	}
	return out
}

func assertLines(t *testing.T, e *Editor, want ...string) {
	t.Helper()
	got := lines(e)
	if strings.Join(got, "\n") != strings.Join(want, "\n") || len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func assertCursor(t *testing.T, e *Editor, line, col int) {
	t.Helper()
	c := e.Frame().Cursor()
	if c.LineNum != line || c.Column != col {
		t.Fatalf("cursor = %d:%d, want %d:%d", c.LineNum, c.Column, line, col)
	}
}

func TestTypeHelloWorld(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText("ihello")
	if e.Mode() != ModeInsert {
		t.Fatalf("mode = %v, want INSERT", e.Mode())
	}
	e.HandleControl(KeyEnter)
	e.HandleText("world")
	e.HandleControl(KeyEscape)

	if e.Mode() != ModeNormal {
		t.Fatalf("mode = %v, want NORMAL", e.Mode())
	}
	assertLines(t, e, "hello", "world")
	if got := e.Content(); got != "hello\nworld\n" {
		t.Fatalf("content = %q", got)
	}
	assertCursor(t, e, 1, 5)
}

func TestInsertBackspaceJoinsLines(t *testing.T) {
	e := newTestEditor(t, "ab", "cd")
	e.HandleText("j")
	e.HandleText("i")
	e.HandleControl(KeyBackspace)
	assertLines(t, e, "abcd")
	assertCursor(t, e, 0, 2)
}

func TestChangeTickMovesOnEdits(t *testing.T) {
	e := newTestEditor(t, "abc")
	tick := e.ChangeTick()
	e.HandleText("3l")
	if e.ChangeTick() != tick {
		t.Fatalf("motion changed the tick")
	}
	e.HandleText("ix")
	if e.ChangeTick() == tick {
		t.Fatalf("insert did not change the tick")
	}
}

func TestNonPrintableTextDropped(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText("ia\x01béc")
	assertLines(t, e, "abc")
}

func TestHorizontalMotions(t *testing.T) {
	e := newTestEditor(t, "abcdef")
	e.HandleText("3l")
	assertCursor(t, e, 0, 3)
	e.HandleText("2h")
	assertCursor(t, e, 0, 1)
	e.HandleText("10l")
	assertCursor(t, e, 0, 6)
	e.HandleText("H")
	assertCursor(t, e, 0, 0)
	e.HandleText("L")
	assertCursor(t, e, 0, 6)
}

func TestVerticalMotionsClampColumn(t *testing.T) {
	e := newTestEditor(t, "long line", "ab", "another long line")
	e.HandleText("L")
	e.HandleText("j")
	assertCursor(t, e, 1, 2)
	e.HandleText("5j")
	assertCursor(t, e, 2, 2)
	e.HandleText("9k")
	assertCursor(t, e, 0, 2)
}

func TestJumpFirstAndLastLine(t *testing.T) {
	var text []string
	for i := range 100 {
		text = append(text, "line "+strconv.Itoa(i))
	}
	e := newTestEditor(t, text...)
	e.HandleText("G")
	assertCursor(t, e, 99, 0)
	if got := e.Frame().Vertical().Start; got != 99-22/2 {
		t.Fatalf("view start = %d, want %d", got, 99-22/2)
	}
	e.HandleText("gg")
	assertCursor(t, e, 0, 0)
	if got := e.Frame().Vertical().Start; got != 0 {
		t.Fatalf("view start = %d, want 0", got)
	}
	// The count is ignored by jumps.
	e.HandleText("5G")
	assertCursor(t, e, 99, 0)
}

func TestInsertAtLineStartAndEnd(t *testing.T) {
	e := newTestEditor(t, "middle")
	e.HandleText("3l")
	e.HandleText("I>")
	e.HandleControl(KeyEscape)
	e.HandleText("A<")
	e.HandleControl(KeyEscape)
	assertLines(t, e, ">middle<")
}

func TestDeleteLines(t *testing.T) {
	e := newTestEditor(t, "a", "b", "c", "d")
	e.HandleText("2dd")
	assertLines(t, e, "c", "d")
	if got := e.lastCommand; got != "2dd" {
		t.Fatalf("last command = %q, want %q", got, "2dd")
	}
	e.HandleText("9dd")
	assertLines(t, e, "")
	if e.Content() != "\n" {
		t.Fatalf("content = %q", e.Content())
	}
}

func TestUnknownNormalCommandIgnored(t *testing.T) {
	e := newTestEditor(t, "abc")
	e.HandleText("dxz")
	assertLines(t, e, "abc")
	if e.Pending() != "" {
		t.Fatalf("pending = %q", e.Pending())
	}
	if e.lastCommand != "" {
		t.Fatalf("last command = %q", e.lastCommand)
	}
}

func TestEscapeDropsPendingKeys(t *testing.T) {
	e := newTestEditor(t, "abc")
	e.HandleText("3d")
	if e.Pending() != "3d" {
		t.Fatalf("pending = %q, want 3d", e.Pending())
	}
	e.HandleControl(KeyEscape)
	if e.Pending() != "" {
		t.Fatalf("pending after escape = %q", e.Pending())
	}
	e.HandleText("l")
	assertCursor(t, e, 0, 1)
}

func TestQuitCommand(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText(":q")
	if e.Mode() != ModeCommand {
		t.Fatalf("mode = %v, want EX", e.Mode())
	}
	if e.CommandText() != "q" {
		t.Fatalf("command text = %q", e.CommandText())
	}
	if !e.HandleControl(KeyEnter) {
		t.Fatalf("quit not requested")
	}
	if e.Mode() != ModeNormal || e.CommandText() != "" {
		t.Fatalf("mode = %v, text = %q after submit", e.Mode(), e.CommandText())
	}
}

func TestCommandLineEditing(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText(":qx")
	e.HandleControl(KeyBackspace)
	e.HandleControl(KeyLeft)
	e.HandleText("u")
	e.HandleControl(KeyRight)
	e.HandleText("it")
	if got := e.CommandText(); got != "uqit" {
		t.Fatalf("command text = %q, want %q", got, "uqit")
	}
	e.HandleControl(KeyEscape)
	if e.Mode() != ModeNormal || e.CommandText() != "" {
		t.Fatalf("escape left mode %v text %q", e.Mode(), e.CommandText())
	}
}

func TestUnknownCommandSetsStatus(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText(":frobnicate")
	if e.HandleControl(KeyEnter) {
		t.Fatalf("unknown command quit")
	}
	if !strings.Contains(e.Status(), "unknown command") {
		t.Fatalf("status = %q", e.Status())
	}
	_, err := e.runCommand("frobnicate")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestLoadAndDumpNeedPath(t *testing.T) {
	e := newTestEditor(t)
	if _, err := e.runCommand("load"); !errors.Is(err, ErrMissingPath) {
		t.Fatalf("load err = %v, want ErrMissingPath", err)
	}
	if _, err := e.runCommand("dump"); !errors.Is(err, ErrMissingPath) {
		t.Fatalf("dump err = %v, want ErrMissingPath", err)
	}
}

func TestLoadDumpCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(src, []byte("one\r\n\ttwo"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEditor(t, "old")
	e.HandleText(":load " + src)
	e.HandleControl(KeyEnter)
	assertLines(t, e, "one", "    two")
	if e.Filename() != src {
		t.Fatalf("filename = %q", e.Filename())
	}
	if !strings.Contains(e.Status(), "2L") {
		t.Fatalf("status = %q", e.Status())
	}

	out := filepath.Join(dir, "out.txt")
	e.HandleText(":dump " + out)
	e.HandleControl(KeyEnter)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if got := string(data); got != "one\n    two\n" {
		t.Fatalf("dumped = %q", got)
	}

	// Without an argument dump writes the loaded file.
	e.HandleText("ix")
	e.HandleControl(KeyEscape)
	e.HandleText(":w")
	e.HandleControl(KeyEnter)
	data, err = os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "xone\n    two\n" {
		t.Fatalf("rewritten = %q", got)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin")
	if err := os.WriteFile(path, []byte("ok\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEditor(t, "keep")
	err := e.Load(path)
	if !errors.Is(err, buffer.ErrInvalidByte) {
		t.Fatalf("err = %v, want ErrInvalidByte", err)
	}
	assertLines(t, e, "keep")
	if e.Filename() != "" {
		t.Fatalf("filename = %q", e.Filename())
	}
}

func TestLoadMissingFile(t *testing.T) {
	e := newTestEditor(t, "keep")
	e.HandleText(":e " + filepath.Join(t.TempDir(), "nope"))
	e.HandleControl(KeyEnter)
	assertLines(t, e, "keep")
	if e.Status() == "" {
		t.Fatalf("no status for missing file")
	}
}

func TestClearAndCloseCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEditor(t)
	if err := e.Load(path); err != nil {
		t.Fatal(err)
	}
	e.HandleText(":clear")
	e.HandleControl(KeyEnter)
	assertLines(t, e, "")
	if e.Filename() != path {
		t.Fatalf("clear dropped filename")
	}

	e.HandleText(":close")
	e.HandleControl(KeyEnter)
	assertLines(t, e, "")
	if e.Filename() != "" {
		t.Fatalf("filename after close = %q", e.Filename())
	}
}

func TestSessionRestoresPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	var text []string
	for i := range 50 {
		text = append(text, "line "+strconv.Itoa(i))
	}
	if err := os.WriteFile(path, []byte(strings.Join(text, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	m := session.Open(filepath.Join(dir, "session.json"))

	e := newTestEditor(t)
	e.SetSession(m)
	if err := e.Load(path); err != nil {
		t.Fatal(err)
	}
	e.HandleText("30j4l")
	assertCursor(t, e, 30, 4)
	top := e.Frame().Vertical().Start
	e.Close()

	if err := e.Load(path); err != nil {
		t.Fatal(err)
	}
	assertCursor(t, e, 30, 4)
	if got := e.Frame().Vertical().Start; got != top {
		t.Fatalf("view start = %d, want %d", got, top)
	}

	abs, _ := filepath.Abs(path)
	if st, ok := m.FileState(abs); !ok || st.Line != 30 {
		t.Fatalf("session state = %+v, %v", st, ok)
	}
}

type fakeRecorder struct {
	events []string
}

func (r *fakeRecorder) Text(s string) error {
	r.events = append(r.events, "text:"+s)
	return nil
}

func (r *fakeRecorder) Key(name string) error {
	r.events = append(r.events, "key:"+name)
	return nil
}

func TestRecorderSeesEveryEvent(t *testing.T) {
	rec := &fakeRecorder{}
	e := newTestEditor(t)
	e.SetRecorder(rec)
	e.HandleText("ihi")
	e.HandleControl(KeyEscape)
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone))

	want := []string{"text:ihi", "key:escape", "text:l"}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %q, want %q", rec.events, want)
	}
}

func TestParseKey(t *testing.T) {
	for k := range keyNames {
		got, ok := ParseKey(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKey(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKey("f13"); ok {
		t.Fatalf("ParseKey accepted an unknown key")
	}
}

func TestHandleKeyTabInsertsSpaces(t *testing.T) {
	e := newTestEditor(t)
	e.HandleText("iab")
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
	e.HandleText("c")
	assertLines(t, e, "ab  c")
}

func TestHandleKeyEnterAndEscape(t *testing.T) {
	e := newTestEditor(t)
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	e.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	e.HandleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	if e.Mode() != ModeNormal {
		t.Fatalf("mode = %v", e.Mode())
	}
	assertLines(t, e, "x", "")
}

func TestVisibleRange(t *testing.T) {
	e := newTestEditor(t, "a", "b", "c")
	start, end := e.VisibleRange()
	if start != 0 || end != 2 {
		t.Fatalf("visible = %d..%d, want 0..2", start, end)
	}
	e.SetGeometry(4, 80)
	e.HandleText("G")
	start, end = e.VisibleRange()
	if start != 1 || end != 2 {
		t.Fatalf("visible = %d..%d, want 1..2", start, end)
	}
}
