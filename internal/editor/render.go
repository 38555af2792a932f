package editor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/htext/internal/buffer"
	"github.com/kobzarvs/htext/internal/config"
)

type styles struct {
	main             tcell.Style
	modeline         tcell.Style
	ex               tcell.Style
	lineNumber       tcell.Style
	lineNumberActive tcell.Style
	syntax           map[string]tcell.Style
}

func newStyles(t config.Theme) styles {
	mainFg := parseColor(t.Foreground, tcell.ColorWhite)
	mainBg := parseColor(t.Background, tcell.ColorBlack)
	fg := func(name string, fallback tcell.Color) tcell.Style {
		return tcell.StyleDefault.Foreground(parseColor(name, fallback)).Background(mainBg)
	}
	modelineFg := parseColor(t.ModelineForeground, tcell.ColorBlack)
	modelineBg := parseColor(t.ModelineBackground, tcell.ColorGray)
	return styles{
		main:             tcell.StyleDefault.Foreground(mainFg).Background(mainBg),
		modeline:         tcell.StyleDefault.Foreground(modelineFg).Background(modelineBg),
		ex:               tcell.StyleDefault.Foreground(parseColor(t.ExForeground, mainFg)).Background(parseColor(t.ExBackground, mainBg)),
		lineNumber:       fg(t.LineNumberForeground, tcell.ColorGray),
		lineNumberActive: fg(t.LineNumberActiveForeground, mainFg),
		syntax: map[string]tcell.Style{
			"keyword":     fg(t.SyntaxKeyword, mainFg),
			"string":      fg(t.SyntaxString, mainFg),
			"comment":     fg(t.SyntaxComment, mainFg),
			"type":        fg(t.SyntaxType, mainFg),
			"function":    fg(t.SyntaxFunction, mainFg),
			"number":      fg(t.SyntaxNumber, mainFg),
			"constant":    fg(t.SyntaxConstant, mainFg),
			"operator":    fg(t.SyntaxOperator, mainFg),
			"punctuation": fg(t.SyntaxPunctuation, mainFg),
			"field":       fg(t.SyntaxField, mainFg),
			"builtin":     fg(t.SyntaxBuiltin, mainFg),
			"variable":    fg(t.SyntaxVariable, mainFg),
			"parameter":   fg(t.SyntaxVariable, mainFg),
		},
	}
}

// cachedLine holds the drawn cells of one line. It is reused while the
// line's stamp, the horizontal start, the width and the highlight
// generation are all unchanged.
type cachedLine struct {
	stamp  uint32
	start  int
	width  int
	hlGen  uint32
	cells  []rune
	styles []tcell.Style
}

func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	e.SetGeometry(h, w)

	s.SetStyle(e.styles.main)
	s.Clear()

	rows := max(h-chrome, 0)
	gutter := e.gutterWidth()
	v := e.frame.Vertical()
	for y := 0; y < rows; y++ {
		ordinal := v.Start + y
		if ordinal >= e.frame.LineCount() {
			clearLine(s, y, w, e.styles.main)
			continue
		}
		e.drawGutter(s, y, gutter, ordinal)
		e.drawLine(s, y, gutter, w, ordinal)
	}

	if h >= 2 {
		e.renderModeline(s, w, h-2)
	}
	exCursor := e.renderExLine(s, w, h-1)

	if e.mode == ModeCommand {
		s.SetCursorStyle(tcell.CursorStyleSteadyBar)
		s.ShowCursor(exCursor, h-1)
		s.Show()
		return
	}
	c := e.frame.Cursor()
	cx := gutter + c.Column - e.frame.Horizontal().Start
	cy := c.LineNum - v.Start
	if cy < 0 || cy >= rows || cx >= w {
		s.HideCursor()
		s.Show()
		return
	}
	cursorStyle := tcell.CursorStyleSteadyBlock
	if e.mode == ModeInsert {
		cursorStyle = tcell.CursorStyleSteadyBar
	}
	s.SetCursorStyle(cursorStyle)
	s.ShowCursor(cx, cy)
	s.Show()
}

func (e *Editor) gutterWidth() int {
	if !e.lineNumbers {
		return 0
	}
	digits := max(len(strconv.Itoa(e.frame.LineCount())), 2)
	// Format: " " + digits + " "
	return 1 + digits + 1
}

func (e *Editor) drawGutter(s tcell.Screen, y, gutter, ordinal int) {
	if gutter == 0 {
		return
	}
	style := e.styles.lineNumber
	if ordinal == e.frame.Cursor().LineNum {
		style = e.styles.lineNumberActive
	}
	numStr := fmt.Sprintf(" %*d ", gutter-2, ordinal+1)
	for x, r := range numStr {
		s.SetContent(x, y, r, nil, style)
	}
}

func (e *Editor) drawLine(s tcell.Screen, y, gutter, w, ordinal int) {
	if gutter >= w {
		return
	}
	line := e.cachedCells(e.frame.Index(ordinal), ordinal, w-gutter)
	x := gutter
	for i, r := range line.cells {
		s.SetContent(x+i, y, r, nil, line.styles[i])
	}
	for x += len(line.cells); x < w; x++ {
		s.SetContent(x, y, ' ', nil, e.styles.main)
	}
}

func (e *Editor) cachedCells(id buffer.LineID, ordinal, width int) *cachedLine {
	start := e.frame.Horizontal().Start
	stamp := e.frame.Stamp(id)
	if c, ok := e.cache[id]; ok && c.stamp == stamp && c.start == start && c.width == width && c.hlGen == e.highlightGen {
		return c
	}
	c := e.cache[id]
	if c == nil {
		c = &cachedLine{}
		e.cache[id] = c
	}
	c.stamp, c.start, c.width, c.hlGen = stamp, start, width, e.highlightGen
	c.cells = c.cells[:0]
	c.styles = c.styles[:0]

	text := e.frame.Text(id)
	var spans []HighlightSpan
	if e.highlights != nil && ordinal >= e.highlightStart && ordinal <= e.highlightEnd {
		spans = e.highlights[ordinal]
	}
	for col := start; col < len(text) && col-start < width; col++ {
		style := e.styles.main
		if kind, ok := highlightKindAt(spans, col); ok {
			if st, ok := e.styles.syntax[kind]; ok {
				style = st
			}
		}
		c.cells = append(c.cells, rune(text[col]))
		c.styles = append(c.styles, style)
	}
	return c
}

func (e *Editor) renderModeline(s tcell.Screen, w, y int) {
	name := e.filename
	if name == "" {
		name = "[No Name]"
	} else {
		name = filepath.Base(name)
	}
	left := fmt.Sprintf(" %s | %s ", e.mode, name)
	if e.status != "" && e.mode != ModeCommand {
		left += "| " + e.status + " "
	}
	c := e.frame.Cursor()
	right := fmt.Sprintf(" Ln %d, Col %d ", c.LineNum+1, c.Column+1)
	if pending := e.keys.Pending(); pending != "" {
		right = " " + pending + "_ |" + right
	} else if e.lastCommand != "" {
		right = " " + e.lastCommand + " |" + right
	}
	drawString(s, 0, y, composeModeline(left, right, w), e.styles.modeline)
}

// composeModeline lays left and right out in width display cells. When they
// do not fit, left is truncated first.
func composeModeline(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return runewidth.Truncate(right, width, "")
	}
	left = runewidth.Truncate(left, width-rw, "…")
	return runewidth.FillRight(left, width-rw) + right
}

// renderExLine draws the command line, or the status message outside ex
// mode, and returns the cursor x.
func (e *Editor) renderExLine(s tcell.Screen, w, y int) int {
	clearLine(s, y, w, e.styles.ex)
	if e.mode != ModeCommand {
		return 0
	}
	text := ":" + e.ex.String()
	cursor := 1 + e.ex.Column()
	// Keep the cursor on screen for long commands.
	offset := 0
	if cursor >= w {
		offset = cursor - w + 1
	}
	drawString(s, 0, y, text[offset:], e.styles.ex)
	return cursor - offset
}

func drawString(s tcell.Screen, x, y int, text string, style tcell.Style) {
	w, _ := s.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func highlightPriority(kind string) int {
	switch kind {
	case "comment":
		return 7
	case "string":
		return 6
	case "keyword":
		return 5
	case "constant", "builtin":
		return 4
	case "type", "function", "number", "parameter":
		return 3
	case "field", "variable":
		return 2
	case "operator", "punctuation":
		return 1
	default:
		return 0
	}
}

func highlightKindAt(spans []HighlightSpan, col int) (string, bool) {
	bestKind := ""
	bestPriority := 0
	for _, span := range spans {
		if col < span.StartCol || col >= span.EndCol {
			continue
		}
		if p := highlightPriority(span.Kind); p > bestPriority {
			bestPriority = p
			bestKind = span.Kind
		}
	}
	return bestKind, bestKind != ""
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
