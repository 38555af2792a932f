package buffer

import (
	"fmt"
	"iter"
)

// Cursor points at a line of the active sequence. LineNum is the cached
// ordinal of Line; Column is a byte offset in [0, len(line)].
type Cursor struct {
	Line    LineID
	LineNum int
	Column  int
}

// Frame is the editable line sequence with its cursor, index cache and
// viewports. A frame always holds at least one line.
type Frame struct {
	store *Store
	head  LineID
	count int
	free  LineID   // singly linked through Line.next
	index []LineID // valid only right after Reindex
	cur   Cursor
	viewV Viewport // over line ordinals
	viewH Viewport // over columns of the cursor line
}

func NewFrame(s *Store) *Frame {
	head := s.Create()
	f := &Frame{
		store: s,
		head:  head,
		count: 1,
		free:  NoLine,
		cur:   Cursor{Line: head},
	}
	f.Reindex()
	return f
}

func (f *Frame) Store() *Store      { return f.store }
func (f *Frame) Head() LineID       { return f.head }
func (f *Frame) LineCount() int     { return f.count }
func (f *Frame) FreeList() LineID   { return f.free }
func (f *Frame) Cursor() Cursor     { return f.cur }
func (f *Frame) Vertical() Viewport { return f.viewV }
func (f *Frame) Horizontal() Viewport {
	return f.viewH
}

// Index returns the line at ordinal i as of the last Reindex.
func (f *Frame) Index(i int) LineID {
	assert(i >= 0 && i < len(f.index), "index", "ordinal %d out of range [0,%d)", i, len(f.index))
	return f.index[i]
}

// Text returns the bytes of id. The slice aliases arena memory and is only
// valid until the next edit of that line.
func (f *Frame) Text(id LineID) []byte {
	l := f.store.line(id)
	return l.text[:l.size:l.size]
}

func (f *Frame) LineLen(id LineID) int  { return f.store.line(id).size }
func (f *Frame) Capacity(id LineID) int { return len(f.store.line(id).text) }
func (f *Frame) Next(id LineID) LineID  { return f.store.line(id).next }
func (f *Frame) Prev(id LineID) LineID  { return f.store.line(id).prev }

// Stamp changes whenever presentation cached for id must be rebuilt.
func (f *Frame) Stamp(id LineID) uint32 { return f.store.line(id).stamp }

// Lines walks the active sequence from the head.
func (f *Frame) Lines() iter.Seq2[int, LineID] {
	return func(yield func(int, LineID) bool) {
		i := 0
		for id := f.head; id != NoLine; id = f.store.line(id).next {
			if !yield(i, id) {
				return
			}
			i++
		}
	}
}

// SetViewportSize records the host's visible rows and columns.
func (f *Frame) SetViewportSize(rows, cols int) {
	f.viewV.Size = max(rows, 0)
	f.viewH.Size = max(cols, 0)
	UpdateViewport(f)
}

// SetCursorColumn places the cursor on its current line, clamped to the line.
func (f *Frame) SetCursorColumn(col int) {
	f.cur.Column = clamp(col, 0, f.LineLen(f.cur.Line))
	UpdateViewport(f)
}

// ScrollTo sets both window starts, then lets the cursor pull them back if
// it is no longer visible.
func (f *Frame) ScrollTo(top, left int) {
	f.viewV.Start = top
	f.viewH.Start = left
	UpdateViewport(f)
}

// Reindex rebuilds the ordinal index from the list.
func (f *Frame) Reindex() {
	f.index = f.index[:0]
	for id := f.head; id != NoLine; id = f.store.line(id).next {
		f.index = append(f.index, id)
		assert(len(f.index) <= f.count, "reindex", "walked past line count %d", f.count)
	}
	assert(len(f.index) == f.count, "reindex", "walked %d lines, line count is %d", len(f.index), f.count)
}

// InsertText inserts printable bytes at the cursor. Newlines go through
// InsertNewLine instead.
func (f *Frame) InsertText(text []byte) {
	for i, b := range text {
		assert(printable(b), "insert", "byte %#x at %d is not printable", b, i)
	}
	if len(text) == 0 {
		return
	}
	id := f.cur.Line
	size := f.LineLen(id)
	assert(f.cur.Column <= size, "insert", "column %d past line length %d", f.cur.Column, size)

	needed := size + len(text)
	f.store.Grow(id, needed)
	l := f.store.line(id)
	col := f.cur.Column
	copy(l.text[col+len(text):needed], l.text[col:size])
	copy(l.text[col:], text)
	l.size = needed
	l.stamp++
	f.cur.Column += len(text)
	UpdateViewport(f)
	f.verify("insert")
}

// InsertNewLine splits the cursor line at the cursor. The suffix moves to a
// new line below and the cursor follows it to column 0.
func (f *Frame) InsertNewLine() {
	cur := f.cur.Line
	id := f.store.Acquire(f)

	col := f.cur.Column
	if suffix := f.LineLen(cur) - col; suffix > 0 {
		f.store.Grow(id, suffix)
		l := f.store.line(cur)
		n := f.store.line(id)
		copy(n.text, l.text[col:l.size])
		n.size = suffix
		l.size = col
		l.stamp++
	}

	f.store.SpliceAfter(cur, id)
	f.count++
	f.Reindex()
	zero := 0
	f.MoveCursorVertical(1, &zero)
	f.verify("newline")
}

// RemoveChar deletes the byte left of the cursor. At column 0 the cursor
// line is joined onto the previous one.
func (f *Frame) RemoveChar() {
	id := f.cur.Line
	if f.cur.Column > 0 {
		l := f.store.line(id)
		col := f.cur.Column
		assert(col <= l.size, "backspace", "column %d past line length %d", col, l.size)
		copy(l.text[col-1:], l.text[col:l.size])
		l.size--
		l.stamp++
		f.cur.Column--
		UpdateViewport(f)
		f.verify("backspace")
		return
	}

	prev := f.Prev(id)
	if prev == NoLine {
		return
	}
	joinAt := f.LineLen(prev)
	if moved := f.LineLen(id); moved > 0 {
		f.store.Grow(prev, joinAt+moved)
		p := f.store.line(prev)
		copy(p.text[joinAt:], f.Text(id))
		p.size = joinAt + moved
	}
	f.store.line(prev).stamp++

	f.store.Detach(f, id)
	f.cur = Cursor{Line: prev, LineNum: f.cur.LineNum - 1, Column: joinAt}
	f.Reindex()
	UpdateViewport(f)
	f.verify("join")
}

// RemoveLines deletes n lines starting at the cursor line. The last line of
// a frame is cleared instead of removed. Afterwards the column is clamped to
// the new cursor line and the viewport recomputed once.
func (f *Frame) RemoveLines(n int) {
	for i := 0; i < n; i++ {
		if f.count == 1 {
			l := f.store.line(f.head)
			l.size = 0
			l.stamp++
			f.cur.Column = 0
			break
		}
		gone := f.cur.Line
		if next := f.Next(gone); next != NoLine {
			f.cur.Line = next
		} else {
			f.cur.Line = f.Prev(gone)
			f.cur.LineNum--
		}
		f.store.Detach(f, gone)
	}
	f.Reindex()
	f.cur.Column = clamp(f.cur.Column, 0, f.LineLen(f.cur.Line))
	UpdateViewport(f)
	f.verify("delete")
}

// Clear drops every line but the head and empties it.
func (f *Frame) Clear() {
	for {
		next := f.Next(f.head)
		if next == NoLine {
			break
		}
		f.store.Detach(f, next)
	}
	assert(f.count == 1, "clear", "line count %d after clear", f.count)
	l := f.store.line(f.head)
	l.size = 0
	l.stamp++
	f.cur = Cursor{Line: f.head}
	f.viewV.Start = 0
	f.viewH.Start = 0
	f.Reindex()
	f.verify("clear")
}

// ResetCursor moves the cursor to the start of the first line.
func (f *Frame) ResetCursor() {
	f.cur = Cursor{Line: f.head}
	f.Reindex()
	UpdateViewport(f)
}

// MoveCursorVertical moves by delta lines, clamped to the frame. A non-nil
// column is used as the new column; otherwise the current one is kept and
// clamped to the target line.
func (f *Frame) MoveCursorVertical(delta int, column *int) {
	n := clamp(f.cur.LineNum+delta, 0, f.count-1)
	f.cur.LineNum = n
	f.cur.Line = f.Index(n)
	col := f.cur.Column
	if column != nil {
		col = *column
	}
	f.cur.Column = clamp(col, 0, f.LineLen(f.cur.Line))
	UpdateViewport(f)
}

// MoveCursorHorizontal moves by delta columns within the cursor line.
func (f *Frame) MoveCursorHorizontal(delta int) {
	col := clamp(f.cur.Column+delta, 0, f.LineLen(f.cur.Line))
	f.cur.Column = col
	if !f.viewH.Contains(col) {
		// Cached presentation is sliced at the old horizontal start.
		start, end := f.viewV.Range(f.count)
		for i := start; i < end && i < len(f.index); i++ {
			f.store.line(f.index[i]).stamp++
		}
	}
	UpdateViewport(f)
}

func (f *Frame) verify(op string) {
	if !Checks {
		return
	}
	if err := f.CheckIntegrity(); err != nil {
		fail(op, "%v", err)
	}
}

// CheckIntegrity walks the list in both directions and the free list and
// reports the first broken invariant.
func (f *Frame) CheckIntegrity() error {
	s := f.store
	seen := 0
	prev := NoLine
	tail := NoLine
	cursorFound := false
	for id := f.head; id != NoLine; id = s.lines[id].next {
		if id < 0 || int(id) >= len(s.lines) {
			return invariantf("link to invalid slot %d", id)
		}
		l := &s.lines[id]
		switch {
		case l.prev == id || l.next == id:
			return invariantf("line %d links to itself", id)
		case l.prev != prev:
			return invariantf("line %d prev is %d, want %d", id, l.prev, prev)
		case l.size > len(l.text):
			return invariantf("line %d length %d exceeds capacity %d", id, l.size, len(l.text))
		}
		for i := 0; i < l.size; i++ {
			if !printable(l.text[i]) {
				return invariantf("line %d byte %d is %#x", id, i, l.text[i])
			}
		}
		if id == f.cur.Line {
			cursorFound = true
			if f.cur.LineNum != seen {
				return invariantf("cursor line_num %d, line is at ordinal %d", f.cur.LineNum, seen)
			}
			if f.cur.Column < 0 || f.cur.Column > l.size {
				return invariantf("cursor column %d outside [0,%d]", f.cur.Column, l.size)
			}
		}
		seen++
		if seen > len(s.lines) {
			return invariantf("cycle in line list")
		}
		prev = id
		tail = id
	}
	if seen != f.count {
		return invariantf("%d lines reachable from head, line count is %d", seen, f.count)
	}
	if !cursorFound {
		return invariantf("cursor line %d is not in the list", f.cur.Line)
	}

	back := 0
	for id := tail; id != NoLine; id = s.lines[id].prev {
		back++
		if back > seen {
			return invariantf("cycle walking back from tail")
		}
	}
	if back != f.count {
		return invariantf("%d lines reachable from tail, line count is %d", back, f.count)
	}

	freed := 0
	for id := f.free; id != NoLine; id = s.lines[id].next {
		if s.lines[id].prev != NoLine {
			return invariantf("free line %d has a prev link", id)
		}
		freed++
		if freed > len(s.lines) {
			return invariantf("cycle in free list")
		}
	}
	if seen+freed > len(s.lines) {
		return invariantf("free list shares lines with the active list")
	}
	return nil
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Op: "integrity", Msg: fmt.Sprintf(format, args...)}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
