package buffer

import (
	"github.com/kobzarvs/htext/internal/arena"
)

// DefaultChunk is the capacity granted to a fresh line and the step it grows by.
const DefaultChunk = 100

// LineID addresses a Line slot in a Store.
type LineID int32

// NoLine marks a missing prev/next link or an empty free list.
const NoLine LineID = -1

// Line is one row of text. Its bytes live in the arena; prev/next are slot
// indices, never owning references.
type Line struct {
	text  []byte // len(text) is the capacity
	size  int
	prev  LineID
	next  LineID
	stamp uint32 // bumped whenever cached presentation must be dropped
}

// Store owns every Line slot of a session. Slots are never released; detached
// lines wait on a frame's free list instead.
type Store struct {
	arena   *arena.Arena
	scratch *arena.Arena
	chunk   int
	lines   []Line
}

// NewStore creates a store that bump-allocates line text from a and uses
// scratch as the temporary copy area while growing.
func NewStore(a, scratch *arena.Arena, chunk int) *Store {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return &Store{arena: a, scratch: scratch, chunk: chunk}
}

func (s *Store) Chunk() int { return s.chunk }

// Slots reports how many lines were ever created.
func (s *Store) Slots() int { return len(s.lines) }

func (s *Store) line(id LineID) *Line {
	assert(id >= 0 && int(id) < len(s.lines), "line", "invalid line id %d", id)
	return &s.lines[id]
}

// Create allocates a fresh, unlinked, empty line with one chunk of capacity.
func (s *Store) Create() LineID {
	id := LineID(len(s.lines))
	s.lines = append(s.lines, Line{
		text: s.arena.Push(s.chunk),
		prev: NoLine,
		next: NoLine,
	})
	return id
}

// Acquire reuses the most recently freed line of f, or creates one.
func (s *Store) Acquire(f *Frame) LineID {
	if f.free == NoLine {
		return s.Create()
	}
	id := f.free
	l := s.line(id)
	f.free = l.next
	l.next = NoLine
	l.prev = NoLine
	l.size = 0
	l.stamp++
	return id
}

// Grow makes room for needed bytes. Existing text is carried over through
// the scratch arena; the old backing slice is left behind in the arena.
// Slices obtained from Text before a Grow must not be used after it.
func (s *Store) Grow(id LineID, needed int) {
	l := s.line(id)
	if needed <= len(l.text) {
		return
	}
	l.text = growText(s.arena, s.scratch, l.text, l.size, needed, s.chunk)
}

// growText returns a new arena slice whose capacity is the next multiple of
// chunk that is at least needed+1, holding the first size bytes of old.
func growText(a, scratch *arena.Arena, old []byte, size, needed, chunk int) []byte {
	capacity := ((needed + chunk) / chunk) * chunk
	tmp := scratch.Begin()
	defer tmp.End()
	saved := scratch.Push(size)
	copy(saved, old[:size])
	text := a.Push(capacity)
	copy(text, saved)
	return text
}

// SpliceAfter links next immediately after at.
func (s *Store) SpliceAfter(at, next LineID) {
	assert(at != next, "splice", "line %d spliced after itself", at)
	l := s.line(at)
	n := s.line(next)
	n.next = l.next
	n.prev = at
	if n.next != NoLine {
		s.line(n.next).prev = next
	}
	l.next = next
}

// Detach unlinks id from f and pushes it onto f's free list. The caller must
// handle single-line frames itself; detaching the last line is a bug.
func (s *Store) Detach(f *Frame, id LineID) {
	assert(f.count > 1, "detach", "cannot detach the only line %d", id)
	l := s.line(id)
	prev, next := l.prev, l.next
	if f.head == id {
		assert(next != NoLine, "detach", "head %d has no successor", id)
		f.head = next
		s.line(next).prev = NoLine
	} else {
		assert(prev != NoLine, "detach", "line %d is not linked", id)
		s.line(prev).next = next
		if next != NoLine {
			s.line(next).prev = prev
		}
	}

	// Free list is singly linked through next; prev stays cleared.
	l.prev = NoLine
	l.next = f.free
	l.stamp++
	f.free = id
	f.count--
}
