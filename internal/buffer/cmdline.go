package buffer

import (
	"github.com/kobzarvs/htext/internal/arena"
)

// DefaultCommandChunk is the starting capacity of a command line.
const DefaultCommandChunk = 200

// CommandLine is the single-line ex input. It grows like a Line but has no
// neighbours and is never split.
type CommandLine struct {
	arena   *arena.Arena
	scratch *arena.Arena
	chunk   int
	text    []byte
	size    int
	column  int
	stamp   uint32
}

func NewCommandLine(a, scratch *arena.Arena, chunk int) *CommandLine {
	if chunk <= 0 {
		chunk = DefaultCommandChunk
	}
	return &CommandLine{
		arena:   a,
		scratch: scratch,
		chunk:   chunk,
		text:    a.Push(chunk),
	}
}

func (c *CommandLine) Len() int       { return c.size }
func (c *CommandLine) Column() int    { return c.column }
func (c *CommandLine) Capacity() int  { return len(c.text) }
func (c *CommandLine) Stamp() uint32  { return c.stamp }
func (c *CommandLine) String() string { return string(c.text[:c.size]) }

// Bytes aliases the command text until the next edit.
func (c *CommandLine) Bytes() []byte {
	return c.text[:c.size:c.size]
}

func (c *CommandLine) InsertText(text []byte) {
	for i, b := range text {
		assert(printable(b), "ex insert", "byte %#x at %d is not printable", b, i)
	}
	if len(text) == 0 {
		return
	}
	needed := c.size + len(text)
	if needed > len(c.text) {
		c.text = growText(c.arena, c.scratch, c.text, c.size, needed, c.chunk)
	}
	copy(c.text[c.column+len(text):needed], c.text[c.column:c.size])
	copy(c.text[c.column:], text)
	c.size = needed
	c.column += len(text)
	c.stamp++
}

// RemoveChar deletes the byte left of the cursor, if any.
func (c *CommandLine) RemoveChar() {
	if c.column == 0 {
		return
	}
	assert(c.column <= c.size, "ex backspace", "column %d past length %d", c.column, c.size)
	copy(c.text[c.column-1:], c.text[c.column:c.size])
	c.size--
	c.column--
	c.stamp++
}

// MoveCursor shifts the cursor by delta, clamped to the text.
func (c *CommandLine) MoveCursor(delta int) {
	c.column = clamp(c.column+delta, 0, c.size)
	c.stamp++
}

func (c *CommandLine) Reset() {
	c.size = 0
	c.column = 0
	c.stamp++
}
