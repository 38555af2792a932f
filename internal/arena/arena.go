package arena

import (
	"fmt"

	"github.com/kobzarvs/htext/internal/logger"
)

// DefaultBlockSize is the number of bytes reserved per block when none is given.
const DefaultBlockSize = 1 << 20

// Arena is a bump allocator over pre-reserved byte blocks.
// Slices handed out by Push stay valid until Reset; there is no per-slice free.
type Arena struct {
	blockSize int
	blocks    [][]byte
	cur       int // index of the block being bumped
	used      int // bytes used in blocks[cur]
	total     int // bytes handed out since the last Reset
	temps     int // open temporary regions
}

// Temp marks a temporary region. End rewinds the arena to the mark.
type Temp struct {
	arena *Arena
	cur   int
	used  int
	total int
	depth int
}

func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	a := &Arena{blockSize: blockSize}
	a.blocks = append(a.blocks, make([]byte, blockSize))
	return a
}

// Push returns n bytes of arena memory. The returned slice has len == cap == n,
// so appending to it never writes over a neighbour.
func (a *Arena) Push(n int) []byte {
	if n < 0 {
		panic(fmt.Sprintf("arena: negative size %d", n))
	}
	if a.used+n > len(a.blocks[a.cur]) {
		a.advance(n)
	}
	start := a.used
	a.used += n
	a.total += n
	buf := a.blocks[a.cur][start:a.used:a.used]
	clear(buf)
	return buf
}

// advance moves to the next block that can hold n bytes, reserving one if needed.
func (a *Arena) advance(n int) {
	for next := a.cur + 1; next < len(a.blocks); next++ {
		if len(a.blocks[next]) >= n {
			a.cur = next
			a.used = 0
			return
		}
	}
	size := a.blockSize
	if n > size {
		size = n
	}
	a.blocks = append(a.blocks, make([]byte, size))
	a.cur = len(a.blocks) - 1
	a.used = 0
	logger.Debug("arena block reserved", "size", size, "blocks", len(a.blocks))
}

// Used reports the bytes handed out since the last Reset.
func (a *Arena) Used() int {
	return a.total
}

// Reserved reports the bytes held by all blocks.
func (a *Arena) Reserved() int {
	n := 0
	for _, b := range a.blocks {
		n += len(b)
	}
	return n
}

// Blocks reports how many blocks have been reserved.
func (a *Arena) Blocks() int {
	return len(a.blocks)
}

// Reset drops every allocation at once. Blocks stay reserved for reuse.
func (a *Arena) Reset() {
	if a.temps != 0 {
		panic(fmt.Sprintf("arena: reset with %d open temporary regions", a.temps))
	}
	a.cur = 0
	a.used = 0
	a.total = 0
}

// Begin opens a temporary region; everything pushed until End is released by End.
func (a *Arena) Begin() Temp {
	a.temps++
	return Temp{arena: a, cur: a.cur, used: a.used, total: a.total, depth: a.temps}
}

func (t Temp) End() {
	a := t.arena
	if a.temps != t.depth {
		panic(fmt.Sprintf("arena: temporary region closed out of order (depth %d, open %d)", t.depth, a.temps))
	}
	a.cur = t.cur
	a.used = t.used
	a.total = t.total
	a.temps--
}

// Check panics if a temporary region was left open.
func (a *Arena) Check() {
	if a.temps != 0 {
		panic(fmt.Sprintf("arena: %d temporary regions still open", a.temps))
	}
}
