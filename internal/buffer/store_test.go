package buffer

import (
	"testing"

	"github.com/kobzarvs/htext/internal/arena"
)

func TestGrowTextCapacityIsNextChunkMultiple(t *testing.T) {
	a := arena.New(4096)
	scratch := arena.New(256)
	old := a.Push(100)
	copy(old, "abc")
	cases := []struct{ needed, want int }{
		{100, 200},
		{101, 200},
		{199, 200},
		{200, 300},
	}
	for _, tc := range cases {
		text := growText(a, scratch, old, 3, tc.needed, 100)
		if len(text) != tc.want {
			t.Fatalf("needed %d: capacity = %d, want %d", tc.needed, len(text), tc.want)
		}
		if string(text[:3]) != "abc" {
			t.Fatalf("needed %d: text = %q", tc.needed, text[:3])
		}
	}
	if scratch.Used() != 0 {
		t.Fatalf("scratch used = %d after grow, want 0", scratch.Used())
	}
}

func TestAcquirePrefersMostRecentlyFreed(t *testing.T) {
	f := newTestFrame(t, "a", "b", "c", "d")
	b := f.Index(1)
	c := f.Index(2)
	f.Store().Detach(f, b)
	f.Store().Detach(f, c)
	if f.FreeList() != c || f.Next(c) != b {
		t.Fatalf("free list = %d -> %d, want %d -> %d", f.FreeList(), f.Next(c), c, b)
	}
	if got := f.Store().Acquire(f); got != c {
		t.Fatalf("Acquire = %d, want %d", got, c)
	}
	if got := f.Store().Acquire(f); got != b {
		t.Fatalf("Acquire = %d, want %d", got, b)
	}
	if got := f.Store().Acquire(f); got != LineID(4) {
		t.Fatalf("Acquire on empty free list = %d, want fresh slot 4", got)
	}
}

func TestDetachHeadPromotesSuccessor(t *testing.T) {
	f := newTestFrame(t, "a", "b")
	head := f.Head()
	f.Store().Detach(f, head)
	if f.Head() == head || f.Prev(f.Head()) != NoLine {
		t.Fatalf("head not promoted: head %d prev %d", f.Head(), f.Prev(f.Head()))
	}
	if f.LineCount() != 1 {
		t.Fatalf("line count = %d, want 1", f.LineCount())
	}
}

func TestDetachOnlyLinePanics(t *testing.T) {
	f := newTestFrame(t)
	defer func() {
		if _, ok := recover().(*InvariantError); !ok {
			t.Fatalf("expected invariant panic")
		}
	}()
	f.Store().Detach(f, f.Head())
}

func TestSpliceAfterLinksBothWays(t *testing.T) {
	f := newTestFrame(t, "a", "c")
	s := f.Store()
	id := s.Create()
	s.SpliceAfter(f.Head(), id)
	if f.Next(f.Head()) != id || f.Prev(id) != f.Head() {
		t.Fatalf("forward links wrong")
	}
	third := f.Next(id)
	if third == NoLine || f.Prev(third) != id {
		t.Fatalf("backward link of successor wrong")
	}
}
