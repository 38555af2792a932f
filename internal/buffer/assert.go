package buffer

import (
	"fmt"

	"github.com/kobzarvs/htext/internal/logger"
)

// Checks enables the full O(n) integrity walk after every structural edit.
// Cheap preconditions are always enforced.
var Checks = false

// InvariantError describes a broken structural invariant. It is only ever
// raised with panic: it signals a bug in the caller or in this package.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return "buffer: " + e.Op + ": " + e.Msg
}

func fail(op, format string, args ...any) {
	err := &InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)}
	logger.Error("buffer invariant violated", "op", op, "msg", err.Msg)
	panic(err)
}

func assert(cond bool, op, format string, args ...any) {
	if !cond {
		fail(op, format, args...)
	}
}

func printable(b byte) bool {
	return b >= 32 && b <= 126
}
