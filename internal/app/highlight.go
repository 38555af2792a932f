package app

import (
	"os"

	"github.com/kobzarvs/htext/internal/editor"
	"github.com/kobzarvs/htext/internal/treesitter"
)

const maxHighlightBytes = 8 << 20

// highlighter reparses the buffer when it changes and refreshes the spans of
// the visible lines when the window moves.
type highlighter struct {
	ts *treesitter.Engine

	path      string
	tick      uint64
	start     int
	end       int
	parsed    bool
	supported bool
}

func newHighlighter(ts *treesitter.Engine) *highlighter {
	return &highlighter{ts: ts, start: -1, end: -1}
}

func (h *highlighter) update(ed *editor.Editor) {
	path := ed.Filename()
	if path != h.path {
		if h.path != "" {
			h.ts.Forget(h.path)
		}
		h.path = path
		h.parsed = false
		h.supported = path != "" && h.ts.Language(path) != "" && smallEnough(path)
	}
	if !h.supported {
		if ed.HasHighlights() {
			ed.SetHighlights(-1, -1, nil)
		}
		return
	}

	tick := ed.ChangeTick()
	changed := !h.parsed || tick != h.tick
	if changed {
		h.tick = tick
		h.parsed = h.ts.ParseSync(path, ed.Content())
		if !h.parsed {
			ed.SetHighlights(-1, -1, nil)
			return
		}
	}

	start, end := ed.VisibleRange()
	if !changed && start == h.start && end == h.end {
		return
	}
	h.start, h.end = start, end
	spans := h.ts.Highlights(path, start, end)
	if spans == nil {
		ed.SetHighlights(-1, -1, nil)
		return
	}
	out := make(map[int][]editor.HighlightSpan, len(spans))
	for line, lineSpans := range spans {
		dst := make([]editor.HighlightSpan, len(lineSpans))
		for i, span := range lineSpans {
			dst[i] = editor.HighlightSpan{
				StartCol: span.StartCol,
				EndCol:   span.EndCol,
				Kind:     span.Kind,
			}
		}
		out[line] = dst
	}
	ed.SetHighlights(start, end, out)
}

func smallEnough(path string) bool {
	info, err := os.Stat(path)
	return err != nil || info.Size() <= maxHighlightBytes
}
