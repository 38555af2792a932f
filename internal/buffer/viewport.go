package buffer

// Viewport is a visible window [Start, Start+Size). Size comes from the host;
// Start is owned by UpdateViewport.
type Viewport struct {
	Start int
	Size  int
}

func (v Viewport) Contains(pos int) bool {
	return pos >= v.Start && pos < v.Start+v.Size
}

// Range returns the visible half-open range clipped to extent.
func (v Viewport) Range(extent int) (int, int) {
	start := clamp(v.Start, 0, extent)
	end := clamp(v.Start+v.Size, start, extent)
	return start, end
}

// Track recenters the window on pos when pos has left it, then clamps Start
// into [0, extent-1].
//
// This is recenter-on-exit, not minimal scrolling: the window only moves once
// the position leaves it, and then it jumps so the position sits in the
// middle. Commands such as G and gg are written assuming this behaviour, so
// keep it rather than switching to minimal scroll.
func (v *Viewport) Track(pos, extent int) {
	if !v.Contains(pos) {
		v.Start = pos - v.Size/2
	}
	v.Start = clamp(v.Start, 0, extent-1)
}

// UpdateViewport recomputes both windows of f from its cursor: vertical over
// line ordinals, horizontal over columns of the cursor line.
func UpdateViewport(f *Frame) {
	f.viewV.Track(f.cur.LineNum, f.count)
	f.viewH.Track(f.cur.Column, f.LineLen(f.cur.Line))
}
