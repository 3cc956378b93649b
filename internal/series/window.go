package series

// Window keeps the most recent points of one series in a fixed-size ring.
type Window struct {
	points []Point
	size   int
	index  int
	filled bool
}

func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{
		points: make([]Point, size),
		size:   size,
	}
}

func (w *Window) Add(p Point) {
	w.points[w.index] = p
	w.index = (w.index + 1) % w.size
	if w.index == 0 {
		w.filled = true
	}
}

func (w *Window) Len() int {
	if w.filled {
		return w.size
	}
	return w.index
}

// Snapshot returns the buffered points oldest first.
func (w *Window) Snapshot() Snapshot {
	length := w.Len()
	result := make(Snapshot, 0, length)
	if length == 0 {
		return result
	}
	if w.filled {
		result = append(result, w.points[w.index:]...)
	}
	result = append(result, w.points[:w.index]...)
	return result
}
