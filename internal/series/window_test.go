package series

import "testing"

func TestWindowKeepsMostRecentPoints(t *testing.T) {
	window := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		window.Add(Point{Value: v})
	}

	snapshot := window.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 points, got %d", len(snapshot))
	}
	for i, expected := range []float64{3, 4, 5} {
		if snapshot[i].Value != expected {
			t.Fatalf("point %d: expected %.0f, got %.0f", i, expected, snapshot[i].Value)
		}
	}
}

func TestWindowPartiallyFilled(t *testing.T) {
	window := NewWindow(5)
	window.Add(Point{Value: 1})
	window.Add(Point{Value: 2})

	if window.Len() != 2 {
		t.Fatalf("expected len 2, got %d", window.Len())
	}
	latest, ok := window.Snapshot().Latest()
	if !ok || latest.Value != 2 {
		t.Fatalf("expected latest 2, got %v ok=%v", latest.Value, ok)
	}
}

func TestWindowEmpty(t *testing.T) {
	window := NewWindow(0)
	if got := window.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %d points", len(got))
	}
}
