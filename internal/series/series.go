// Package series holds the time series observations the strategy consumes.
package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNonFinite = errors.New("non-finite value")
	ErrUnordered = errors.New("points out of chronological order")
)

// Point is a single observation. A zero Time means the point is only
// positioned by its index in the snapshot.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Snapshot is one series ordered oldest first.
type Snapshot []Point

func (s Snapshot) Len() int {
	return len(s)
}

// Latest returns the most recent point.
func (s Snapshot) Latest() (Point, bool) {
	return s.fromEnd(1)
}

// Previous returns the point before Latest.
func (s Snapshot) Previous() (Point, bool) {
	return s.fromEnd(2)
}

func (s Snapshot) fromEnd(n int) (Point, bool) {
	if len(s) < n {
		return Point{}, false
	}
	return s[len(s)-n], true
}

// Tail copies the last n points.
func (s Snapshot) Tail(n int) Snapshot {
	if n <= 0 {
		return Snapshot{}
	}
	if n > len(s) {
		n = len(s)
	}
	out := make(Snapshot, n)
	copy(out, s[len(s)-n:])
	return out
}

func (s Snapshot) Validate() error {
	for i, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("point %d: %w", i, ErrNonFinite)
		}
		if i == 0 || p.Time.IsZero() || s[i-1].Time.IsZero() {
			continue
		}
		if p.Time.Before(s[i-1].Time) {
			return fmt.Errorf("point %d at %s: %w", i, p.Time.Format(time.DateOnly), ErrUnordered)
		}
	}
	return nil
}

// Data maps a series identifier to its snapshot for one evaluation cycle.
type Data map[string]Snapshot

func (d Data) Lookup(key string) (Snapshot, bool) {
	if d == nil {
		return nil, false
	}
	s, ok := d[key]
	return s, ok
}
