// Package feed supplies series snapshots to the engine on every evaluation
// cycle.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"macroalloc/internal/series"
)

var ErrUnsupportedFormat = errors.New("unsupported date format")

// Source returns the requested series. Keys it knows nothing about are left
// out of the result rather than reported as errors.
type Source interface {
	Snapshot(ctx context.Context, keys []string) (series.Data, error)
}

var dateLayouts = []string{
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"2006-01",
}

// ParseDate accepts the date shapes macro series are usually published with.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", value, ErrUnsupportedFormat)
}

// sortChronologically orders a fully dated series oldest first. A series with
// any undated point keeps the order it was given in.
func sortChronologically(s series.Snapshot) {
	for _, p := range s {
		if p.Time.IsZero() {
			return
		}
	}
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
}
