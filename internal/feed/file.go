package feed

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"macroalloc/internal/series"
)

type fileDocument struct {
	Series map[string][]filePoint `yaml:"series"`
}

type filePoint struct {
	Date  string   `yaml:"date"`
	Value *float64 `yaml:"value"`
}

// FileSource reads series from a YAML document. JSON works as well since it
// is valid YAML. The file is read again on every call.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Snapshot(ctx context.Context, keys []string) (series.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	data := make(series.Data, len(keys))
	for _, key := range keys {
		if s, ok := all[key]; ok {
			data[key] = s
		}
	}
	return data, nil
}

// ReadFile parses every series in the document at path.
func ReadFile(path string) (series.Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read series file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (series.Data, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse series file: %w", err)
	}
	data := make(series.Data, len(doc.Series))
	for key, points := range doc.Series {
		s := make(series.Snapshot, 0, len(points))
		for i, p := range points {
			// A point without a value reaches the strategy as NaN so it is
			// handled like any other malformed observation.
			point := series.Point{Value: math.NaN()}
			if p.Value != nil {
				point.Value = *p.Value
			}
			if p.Date != "" {
				t, err := ParseDate(p.Date)
				if err != nil {
					return nil, fmt.Errorf("series %s point %d: %w", key, i, err)
				}
				point.Time = t
			}
			s = append(s, point)
		}
		sortChronologically(s)
		data[key] = s
	}
	return data, nil
}
