package convert

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogrtools/ogr2bq/internal/geo"
)

// Strategy selects how the feature sequence is read a second time for
// transcoding after inference: re-reading the materialized intermediate
// file, or replaying features buffered in memory during the first pass.
type Strategy string

// Two-pass strategies.
const (
	StrategyFile   Strategy = "file"
	StrategyMemory Strategy = "memory"
)

// Source is a lazily-read, finite feature sequence. Next returns io.EOF when
// the sequence is exhausted.
type Source interface {
	Next() (*geo.Feature, error)
	Close() error
}

// FileSource reads features line by line from a GeoJSONSeq file.
type FileSource struct {
	file    *os.File
	scanner *bufio.Scanner
}

// OpenFileSource opens a GeoJSONSeq file for sequential reading.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	// Polygons with many vertices produce long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	return &FileSource{file: f, scanner: scanner}, nil
}

// Next returns the next feature in the file.
func (s *FileSource) Next() (*geo.Feature, error) {
	for s.scanner.Scan() {
		line := bytes.TrimPrefix(s.scanner.Bytes(), []byte{0x1e}) // RFC 8142 record separator
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return geo.UnmarshalFeature(line)
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// BufferSource replays a feature slice captured during an earlier pass.
type BufferSource struct {
	features []*geo.Feature
	next     int
}

// NewBufferSource returns a source over the given features.
func NewBufferSource(features []*geo.Feature) *BufferSource {
	return &BufferSource{features: features}
}

// Next returns the next buffered feature.
func (s *BufferSource) Next() (*geo.Feature, error) {
	if s.next >= len(s.features) {
		return nil, io.EOF
	}
	f := s.features[s.next]
	s.next++
	return f, nil
}

// Close is a no-op for buffered sources.
func (s *BufferSource) Close() error {
	return nil
}

// IsNormalized reports whether a source file can be read directly as a
// GeoJSONSeq sequence, skipping the conversion engine. Sequence files are
// WGS84 by definition (RFC 7946), so the extension is a sufficient probe.
func IsNormalized(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojsonl", ".geojsons":
		return true
	}
	return false
}
