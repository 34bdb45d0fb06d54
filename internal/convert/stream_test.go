package convert

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogrtools/ogr2bq/internal/geo"
)

func drain(t *testing.T, src Source) []*geo.Feature {
	t.Helper()
	var features []*geo.Feature
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return features
		}
		require.NoError(t, err)
		features = append(features, f)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.geojsonl")
	content := "\x1e{\"type\":\"Feature\",\"properties\":{\"n\":1},\"geometry\":null}\n" +
		"\n" +
		"{\"type\":\"Feature\",\"properties\":{\"n\":2},\"geometry\":null}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := OpenFileSource(path)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	features := drain(t, src)
	require.Len(t, features, 2)
	// RFC 8142 record separators and blank lines are tolerated.
	assert.Equal(t, []string{"n"}, features[0].PropertyKeys)
	assert.Equal(t, []string{"n"}, features[1].PropertyKeys)
}

func TestFileSourceMissing(t *testing.T) {
	_, err := OpenFileSource(filepath.Join(t.TempDir(), "absent.geojsonl"))
	assert.Error(t, err)
}

func TestBufferSourceReplay(t *testing.T) {
	f, err := geo.UnmarshalFeature([]byte(`{"type":"Feature","properties":{"n":1},"geometry":null}`))
	require.NoError(t, err)

	src := NewBufferSource([]*geo.Feature{f, f})
	assert.Len(t, drain(t, src), 2)

	// Exhausted source keeps returning EOF.
	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}
