package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ogrtools/ogr2bq/internal/columns"
	"github.com/ogrtools/ogr2bq/internal/geo"
	"github.com/ogrtools/ogr2bq/internal/schema"
)

// Transcode projects every feature from src into one JSON line on w,
// following the finalized schema. Line order matches feature order and every
// line carries the same relative key order: property columns in schema order,
// then the geometry-derived columns. Properties absent from a feature are
// omitted from its line. Returns the number of lines written.
func Transcode(src Source, w io.Writer, sch *schema.Schema) (int, error) {
	props := sch.PropertyColumns()
	fixed := sch.FixedColumns()

	count := 0
	var buf bytes.Buffer
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}

		buf.Reset()
		buf.WriteByte('{')
		first := true

		for _, col := range props {
			value, present := f.Properties[col.Key]
			if !present {
				continue
			}
			rendered, err := renderValue(value, col.Type)
			if err != nil {
				return count, fmt.Errorf("render column %q: %w", col.Name, err)
			}
			writePair(&buf, &first, col.Name, rendered)
		}

		for _, col := range fixed {
			rendered, err := renderFixed(f, col.Key)
			if err != nil {
				return count, fmt.Errorf("render column %q: %w", col.Name, err)
			}
			writePair(&buf, &first, col.Name, rendered)
		}

		buf.WriteString("}\n")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func writePair(buf *bytes.Buffer, first *bool, name string, value []byte) {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	key, _ := json.Marshal(name)
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(value)
}

// renderFixed serializes a geometry-derived column value as a JSON string
// holding GeoJSON text.
func renderFixed(f *geo.Feature, canonical string) ([]byte, error) {
	var text []byte
	var err error
	switch canonical {
	case columns.ColGeoJSON:
		text, err = f.MarshalJSON()
	default: // geometry and geojson_geometry both hold the geometry alone
		text, err = f.MarshalGeometry()
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// renderValue coerces a property value to the type inference chose for its
// column.
func renderValue(value interface{}, typ schema.FieldType) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}

	switch typ {
	case schema.TypeFloat:
		if n, ok := value.(json.Number); ok {
			s := n.String()
			// Integer observations in a FLOAT column widen to float literals.
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
			return []byte(s), nil
		}
	case schema.TypeString:
		if _, ok := value.(string); !ok {
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			return json.Marshal(string(raw))
		}
	}

	return json.Marshal(value)
}
