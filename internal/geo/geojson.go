// Package geo handles the feature model for normalized GeoJSONSeq streams.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

// Feature represents a single geographic feature with geometry and properties.
// Properties keep their original key order from the source line, and numeric
// values are held as json.Number so integers and floats stay distinguishable.
type Feature struct {
	Geometry     *geojson.Geometry
	Properties   map[string]interface{}
	PropertyKeys []string // keys in source order
}

// UnmarshalFeature parses one GeoJSONSeq line into a Feature.
func UnmarshalFeature(data []byte) (*Feature, error) {
	var raw struct {
		Type       string          `json:"type"`
		Geometry   json.RawMessage `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse feature: %w", err)
	}
	if raw.Type != "Feature" {
		return nil, fmt.Errorf("unexpected GeoJSON type %q", raw.Type)
	}

	f := &Feature{Properties: map[string]interface{}{}}

	if len(raw.Geometry) > 0 && !bytes.Equal(raw.Geometry, []byte("null")) {
		geom, err := geojson.UnmarshalGeometry(raw.Geometry)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		f.Geometry = geom
	}

	if len(raw.Properties) > 0 && !bytes.Equal(raw.Properties, []byte("null")) {
		keys, props, err := decodeOrderedObject(raw.Properties)
		if err != nil {
			return nil, fmt.Errorf("parse properties: %w", err)
		}
		f.PropertyKeys = keys
		f.Properties = props
	}

	return f, nil
}

// decodeOrderedObject decodes a JSON object keeping key order and json.Number
// for all numeric values, including those nested in objects and arrays.
func decodeOrderedObject(data []byte) ([]string, map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("properties is not a JSON object")
	}

	var keys []string
	props := map[string]interface{}{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}

		if _, dup := props[key]; !dup {
			keys = append(keys, key)
		}
		props[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return keys, props, nil
}

// MarshalGeometry serializes the feature's geometry as GeoJSON text.
// A feature without geometry serializes as the JSON null literal.
func (f *Feature) MarshalGeometry() ([]byte, error) {
	if f.Geometry == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Geometry)
}

// MarshalJSON serializes the whole feature (geometry and properties) as a
// GeoJSON Feature object.
func (f *Feature) MarshalJSON() ([]byte, error) {
	geom, err := f.MarshalGeometry()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":"Feature","geometry":`)
	buf.Write(geom)
	buf.WriteString(`,"properties":`)

	if f.Properties == nil {
		buf.WriteString("null")
	} else {
		buf.WriteByte('{')
		for i, key := range f.PropertyKeys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(f.Properties[key])
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
