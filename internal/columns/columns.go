// Package columns resolves the user-supplied column specification into an
// ordered plan for the output schema.
package columns

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrInvalidSpec reports an unusable column specification.
var ErrInvalidSpec = errors.New("invalid column specification")

// Fixed geometry-derived column names.
const (
	ColGeometry        = "geometry"
	ColGeoJSON         = "geojson"
	ColGeoJSONGeometry = "geojson_geometry"
)

// DefaultSpec is the column specification applied when the user gives none.
// Only the geometry column is included by default.
const DefaultSpec = `{"geometry":"geometry"}`

var fixedOrder = []string{ColGeometry, ColGeoJSON, ColGeoJSONGeometry}

// Directive selects one fixed geometry-derived column and its output name.
type Directive struct {
	Canonical string
	Output    string
}

// Plan is the resolved column plan: which fixed columns to emit, under what
// names, and optionally a restriction/rename set for property columns.
type Plan struct {
	Fixed []Directive

	// Restricted means only property keys listed in Properties are emitted.
	// When false every property key found in the stream is emitted under its
	// own name.
	Restricted bool
	Properties map[string]string // canonical property key -> output name
	propOrder  []string
}

// Resolve parses a raw column specification. The raw value is a JSON string:
// an array literal restricts which fixed columns appear, an object literal
// restricts and renames. An empty string or empty JSON value yields a plan
// with no geographic columns at all.
func Resolve(raw string) (*Plan, error) {
	if strings.TrimSpace(raw) == "" {
		log.Warn().Msg("Column specification is empty, no geographic columns will be included")
		return &Plan{}, nil
	}

	var asList []string
	if err := json.Unmarshal([]byte(raw), &asList); err == nil {
		return resolveList(asList)
	}

	var asMap map[string]string
	if err := json.Unmarshal([]byte(raw), &asMap); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array or object: %s", ErrInvalidSpec, raw)
	}
	return resolveMap(asMap)
}

// resolveList handles the array form: membership only, canonical names kept.
// Only the three fixed column names are valid entries.
func resolveList(names []string) (*Plan, error) {
	if len(names) == 0 {
		log.Warn().Msg("Column specification is an empty array, no geographic columns will be included")
		return &Plan{}, nil
	}

	wanted := map[string]bool{}
	for _, name := range names {
		if !isFixed(name) {
			log.Warn().Str("column", name).Msg("Unknown column name in specification, skipping")
			continue
		}
		wanted[name] = true
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("%w: no valid column names, valid names are: %s",
			ErrInvalidSpec, strings.Join(fixedOrder, ", "))
	}

	plan := &Plan{}
	for _, name := range fixedOrder {
		if wanted[name] {
			plan.Fixed = append(plan.Fixed, Directive{Canonical: name, Output: name})
		}
	}
	return plan, nil
}

// resolveMap handles the object form: membership and renames. Keys beyond the
// three fixed columns are treated as property restrictions; whether they exist
// is only known once the stream has been scanned, so they are validated lazily
// during inference.
func resolveMap(spec map[string]string) (*Plan, error) {
	if len(spec) == 0 {
		log.Warn().Msg("Column specification is an empty object, no geographic columns will be included")
		return &Plan{}, nil
	}

	outputs := map[string]string{}
	for canonical, output := range spec {
		if output == "" {
			output = canonical
		}
		if prev, taken := outputs[output]; taken {
			return nil, fmt.Errorf("%w: output name %q requested for both %q and %q",
				ErrInvalidSpec, output, prev, canonical)
		}
		outputs[output] = canonical
	}

	plan := &Plan{}
	for _, name := range fixedOrder {
		if output, ok := spec[name]; ok {
			if output == "" {
				output = name
			}
			plan.Fixed = append(plan.Fixed, Directive{Canonical: name, Output: output})
		}
	}

	for canonical, output := range spec {
		if isFixed(canonical) {
			continue
		}
		if output == "" {
			output = canonical
		}
		if plan.Properties == nil {
			plan.Properties = map[string]string{}
		}
		plan.Restricted = true
		plan.Properties[canonical] = output
		plan.propOrder = append(plan.propOrder, canonical)
	}
	// JSON object order is not preserved by encoding/json, keep it stable.
	sort.Strings(plan.propOrder)

	return plan, nil
}

func isFixed(name string) bool {
	return name == ColGeometry || name == ColGeoJSON || name == ColGeoJSONGeometry
}

// IncludesProperty reports whether the plan admits the given property key.
func (p *Plan) IncludesProperty(key string) bool {
	if !p.Restricted {
		return true
	}
	_, ok := p.Properties[key]
	return ok
}

// PropertyOutput returns the output name for a property key.
func (p *Plan) PropertyOutput(key string) string {
	if p.Restricted {
		if out, ok := p.Properties[key]; ok {
			return out
		}
	}
	return key
}

// RequestedProperties returns the property keys the plan explicitly asked
// for, so that keys never observed in the stream can be reported.
func (p *Plan) RequestedProperties() []string {
	return p.propOrder
}
