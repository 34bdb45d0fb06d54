package schema

import (
	"github.com/rs/zerolog/log"

	"github.com/ogrtools/ogr2bq/internal/columns"
	"github.com/ogrtools/ogr2bq/internal/geo"
)

// propertyState accumulates the type classification for one property key
// across the stream.
type propertyState struct {
	typ     FieldType
	seen    int // features the key appeared in
	nonNull int // features the key appeared in with a non-null value
}

// Inference streams over a feature sequence once and derives the output
// schema. Memory use is bounded by the number of distinct property keys,
// not by feature count.
type Inference struct {
	count  int
	order  []string // property keys in first-seen order
	states map[string]*propertyState
}

// NewInference returns an empty inference accumulator.
func NewInference() *Inference {
	return &Inference{states: map[string]*propertyState{}}
}

// Observe folds one feature into the accumulated type states.
func (inf *Inference) Observe(f *geo.Feature) {
	inf.count++
	for _, key := range f.PropertyKeys {
		state, ok := inf.states[key]
		if !ok {
			state = &propertyState{typ: TypeUnknown}
			inf.states[key] = state
			inf.order = append(inf.order, key)
		}
		state.seen++

		value := f.Properties[key]
		state.typ = Merge(state.typ, Classify(value))
		if value != nil {
			state.nonNull++
		}
	}
}

// FeatureCount returns the number of features observed so far.
func (inf *Inference) FeatureCount() int {
	return inf.count
}

// Finalize materializes the schema: fixed columns first in plan order, then
// property columns in first-seen order, filtered and renamed per the plan.
// Property keys the plan requested but the stream never produced are dropped
// with a warning.
func (inf *Inference) Finalize(plan *columns.Plan) *Schema {
	s := &Schema{}

	for _, d := range plan.Fixed {
		typ := TypeString
		if d.Canonical == columns.ColGeometry {
			typ = TypeGeography
		}
		s.Columns = append(s.Columns, Column{
			Field: Field{Name: d.Output, Type: typ, Mode: ModeNullable},
			Key:   d.Canonical,
			Fixed: true,
		})
	}

	for _, key := range inf.order {
		if !plan.IncludesProperty(key) {
			continue
		}
		state := inf.states[key]

		mode := ModeNullable
		if inf.count > 0 && state.nonNull == inf.count {
			mode = ModeRequired
		}

		s.Columns = append(s.Columns, Column{
			Field: Field{Name: plan.PropertyOutput(key), Type: state.typ, Mode: mode},
			Key:   key,
		})
	}

	for _, key := range plan.RequestedProperties() {
		if _, ok := inf.states[key]; !ok {
			log.Warn().
				Str("column", key).
				Msg("Requested property column was never observed in the stream, dropping")
		}
	}

	return s
}
