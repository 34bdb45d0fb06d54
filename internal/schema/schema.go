package schema

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Field is one schema entry as persisted in the schema JSON file.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	Mode Mode      `json:"mode"`
}

// Column is a schema entry together with its source binding: Key holds the
// canonical property key (or fixed column name) the values come from, and
// Fixed marks the geometry-derived columns.
type Column struct {
	Field
	Key   string
	Fixed bool
}

// Schema is the ordered, finalized column list for one source file.
type Schema struct {
	Columns []Column
}

// Fields returns the plain field list in column order.
func (s *Schema) Fields() []Field {
	fields := make([]Field, len(s.Columns))
	for i, c := range s.Columns {
		fields[i] = c.Field
	}
	return fields
}

// PropertyColumns returns only the property-derived columns, in order.
func (s *Schema) PropertyColumns() []Column {
	var cols []Column
	for _, c := range s.Columns {
		if !c.Fixed {
			cols = append(cols, c)
		}
	}
	return cols
}

// FixedColumns returns only the geometry-derived columns, in order.
func (s *Schema) FixedColumns() []Column {
	var cols []Column
	for _, c := range s.Columns {
		if c.Fixed {
			cols = append(cols, c)
		}
	}
	return cols
}

// UnknownColumns returns the names of columns whose type could not be
// determined because every observed value was null.
func (s *Schema) UnknownColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Type == TypeUnknown {
			names = append(names, c.Name)
		}
	}
	return names
}

// WriteJSON writes the schema as a JSON array of {name,type,mode} objects,
// usable for creating a BigQuery table programmatically.
func (s *Schema) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s.Fields(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteText writes the schema in the "name:TYPE" form accepted by the
// BigQuery console when creating a table by hand.
func (s *Schema) WriteText(w io.Writer) error {
	lines := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		lines = append(lines, c.Name+":"+string(c.Type))
	}
	_, err := io.WriteString(w, strings.Join(lines, ",\n"))
	return err
}

// RenderTable writes a human-readable rendering of the schema.
func (s *Schema) RenderTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Mode"})
	for _, c := range s.Columns {
		table.Append([]string{c.Name, string(c.Type), string(c.Mode)})
	}
	table.Render()
}
