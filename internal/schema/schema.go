// Package schema compiles the configured CSV column declarations into a
// typed row coercer. Manifest cells arrive as strings; the schema turns
// them into typed values, applies defaults, and enforces per-column
// validation patterns before any instance is derived from them.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sprocket/internal/config"
	"sprocket/internal/pipeline"
)

// Kind enumerates the value types a manifest column can carry.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindDecimal Kind = "decimal"
	KindBool    Kind = "bool"
)

// Value is one coerced manifest cell. Kind tells which typed field is
// meaningful. Empty is set when the cell had no content and no default
// applied.
type Value struct {
	Kind    Kind
	Text    string
	Number  int
	Decimal float64
	Bool    bool
	Empty   bool
}

type column struct {
	name       string
	kind       Kind
	required   bool
	hasDefault bool
	defaultRaw string
	pattern    *regexp.Regexp
}

// Schema is a compiled column set ready to coerce rows.
type Schema struct {
	columns []column
	byName  map[string]*column
}

// Row holds the coerced values of one manifest row keyed by column name.
type Row map[string]Value

// Compile builds a Schema from configured columns. Patterns are compiled
// anchored at the start of the value, matching how manifests have always
// been validated.
func Compile(columns []config.Column) (*Schema, error) {
	s := &Schema{byName: make(map[string]*column, len(columns))}
	for _, cfg := range columns {
		kind := Kind(cfg.Type)
		switch kind {
		case KindText, KindNumber, KindDecimal, KindBool:
		default:
			return nil, pipeline.Wrap(pipeline.ErrSchema, "schema", cfg.Name, fmt.Sprintf("unknown column type %q", cfg.Type), nil)
		}

		pattern, err := regexp.Compile(`\A(?:` + cfg.ValidationPattern + `)`)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrSchema, "schema", cfg.Name, "invalid validation pattern", err)
		}

		col := column{
			name:       cfg.Name,
			kind:       kind,
			required:   cfg.Required,
			pattern:    pattern,
			defaultRaw: cfg.Default,
			hasDefault: cfg.Default != "",
		}
		// A numeric default of zero means "no default". Rows with the
		// cell empty stay empty instead of silently becoming version 0
		// or a 0x0 resolution.
		if (kind == KindNumber || kind == KindDecimal) && cfg.Default == "0" {
			col.hasDefault = false
		}

		s.columns = append(s.columns, col)
		s.byName[col.name] = &s.columns[len(s.columns)-1]
	}
	return s, nil
}

// NormalizeHeader collapses runs of whitespace in a header cell so manifests
// written with doubled spaces or tabs still match configured column names.
func NormalizeHeader(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ValidateHeader checks that every configured column appears in the header.
// Extra columns are tolerated and ignored.
func (s *Schema) ValidateHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, name := range header {
		present[NormalizeHeader(name)] = struct{}{}
	}
	var missing []string
	for _, col := range s.columns {
		if _, ok := present[col.name]; !ok {
			missing = append(missing, col.name)
		}
	}
	if len(missing) > 0 {
		return pipeline.Wrap(pipeline.ErrSchema, "schema", "header", fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// CoerceRow turns one raw record, aligned with header, into typed values.
// Records shorter than the header are padded with empty cells.
func (s *Schema) CoerceRow(header []string, record []string) (Row, error) {
	return s.coerceRow(header, record, false)
}

// CoerceRowLenient behaves like CoerceRow but skips per-column validation
// patterns. Required values and type coercion are still enforced.
func (s *Schema) CoerceRowLenient(header []string, record []string) (Row, error) {
	return s.coerceRow(header, record, true)
}

func (s *Schema) coerceRow(header []string, record []string, lenient bool) (Row, error) {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		value := ""
		if i < len(record) {
			value = record[i]
		}
		raw[NormalizeHeader(name)] = value
	}

	row := make(Row, len(s.columns))
	for _, col := range s.columns {
		value, err := col.coerce(raw[col.name], lenient)
		if err != nil {
			return nil, err
		}
		row[col.name] = value
	}
	return row, nil
}

func (c *column) coerce(raw string, lenient bool) (Value, error) {
	if raw == "" {
		if c.required {
			return Value{}, pipeline.Wrap(pipeline.ErrValidation, "schema", c.name, "required value is empty", nil)
		}
		if !c.hasDefault {
			return Value{Kind: c.kind, Empty: true}, nil
		}
		raw = c.defaultRaw
	}

	if !lenient && !c.pattern.MatchString(raw) {
		return Value{}, pipeline.Wrap(pipeline.ErrValidation, "schema", c.name, fmt.Sprintf("value %q does not match pattern %s", raw, c.pattern), nil)
	}

	value := Value{Kind: c.kind, Text: raw}
	switch c.kind {
	case KindNumber:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, pipeline.Wrap(pipeline.ErrValidation, "schema", c.name, fmt.Sprintf("value %q is not an integer", raw), nil)
		}
		value.Number = n
	case KindDecimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, pipeline.Wrap(pipeline.ErrValidation, "schema", c.name, fmt.Sprintf("value %q is not a decimal", raw), nil)
		}
		value.Decimal = f
	case KindBool:
		// Only the two accepted spellings count as true. Anything else,
		// including "1" or "yes", reads as false.
		value.Bool = raw == "true" || raw == "True"
	}
	return value, nil
}
