package analytics

import (
	"strings"

	"github.com/pivolan/go_utils"

	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

// Canonical is a table with the four roles bound and the value column parsed.
type Canonical struct {
	Schema models.Schema
	Table  *models.Table

	dateIdx, valueIdx, productIdx, categoryIdx int
	values                                     []float64
}

// Map validates s against t once, so later stages can index columns directly.
func Map(t *models.Table, s models.Schema) (*Canonical, error) {
	names := t.ColumnNames()
	fields := []struct{ role, column string }{
		{"date", s.DateField},
		{"value", s.ValueField},
		{"product", s.ProductField},
		{"category", s.CategoryField},
	}
	for _, f := range fields {
		if f.column == "" {
			return nil, &MappingError{Field: f.role, Row: -1, Reason: "no column selected"}
		}
		if !go_utils.InArray(f.column, names) {
			return nil, &MappingError{Field: f.role, Column: f.column, Row: -1, Reason: "column does not exist"}
		}
	}
	if s.CategoryField == s.DateField || s.CategoryField == s.ValueField {
		return nil, &MappingError{Field: "category", Column: s.CategoryField, Row: -1,
			Reason: "must differ from the date and value columns"}
	}

	c := &Canonical{
		Schema:      s,
		Table:       t,
		dateIdx:     t.ColumnIndex(s.DateField),
		valueIdx:    t.ColumnIndex(s.ValueField),
		productIdx:  t.ColumnIndex(s.ProductField),
		categoryIdx: t.ColumnIndex(s.CategoryField),
	}

	if !t.Columns[c.valueIdx].Type.IsNumeric() {
		return nil, &MappingError{Field: "value", Column: s.ValueField, Row: -1, Reason: "column is not numeric"}
	}
	c.values = make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := table.ParseNumber(row[c.valueIdx])
		if err != nil {
			return nil, &MappingError{Field: "value", Column: s.ValueField, Row: i,
				Reason: "value " + quote(row[c.valueIdx]) + " is not a number"}
		}
		c.values[i] = v
	}

	if t.Columns[c.dateIdx].Type.IsNumeric() {
		return nil, &MappingError{Field: "date", Column: s.DateField, Row: -1, Reason: "column holds numbers, not dates"}
	}
	if len(t.Rows) > 0 && !anyDate(t, c.dateIdx) {
		return nil, &MappingError{Field: "date", Column: s.DateField, Row: -1, Reason: "no value can be read as a date"}
	}
	return c, nil
}

// Len is the number of canonical rows.
func (c *Canonical) Len() int {
	return len(c.Table.Rows)
}

func anyDate(t *models.Table, idx int) bool {
	for _, row := range t.Rows {
		if _, _, err := table.ParseDate(row[idx]); err == nil {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return "\"" + strings.TrimSpace(s) + "\""
}
