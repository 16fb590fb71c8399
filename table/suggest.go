package table

import (
	"errors"

	"github.com/pivolan/sales_analyzer/domain/models"
)

var (
	ErrNoDateColumn    = errors.New("no column looks like a date")
	ErrNoNumericColumn = errors.New("no numeric column found")
)

// SuggestSchema binds roles for a fresh upload: first date column, first numeric
// column, first text column as product and the next text column as category.
func SuggestSchema(t *models.Table) (models.Schema, error) {
	var s models.Schema
	var texts []string
	for _, c := range t.Columns {
		switch {
		case c.Type.IsDate() && s.DateField == "":
			s.DateField = c.Name
		case c.Type.IsNumeric() && s.ValueField == "":
			s.ValueField = c.Name
		case c.Type == models.TypeString:
			texts = append(texts, c.Name)
		}
	}
	if s.DateField == "" {
		return s, ErrNoDateColumn
	}
	if s.ValueField == "" {
		return s, ErrNoNumericColumn
	}

	if len(texts) > 0 {
		s.ProductField = texts[0]
	}
	if len(texts) > 1 {
		s.CategoryField = texts[1]
	}
	for _, c := range t.Columns {
		if c.Name == s.DateField || c.Name == s.ValueField {
			continue
		}
		if s.ProductField == "" {
			s.ProductField = c.Name
		}
		if s.CategoryField == "" {
			s.CategoryField = c.Name
		}
	}
	if s.ProductField == "" {
		s.ProductField = s.DateField
	}
	if s.CategoryField == "" {
		return s, errors.New("a category column distinct from the date and value columns is required")
	}
	return s, nil
}

// CategoryChoices lists the columns offered for the category role once date and
// value are chosen.
func CategoryChoices(t *models.Table, dateField, valueField string) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Name != dateField && c.Name != valueField {
			out = append(out, c.Name)
		}
	}
	return out
}

// NumericColumns lists the columns allowed for the value role and the scatter y axis.
func NumericColumns(t *models.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Type.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}
