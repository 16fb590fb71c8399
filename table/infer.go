package table

import (
	"strings"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// inferLimit caps how many rows are inspected per column.
const inferLimit = 50000

var typesWeight = map[models.ColumnType]int{
	models.TypeEmpty:    0,
	models.TypeDate:     1,
	models.TypeDateTime: 2,
	models.TypeInt:      1,
	models.TypeFloat:    2,
	models.TypeString:   3,
}

// ClassifyValue returns the narrowest type the cell fits in.
func ClassifyValue(value string) models.ColumnType {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.TypeEmpty
	}
	if parseInt(value) {
		return models.TypeInt
	}
	if _, err := ParseNumber(value); err == nil {
		return models.TypeFloat
	}
	if _, hasTime, err := ParseDate(value); err == nil {
		if hasTime {
			return models.TypeDateTime
		}
		return models.TypeDate
	}
	return models.TypeString
}

// widen merges an observed type into the type saved so far.
func widen(saved, current models.ColumnType) models.ColumnType {
	switch {
	case current == models.TypeEmpty:
		return saved
	case saved == models.TypeEmpty:
		return current
	case saved == models.TypeString || current == models.TypeString:
		return models.TypeString
	case saved.IsNumeric() != current.IsNumeric():
		// dates mixed with numbers
		return models.TypeString
	case typesWeight[current] > typesWeight[saved]:
		return current
	}
	return saved
}

// InferTypes sets Column.Type for every column of t.
func InferTypes(t *models.Table) {
	types := make([]models.ColumnType, len(t.Columns))
	for n, row := range t.Rows {
		if n >= inferLimit {
			break
		}
		for i := range types {
			if i < len(row) {
				types[i] = widen(types[i], ClassifyValue(row[i]))
			}
		}
	}
	for i := range t.Columns {
		t.Columns[i].Type = types[i]
	}
}
