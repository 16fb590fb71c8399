package analytics

import (
	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

// Scatter projects records onto (x, y) for exploration. y must be a numeric
// column; rows whose x or y cell cannot be read are left out.
func Scatter(c *Canonical, records []models.Record, xField, yField string) ([]models.ScatterPoint, error) {
	t := c.Table
	xIdx := t.ColumnIndex(xField)
	if xIdx < 0 {
		return nil, &MappingError{Field: "x", Column: xField, Row: -1, Reason: "column does not exist"}
	}
	yIdx := t.ColumnIndex(yField)
	if yIdx < 0 {
		return nil, &MappingError{Field: "y", Column: yField, Row: -1, Reason: "column does not exist"}
	}
	if !t.Columns[yIdx].Type.IsNumeric() {
		return nil, &MappingError{Field: "y", Column: yField, Row: -1, Reason: "column is not numeric"}
	}
	xNumeric := t.Columns[xIdx].Type.IsNumeric()

	out := make([]models.ScatterPoint, 0, len(records))
	for _, r := range records {
		row := t.Rows[r.Row]
		y, err := table.ParseNumber(row[yIdx])
		if err != nil {
			continue
		}
		var x interface{}
		switch {
		case xIdx == c.dateIdx:
			x = r.Date.Format(DateLayout)
		case xNumeric:
			v, err := table.ParseNumber(row[xIdx])
			if err != nil {
				continue
			}
			x = v
		default:
			x = row[xIdx]
		}
		out = append(out, models.ScatterPoint{X: x, Y: y, Category: r.Category, Product: r.Product})
	}
	return out, nil
}
