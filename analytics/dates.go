package analytics

import (
	"time"

	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

const DateLayout = "2006-01-02"

// Truncate drops the time of day and the zone.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize coerces the date column to calendar dates. The first cell that is
// not a date fails the whole pass with a *DateError.
func Normalize(c *Canonical) ([]models.Record, error) {
	records := make([]models.Record, len(c.Table.Rows))
	for i, row := range c.Table.Rows {
		d, _, err := table.ParseDate(row[c.dateIdx])
		if err != nil {
			return nil, &DateError{Column: c.Schema.DateField, Row: i, Value: row[c.dateIdx], Err: err}
		}
		records[i] = models.Record{
			Row:      i,
			Date:     Truncate(d),
			Value:    c.values[i],
			Product:  row[c.productIdx],
			Category: row[c.categoryIdx],
		}
	}
	return records, nil
}

// DefaultRange spans the min and max date of records. ok is false when there are none.
func DefaultRange(records []models.Record) (r models.DateRange, ok bool) {
	for i, rec := range records {
		if i == 0 || rec.Date.Before(r.From) {
			r.From = rec.Date
		}
		if i == 0 || rec.Date.After(r.To) {
			r.To = rec.Date
		}
	}
	return r, len(records) > 0
}

// ResolveRange fills unset bounds with the min/max of the full table, computed
// before any filtering.
func ResolveRange(full []models.Record, from, to *time.Time) (models.DateRange, error) {
	r, ok := DefaultRange(full)
	if from != nil {
		r.From = Truncate(*from)
	}
	if to != nil {
		r.To = Truncate(*to)
	}
	if !ok {
		switch {
		case from != nil && to == nil:
			r.To = r.From
		case to != nil && from == nil:
			r.From = r.To
		}
	}
	if r.From.After(r.To) {
		return r, ErrInvalidRange
	}
	return r, nil
}

// Filter keeps records with From <= date <= To.
func Filter(records []models.Record, r models.DateRange) ([]models.Record, error) {
	if r.From.After(r.To) {
		return nil, ErrInvalidRange
	}
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}
