package analytics

import (
	"fmt"
	"time"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// Request is everything the sidebar can change.
type Request struct {
	Schema models.Schema
	View   models.View
	From   *time.Time
	To     *time.Time

	// exploration
	XField string
	YField string

	// trends; nil selects the first DefaultCategories categories
	Categories        []string
	DefaultCategories int

	Bins int
}

// Result carries the aggregates of one view; the fields of other views stay empty.
type Result struct {
	View      models.View      `json:"view"`
	Schema    models.Schema    `json:"schema"`
	Range     models.DateRange `json:"range"`
	FullRange models.DateRange `json:"full_range"`
	Rows      int              `json:"rows"`

	Overview *models.Overview    `json:"overview,omitempty"`
	Products []models.ProductSum `json:"products,omitempty"`

	Summary   *models.Describe       `json:"summary,omitempty"`
	Columns   []models.ColumnSummary `json:"columns,omitempty"`
	Histogram []models.HistogramData `json:"histogram,omitempty"`

	XField string                `json:"x_field,omitempty"`
	YField string                `json:"y_field,omitempty"`
	Points []models.ScatterPoint `json:"points,omitempty"`

	Series             []models.DateSum          `json:"series,omitempty"`
	Categories         []string                  `json:"categories,omitempty"`
	SelectedCategories []string                  `json:"selected_categories,omitempty"`
	CategorySeries     []models.CategoryDateSum  `json:"category_series,omitempty"`
	Seasonality        []models.MonthCategorySum `json:"seasonality,omitempty"`
}

// Run executes Mapper -> Normalizer -> Filter -> the aggregates of req.View.
// Mapping and date errors are returned as is; check them with IsFatal.
func Run(t *models.Table, req Request) (*Result, error) {
	p, err := prepare(t, req)
	if err != nil {
		return nil, err
	}
	c, rows := p.canonical, p.rows

	view := req.View
	if view == "" {
		view = models.ViewOverview
	}
	res := &Result{
		View:      view,
		Schema:    req.Schema,
		Range:     p.rng,
		FullRange: p.full,
		Rows:      len(rows),
	}

	switch view {
	case models.ViewOverview:
		o := ComputeOverview(rows)
		res.Overview = &o
		res.Products = SalesByProduct(rows)
	case models.ViewStatistics:
		vals := values(rows)
		d := Describe(vals)
		res.Summary = &d
		res.Columns = DescribeColumns(t, rows)
		res.Histogram = Histogram(vals, req.Bins)
	case models.ViewExploration:
		res.XField, res.YField = req.XField, req.YField
		if res.XField == "" {
			res.XField = t.Columns[0].Name
		}
		if res.YField == "" {
			res.YField = req.Schema.ValueField
		}
		res.Points, err = Scatter(c, rows, res.XField, res.YField)
		if err != nil {
			return nil, err
		}
	case models.ViewTrends:
		res.Series = TimeSeries(rows)
		res.Categories = Categories(rows)
		res.SelectedCategories = req.Categories
		if res.SelectedCategories == nil {
			n := req.DefaultCategories
			if n == 0 {
				n = 3
			}
			res.SelectedCategories = DefaultCategories(res.Categories, n)
		}
		res.CategorySeries = FilterCategories(CategoryTimeSeries(rows), res.SelectedCategories)
		res.Seasonality = Seasonality(rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	return res, nil
}

type prepared struct {
	canonical *Canonical
	rows      []models.Record
	rng, full models.DateRange
}

func prepare(t *models.Table, req Request) (*prepared, error) {
	c, err := Map(t, req.Schema)
	if err != nil {
		return nil, err
	}
	all, err := Normalize(c)
	if err != nil {
		return nil, err
	}
	full, _ := DefaultRange(all)
	rng, err := ResolveRange(all, req.From, req.To)
	if err != nil {
		return nil, err
	}
	rows, err := Filter(all, rng)
	if err != nil {
		return nil, err
	}
	return &prepared{canonical: c, rows: rows, rng: rng, full: full}, nil
}

// Records returns the canonical rows of req's date range, without aggregating them.
func Records(t *models.Table, req Request) ([]models.Record, error) {
	p, err := prepare(t, req)
	if err != nil {
		return nil, err
	}
	return p.rows, nil
}
