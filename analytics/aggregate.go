// Package analytics turns an uploaded table and a column configuration into
// the small aggregate tables the dashboard views draw.
//
// Every function here is pure: inputs are never modified and the same records
// always produce the same, deterministically ordered, output. Zero records give
// empty aggregates, not errors.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// groupSum accumulates sums per key and remembers first-seen order.
type groupSum[K comparable] struct {
	order []K
	sums  map[K]float64
}

func newGroupSum[K comparable]() *groupSum[K] {
	return &groupSum[K]{sums: make(map[K]float64)}
}

func (g *groupSum[K]) add(key K, v float64) {
	if _, ok := g.sums[key]; !ok {
		g.order = append(g.order, key)
	}
	g.sums[key] += v
}

func values(records []models.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Value
	}
	return out
}

func Total(records []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Value))
	}
	return total
}

// AverageTicket is total / transactions rounded to cents.
func AverageTicket(records []models.Record) (decimal.Decimal, error) {
	if len(records) == 0 {
		return decimal.Zero, ErrEmptyData
	}
	return Total(records).Div(decimal.NewFromInt(int64(len(records)))).Round(2), nil
}

// ComputeOverview never fails: an empty period yields HasData=false.
func ComputeOverview(records []models.Record) models.Overview {
	o := models.Overview{
		Total:        Total(records),
		Transactions: len(records),
	}
	ticket, err := AverageTicket(records)
	if err == nil {
		o.AverageTicket = ticket
		o.HasData = true
	}
	return o
}

// SalesByProduct orders products by descending sum; equal sums keep the order
// in which the products first appear.
func SalesByProduct(records []models.Record) []models.ProductSum {
	g := newGroupSum[string]()
	for _, r := range records {
		g.add(r.Product, r.Value)
	}
	out := make([]models.ProductSum, len(g.order))
	for i, p := range g.order {
		out[i] = models.ProductSum{Product: p, Sum: g.sums[p]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sum > out[j].Sum
	})
	return out
}
