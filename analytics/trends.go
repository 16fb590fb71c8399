package analytics

import (
	"sort"
	"time"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// TimeSeries sums values per distinct date, oldest first. Missing dates are
// not filled.
func TimeSeries(records []models.Record) []models.DateSum {
	g := newGroupSum[int64]()
	for _, r := range records {
		g.add(r.Date.Unix(), r.Value)
	}
	out := make([]models.DateSum, len(g.order))
	for i, key := range g.order {
		out[i] = models.DateSum{Date: time.Unix(key, 0).UTC(), Sum: g.sums[key]}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

type dateCategory struct {
	date     int64
	category string
}

// CategoryTimeSeries sums values per (date, category), ordered by date then
// category name.
func CategoryTimeSeries(records []models.Record) []models.CategoryDateSum {
	g := newGroupSum[dateCategory]()
	for _, r := range records {
		g.add(dateCategory{r.Date.Unix(), r.Category}, r.Value)
	}
	out := make([]models.CategoryDateSum, len(g.order))
	for i, key := range g.order {
		out[i] = models.CategoryDateSum{
			Date:     time.Unix(key.date, 0).UTC(),
			Category: key.category,
			Sum:      g.sums[key],
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Categories lists distinct categories in first-seen order.
func Categories(records []models.Record) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range records {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// DefaultCategories is the initial selection of the category multi-select.
func DefaultCategories(all []string, n int) []string {
	if n > len(all) {
		n = len(all)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	copy(out, all[:n])
	return out
}

// FilterCategories keeps the points of the selected categories. An empty
// selection keeps nothing.
func FilterCategories(points []models.CategoryDateSum, selected []string) []models.CategoryDateSum {
	keep := make(map[string]bool, len(selected))
	for _, c := range selected {
		keep[c] = true
	}
	out := make([]models.CategoryDateSum, 0, len(points))
	for _, p := range points {
		if keep[p.Category] {
			out = append(out, p)
		}
	}
	return out
}

type monthCategory struct {
	month    time.Month
	category string
}

// Seasonality sums values per (calendar month, category). The result is
// ordered January to December by month number, then by the order categories
// first appear.
func Seasonality(records []models.Record) []models.MonthCategorySum {
	g := newGroupSum[monthCategory]()
	rank := make(map[string]int)
	for _, r := range records {
		if _, ok := rank[r.Category]; !ok {
			rank[r.Category] = len(rank)
		}
		g.add(monthCategory{r.Date.Month(), r.Category}, r.Value)
	}
	out := make([]models.MonthCategorySum, len(g.order))
	for i, key := range g.order {
		out[i] = models.MonthCategorySum{
			Month:     key.month,
			MonthName: key.month.String(),
			Category:  key.category,
			Sum:       g.sums[key],
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return rank[out[i].Category] < rank[out[j].Category]
	})
	return out
}

// MonthNames is the calendar ordering of the seasonality axis.
func MonthNames() []string {
	out := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = m.String()
	}
	return out
}
