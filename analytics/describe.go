package analytics

import (
	"math"
	"sort"

	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

// calculateQuantile interpolates the p quantile of sorted values.
func calculateQuantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	pos := p * float64(len(sorted)-1)
	floor := math.Floor(pos)
	ceil := math.Ceil(pos)
	if floor == ceil {
		return sorted[int(pos)]
	}

	lower := sorted[int(floor)]
	upper := sorted[int(ceil)]
	return lower + (pos-floor)*(upper-lower)
}

// Describe computes count, mean, sample standard deviation (n-1), min, the
// linearly interpolated quartiles and max. Std is 0 below two values; an empty
// input returns the zero Describe.
func Describe(numbers []float64) models.Describe {
	if len(numbers) == 0 {
		return models.Describe{}
	}

	sorted := make([]float64, len(numbers))
	copy(sorted, numbers)
	sort.Float64s(sorted)

	sum := 0.0
	for _, num := range numbers {
		sum += num
	}
	mean := sum / float64(len(numbers))

	std := 0.0
	if len(numbers) > 1 {
		sq := 0.0
		for _, num := range numbers {
			d := num - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(len(numbers)-1))
	}

	return models.Describe{
		Count: len(numbers),
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		Q25:   calculateQuantile(sorted, 0.25),
		Q50:   calculateQuantile(sorted, 0.5),
		Q75:   calculateQuantile(sorted, 0.75),
		Max:   sorted[len(sorted)-1],
	}
}

// DescribeColumns describes every numeric column of t over the given records.
// Cells that are empty or not numbers are skipped.
func DescribeColumns(t *models.Table, records []models.Record) []models.ColumnSummary {
	out := make([]models.ColumnSummary, 0)
	for idx, col := range t.Columns {
		if !col.Type.IsNumeric() {
			continue
		}
		nums := make([]float64, 0, len(records))
		for _, r := range records {
			if v, err := table.ParseNumber(t.Rows[r.Row][idx]); err == nil {
				nums = append(nums, v)
			}
		}
		out = append(out, models.ColumnSummary{Column: col.Name, Describe: Describe(nums)})
	}
	return out
}

// Quantiles returns the interpolated quantile of numbers for every p in ps.
func Quantiles(numbers []float64, ps ...float64) []float64 {
	sorted := make([]float64, len(numbers))
	copy(sorted, numbers)
	sort.Float64s(sorted)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = calculateQuantile(sorted, p)
	}
	return out
}
