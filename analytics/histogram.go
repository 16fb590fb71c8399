package analytics

import (
	"sort"

	"github.com/pivolan/sales_analyzer/domain/models"
)

const DefaultBins = 20

// Histogram splits [min, max] into equal-width bins. Bins are right-closed
// (lo, hi], the first one also includes min, so max always lands in the last
// bin. When every value is the same a single bin holds them all.
func Histogram(numbers []float64, bins int) []models.HistogramData {
	if bins < 1 {
		bins = DefaultBins
	}
	if len(numbers) == 0 {
		return []models.HistogramData{}
	}

	lo, hi := numbers[0], numbers[0]
	for _, v := range numbers {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []models.HistogramData{{RangeStart: lo, RangeEnd: hi, Count: len(numbers)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramData, bins)
	upper := make([]float64, bins)
	for i := range out {
		out[i].RangeStart = lo + width*float64(i)
		out[i].RangeEnd = lo + width*float64(i+1)
		upper[i] = out[i].RangeEnd
	}
	out[bins-1].RangeEnd = hi
	upper[bins-1] = hi

	for _, v := range numbers {
		idx := sort.SearchFloat64s(upper, v)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
