// number_analyzer.go
package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

type NumberStats struct {
	models.Describe
	Quantiles map[float64]float64
	IQR       float64   // interquartile range
	Outliers  []float64 // outside 1.5 IQR
}

var numberRe = regexp.MustCompile(`-?\d*\.?\d+`)

var quantileList = []float64{0.01, 0.025, 0.1, 0.25, 0.75, 0.9, 0.975, 0.99}

// ExtractNumbers pulls every number out of a message; commas and newlines separate them.
func ExtractNumbers(text string) []float64 {
	text = strings.ReplaceAll(text, ",", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	matches := numberRe.FindAllString(text, -1)
	numbers := make([]float64, 0, len(matches))
	for _, match := range matches {
		if num, err := strconv.ParseFloat(match, 64); err == nil {
			numbers = append(numbers, num)
		}
	}
	return numbers
}

func findOutliers(numbers []float64, q1 float64, q3 float64, iqr float64) []float64 {
	outliers := make([]float64, 0)
	lowerBound := q1 - 1.5*iqr
	upperBound := q3 + 1.5*iqr

	for _, num := range numbers {
		if num < lowerBound || num > upperBound {
			outliers = append(outliers, num)
		}
	}
	return outliers
}

// AnalyzeNumbers returns nil for an empty input.
func AnalyzeNumbers(numbers []float64) *NumberStats {
	if len(numbers) == 0 {
		return nil
	}

	quantiles := make(map[float64]float64, len(quantileList))
	for i, q := range analytics.Quantiles(numbers, quantileList...) {
		quantiles[quantileList[i]] = roundToTwo(q)
	}
	iqr := quantiles[0.75] - quantiles[0.25]

	return &NumberStats{
		Describe:  analytics.Describe(numbers),
		Quantiles: quantiles,
		IQR:       roundToTwo(iqr),
		Outliers:  findOutliers(numbers, quantiles[0.25], quantiles[0.75], iqr),
	}
}

// FormatStats renders the statistics of a message for the chat.
func FormatStats(stats *NumberStats) string {
	if stats == nil {
		return "❌ Nenhum número encontrado na mensagem"
	}

	outlierStr := ""
	if len(stats.Outliers) > 0 {
		outlierStr = fmt.Sprintf("\nOutliers: %.2f", stats.Outliers)
	}

	return fmt.Sprintf(`📊 Estatísticas dos números:

Quantidade: %d
Média: %.2f
Desvio padrão: %.2f
Mediana: %.2f
Mínimo: %.2f
Máximo: %.2f

Quantis extremos:
1%%: %.2f
2.5%%: %.2f
97.5%%: %.2f
99%%: %.2f

Quantis principais:
10%%: %.2f
25%% (Q1): %.2f
75%% (Q3): %.2f
90%%: %.2f

Intervalo interquartil (IQR): %.2f%s`,
		stats.Count,
		stats.Mean,
		stats.Std,
		stats.Q50,
		stats.Min,
		stats.Max,
		stats.Quantiles[0.01],
		stats.Quantiles[0.025],
		stats.Quantiles[0.975],
		stats.Quantiles[0.99],
		stats.Quantiles[0.1],
		stats.Quantiles[0.25],
		stats.Quantiles[0.75],
		stats.Quantiles[0.9],
		stats.IQR,
		outlierStr)
}

func roundToTwo(num float64) float64 {
	return math.Round(num*100) / 100
}
