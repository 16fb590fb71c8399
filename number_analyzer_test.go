package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNumbers(t *testing.T) {
	tests := []struct {
		text string
		want []float64
	}{
		{"1 2 3", []float64{1, 2, 3}},
		{"1,2\n3", []float64{1, 2, 3}},
		{"-4.5 .5 10", []float64{-4.5, 0.5, 10}},
		{"sem números", []float64{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractNumbers(tt.text), tt.text)
	}
}

func TestAnalyzeNumbers(t *testing.T) {
	assert.Nil(t, AnalyzeNumbers(nil))

	stats := AnalyzeNumbers([]float64{1, 2, 3, 4, 100})
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 22.0, stats.Mean)
	assert.Equal(t, 3.0, stats.Q50)
	assert.Equal(t, 2.0, stats.Quantiles[0.25])
	assert.Equal(t, 4.0, stats.Quantiles[0.75])
	assert.Equal(t, 2.0, stats.IQR)
	assert.Equal(t, []float64{100}, stats.Outliers)
}

func TestFormatStats(t *testing.T) {
	assert.Equal(t, "❌ Nenhum número encontrado na mensagem", FormatStats(nil))

	out := FormatStats(AnalyzeNumbers([]float64{1, 2, 3, 4, 100}))
	assert.Contains(t, out, "Quantidade: 5")
	assert.Contains(t, out, "Mediana: 3.00")
	assert.Contains(t, out, "Outliers: [100.00]")
}
