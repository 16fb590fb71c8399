package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		value decimal.Decimal
		want  string
	}{
		{decimal.NewFromInt(3630), "R$ 3,630.00"},
		{decimal.RequireFromString("1210.005"), "R$ 1,210.01"},
		{decimal.Zero, "R$ 0.00"},
		{decimal.RequireFromString("1234567.8"), "R$ 1,234,567.80"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Money(tt.value, "R$"), tt.value.String())
	}
	assert.Equal(t, "US$ 50.00", MoneyFloat(50, "US$"))
}

func TestFormatOverviewWithoutData(t *testing.T) {
	out := FormatOverview(models.Overview{}, "R$")
	assert.Contains(t, out, "sem dados")
	assert.Contains(t, out, "R$ 0.00")
}

func TestFormatResult(t *testing.T) {
	tbl, err := table.Load("vendas.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)
	schema, err := table.SuggestSchema(tbl)
	require.NoError(t, err)

	run := func(view models.View) string {
		res, err := analytics.Run(tbl, analytics.Request{Schema: schema, View: view, Bins: 2})
		require.NoError(t, err)
		return FormatResult(res, "R$")
	}

	out := run(models.ViewOverview)
	assert.Contains(t, out, "Visão Geral | 2024-03-01 a 2024-03-05 | 3 linhas")
	assert.Contains(t, out, "R$ 3,630.00")
	assert.Contains(t, out, "R$ 1,210.00")
	assert.Less(t, strings.Index(out, "Notebook"), strings.Index(out, "Calça"))

	out = run(models.ViewStatistics)
	assert.Contains(t, out, "Estatísticas Descritivas")
	assert.Contains(t, out, "Distribuição de Valor")
	assert.Contains(t, out, "Total")

	out = run(models.ViewExploration)
	assert.Contains(t, out, "Valor x Data")
	assert.Contains(t, out, "Eletrônicos")

	out = run(models.ViewTrends)
	assert.Contains(t, out, "Sazonalidade Mensal")
	assert.Contains(t, out, "2024-03-05")
	assert.Contains(t, out, "Tendência por Categoria")
}

func TestFormatCategorySeries(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := FormatCategorySeries([]models.CategoryDateSum{
		{Date: d, Category: "Eletrônicos", Sum: 3500},
		{Date: d, Category: "Vestuário", Sum: 130},
	}, "R$")
	assert.Contains(t, out, "Tendência por Categoria")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "R$ 3,500.00")
	assert.Less(t, strings.Index(out, "Eletrônicos"), strings.Index(out, "Vestuário"))
}

func TestFormatPointsLimit(t *testing.T) {
	points := make([]models.ScatterPoint, 10)
	for i := range points {
		points[i] = models.ScatterPoint{X: float64(i), Y: float64(i * 10)}
	}
	out := FormatPoints(points, "x", "y", 3)
	assert.Contains(t, out, "... 10 pontos")
	assert.NotContains(t, out, "90")
}
