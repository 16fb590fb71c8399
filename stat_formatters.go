package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

// Money formats v as "R$ 3,630.00".
func Money(v decimal.Decimal, currency string) string {
	return currency + " " + humanize.FormatFloat("#,###.##", v.Round(2).InexactFloat64())
}

func MoneyFloat(v float64, currency string) string {
	return Money(decimal.NewFromFloat(v), currency)
}

func formatNumber(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

func FormatOverview(o models.Overview, currency string) string {
	t := newTable(models.ViewOverview.Title())
	t.AppendHeader(table.Row{"Total de Vendas", "Transações", "Ticket Médio"})
	ticket := "sem dados"
	if o.HasData {
		ticket = Money(o.AverageTicket, currency)
	}
	t.AppendRow(table.Row{Money(o.Total, currency), humanize.Comma(int64(o.Transactions)), ticket})
	return t.Render()
}

func FormatProducts(products []models.ProductSum, currency string) string {
	t := newTable("Vendas por Produto")
	t.AppendHeader(table.Row{"#", "Produto", "Vendas"})
	for i, p := range products {
		t.AppendRow(table.Row{i + 1, p.Product, MoneyFloat(p.Sum, currency)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return t.Render()
}

func FormatDescribe(columns []models.ColumnSummary) string {
	t := newTable("Estatísticas Descritivas")
	t.AppendHeader(table.Row{"Coluna", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, c := range columns {
		d := c.Describe
		t.AppendRow(table.Row{
			c.Column,
			d.Count,
			formatNumber(d.Mean),
			formatNumber(d.Std),
			formatNumber(d.Min),
			formatNumber(d.Q25),
			formatNumber(d.Q50),
			formatNumber(d.Q75),
			formatNumber(d.Max),
		})
	}
	return t.Render()
}

func FormatHistogram(bins []models.HistogramData, field string) string {
	t := newTable("Distribuição de " + field)
	t.AppendHeader(table.Row{"De", "Até", "Frequência"})
	total := 0
	for _, b := range bins {
		t.AppendRow(table.Row{formatNumber(b.RangeStart), formatNumber(b.RangeEnd), b.Count})
		total += b.Count
	}
	t.AppendFooter(table.Row{"", "Total", total})
	return t.Render()
}

func FormatPoints(points []models.ScatterPoint, xField, yField string, limit int) string {
	t := newTable(fmt.Sprintf("%s x %s", yField, xField))
	t.AppendHeader(table.Row{xField, yField, "Categoria", "Produto"})
	for i, p := range points {
		if limit > 0 && i == limit {
			t.AppendFooter(table.Row{fmt.Sprintf("... %d pontos", len(points)), "", "", ""})
			break
		}
		x := p.X
		if f, ok := x.(float64); ok {
			x = formatNumber(f)
		}
		t.AppendRow(table.Row{x, formatNumber(p.Y), p.Category, p.Product})
	}
	return t.Render()
}

func FormatSeries(series []models.DateSum, currency string) string {
	t := newTable("Vendas ao Longo do Tempo")
	t.AppendHeader(table.Row{"Data", "Vendas"})
	for _, s := range series {
		t.AppendRow(table.Row{s.Date.Format(analytics.DateLayout), MoneyFloat(s.Sum, currency)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return t.Render()
}

// FormatCategorySeries lists the sales of the selected categories per date.
func FormatCategorySeries(points []models.CategoryDateSum, currency string) string {
	t := newTable("Tendência por Categoria")
	t.AppendHeader(table.Row{"Data", "Categoria", "Vendas"})
	for _, p := range points {
		t.AppendRow(table.Row{p.Date.Format(analytics.DateLayout), p.Category, MoneyFloat(p.Sum, currency)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, Align: text.AlignRight},
	})
	return t.Render()
}

func FormatSeasonality(season []models.MonthCategorySum, currency string) string {
	t := newTable("Sazonalidade Mensal")
	t.AppendHeader(table.Row{"Mês", "Categoria", "Vendas"})
	for _, s := range season {
		t.AppendRow(table.Row{s.MonthName, s.Category, MoneyFloat(s.Sum, currency)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, Align: text.AlignRight},
	})
	return t.Render()
}

// FormatResult renders every table of the view held in res.
func FormatResult(res *analytics.Result, currency string) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s | %s a %s | %d linhas",
		res.View.Title(),
		res.Range.From.Format(analytics.DateLayout),
		res.Range.To.Format(analytics.DateLayout),
		res.Rows))

	switch res.View {
	case models.ViewOverview:
		if res.Overview != nil {
			parts = append(parts, FormatOverview(*res.Overview, currency))
		}
		if len(res.Products) > 0 {
			parts = append(parts, FormatProducts(res.Products, currency))
		}
	case models.ViewStatistics:
		parts = append(parts, FormatDescribe(res.Columns))
		if len(res.Histogram) > 0 {
			parts = append(parts, FormatHistogram(res.Histogram, res.Schema.ValueField))
		}
	case models.ViewExploration:
		parts = append(parts, FormatPoints(res.Points, res.XField, res.YField, 50))
	case models.ViewTrends:
		parts = append(parts, FormatSeries(res.Series, currency))
		parts = append(parts, FormatCategorySeries(res.CategorySeries, currency))
		parts = append(parts, FormatSeasonality(res.Seasonality, currency))
	}
	return strings.Join(parts, "\n\n")
}
