package plot

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

func initOpts(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	}
}

// BuildPage turns the aggregates of one view into interactive charts.
func BuildPage(res *analytics.Result, currency string) *components.Page {
	page := components.NewPage()
	page.PageTitle = res.View.Title()

	switch res.View {
	case models.ViewOverview:
		if len(res.Products) > 0 {
			page.AddCharts(productsBar(res.Products, currency))
		}
	case models.ViewStatistics:
		if len(res.Histogram) > 0 {
			page.AddCharts(histogramBar(res.Histogram, res.Schema.ValueField))
		}
	case models.ViewExploration:
		if len(res.Points) > 0 {
			page.AddCharts(scatterChart(res.Points, res.XField, res.YField))
		}
	case models.ViewTrends:
		if len(res.Series) > 0 {
			page.AddCharts(seriesLine(res.Series, currency))
		}
		if len(res.CategorySeries) > 0 {
			page.AddCharts(categoryLines(res.CategorySeries, currency))
		}
		if len(res.Seasonality) > 0 {
			page.AddCharts(seasonalityBar(res.Seasonality, currency))
		}
	}
	return page
}

func productsBar(products []models.ProductSum, currency string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(initOpts("Vendas por Produto")...)
	names := make([]string, len(products))
	data := make([]opts.BarData, len(products))
	for i, p := range products {
		names[i] = p.Product
		data[i] = opts.BarData{Value: p.Sum}
	}
	bar.SetXAxis(names).AddSeries(fmt.Sprintf("Vendas (%s)", currency), data)
	return bar
}

func histogramBar(bins []models.HistogramData, field string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(initOpts("Distribuição de " + field)...)
	labels := make([]string, len(bins))
	data := make([]opts.BarData, len(bins))
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%s - %s", formatValue(b.RangeStart), formatValue(b.RangeEnd))
		data[i] = opts.BarData{Value: b.Count}
	}
	bar.SetXAxis(labels).AddSeries("Frequência", data)
	return bar
}

func scatterChart(points []models.ScatterPoint, xField, yField string) *charts.Scatter {
	sc := charts.NewScatter()
	global := initOpts(fmt.Sprintf("%s x %s", yField, xField))
	global[2] = charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"})

	var order []string
	byCategory := make(map[string][]opts.ScatterData)
	for _, p := range points {
		if _, ok := byCategory[p.Category]; !ok {
			order = append(order, p.Category)
		}
		byCategory[p.Category] = append(byCategory[p.Category], opts.ScatterData{
			Name:  p.Product,
			Value: []interface{}{p.X, p.Y},
		})
	}

	if scatterKind(points) == "number" {
		global = append(global, charts.WithXAxisOpts(opts.XAxis{Name: xField, Type: "value"}))
	} else {
		var labels []string
		seen := make(map[string]bool)
		for _, p := range points {
			l := fmt.Sprint(p.X)
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
		global = append(global, charts.WithXAxisOpts(opts.XAxis{Name: xField, Type: "category", Data: labels}))
	}
	global = append(global, charts.WithYAxisOpts(opts.YAxis{Name: yField}))
	sc.SetGlobalOptions(global...)

	for _, c := range order {
		sc.AddSeries(c, byCategory[c])
	}
	return sc
}

func seriesLine(series []models.DateSum, currency string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(initOpts("Vendas ao Longo do Tempo")...)
	dates := make([]string, len(series))
	data := make([]opts.LineData, len(series))
	for i, s := range series {
		dates[i] = s.Date.Format(dateLayout)
		data[i] = opts.LineData{Value: s.Sum}
	}
	line.SetXAxis(dates).AddSeries(fmt.Sprintf("Vendas (%s)", currency), data)
	return line
}

func categoryLines(points []models.CategoryDateSum, currency string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(initOpts(fmt.Sprintf("Vendas por Categoria (%s)", currency))...)

	var dates, order []string
	seenDate := make(map[string]bool)
	sums := make(map[string]map[string]float64)
	for _, p := range points {
		d := p.Date.Format(dateLayout)
		if !seenDate[d] {
			seenDate[d] = true
			dates = append(dates, d)
		}
		if _, ok := sums[p.Category]; !ok {
			sums[p.Category] = make(map[string]float64)
			order = append(order, p.Category)
		}
		sums[p.Category][d] += p.Sum
	}

	line.SetXAxis(dates)
	for _, c := range order {
		data := make([]opts.LineData, len(dates))
		for i, d := range dates {
			if v, ok := sums[c][d]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(c, data)
	}
	return line
}

func seasonalityBar(season []models.MonthCategorySum, currency string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(initOpts(fmt.Sprintf("Sazonalidade Mensal (%s)", currency))...)

	var months, order []string
	seenMonth := make(map[string]bool)
	sums := make(map[string]map[string]float64)
	for _, s := range season {
		if !seenMonth[s.MonthName] {
			seenMonth[s.MonthName] = true
			months = append(months, s.MonthName)
		}
		if _, ok := sums[s.Category]; !ok {
			sums[s.Category] = make(map[string]float64)
			order = append(order, s.Category)
		}
		sums[s.Category][s.MonthName] += s.Sum
	}

	bar.SetXAxis(months)
	for _, c := range order {
		data := make([]opts.BarData, len(months))
		for i, m := range months {
			data[i] = opts.BarData{Value: sums[c][m]}
		}
		bar.AddSeries(c, data, charts.WithBarChartOpts(opts.BarChart{Stack: "month"}))
	}
	return bar
}
