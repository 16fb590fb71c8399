// Package plot renders dashboard aggregates as PNG images with go-chart and as
// an interactive HTML page with go-echarts.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pivolan/sales_analyzer/domain/models"
)

var ErrNoData = errors.New("nothing to draw")

const (
	maxWidth      = 4096
	defaultWidth  = 1280
	defaultHeight = 720
	dateLayout    = "2006-01-02"
)

func calculateGridStep(maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}

	// very small values
	if maxValue < 1e-10 {
		return 1e-10
	}

	// order of magnitude of the maximum
	magnitude := math.Pow(10, math.Floor(math.Log10(maxValue)))

	// normalized into [1, 10)
	normalized := maxValue / magnitude

	var step float64
	switch {
	case normalized <= 1:
		step = 0.2
	case normalized <= 2:
		step = 0.5
	case normalized <= 5:
		step = 1.0
	default:
		step = 2.0
	}
	finalStep := step * magnitude

	// keep large steps on round tens and hundreds
	if finalStep >= 1000 {
		return math.Round(finalStep/100) * 100
	}
	if finalStep >= 100 {
		return math.Round(finalStep/10) * 10
	}
	return finalStep
}

func generateGrid(values []float64) []chart.Tick {
	max := findMaxValue(values)
	gridStep := calculateGridStep(max)
	if gridStep <= 0 {
		return nil
	}
	var ticks []chart.Tick
	for i := 0.0; i <= max+gridStep/2; i += gridStep {
		ticks = append(ticks, chart.Tick{
			Value: i,
			Label: formatValue(i),
		})
	}
	return ticks
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Commaf(v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

func chartDimensions(n int, minBarWidth float64) (width, height int) {
	if n <= 0 || minBarWidth <= 0 {
		return 0, 0
	}
	x := 1.1
	if n < 2 {
		x = 10.0
	} else if n < 10 {
		x = 3.0
	}

	const (
		paddingY     = 100        // room for the y axis and its labels
		spacingRatio = 0.2        // gap between bars relative to bar width
		aspectRatio  = 9.0 / 16.0 // default aspect ratio
	)

	barSpacing := minBarWidth * spacingRatio
	totalWidth := (minBarWidth+barSpacing)*float64(n) + paddingY
	width = int(totalWidth*x) + paddingY
	if width > maxWidth {
		width = maxWidth
	}
	height = int(float64(width) * aspectRatio)
	return width, height
}

// valueRange always starts at zero or below and never has a zero span.
func valueRange(series ...[]float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, values := range series {
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.05}
}

func yAxis(name string, values ...[]float64) chart.YAxis {
	return chart.YAxis{
		Name:  name,
		Range: valueRange(values...),
		Style: chart.Style{
			StrokeWidth: 2,
			StrokeColor: chart.ColorBlack,
			FontSize:    12,
		},
		ValueFormatter: func(v interface{}) string {
			if vf, isFloat := v.(float64); isFloat {
				return formatValue(vf)
			}
			return ""
		},
		GridMajorStyle: chart.Style{
			StrokeColor:     chart.ColorBlack,
			StrokeWidth:     1,
			DotWidth:        1,
			StrokeDashArray: []float64{5.0, 5.0}, // dashed
		},
	}
}

func DrawPlotBar(data dataForGraph) ([]byte, error) {
	barValues := data.generateBarValues()
	if len(barValues) == 0 {
		return nil, ErrNoData
	}
	paddingX := customizePaddingXBottom(barValues)
	width, height := data.calculateChartDimensions(100)

	bar := chart.BarChart{}
	bar.Title = data.GetNameGraph()
	bar.Background = chart.Style{
		StrokeColor: chart.ColorBlack,
		Padding: chart.Box{
			Bottom: paddingX,
			Top:    50,
		},
	}
	bar.Height = height + 50
	bar.Width = width + paddingX + 50
	bar.BarWidth = 60
	if w := (bar.Width - 200) / len(barValues); w < bar.BarWidth {
		bar.BarWidth = int(math.Max(4, float64(w)*0.8))
	}
	bar.Bars = barValues
	y := yAxis(data.getNameYAxis(), data.getYValues())
	y.Ticks = data.generateGrid()
	bar.YAxis = y
	bar.XAxis = chart.Style{
		StrokeWidth:         2, // line width
		StrokeColor:         chart.ColorBlack,
		TextRotationDegrees: 88,
		FontSize:            12,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := bar.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}
	return buffer.Bytes(), nil
}

// dayRange pads a time axis by half a day so a single date still has a span.
func dayRange(dates []time.Time) *chart.ContinuousRange {
	lo, hi := dates[0], dates[0]
	for _, d := range dates {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	return &chart.ContinuousRange{
		Min: chart.TimeToFloat64(lo.Add(-12 * time.Hour)),
		Max: chart.TimeToFloat64(hi.Add(12 * time.Hour)),
	}
}

func timeAxis(name string, dates []time.Time) chart.XAxis {
	return chart.XAxis{
		Name:           name,
		Range:          dayRange(dates),
		ValueFormatter: chart.TimeValueFormatterWithFormat(dateLayout),
		Style:          chart.Style{TextRotationDegrees: 45, FontSize: 10},
	}
}

func renderChart(graph chart.Chart) ([]byte, error) {
	graph.Background = chart.Style{
		Padding:     chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 40},
		FillColor:   drawing.ColorWhite,
		StrokeWidth: 1,
		StrokeColor: drawing.ColorFromHex("efefef"),
	}
	if graph.Width == 0 {
		graph.Width, graph.Height = defaultWidth, defaultHeight
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}
	return buffer.Bytes(), nil
}

// DrawTimeSeries draws total sales per date as a line. A single date is drawn as a bar.
func DrawTimeSeries(data dateData) ([]byte, error) {
	switch len(data.xValues) {
	case 0:
		return nil, ErrNoData
	case 1:
		return DrawPlotBar(data)
	}
	return renderChart(chart.Chart{
		Title: data.GetNameGraph(),
		XAxis: timeAxis("", data.getXValues()),
		YAxis: yAxis(data.getNameYAxis(), data.getYValues()),
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    data.getNameYAxis(),
				XValues: data.getXValues(),
				YValues: data.getYValues(),
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    drawing.ColorBlue,
				},
			},
		},
	})
}

// DrawCategorySeries draws one line per category with a legend.
func DrawCategorySeries(points []models.CategoryDateSum, nameYAxis, nameGraph string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	var order []string
	byCategory := make(map[string]*chart.TimeSeries)
	dates := make([]time.Time, 0, len(points))
	for _, p := range points {
		s, ok := byCategory[p.Category]
		if !ok {
			s = &chart.TimeSeries{
				Name:  p.Category,
				Style: chart.Style{StrokeWidth: 2, DotWidth: 3},
			}
			byCategory[p.Category] = s
			order = append(order, p.Category)
		}
		s.XValues = append(s.XValues, p.Date)
		s.YValues = append(s.YValues, p.Sum)
		dates = append(dates, p.Date)
	}
	sort.Strings(order)

	series := make([]chart.Series, 0, len(order))
	values := make([][]float64, 0, len(order))
	for _, name := range order {
		s := byCategory[name]
		series = append(series, *s)
		values = append(values, s.YValues)
	}

	graph := chart.Chart{
		Title:  nameGraph,
		XAxis:  timeAxis("", dates),
		YAxis:  yAxis(nameYAxis, values...),
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return renderChart(graph)
}

// DrawScatter places one dot per row, one colour per category. Numeric x
// values use a continuous axis, dates a time axis and text an ordinal one.
func DrawScatter(points []models.ScatterPoint, xName, yName string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	kind := scatterKind(points)

	var labels []string
	position := make(map[string]float64)
	if kind == "text" {
		for _, p := range points {
			label := fmt.Sprint(p.X)
			if _, ok := position[label]; !ok {
				position[label] = float64(len(labels))
				labels = append(labels, label)
			}
		}
	}

	var order []string
	xs := make(map[string][]float64)
	ts := make(map[string][]time.Time)
	ys := make(map[string][]float64)
	allX := make([]float64, 0, len(points))
	allT := make([]time.Time, 0, len(points))
	for _, p := range points {
		if _, ok := ys[p.Category]; !ok {
			order = append(order, p.Category)
		}
		ys[p.Category] = append(ys[p.Category], p.Y)
		switch kind {
		case "number":
			xs[p.Category] = append(xs[p.Category], p.X.(float64))
			allX = append(allX, p.X.(float64))
		case "date":
			d, _ := time.Parse(dateLayout, p.X.(string))
			ts[p.Category] = append(ts[p.Category], d)
			allT = append(allT, d)
		default:
			x := position[fmt.Sprint(p.X)]
			xs[p.Category] = append(xs[p.Category], x)
			allX = append(allX, x)
		}
	}

	dot := chart.Style{
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
	}
	series := make([]chart.Series, 0, len(order))
	values := make([][]float64, 0, len(order))
	for _, c := range order {
		values = append(values, ys[c])
		if kind == "date" {
			series = append(series, chart.TimeSeries{Name: c, Style: dot, XValues: ts[c], YValues: ys[c]})
			continue
		}
		series = append(series, chart.ContinuousSeries{Name: c, Style: dot, XValues: xs[c], YValues: ys[c]})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s x %s", yName, xName),
		YAxis:  yAxis(yName, values...),
		Series: series,
	}
	switch kind {
	case "date":
		graph.XAxis = timeAxis(xName, allT)
	case "number":
		lo, hi := allX[0], allX[0]
		for _, x := range allX {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		pad := (hi - lo) * 0.05
		if pad == 0 {
			pad = 1
		}
		graph.XAxis = chart.XAxis{Name: xName, Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}}
	default:
		ticks := make([]chart.Tick, len(labels))
		for i, l := range labels {
			ticks[i] = chart.Tick{Value: float64(i), Label: l}
		}
		graph.XAxis = chart.XAxis{
			Name:  xName,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(labels)) - 0.5},
			Ticks: ticks,
			Style: chart.Style{TextRotationDegrees: 45, FontSize: 10},
		}
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return renderChart(graph)
}

func scatterKind(points []models.ScatterPoint) string {
	numbers, dates := true, true
	for _, p := range points {
		switch x := p.X.(type) {
		case float64:
			dates = false
		case string:
			numbers = false
			if _, err := time.Parse(dateLayout, x); err != nil {
				dates = false
			}
		default:
			numbers, dates = false, false
		}
	}
	switch {
	case numbers:
		return "number"
	case dates:
		return "date"
	}
	return "text"
}

// DrawSeasonality stacks the categories of every calendar month that has sales.
func DrawSeasonality(season []models.MonthCategorySum, nameGraph string) ([]byte, error) {
	if len(season) == 0 {
		return nil, ErrNoData
	}
	rank := make(map[string]int)
	var bars []chart.StackedBar
	for _, s := range season {
		if _, ok := rank[s.Category]; !ok {
			rank[s.Category] = len(rank)
		}
		if s.Sum <= 0 {
			continue
		}
		if len(bars) == 0 || bars[len(bars)-1].Name != s.MonthName {
			bars = append(bars, chart.StackedBar{Name: s.MonthName})
		}
		last := &bars[len(bars)-1]
		last.Values = append(last.Values, chart.Value{
			Value: s.Sum,
			Label: s.Category,
			Style: chart.Style{
				FillColor:   chart.GetDefaultColor(rank[s.Category]),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sbc := chart.StackedBarChart{
		Title:      nameGraph,
		Width:      defaultWidth,
		Height:     defaultHeight,
		BarSpacing: 40,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Bottom: 40},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.Style{FontSize: 11},
		YAxis: chart.Style{FontSize: 11},
		Bars:  bars,
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := sbc.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}
	return buffer.Bytes(), nil
}

func findMaxValue(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	max := y[0]
	for _, v := range y {
		if v > max {
			max = v
		}
	}
	return max
}

func customizePaddingXBottom(values []chart.Value) int {
	count := 0
	for _, v := range values {
		if len(v.Label) > count {
			count = len(v.Label)
		}
	}
	return int(count * 8)
}
