package plot

import (
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// dateData is a daily or monthly series. It draws as a line, or as bars
// when there is a single date.
type dateData struct {
	xValues     []time.Time
	yValues     []float64
	nameYAxis   string
	nameGraph   string
	typeRequest string // day, month or year
}

func NewDateData(series []models.DateSum, nameYAxis, nameGraph, typeRequest string) dateData {
	d := dateData{
		xValues:     make([]time.Time, len(series)),
		yValues:     make([]float64, len(series)),
		nameYAxis:   nameYAxis,
		nameGraph:   nameGraph,
		typeRequest: typeRequest,
	}
	for i, s := range series {
		d.xValues[i] = s.Date
		d.yValues[i] = s.Sum
	}
	return d
}

func (d dateData) GetNameGraph() string {
	return d.nameGraph
}
func (d dateData) getNameYAxis() string {
	return d.nameYAxis
}
func (d dateData) getYValues() []float64 {
	return d.yValues
}
func (d dateData) getXValues() []time.Time {
	return d.xValues
}

func (d dateData) layout() string {
	switch d.typeRequest {
	case "year":
		return "2006"
	case "month":
		return "2006-01"
	default:
		return "2006-01-02"
	}
}

func (d dateData) getDates() []string {
	data := make([]string, len(d.xValues))
	for i, t := range d.xValues {
		data[i] = t.Format(d.layout())
	}
	return data
}

func (d dateData) calculateChartDimensions(minBarWidth float64) (width, height int) {
	return chartDimensions(len(d.xValues), minBarWidth)
}

func (d dateData) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.xValues))
	for i, label := range d.getDates() {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Style: chart.Style{FillColor: drawing.ColorBlue.WithAlpha(80)},
			Label: label,
		})
	}
	return bars
}

func (d dateData) generateGrid() []chart.Tick {
	return generateGrid(d.yValues)
}
