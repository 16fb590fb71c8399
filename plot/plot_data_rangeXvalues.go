package plot

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// histogramData labels every bar with its value range.
type histogramData struct {
	xStart, xEnd []float64
	yValues      []float64
	nameYAxis    string
	nameGraph    string
}

func NewHistogramData(bins []models.HistogramData, nameGraph string) histogramData {
	d := histogramData{
		xStart:    make([]float64, len(bins)),
		xEnd:      make([]float64, len(bins)),
		yValues:   make([]float64, len(bins)),
		nameYAxis: "Frequência",
		nameGraph: nameGraph,
	}
	for i, b := range bins {
		d.xStart[i] = b.RangeStart
		d.xEnd[i] = b.RangeEnd
		d.yValues[i] = float64(b.Count)
	}
	return d
}

func (d histogramData) GetNameGraph() string {
	return d.nameGraph
}
func (d histogramData) getNameYAxis() string {
	return d.nameYAxis
}
func (d histogramData) getYValues() []float64 {
	return d.yValues
}

func (d histogramData) calculateChartDimensions(minBarWidth float64) (width, height int) {
	return chartDimensions(len(d.xStart), minBarWidth)
}

func (d histogramData) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.xStart))
	for i := range d.xStart {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: fmt.Sprintf("%.f-%.f", d.xStart[i], d.xEnd[i]),
			Style: chart.Style{
				FillColor: drawing.ColorPurple.WithAlpha(100),
			},
		})
	}
	return bars
}

func (d histogramData) generateGrid() []chart.Tick {
	return generateGrid(d.yValues)
}
