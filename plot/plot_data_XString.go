package plot

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pivolan/sales_analyzer/domain/models"
)

// productData is one bar per product, in the order of the aggregate.
type productData struct {
	xValues   []string
	yValues   []float64
	nameYAxis string
	nameGraph string
}

func NewProductData(products []models.ProductSum, nameYAxis, nameGraph string) productData {
	d := productData{
		xValues:   make([]string, len(products)),
		yValues:   make([]float64, len(products)),
		nameYAxis: nameYAxis,
		nameGraph: nameGraph,
	}
	for i, p := range products {
		d.xValues[i] = p.Product
		d.yValues[i] = p.Sum
	}
	return d
}

func (d productData) GetNameGraph() string {
	return d.nameGraph
}
func (d productData) getNameYAxis() string {
	return d.nameYAxis
}
func (d productData) getYValues() []float64 {
	return d.yValues
}

func (d productData) calculateChartDimensions(minBarWidth float64) (width, height int) {
	return chartDimensions(len(d.xValues), minBarWidth)
}

func (d productData) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.xValues))
	for i, label := range d.xValues {
		if label == "" {
			label = "(vazio)"
		}
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: label,
			Style: chart.Style{
				FillColor: drawing.ColorPurple.WithAlpha(100),
			},
		})
	}
	return bars
}

func (d productData) generateGrid() []chart.Tick {
	return generateGrid(d.yValues)
}
