package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/sales_analyzer/domain/models"
)

var salesSchema = models.Schema{
	DateField:     "Data",
	ValueField:    "Valor",
	ProductField:  "Produto",
	CategoryField: "Categoria",
}

func salesTable(rows ...[]string) *models.Table {
	return &models.Table{
		Name: "vendas.csv",
		Columns: []models.Column{
			{Name: "Data", Key: "data", Type: models.TypeDate},
			{Name: "Produto", Key: "produto", Type: models.TypeString},
			{Name: "Categoria", Key: "categoria", Type: models.TypeString},
			{Name: "Valor", Key: "valor", Type: models.TypeFloat},
			{Name: "Quantidade", Key: "quantidade", Type: models.TypeInt},
		},
		Rows: rows,
	}
}

func threeSales() *models.Table {
	return salesTable(
		[]string{"2024-03-01", "Camiseta", "Vestuário", "50.00", "1"},
		[]string{"2024-03-02", "Calça", "Vestuário", "80.00", "2"},
		[]string{"2024-03-05", "Notebook", "Eletrônicos", "3500.00", "1"},
	)
}

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func randomRecords(n int, seed int64) []models.Record {
	rnd := rand.New(rand.NewSource(seed))
	products := []string{"Camiseta", "Calça", "Notebook", "Mouse", "Tênis"}
	categories := []string{"Vestuário", "Eletrônicos", "Calçados"}
	start := day("2023-01-01")
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{
			Row:      i,
			Date:     start.AddDate(0, 0, rnd.Intn(540)),
			Value:    math.Round(rnd.Float64()*100000) / 100,
			Product:  products[rnd.Intn(len(products))],
			Category: categories[rnd.Intn(len(categories))],
		}
	}
	return out
}

func TestRunOverviewThreeSales(t *testing.T) {
	res, err := Run(threeSales(), Request{Schema: salesSchema})
	require.NoError(t, err)

	assert.Equal(t, models.ViewOverview, res.View)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, models.DateRange{From: day("2024-03-01"), To: day("2024-03-05")}, res.Range)
	require.NotNil(t, res.Overview)
	assert.True(t, res.Overview.HasData)
	assert.Equal(t, 3, res.Overview.Transactions)
	assert.True(t, res.Overview.Total.Equal(decimal.RequireFromString("3630.00")), res.Overview.Total.String())
	assert.True(t, res.Overview.AverageTicket.Equal(decimal.RequireFromString("1210.00")), res.Overview.AverageTicket.String())

	assert.Equal(t, []models.ProductSum{
		{Product: "Notebook", Sum: 3500},
		{Product: "Calça", Sum: 80},
		{Product: "Camiseta", Sum: 50},
	}, res.Products)
}

func TestRunTrendsThreeSales(t *testing.T) {
	res, err := Run(threeSales(), Request{Schema: salesSchema, View: models.ViewTrends})
	require.NoError(t, err)

	assert.Equal(t, []models.MonthCategorySum{
		{Month: time.March, MonthName: "March", Category: "Vestuário", Sum: 130},
		{Month: time.March, MonthName: "March", Category: "Eletrônicos", Sum: 3500},
	}, res.Seasonality)
	assert.Equal(t, []string{"Vestuário", "Eletrônicos"}, res.Categories)
	assert.Equal(t, []string{"Vestuário", "Eletrônicos"}, res.SelectedCategories)
	assert.Len(t, res.Series, 3)
	assert.Len(t, res.CategorySeries, 3)
}

func TestRunTrendsEmptySelection(t *testing.T) {
	res, err := Run(threeSales(), Request{Schema: salesSchema, View: models.ViewTrends, Categories: []string{}})
	require.NoError(t, err)
	assert.Empty(t, res.CategorySeries)
	assert.Len(t, res.Seasonality, 2)
}

func TestRunStatistics(t *testing.T) {
	res, err := Run(threeSales(), Request{Schema: salesSchema, View: models.ViewStatistics, Bins: 4})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 3, res.Summary.Count)
	assert.InDelta(t, 1210, res.Summary.Mean, 1e-9)
	assert.Len(t, res.Histogram, 4)
	require.Len(t, res.Columns, 2)
	assert.Equal(t, "Valor", res.Columns[0].Column)
	assert.Equal(t, "Quantidade", res.Columns[1].Column)
	assert.InDelta(t, 4.0/3, res.Columns[1].Describe.Mean, 1e-9)
}

func TestRunExplorationDefaults(t *testing.T) {
	res, err := Run(threeSales(), Request{Schema: salesSchema, View: models.ViewExploration})
	require.NoError(t, err)
	assert.Equal(t, "Data", res.XField)
	assert.Equal(t, "Valor", res.YField)
	require.Len(t, res.Points, 3)
	assert.Equal(t, "2024-03-01", res.Points[0].X)
	assert.Equal(t, 50.0, res.Points[0].Y)
	assert.Equal(t, "Vestuário", res.Points[0].Category)
}

func TestRunUnknownView(t *testing.T) {
	_, err := Run(threeSales(), Request{Schema: salesSchema, View: "forecast"})
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.False(t, IsFatal(err))
}

func TestRunEmptyPeriod(t *testing.T) {
	from, to := day("2025-01-01"), day("2025-02-01")
	res, err := Run(threeSales(), Request{Schema: salesSchema, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	assert.False(t, res.Overview.HasData)
	assert.Empty(t, res.Products)
	assert.Equal(t, models.DateRange{From: day("2024-03-01"), To: day("2024-03-05")}, res.FullRange)
}

func TestRunInvalidRange(t *testing.T) {
	from, to := day("2024-03-05"), day("2024-03-01")
	_, err := Run(threeSales(), Request{Schema: salesSchema, From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.True(t, IsFatal(err))
}

func TestMapErrors(t *testing.T) {
	tests := []struct {
		name   string
		table  *models.Table
		schema models.Schema
		field  string
	}{
		{
			name:   "missing column",
			table:  threeSales(),
			schema: models.Schema{DateField: "Data", ValueField: "Preço", ProductField: "Produto", CategoryField: "Categoria"},
			field:  "value",
		},
		{
			name:   "empty selection",
			table:  threeSales(),
			schema: models.Schema{DateField: "Data", ValueField: "Valor", ProductField: "", CategoryField: "Categoria"},
			field:  "product",
		},
		{
			name:   "category equals date",
			table:  threeSales(),
			schema: models.Schema{DateField: "Data", ValueField: "Valor", ProductField: "Produto", CategoryField: "Data"},
			field:  "category",
		},
		{
			name:   "text value column",
			table:  threeSales(),
			schema: models.Schema{DateField: "Data", ValueField: "Produto", ProductField: "Produto", CategoryField: "Categoria"},
			field:  "value",
		},
		{
			name:   "numeric date column",
			table:  threeSales(),
			schema: models.Schema{DateField: "Quantidade", ValueField: "Valor", ProductField: "Produto", CategoryField: "Categoria"},
			field:  "date",
		},
		{
			name: "value cell not a number",
			table: salesTable(
				[]string{"2024-03-01", "Camiseta", "Vestuário", "50.00", "1"},
				[]string{"2024-03-02", "Calça", "Vestuário", "oitenta", "1"},
			),
			schema: salesSchema,
			field:  "value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(tt.table, tt.schema)
			var me *MappingError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, tt.field, me.Field)
			assert.True(t, IsFatal(err))
		})
	}
}

func TestNormalizeDateError(t *testing.T) {
	c, err := Map(salesTable(
		[]string{"2024-03-01", "Camiseta", "Vestuário", "50.00", "1"},
		[]string{"ontem", "Calça", "Vestuário", "80.00", "1"},
	), salesSchema)
	require.NoError(t, err)

	_, err = Normalize(c)
	var de *DateError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, 1, de.Row)
	assert.Equal(t, "ontem", de.Value)
	assert.Contains(t, err.Error(), "row 2")
	assert.True(t, IsFatal(err))
}

func TestNormalizeKeepsWallClockDateOfOffset(t *testing.T) {
	c, err := Map(salesTable(
		[]string{"2024-03-31T22:00:00-03:00", "Camiseta", "Vestuário", "50.00", "1"},
		[]string{"2024-04-01T00:30:00+02:00", "Calça", "Vestuário", "80.00", "1"},
	), salesSchema)
	require.NoError(t, err)
	records, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-31"), records[0].Date)
	assert.Equal(t, day("2024-04-01"), records[1].Date)

	season := Seasonality(records)
	require.Len(t, season, 2)
	assert.Equal(t, "March", season[0].MonthName)
	assert.Equal(t, 50.0, season[0].Sum)
}

func TestNormalizeDropsTimeOfDay(t *testing.T) {
	c, err := Map(salesTable(
		[]string{"2024-03-01 23:59:00", "Camiseta", "Vestuário", "50.00", "1"},
	), salesSchema)
	require.NoError(t, err)
	records, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-01"), records[0].Date)
}

func TestFilterKeepsOnlyRange(t *testing.T) {
	records := randomRecords(500, 7)
	ranges := []models.DateRange{
		{From: day("2023-01-01"), To: day("2024-12-31")},
		{From: day("2023-03-10"), To: day("2023-03-10")},
		{From: day("2023-06-01"), To: day("2023-08-31")},
		{From: day("2030-01-01"), To: day("2030-01-31")},
	}
	for _, r := range ranges {
		t.Run(r.From.Format(DateLayout)+"_"+r.To.Format(DateLayout), func(t *testing.T) {
			got, err := Filter(records, r)
			require.NoError(t, err)
			want := 0
			for _, rec := range records {
				if !rec.Date.Before(r.From) && !rec.Date.After(r.To) {
					want++
				}
			}
			assert.Len(t, got, want)
			for _, rec := range got {
				assert.True(t, r.Contains(rec.Date))
			}
		})
	}

	_, err := Filter(records, models.DateRange{From: day("2024-01-02"), To: day("2024-01-01")})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestResolveRange(t *testing.T) {
	records := randomRecords(50, 3)
	full, ok := DefaultRange(records)
	require.True(t, ok)

	r, err := ResolveRange(records, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, full, r)

	from := day("2023-05-01")
	r, err = ResolveRange(records, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, from, r.From)
	assert.Equal(t, full.To, r.To)

	r, err = ResolveRange(nil, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DateRange{From: from, To: from}, r)
}

func TestGroupedSumIsAdditiveOverPartitions(t *testing.T) {
	records := randomRecords(1000, 42)
	whole := make(map[string]float64)
	for _, p := range SalesByProduct(records) {
		whole[p.Product] = p.Sum
	}

	cut := day("2023-09-15")
	early, err := Filter(records, models.DateRange{From: day("2000-01-01"), To: cut})
	require.NoError(t, err)
	late, err := Filter(records, models.DateRange{From: cut.AddDate(0, 0, 1), To: day("2100-01-01")})
	require.NoError(t, err)
	assert.Equal(t, len(records), len(early)+len(late))

	parts := make(map[string]float64)
	for _, p := range SalesByProduct(early) {
		parts[p.Product] += p.Sum
	}
	for _, p := range SalesByProduct(late) {
		parts[p.Product] += p.Sum
	}
	require.Len(t, parts, len(whole))
	for product, sum := range whole {
		assert.InDelta(t, sum, parts[product], 1e-6, product)
	}
}

func TestSalesByProductOrder(t *testing.T) {
	records := []models.Record{
		{Product: "B", Value: 10},
		{Product: "A", Value: 30},
		{Product: "C", Value: 10},
		{Product: "B", Value: 20},
	}
	assert.Equal(t, []models.ProductSum{
		{Product: "A", Sum: 30},
		{Product: "B", Sum: 30},
		{Product: "C", Sum: 10},
	}, SalesByProduct(records))
}

func TestAverageTicketEmpty(t *testing.T) {
	_, err := AverageTicket(nil)
	assert.ErrorIs(t, err, ErrEmptyData)
	assert.False(t, IsFatal(err))

	o := ComputeOverview(nil)
	assert.False(t, o.HasData)
	assert.True(t, o.Total.IsZero())
	assert.Equal(t, 0, o.Transactions)
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3), d.Std, 1e-9)
	assert.Equal(t, 1.0, d.Min)
	assert.InDelta(t, 1.75, d.Q25, 1e-9)
	assert.InDelta(t, 2.5, d.Q50, 1e-9)
	assert.InDelta(t, 3.25, d.Q75, 1e-9)
	assert.Equal(t, 4.0, d.Max)

	single := Describe([]float64{7})
	assert.Equal(t, 0.0, single.Std)
	assert.Equal(t, 7.0, single.Q75)

	assert.Equal(t, models.Describe{}, Describe(nil))
}

func TestCalculateQuantile(t *testing.T) {
	tests := []struct {
		sorted []float64
		p      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4, 5}, 0.5, 3},
		{[]float64{1, 2, 3, 4}, 0.5, 2.5},
		{[]float64{10, 20}, 0.25, 12.5},
		{[]float64{}, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.sorted, tt.p), func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateQuantile(tt.sorted, tt.p), 1e-9)
		})
	}
}

func TestHistogram(t *testing.T) {
	numbers := make([]float64, 100)
	for i := range numbers {
		numbers[i] = float64(i) * 1.5
	}
	bins := Histogram(numbers, DefaultBins)
	require.Len(t, bins, DefaultBins)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, 0.0, bins[0].RangeStart)
	assert.Equal(t, 148.5, bins[len(bins)-1].RangeEnd)

	edges := Histogram([]float64{0, 5, 10}, 2)
	require.Len(t, edges, 2)
	assert.Equal(t, 2, edges[0].Count)
	assert.Equal(t, 1, edges[1].Count)

	flat := Histogram([]float64{3, 3, 3}, 10)
	assert.Equal(t, []models.HistogramData{{RangeStart: 3, RangeEnd: 3, Count: 3}}, flat)

	assert.Empty(t, Histogram(nil, 5))
	assert.Len(t, Histogram([]float64{1, 2}, 0), DefaultBins)
}

func TestTimeSeriesChronological(t *testing.T) {
	records := []models.Record{
		{Date: day("2024-03-05"), Value: 1},
		{Date: day("2024-03-01"), Value: 2},
		{Date: day("2024-03-05"), Value: 3},
	}
	assert.Equal(t, []models.DateSum{
		{Date: day("2024-03-01"), Sum: 2},
		{Date: day("2024-03-05"), Sum: 4},
	}, TimeSeries(records))
}

func TestCategoryTimeSeriesOrder(t *testing.T) {
	records := []models.Record{
		{Date: day("2024-03-02"), Category: "B", Value: 1},
		{Date: day("2024-03-01"), Category: "B", Value: 2},
		{Date: day("2024-03-01"), Category: "A", Value: 3},
	}
	assert.Equal(t, []models.CategoryDateSum{
		{Date: day("2024-03-01"), Category: "A", Sum: 3},
		{Date: day("2024-03-01"), Category: "B", Sum: 2},
		{Date: day("2024-03-02"), Category: "B", Sum: 1},
	}, CategoryTimeSeries(records))
}

func TestDefaultCategories(t *testing.T) {
	all := []string{"a", "b", "c", "d"}
	assert.Equal(t, []string{"a", "b", "c"}, DefaultCategories(all, 3))
	assert.Equal(t, []string{"a"}, DefaultCategories(all[:1], 3))
	assert.Equal(t, []string{}, DefaultCategories(all, -1))
}

func TestSeasonalityCalendarOrder(t *testing.T) {
	records := randomRecords(300, 11)
	rand.New(rand.NewSource(5)).Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
	season := Seasonality(records)
	require.NotEmpty(t, season)
	total := 0.0
	for i, s := range season {
		assert.Equal(t, s.Month.String(), s.MonthName)
		if i > 0 {
			assert.LessOrEqual(t, season[i-1].Month, s.Month)
		}
		total += s.Sum
	}
	assert.InDelta(t, Total(records).InexactFloat64(), total, 1e-6)

	assert.Equal(t, "January", MonthNames()[0])
	assert.Equal(t, "December", MonthNames()[11])
}

func TestScatter(t *testing.T) {
	table := threeSales()
	table.Rows[1][4] = ""
	c, err := Map(table, salesSchema)
	require.NoError(t, err)
	records, err := Normalize(c)
	require.NoError(t, err)

	points, err := Scatter(c, records, "Quantidade", "Valor")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 1.0, points[0].X)
	assert.Equal(t, 3500.0, points[1].Y)

	points, err = Scatter(c, records, "Produto", "Valor")
	require.NoError(t, err)
	assert.Equal(t, "Calça", points[1].X)

	_, err = Scatter(c, records, "Produto", "Categoria")
	assert.True(t, IsFatal(err))
	_, err = Scatter(c, records, "Cliente", "Valor")
	assert.True(t, IsFatal(err))
}
