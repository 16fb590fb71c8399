package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ColumnType keeps the type names the analyzer used when it imported into ClickHouse.
type ColumnType string

const (
	TypeEmpty    ColumnType = ""
	TypeDateTime ColumnType = "DateTime64"
	TypeDate     ColumnType = "Date"
	TypeInt      ColumnType = "Int64"
	TypeFloat    ColumnType = "Float64"
	TypeString   ColumnType = "String"
)

func (t ColumnType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

func (t ColumnType) IsDate() bool {
	return t == TypeDate || t == TypeDateTime
}

type Column struct {
	Name string     // display name, unique within the table
	Key  string     // ascii slug of Name
	Type ColumnType //Date DateTime64 Int64 Float64 String
}

// Table is an uploaded sheet. Rows hold the cell text and are padded to len(Columns).
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns -1 when the column does not exist.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

type HeaderAnalysis struct {
	Headers        []string // final column names
	Keys           []string
	FirstRowIsData bool     // the first row holds data, not titles
	FirstDataRow   []string // first row as read
}

// Schema binds the four logical roles to column names of a Table.
type Schema struct {
	DateField     string `json:"date_field"`
	ValueField    string `json:"value_field"`
	ProductField  string `json:"product_field"`
	CategoryField string `json:"category_field"`
}

// Record is one canonical row; Row points back into Table.Rows.
type Record struct {
	Row      int
	Date     time.Time
	Value    float64
	Product  string
	Category string
}

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

type View string

const (
	ViewOverview    View = "overview"
	ViewStatistics  View = "statistics"
	ViewExploration View = "exploration"
	ViewTrends      View = "trends"
)

var Views = []View{ViewOverview, ViewStatistics, ViewExploration, ViewTrends}

func (v View) Title() string {
	switch v {
	case ViewOverview:
		return "Visão Geral"
	case ViewStatistics:
		return "Estatísticas"
	case ViewExploration:
		return "Visualização"
	case ViewTrends:
		return "Tendências"
	}
	return string(v)
}

type Overview struct {
	Total         decimal.Decimal `json:"total"`
	Transactions  int             `json:"transactions"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	HasData       bool            `json:"has_data"`
}

type ProductSum struct {
	Product string  `json:"product"`
	Sum     float64 `json:"sum"`
}

type Describe struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

type ColumnSummary struct {
	Column   string   `json:"column"`
	Describe Describe `json:"describe"`
}

type HistogramData struct {
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Count      int     `json:"count"`
}

type DateSum struct {
	Date time.Time `json:"date"`
	Sum  float64   `json:"sum"`
}

type CategoryDateSum struct {
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Sum      float64   `json:"sum"`
}

type MonthCategorySum struct {
	Month     time.Month `json:"month"`
	MonthName string     `json:"month_name"`
	Category  string     `json:"category"`
	Sum       float64    `json:"sum"`
}

// ScatterPoint.X is a float64 for numeric columns and the cell text otherwise.
type ScatterPoint struct {
	X        interface{} `json:"x"`
	Y        float64     `json:"y"`
	Category string      `json:"category"`
	Product  string      `json:"product"`
}
