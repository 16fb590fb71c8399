package main

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

// exportViews are the views whose aggregates go into the export archive.
var exportViews = []models.View{models.ViewOverview, models.ViewStatistics, models.ViewTrends}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeCSV(header []string, rows [][]string) string {
	var builder strings.Builder
	writer := csv.NewWriter(&builder)
	_ = writer.Write(header)
	_ = writer.WriteAll(rows)
	return builder.String()
}

// ExportCSVs runs the pipeline for every exported view and returns one CSV per
// aggregate, keyed by file name.
func ExportCSVs(t *models.Table, req analytics.Request) (map[string]string, error) {
	files := make(map[string]string)
	for _, view := range exportViews {
		req.View = view
		res, err := analytics.Run(t, req)
		if err != nil {
			return nil, err
		}
		switch view {
		case models.ViewOverview:
			rows := make([][]string, len(res.Products))
			for i, p := range res.Products {
				rows[i] = []string{p.Product, money(p.Sum)}
			}
			files["produtos.csv"] = writeCSV([]string{"produto", "vendas"}, rows)
		case models.ViewStatistics:
			rows := make([][]string, len(res.Histogram))
			for i, b := range res.Histogram {
				rows[i] = []string{
					strconv.FormatFloat(b.RangeStart, 'f', -1, 64),
					strconv.FormatFloat(b.RangeEnd, 'f', -1, 64),
					strconv.Itoa(b.Count),
				}
			}
			files["histograma.csv"] = writeCSV([]string{"de", "ate", "frequencia"}, rows)
		case models.ViewTrends:
			rows := make([][]string, len(res.Series))
			for i, s := range res.Series {
				rows[i] = []string{s.Date.Format(analytics.DateLayout), money(s.Sum)}
			}
			files["vendas_por_data.csv"] = writeCSV([]string{"data", "vendas"}, rows)

			// every category, not only the selected ones
			records, err := analytics.Records(t, req)
			if err != nil {
				return nil, err
			}
			points := analytics.CategoryTimeSeries(records)
			rows = make([][]string, len(points))
			for i, p := range points {
				rows[i] = []string{p.Date.Format(analytics.DateLayout), p.Category, money(p.Sum)}
			}
			files["categorias_por_data.csv"] = writeCSV([]string{"data", "categoria", "vendas"}, rows)

			rows = make([][]string, len(res.Seasonality))
			for i, s := range res.Seasonality {
				rows[i] = []string{strconv.Itoa(int(s.Month)), s.MonthName, s.Category, money(s.Sum)}
			}
			files["sazonalidade.csv"] = writeCSV([]string{"mes", "nome", "categoria", "vendas"}, rows)
		}
	}
	return files, nil
}

// ZipArchive packs files in name order.
func ZipArchive(files map[string]string) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
