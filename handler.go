package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/config"
	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/table"
)

type cliOptions struct {
	file     string
	from, to string
	schema   models.Schema // empty fields are suggested from the table
}

// runReport prints every view of the file to w. Mapping and date errors are returned.
func runReport(w io.Writer, opts cliOptions, cfg *config.Config) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	t, err := table.Load(filepath.Base(opts.file), f)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.file, err)
	}
	return writeReport(w, t, opts, cfg)
}

func writeReport(w io.Writer, t *models.Table, opts cliOptions, cfg *config.Config) error {
	schema, suggestErr := table.SuggestSchema(t)
	if opts.schema.DateField != "" {
		schema.DateField = opts.schema.DateField
	}
	if opts.schema.ValueField != "" {
		schema.ValueField = opts.schema.ValueField
	}
	if opts.schema.ProductField != "" {
		schema.ProductField = opts.schema.ProductField
	}
	if opts.schema.CategoryField != "" {
		schema.CategoryField = opts.schema.CategoryField
	}

	from, err := parseDateParam(opts.from)
	if err != nil {
		return err
	}
	to, err := parseDateParam(opts.to)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d linhas, %d colunas\n%s\n\n", t.Name, len(t.Rows), len(t.Columns), describeSchema(schema))
	for _, view := range models.Views {
		res, err := analytics.Run(t, analytics.Request{
			Schema:            schema,
			View:              view,
			From:              from,
			To:                to,
			Bins:              cfg.HistogramBins,
			DefaultCategories: cfg.DefaultCategories,
		})
		if err != nil {
			var me *analytics.MappingError
			if suggestErr != nil && errors.As(err, &me) {
				return fmt.Errorf("%w (%v)", err, suggestErr)
			}
			return err
		}
		fmt.Fprintln(w, FormatResult(res, cfg.Currency))
		fmt.Fprintln(w)
	}
	return nil
}
