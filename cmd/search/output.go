package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/maltedev/amazon-search-scraper/internal/models"
)

type resultWriter func(w io.Writer, products []models.ProductRecord) error

func writerFor(format string) (resultWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return writeTable, nil
	case "json":
		return writeJSON, nil
	case "csv":
		return writeCSV, nil
	default:
		return nil, fmt.Errorf("unsupported format %q; supported: table, json, csv", format)
	}
}

func writeJSON(w io.Writer, products []models.ProductRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(products)
}

func writeCSV(w io.Writer, products []models.ProductRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.CSVHeader()); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write(p.CSVRow()); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, products []models.ProductRecord) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Title", "Price", "Rating", "Reviews", "URL"})

	for i, p := range products {
		t.AppendRow(table.Row{i + 1, models.Truncate(p.Title, 60), p.Price, p.Rating, p.ReviewCount, p.ProductURL})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d products", len(products))})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
