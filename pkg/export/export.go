package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Table is a rendered roster: a title row plus column-aligned cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Format selects the output encoding of a table.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Render encodes the table in the requested format.
func Render(format Format, table Table) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(table)
	case FormatPDF:
		return renderPDF(table)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("export table has no columns")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("export table has no columns")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	translate := pdf.UnicodeTranslatorFromDescriptor("")

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, translate(table.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := 190.0 / float64(len(table.Columns))
	pdf.SetFont("Arial", "B", 10)
	for _, column := range table.Columns {
		pdf.CellFormat(colWidth, 8, translate(column), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i := 0; i < len(table.Columns); i++ {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(colWidth, 7, translate(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
