package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportSheet = "Extracted"
)

var ErrUnknownExportFormat = errors.New("unknown export format")

// utf8BOM makes spreadsheet applications detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Export is an encoded file ready to be downloaded.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Exporter renders records as CSV or XLSX with one column per field, in field order.
type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Export encodes records in the given file format. Columns are fields, deduplicated.
func (e *Exporter) Export(format string, fields []string, records []extract.Record) (*Export, error) {
	if err := extract.ValidateFieldNames(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormats, err)
	}
	columns := extract.NewRecord(fields).Keys()

	start := time.Now()
	var (
		out *Export
		err error
	)
	switch strings.ToLower(format) {
	case FormatCSV:
		out, err = exportCSV(columns, records)
	case FormatXLSX:
		out, err = exportXLSX(columns, records)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("Export complete.", "format", format, "rows", len(records), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func exportCSV(columns []string, records []extract.Record) (*Export, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.Get(c)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}

	return &Export{
		Data:        buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		Filename:    "extracted.csv",
	}, nil
}

func exportXLSX(columns []string, records []extract.Record) (*Export, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return fmt.Errorf("xlsx write %s: %w", cell, err)
		}
		return nil
	}
	for i, c := range columns {
		if err := write(i+1, 1, c); err != nil {
			return nil, err
		}
	}
	for r, rec := range records {
		for i, c := range columns {
			if err := write(i+1, r+2, rec.Get(c)); err != nil {
				return nil, err
			}
		}
	}

	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return nil, fmt.Errorf("xlsx column: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "A", last, 20); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return &Export{
		Data:        buf.Bytes(),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    "extracted.xlsx",
	}, nil
}
