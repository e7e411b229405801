package fakepii

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source errors.
var (
	ErrEmptySource           = errors.New("fake PII source contains no data rows")
	ErrNoSheets              = errors.New("workbook contains no sheets")
	ErrUnsupportedSourceType = errors.New("unsupported fake PII source type (expected csv, tsv or xlsx)")
)

// LoadFile reads fake identity records, dispatching on the file extension.
func LoadFile(path string) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fake PII source: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(content, false)
	case ".tsv":
		return LoadCSV(content, true)
	case ".xlsx", ".xls":
		return LoadXLSX(content)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, path)
}

// LoadCSV parses fakenamegenerator-style records out of CSV or TSV content.
// The first row is the header; records are keyed by the trimmed header names.
func LoadCSV(content []byte, isTSV bool) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(content))

	if isTSV {
		reader.Comma = '\t'
	}

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse fake PII csv: %w", err)
	}

	return rowsToRecords(allRows)
}

// LoadXLSX parses records out of an Excel workbook, skipping well-known
// metadata sheets.
func LoadXLSX(content []byte) ([]Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	skipSheets := map[string]bool{
		"info":     true,
		"metadata": true,
		"about":    true,
		"readme":   true,
		"notes":    true,
	}

	var sheetName string

	for _, sheet := range sheets {
		if !skipSheets[strings.ToLower(sheet)] {
			sheetName = sheet
			break
		}
	}

	// If every sheet looks like metadata, the last one most likely has data.
	if sheetName == "" {
		sheetName = sheets[len(sheets)-1]
	}

	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}

	return rowsToRecords(allRows)
}

// rowsToRecords keys each data row by the header row, padding short rows so
// every record carries every column.
func rowsToRecords(allRows [][]string) ([]Record, error) {
	if len(allRows) < 2 {
		return nil, ErrEmptySource
	}

	headers := allRows[0]
	for i, header := range headers {
		headers[i] = strings.TrimSpace(header)
	}

	records := make([]Record, 0, len(allRows)-1)

	for _, row := range allRows[1:] {
		if len(row) < len(headers) {
			for j := len(row); j < len(headers); j++ {
				row = append(row, "")
			}
		}

		empty := true
		rec := make(Record, len(headers))

		for i, header := range headers {
			if header == "" {
				continue
			}

			value := strings.TrimSpace(row[i])
			rec[header] = value

			if value != "" {
				empty = false
			}
		}

		if !empty {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, ErrEmptySource
	}

	return records, nil
}
