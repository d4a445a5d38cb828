// Package ingest converts uploaded files into dataset records.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

// Format of an uploaded file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// DetectFormat looks at the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ContentType returns the MIME type used when archiving the original file.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Parse decodes data according to the extension of filename.
func Parse(filename string, data []byte) ([]dataset.Record, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ParseXLSX(bytes.NewReader(data))
	case FormatJSON:
		return ParseJSON(data)
	default:
		return ParseCSV(bytes.NewReader(data))
	}
}

// ParseJSON accepts an array of objects, or an object holding such an array under "data" or "records".
func ParseJSON(data []byte) ([]dataset.Record, error) {
	var records []dataset.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Data    []dataset.Record `json:"data"`
		Records []dataset.Record `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode json records: %w", err)
	}
	if len(wrapped.Data) > 0 {
		return wrapped.Data, nil
	}
	return wrapped.Records, nil
}

// fromTable turns a header row plus data rows into records.
// Short rows get null cells; blank rows are skipped.
func fromTable(rows [][]string) []dataset.Record {
	if len(rows) == 0 {
		return nil
	}
	headers := headerNames(rows[0])
	out := make([]dataset.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(dataset.Record, 0, len(headers))
		for i, h := range headers {
			cell := dataset.Null()
			if i < len(row) {
				cell = ParseCell(row[i])
			}
			rec = append(rec, dataset.Field{Name: h, Value: cell})
		}
		out = append(out, rec)
	}
	return out
}

func headerNames(row []string) []string {
	seen := make(map[string]int, len(row))
	out := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
		}
		out[i] = h
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseCell types a raw spreadsheet value: empty is null, true/false are booleans,
// plain numbers are numbers, anything else stays a string.
func ParseCell(raw string) dataset.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.Null()
	}
	lower := strings.ToLower(s)
	switch lower {
	case "true":
		return dataset.Bool(true)
	case "false":
		return dataset.Bool(false)
	}
	// ParseFloat also takes "nan", "inf" and hex floats; those stay strings
	if strings.ContainsAny(lower, "nix") {
		return dataset.String(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dataset.Number(f)
	}
	return dataset.String(s)
}
