// Package corpus reads labeled record files and writes annotation exports.
// The input is a delimited file with identifier, raw text, and stance
// columns, loaded wholesale into memory.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/namo507/stancer/internal/model"
)

// LoadCSV reads records from a CSV file according to the data configuration.
// With a header, columns are located by name; without one, the column order
// is fixed as identifier, text, stance. A missing stance cell produces an
// unlabeled record; missing text is treated as an empty string.
func LoadCSV(path string, cfg model.DataConfig) (*model.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	idCol, textCol, stanceCol := 0, 1, 2
	row := 0
	if cfg.HasHeader {
		header, err := reader.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("dataset is empty")
		}
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		row++
		idCol, textCol, stanceCol, err = locateColumns(header, cfg)
		if err != nil {
			return nil, err
		}
	}

	ds := &model.Dataset{}
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", row+1, err)
		}
		row++

		rec := model.Record{
			ID:     cell(record, idCol),
			Text:   cell(record, textCol),
			Stance: strings.ToLower(cell(record, stanceCol)),
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("line %d: record has no identifier", row)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("line %d: duplicate record identifier %q", row, rec.ID)
		}
		seen[rec.ID] = true
		ds.Records = append(ds.Records, rec)
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return ds, nil
}

// locateColumns resolves configured column names against the header
func locateColumns(header []string, cfg model.DataConfig) (int, int, int, error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in header %v", name, header)
	}

	idCol, err := find(cfg.IDColumn)
	if err != nil {
		return 0, 0, 0, err
	}
	textCol, err := find(cfg.TextColumn)
	if err != nil {
		return 0, 0, 0, err
	}
	// The stance column may be absent entirely for unlabeled exports
	stanceCol, err := find(cfg.StanceColumn)
	if err != nil {
		stanceCol = -1
	}
	return idCol, textCol, stanceCol, nil
}

// cell returns the trimmed value at index, or "" when the row is short or
// the column is absent
func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
