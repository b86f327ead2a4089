package corpus

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/namo507/stancer/internal/model"
)

// WriteAnnotationCSV writes records out for manual stance coding. The
// stance column is left blank for the coder; an optional suggestion column
// carries machine-suggested labels, clearly separated from the hand-coded
// stance. Records without an identifier get a generated one so later joins
// stay stable.
func WriteAnnotationCSV(path string, records []model.Record, suggestions map[string]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create annotation file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close annotation file: %w", closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	header := []string{"id", "text", "stance"}
	if suggestions != nil {
		header = append(header, "suggested_stance")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		row := []string{id, rec.Text, ""}
		if suggestions != nil {
			// A record without an identifier cannot be matched to a
			// suggestion; its cell stays empty
			suggested := ""
			if rec.ID != "" {
				suggested = suggestions[rec.ID]
			}
			row = append(row, suggested)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", id, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush annotation file: %w", err)
	}
	return nil
}
