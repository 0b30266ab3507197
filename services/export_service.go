// services/export_service.go
package services

import (
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/mayhem092/SkiingAnalyzer/models"
)

// WriteResultsCSV encodes search result rows as CSV, header included. The
// column set and order follow the csv tags on models.ResultRow. An empty
// result still produces the header line.
func WriteResultsCSV(w io.Writer, rows []models.ResultRow) error {
	if rows == nil {
		rows = []models.ResultRow{}
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode result rows as CSV: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write CSV output: %w", err)
	}
	return nil
}
