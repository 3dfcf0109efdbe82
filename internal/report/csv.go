package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// WriteCSV writes a header row followed by one record per row.
func WriteCSV(w io.Writer, window domain.Window, rows []ForecastRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Headers(window)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.VariationID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
