package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// WriteTable renders rows as a fixed width text table sized to the widest cell.
func WriteTable(w io.Writer, window domain.Window, rows []ForecastRow) error {
	headers := Headers(window)
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
		for j, cell := range records[i] {
			if n := utf8.RuneCountInString(cell); n > widths[j] {
				widths[j] = n
			}
		}
	}

	if err := writeLine(w, headers, widths); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	if err := writeLine(w, rule, widths); err != nil {
		return err
	}
	for _, record := range records {
		if err := writeLine(w, record, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, cells []string, widths []int) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	return err
}
