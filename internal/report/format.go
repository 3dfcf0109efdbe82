package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// ContentType is the MIME type used when the rendered report is uploaded.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (f Format) Extension() string {
	if f == FormatTable {
		return ".txt"
	}
	return "." + string(f)
}

// Write renders rows in format f.
func Write(w io.Writer, f Format, window domain.Window, rows []ForecastRow) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, window, rows)
	case FormatXLSX:
		return WriteXLSX(w, window, rows)
	default:
		return WriteTable(w, window, rows)
	}
}

// Render is Write into a byte slice.
func Render(f Format, window domain.Window, rows []ForecastRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, window, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
