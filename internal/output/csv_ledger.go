package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/rpgo/drawdown/internal/domain"
)

// LedgerCSVFormatter writes one CSV row per projected year, every ledger column
// included.
type LedgerCSVFormatter struct{}

func (c LedgerCSVFormatter) Name() string { return "csv" }

func (c LedgerCSVFormatter) Format(report *domain.Report) ([]byte, error) {
	rows := report.Projection
	if rows == nil {
		rows = []domain.ProjectionDetail{}
	}
	return marshalCSV(rows)
}

// marshalCSV writes a slice of tagged structs, header first.
func marshalCSV(rows any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(&buf))); err != nil {
		return nil, fmt.Errorf("error writing CSV data: %w", err)
	}
	return buf.Bytes(), nil
}
