package output

import (
	"fmt"
	"io"

	"github.com/rpgo/drawdown/internal/domain"
)

// FormatterFor resolves the formatter for a report. Monte Carlo reports
// without a ledger asked for "csv" get the per-run export.
func FormatterFor(report *domain.Report, format string) (Formatter, error) {
	name := NormalizeFormatName(format)
	if name == "csv" && report.MonteCarlo != nil && len(report.Projection) == 0 {
		name = MonteCarloCSVFormatter{}.Name()
	}
	return ResolveFormatter(name)
}

// GenerateReport renders report in the named format and writes it to w.
func GenerateReport(report *domain.Report, format string, w io.Writer) error {
	f, err := FormatterFor(report, format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format %s report: %w", f.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s report: %w", f.Name(), err)
	}
	return nil
}
