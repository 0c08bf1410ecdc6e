package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/rpgo/drawdown/internal/domain"
)

// HTMLFormatter produces a standalone HTML page with the ledger table.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"curr": FormatCurrency,
	"pct":  FormatPercentage,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		*domain.Report
		Analysis LedgerAnalysis
	}{
		Report:   report,
		Analysis: AnalyzeProjection(report.Projection),
	}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
