package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"tempo/internal/metrics"
	"tempo/internal/series"
	"tempo/internal/summary"
)

//go:embed templates/report.html.tmpl
var reportTemplateSrc string

var reportTemplate = template.Must(template.New("report").Parse(reportTemplateSrc))

type reportRow struct {
	Label string
	Value string
}

type reportData struct {
	Title       string
	Rows        []reportRow
	TotalsChart template.HTML
	DeltaChart  template.HTML
}

// WriteReports writes one HTML report per item under <outdir>/reports,
// combining the item's summary row with inline totals and delta charts.
func (w *Writer) WriteReports(metricsResult *metrics.Result, summaryResult *summary.Result) ([]string, error) {
	if len(metricsResult.Points) == 0 {
		return nil, nil
	}

	dir := filepath.Join(w.outDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure reports directory: %w", err)
	}

	summaries := make(map[series.Key]series.Summary, len(summaryResult.Summaries))
	for _, s := range summaryResult.Summaries {
		summaries[s.Key()] = s
	}

	var written []string
	for _, group := range groupPoints(metricsResult.Points) {
		key := series.Key{Source: group.source, ItemID: group.itemID}
		s, ok := summaries[key]
		if !ok {
			continue
		}

		data := reportData{
			Title:       fmt.Sprintf("%s (%s)", group.displayName(), group.source),
			Rows:        w.summaryRows(s),
			TotalsChart: template.HTML(renderLineChart(group.displayName()+" totals", w.totalsSeries(group))),
			DeltaChart:  template.HTML(renderLineChart(group.displayName()+" deltas", w.deltaSeries(group))),
		}

		path := filepath.Join(dir, fileToken(group.source)+"_"+fileToken(group.itemID)+"_report.html")
		file, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create report: %w", err)
		}
		if err := reportTemplate.Execute(file, data); err != nil {
			file.Close()
			return written, fmt.Errorf("render report %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return written, fmt.Errorf("close report %s: %w", path, err)
		}
		written = append(written, path)
	}

	w.logger.Debug("reports written", slog.Int("files", len(written)))
	return written, nil
}

// summaryRows pairs the CSV header with the item's CSV row so the report
// table always matches the CSV output column for column.
func (w *Writer) summaryRows(s series.Summary) []reportRow {
	header := w.csvHeader()
	values := w.csvRow(s)
	rows := make([]reportRow, len(header))
	for i := range header {
		rows[i] = reportRow{Label: header[i], Value: values[i]}
	}
	return rows
}
